// Package httputil contains shared HTTP utilities for consistent response formatting across handlers.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/nadmax/ganttline/internal/logging"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON encodes v before sending any header, so a value that cannot be
// encoded becomes a 500 instead of an empty response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger := logging.Component("httputil")
		logger.Error().Err(err).Int("status", status).Msg("failed to encode response")
		status = http.StatusInternalServerError
		data = []byte(`{"error":"Failed to encode response"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(append(data, '\n')); err != nil {
		logger := logging.Component("httputil")
		logger.Debug().Err(err).Msg("failed to write response")
	}
}

func WriteJSONError(w http.ResponseWriter, message string, status int) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// WriteJSONErrorDetails adds structured details, e.g. per-field validation errors.
func WriteJSONErrorDetails(w http.ResponseWriter, message string, details any, status int) {
	WriteJSON(w, status, ErrorResponse{Error: message, Details: details})
}
