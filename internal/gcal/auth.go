// Package gcal exports milestone tasks to Google Calendar as all-day events.
package gcal

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// ErrNoToken is returned when the token file does not exist yet.
var ErrNoToken = errors.New("no calendar token, run `ganttline calendar auth` first")

// LoadConfig reads an OAuth client secrets file downloaded from the Google Cloud console.
func LoadConfig(credentialsFile string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", credentialsFile, err)
	}

	cfg, err := google.ConfigFromJSON(b, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}

	return cfg, nil
}

// Authorize runs the copy-paste authorization code flow: the consent URL is
// written to out and the code is read from in.
func Authorize(ctx context.Context, cfg *oauth2.Config, in io.Reader, out io.Writer) (*oauth2.Token, error) {
	authURL := cfg.AuthCodeURL("ganttline", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	if _, err := fmt.Fprintf(out, "Open the following URL in your browser and paste the authorization code:\n%s\n> ", authURL); err != nil {
		return nil, err
	}

	code, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read authorization code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errors.New("authorization code is empty")
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from Google: %w", err)
	}

	return tok, nil
}

// TokenFromFile reads an oauth2.Token from a JSON file.
func TokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoToken
		}
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token from file %s: %w", path, err)
	}

	return tok, nil
}

// SaveToken writes the token with owner-only permissions.
func SaveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("unable to cache OAuth token to %s: %w", path, err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(tok)
}

// NewService builds an authenticated Calendar service from the secrets and token files.
// The oauth2 client refreshes expired access tokens on its own.
func NewService(ctx context.Context, credentialsFile, tokenFile string) (*calendar.Service, error) {
	cfg, err := LoadConfig(credentialsFile)
	if err != nil {
		return nil, err
	}

	tok, err := TokenFromFile(tokenFile)
	if err != nil {
		return nil, err
	}

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Google Calendar service: %w", err)
	}

	return srv, nil
}
