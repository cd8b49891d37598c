package gcal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
)

const credentialsJSON = `{
  "installed": {
    "client_id": "client-id.apps.googleusercontent.com",
    "client_secret": "secret",
    "redirect_uris": ["urn:ietf:wg:oauth:2.0:oob"],
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token"
  }
}`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(credentialsJSON), 0o600))

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "client-id.apps.googleusercontent.com", cfg.ClientID)
	assert.Equal(t, []string{calendar.CalendarEventsScope}, cfg.Scopes)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"nope":true}`), 0o600))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")

	_, err := TokenFromFile(path)
	assert.ErrorIs(t, err, ErrNoToken)

	tok := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, SaveToken(path, tok))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := TokenFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "refresh", loaded.RefreshToken)
	assert.True(t, tok.Expiry.Equal(loaded.Expiry))
}

func TestAuthorize(t *testing.T) {
	var gotCode string
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotCode = r.PostForm.Get("code")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"abc","token_type":"Bearer","refresh_token":"r1","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	cfg := &oauth2.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		Scopes:       []string{calendar.CalendarEventsScope},
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.example.com/auth",
			TokenURL: tokenServer.URL,
		},
	}
	var out strings.Builder

	tok, err := Authorize(context.Background(), cfg, strings.NewReader("  code-123\n"), &out)

	require.NoError(t, err)
	assert.Equal(t, "code-123", gotCode)
	assert.Equal(t, "abc", tok.AccessToken)
	assert.Equal(t, "r1", tok.RefreshToken)
	assert.Contains(t, out.String(), "https://accounts.example.com/auth?")
	assert.Contains(t, out.String(), "access_type=offline")
}

func TestAuthorize_EmptyCode(t *testing.T) {
	cfg := &oauth2.Config{Endpoint: oauth2.Endpoint{AuthURL: "https://accounts.example.com/auth"}}

	_, err := Authorize(context.Background(), cfg, strings.NewReader("\n"), &strings.Builder{})

	assert.Error(t, err)
}

func TestNewService_RequiresToken(t *testing.T) {
	dir := t.TempDir()
	creds := filepath.Join(dir, "credentials.json")
	require.NoError(t, os.WriteFile(creds, []byte(credentialsJSON), 0o600))

	_, err := NewService(context.Background(), creds, filepath.Join(dir, "token.json"))

	assert.ErrorIs(t, err, ErrNoToken)
}
