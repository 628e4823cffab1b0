// Package workspace files documents in Google Drive and schedules the
// follow-ups in Google Calendar and Google Tasks.
package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/tasks/v1"
)

// NewHTTPClient runs the installed-app OAuth flow and returns an HTTP client
// carrying user credentials for Drive, Calendar and Tasks. The token is
// cached at tokenFile; delete it after changing scopes.
func NewHTTPClient(ctx context.Context, credentialsFile, tokenFile string) (*http.Client, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading OAuth client secrets: %w", err)
	}

	config, err := google.ConfigFromJSON(b, drive.DriveFileScope, calendar.CalendarScope, tasks.TasksScope)
	if err != nil {
		return nil, fmt.Errorf("parsing OAuth client secrets: %w", err)
	}

	token, err := tokenFromFile(tokenFile)
	if err != nil {
		token, err = tokenFromPrompt(ctx, config)
		if err != nil {
			return nil, err
		}
		if err := saveToken(tokenFile, token); err != nil {
			return nil, err
		}
	}

	return config.Client(ctx, token), nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("decoding cached token: %w", err)
	}
	return token, nil
}

// tokenFromPrompt walks the user through the browser consent flow on stdout.
func tokenFromPrompt(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Open the following link in your browser, then paste the authorization code:\n%v\n> ", authURL)

	var code string
	if _, err := fmt.Scan(&code); err != nil {
		return nil, fmt.Errorf("reading authorization code: %w", err)
	}

	token, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return token, nil
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("caching OAuth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
