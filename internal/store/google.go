package store

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Scopes requested for the service account.
var Scopes = []string{
	sheets.SpreadsheetsScope,
	drive.DriveScope,
}

// Google holds the authenticated Sheets and Drive services.
type Google struct {
	Sheets *sheets.Service
	Drive  *drive.Service
}

// LoadServiceAccount returns the service account key, preferring inline JSON over a file path.
func LoadServiceAccount(inlineJSON, path string) ([]byte, error) {
	if inlineJSON != "" {
		return []byte(inlineJSON), nil
	}
	if path == "" {
		return nil, fmt.Errorf("no service account key configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account key: %w", err)
	}
	return data, nil
}

// NewGoogle builds Sheets and Drive clients from a service account key.
// Extra options are appended after the credentials, which lets tests point the
// clients at a fake endpoint.
func NewGoogle(ctx context.Context, key []byte, opts ...option.ClientOption) (*Google, error) {
	creds, err := google.CredentialsFromJSON(ctx, key, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}
	return newGoogle(ctx, append([]option.ClientOption{option.WithCredentials(creds)}, opts...)...)
}

func newGoogle(ctx context.Context, opts ...option.ClientOption) (*Google, error) {
	sheetsSvc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &Google{Sheets: sheetsSvc, Drive: driveSvc}, nil
}
