// Package sheets mirrors classification results into the Google Sheets
// workbook operators review. The mirror is write-mostly and best-effort:
// failures are logged and never block the classify/dispatch result.
package sheets

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// NewService creates an authenticated Sheets API service from service-account
// credentials JSON.
func NewService(ctx context.Context, credentialsJSON []byte) (*sheets.Service, error) {
	if len(credentialsJSON) == 0 {
		return nil, fmt.Errorf("sheets: credentials required")
	}

	cfg, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("sheets: parse credentials: %w", err)
	}

	service, err := sheets.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}

	return service, nil
}
