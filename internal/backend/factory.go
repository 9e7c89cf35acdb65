package backend

import (
	"context"
	"fmt"
	"log/slog"

	gsheet "shop/internal/sheets/google"
	"shop/internal/sheets/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger

	// newSheets is replaced in tests.
	newSheets func(ctx context.Context, spreadsheetID, sheetName string) (*gsheet.Client, error)
}

func NewFactory(logger *slog.Logger) *DefaultFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger:    logger,
		newSheets: gsheet.NewFromEnv,
	}
}

// CreateWriter implements Factory.CreateWriter
func (f *DefaultFactory) CreateWriter(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	default:
		return f.createMemoryBackend()
	}
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*Result, error) {
	client, err := f.newSheets(ctx, config.GoogleSpreadsheetID, config.GoogleSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	if err := client.EnsureHeader(ctx); err != nil {
		// Rows still append below whatever the sheet already holds.
		f.logger.WarnContext(ctx, "Failed to write journal sheet header", "component", "sheets", "error", err)
	}

	f.logger.InfoContext(ctx, "Initialized Google Sheets backend",
		"spreadsheet_id", config.GoogleSpreadsheetID, "sheet", config.GoogleSheetName)
	return &Result{Writer: client}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*Result, error) {
	store := memory.New()
	f.logger.Info("Initialized memory backend, journal entries are not persisted outside SQLite")
	return &Result{Writer: store}, nil
}
