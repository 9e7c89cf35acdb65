package backend

import (
	"context"

	"shop/internal/sheets"
)

// Result contains the journal writer the worker exports to.
type Result struct {
	Writer sheets.JournalWriter
}

// Factory creates journal export backends based on configuration.
type Factory interface {
	CreateWriter(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type BackendType

	// Google Sheets specific
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

// BackendType names where journal entries are exported.
type BackendType string

const (
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
