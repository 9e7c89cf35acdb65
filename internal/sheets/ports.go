package sheets

import (
	"context"

	"shop/internal/core"
)

// Ports for outbound adapters.
type (
	// JournalWriter exports one purchase journal entry and returns a
	// reference to where it landed.
	JournalWriter interface {
		AppendJournal(ctx context.Context, e core.JournalEntry) (rowRef string, err error)
	}
)
