package memory

import (
	"context"
	"fmt"
	"sync"

	"shop/internal/core"
	ports "shop/internal/sheets"
)

// Store is an in-process JournalWriter used when no spreadsheet is configured.
type Store struct {
	mu    sync.Mutex
	items []core.JournalEntry
}

var _ ports.JournalWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendJournal stores the entry and returns a synthetic row reference.
func (s *Store) AppendJournal(_ context.Context, e core.JournalEntry) (string, error) {
	if !e.Kind.Valid() {
		return "", fmt.Errorf("unsupported journal kind: %q", e.Kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Entries returns a copy of everything appended so far.
func (s *Store) Entries() []core.JournalEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.JournalEntry(nil), s.items...)
}
