package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"shop/internal/amqp"
	"shop/internal/core"
	"shop/internal/metrics"
	"shop/internal/sheets"
)

// JournalStore is the part of storage the worker needs.
type JournalStore interface {
	GetJournalEntry(ctx context.Context, id int64) (core.JournalEntry, error)
	PendingJournal(ctx context.Context, limit int) ([]core.JournalEntry, error)
	MarkJournalSynced(ctx context.Context, id int64) error
}

// JournalWorker exports purchase journal entries to a spreadsheet.
// Exports are serialized so the event consumer and the periodic resync
// never append the same entry twice.
type JournalWorker struct {
	store     JournalStore
	writer    sheets.JournalWriter
	batchSize int

	mu sync.Mutex
}

func NewJournalWorker(store JournalStore, writer sheets.JournalWriter, batchSize int) *JournalWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &JournalWorker{store: store, writer: writer, batchSize: batchSize}
}

// HandleJournalEvent exports the entry an AMQP event refers to. An entry
// that is already synced is acknowledged without a second append. An entry
// that does not exist is dropped: redelivery cannot make it appear.
func (w *JournalWorker) HandleJournalEvent(ctx context.Context, msg *amqp.JournalEvent) error {
	slog.InfoContext(ctx, "Processing journal event",
		"component", "worker",
		"event_id", msg.EventID,
		"entry_id", msg.EntryID,
		"kind", msg.Kind)

	w.mu.Lock()
	defer w.mu.Unlock()

	entry, err := w.store.GetJournalEntry(ctx, msg.EntryID)
	if errors.Is(err, sql.ErrNoRows) {
		slog.WarnContext(ctx, "Dropping event for unknown journal entry",
			"component", "worker",
			"event_id", msg.EventID,
			"entry_id", msg.EntryID)
		metrics.JournalEntriesSynced.WithLabelValues("dropped").Inc()
		return nil
	}
	if err != nil {
		return fmt.Errorf("get journal entry from storage: %w", err)
	}
	if entry.SyncedAt != nil {
		slog.DebugContext(ctx, "Journal entry already synced", "component", "worker", "entry_id", entry.ID)
		return nil
	}
	return w.export(ctx, entry)
}

// ProcessPending exports one batch of entries not yet synced. It is the
// fallback for lost or unpublished events.
func (w *JournalWorker) ProcessPending(ctx context.Context) (int, error) {
	return w.processPending(ctx, w.batchSize)
}

// StartupSyncCheck drains a larger batch when the worker starts, to catch
// up on entries journaled while it was down.
func (w *JournalWorker) StartupSyncCheck(ctx context.Context) error {
	synced, err := w.processPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	slog.InfoContext(ctx, "Startup sync completed", "component", "worker", "synced", synced)
	return nil
}

func (w *JournalWorker) processPending(ctx context.Context, limit int) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	pending, err := w.store.PendingJournal(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("get pending journal: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Processing pending journal entries", "component", "worker", "count", len(pending))

	synced := 0
	for _, entry := range pending {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if err := w.export(ctx, entry); err != nil {
			slog.ErrorContext(ctx, "Failed to export journal entry", "component", "worker", "entry_id", entry.ID, "error", err)
			continue
		}
		synced++
	}
	return synced, nil
}

func (w *JournalWorker) export(ctx context.Context, entry core.JournalEntry) error {
	ref, err := w.writer.AppendJournal(ctx, entry)
	if err != nil {
		metrics.JournalEntriesSynced.WithLabelValues("error").Inc()
		return fmt.Errorf("append to sheets: %w", err)
	}
	metrics.JournalEntriesSynced.WithLabelValues("ok").Inc()

	// The row exists now; a failed mark only risks a duplicate row later.
	if err := w.store.MarkJournalSynced(ctx, entry.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "component", "worker", "entry_id", entry.ID, "error", err)
	}

	slog.InfoContext(ctx, "Successfully synced journal entry",
		"component", "worker",
		"entry_id", entry.ID,
		"kind", entry.Kind,
		"sheets_ref", ref)
	return nil
}
