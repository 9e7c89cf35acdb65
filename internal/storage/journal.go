package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shop/internal/core"
)

type journalRow struct {
	ID           int64         `db:"id"`
	Kind         string        `db:"kind"`
	ProductName  string        `db:"product_name"`
	Weight       float64       `db:"weight"`
	Price        float64       `db:"price"`
	BalanceAfter float64       `db:"balance_after"`
	CreatedAt    int64         `db:"created_at"`
	SyncedAt     sql.NullInt64 `db:"synced_at"`
}

func (j journalRow) toCore() core.JournalEntry {
	e := core.JournalEntry{
		ID:           j.ID,
		Kind:         core.JournalKind(j.Kind),
		ProductName:  j.ProductName,
		Weight:       j.Weight,
		Price:        j.Price,
		BalanceAfter: j.BalanceAfter,
		CreatedAt:    time.UnixMilli(j.CreatedAt).UTC(),
	}
	if j.SyncedAt.Valid {
		t := time.UnixMilli(j.SyncedAt.Int64).UTC()
		e.SyncedAt = &t
	}
	return e
}

const (
	journalColumns = `id, kind, product_name, weight, price, balance_after, created_at, synced_at`

	insertJournalSQL = `INSERT INTO purchase_journal (kind, product_name, weight, price, balance_after, created_at)
VALUES (?, ?, ?, ?, ?, ?)`

	getJournalSQL = `SELECT ` + journalColumns + ` FROM purchase_journal WHERE id = ?`

	recentJournalSQL = `SELECT ` + journalColumns + ` FROM purchase_journal
ORDER BY id DESC
LIMIT ?`

	pendingJournalSQL = `SELECT ` + journalColumns + ` FROM purchase_journal
WHERE synced_at IS NULL
ORDER BY id
LIMIT ?`

	markJournalSyncedSQL = `UPDATE purchase_journal SET synced_at = ? WHERE id = ?`
)

// RecordJournal appends e and returns its id. CreatedAt defaults to now.
func (r *SQLiteRepository) RecordJournal(ctx context.Context, e core.JournalEntry) (int64, error) {
	if !e.Kind.Valid() {
		return 0, fmt.Errorf("unsupported journal kind: %q", e.Kind)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	res, err := r.db.ExecContext(ctx, insertJournalSQL,
		string(e.Kind), e.ProductName, e.Weight, e.Price, e.BalanceAfter, e.CreatedAt.UnixMilli())
	if err != nil {
		return 0, unavailable("record journal", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, unavailable("journal id", err)
	}

	slog.DebugContext(ctx, "Journal entry recorded", "component", "storage", "id", id, "kind", e.Kind)
	return id, nil
}

// GetJournalEntry returns the entry with id, or sql.ErrNoRows wrapped when absent.
func (r *SQLiteRepository) GetJournalEntry(ctx context.Context, id int64) (core.JournalEntry, error) {
	var row journalRow
	err := r.db.GetContext(ctx, &row, getJournalSQL, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.JournalEntry{}, fmt.Errorf("journal entry %d: %w", id, err)
	}
	if err != nil {
		return core.JournalEntry{}, unavailable("get journal entry", err)
	}
	return row.toCore(), nil
}

// RecentJournal returns up to limit entries, newest first.
func (r *SQLiteRepository) RecentJournal(ctx context.Context, limit int) ([]core.JournalEntry, error) {
	return r.selectJournal(ctx, "recent journal", recentJournalSQL, limit)
}

// PendingJournal returns up to limit entries not yet exported, oldest first.
func (r *SQLiteRepository) PendingJournal(ctx context.Context, limit int) ([]core.JournalEntry, error) {
	return r.selectJournal(ctx, "pending journal", pendingJournalSQL, limit)
}

func (r *SQLiteRepository) selectJournal(ctx context.Context, op, query string, limit int) ([]core.JournalEntry, error) {
	var rows []journalRow
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, unavailable(op, err)
	}
	entries := make([]core.JournalEntry, len(rows))
	for i, row := range rows {
		entries[i] = row.toCore()
	}
	return entries, nil
}

// MarkJournalSynced stamps the entry as exported.
func (r *SQLiteRepository) MarkJournalSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, markJournalSyncedSQL, time.Now().UnixMilli(), id); err != nil {
		return unavailable("mark journal synced", err)
	}
	slog.InfoContext(ctx, "Journal entry marked as synced", "component", "storage", "id", id)
	return nil
}
