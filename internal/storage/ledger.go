package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
)

const (
	getBalanceSQL = `SELECT money FROM bank ORDER BY id LIMIT 1`

	ensureBalanceSQL = `INSERT INTO bank (money)
SELECT ?
WHERE NOT EXISTS (SELECT 1 FROM bank)`

	debitSQL = `UPDATE bank SET money = money - ?
WHERE id = (SELECT id FROM bank ORDER BY id LIMIT 1)`

	setBalanceSQL = `UPDATE bank SET money = ?
WHERE id = (SELECT id FROM bank ORDER BY id LIMIT 1)`
)

type queryer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

func balance(ctx context.Context, q queryer) (float64, error) {
	var money float64
	err := q.GetContext(ctx, &money, getBalanceSQL)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return money, nil
}

// GetBalance returns the current funds, or 0 when the ledger row is missing.
func (r *SQLiteRepository) GetBalance(ctx context.Context) (float64, error) {
	money, err := balance(ctx, r.db)
	if err != nil {
		return 0, unavailable("get balance", err)
	}
	return money, nil
}

// EnsureBalance creates the ledger row with amount unless one exists.
func (r *SQLiteRepository) EnsureBalance(ctx context.Context, amount float64) error {
	res, err := r.db.ExecContext(ctx, ensureBalanceSQL, amount)
	if err != nil {
		return unavailable("ensure balance", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		slog.InfoContext(ctx, "Ledger initialized", "component", "storage", "money", amount)
	}
	return nil
}

// Debit subtracts amount without checking sufficiency and returns the new balance.
func (r *SQLiteRepository) Debit(ctx context.Context, amount float64) (float64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, unavailable("begin debit", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, debitSQL, amount); err != nil {
		return 0, unavailable("debit", err)
	}
	money, err := balance(ctx, tx)
	if err != nil {
		return 0, unavailable("read balance after debit", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, unavailable("commit debit", err)
	}
	return money, nil
}

// DebitIfSufficient reads the balance and, when it covers amount, writes
// balance-amount in the same transaction. It returns the resulting balance
// and whether the debit happened.
func (r *SQLiteRepository) DebitIfSufficient(ctx context.Context, amount float64) (float64, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, false, unavailable("begin purchase", err)
	}
	defer tx.Rollback()

	current, err := balance(ctx, tx)
	if err != nil {
		return 0, false, unavailable("read balance", err)
	}
	if current < amount {
		return current, false, nil
	}

	next := current - amount
	if _, err := tx.ExecContext(ctx, setBalanceSQL, next); err != nil {
		return 0, false, unavailable("write balance", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, false, unavailable("commit purchase", err)
	}
	return next, true, nil
}

// ResetBalance overwrites the balance with amount.
func (r *SQLiteRepository) ResetBalance(ctx context.Context, amount float64) error {
	if _, err := r.db.ExecContext(ctx, setBalanceSQL, amount); err != nil {
		return unavailable("reset balance", err)
	}
	return nil
}
