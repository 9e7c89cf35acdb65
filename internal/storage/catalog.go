package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"shop/internal/core"
)

type productRow struct {
	ID         int64   `db:"id"`
	Name       string  `db:"name"`
	PricePerKg float64 `db:"price_kg"`
	Weight     float64 `db:"weight"`
	Category   string  `db:"category"`
}

func (p productRow) toCore() core.Product {
	return core.Product{
		ID:         p.ID,
		Name:       p.Name,
		PricePerKg: p.PricePerKg,
		Weight:     p.Weight,
		Category:   p.Category,
	}
}

const (
	listProductsSQL = `SELECT id, name, price_kg, weight, category FROM product
WHERE (? = ? OR category = ?)
ORDER BY id`

	findProductByNameSQL = `SELECT id, name, price_kg, weight, category FROM product
WHERE name = ?
ORDER BY id
LIMIT 1`

	seedProductSQL = `INSERT INTO product (name, price_kg, weight, category)
SELECT ?, ?, ?, ?
WHERE NOT EXISTS (SELECT 1 FROM product WHERE name = ?)`
)

// ListProducts returns products matching f in id order.
//
// The search filter runs in Go: SQLite's lower() only folds ASCII, which
// would make Cyrillic names case-sensitive.
func (r *SQLiteRepository) ListProducts(ctx context.Context, f core.Filter) ([]core.Product, error) {
	f = core.NormalizeFilter(f)

	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, listProductsSQL, f.Category, core.AllCategories, f.Category); err != nil {
		return nil, unavailable("list products", err)
	}

	products := make([]core.Product, 0, len(rows))
	for _, row := range rows {
		p := row.toCore()
		if f.Matches(p) {
			products = append(products, p)
		}
	}
	return products, nil
}

// FindProductByName looks a product up by its exact, case-sensitive name.
func (r *SQLiteRepository) FindProductByName(ctx context.Context, name string) (core.Product, error) {
	var row productRow
	err := r.db.GetContext(ctx, &row, findProductByNameSQL, name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Product{}, core.ErrProductNotFound
	}
	if err != nil {
		return core.Product{}, unavailable("find product by name", err)
	}
	return row.toCore(), nil
}

// SeedProducts inserts every product whose name is not yet present and
// returns how many rows were added. Calling it again is a no-op.
func (r *SQLiteRepository) SeedProducts(ctx context.Context, products []core.Product) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, unavailable("begin seed", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, p := range products {
		if err := p.Validate(); err != nil {
			return 0, err
		}
		res, err := tx.ExecContext(ctx, seedProductSQL, p.Name, p.PricePerKg, p.Weight, p.Category, p.Name)
		if err != nil {
			return 0, unavailable("seed product", err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, unavailable("commit seed", err)
	}

	slog.InfoContext(ctx, "Catalog seeded", "component", "storage", "inserted", inserted, "total", len(products))
	return inserted, nil
}
