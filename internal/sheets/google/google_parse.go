package google

import (
	"time"

	"shop/internal/core"
)

// journalHeader names the columns written by journalRow.
var journalHeader = []any{"ID", "Time", "Kind", "Product", "Weight", "Price", "Balance"}

// journalRow lays an entry out as a sheet row. Reset entries leave the
// product columns blank.
func journalRow(e core.JournalEntry) []any {
	row := []any{e.ID, e.CreatedAt.UTC().Format(time.RFC3339), string(e.Kind)}
	if e.Kind == core.JournalPurchase {
		row = append(row, e.ProductName, e.Weight, e.Price)
	} else {
		row = append(row, "", "", "")
	}
	return append(row, e.BalanceAfter)
}
