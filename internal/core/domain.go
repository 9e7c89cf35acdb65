package core

import (
	"errors"
	"strings"
	"time"
)

// AllCategories is the filter value that disables category filtering.
const AllCategories = "везде"

// DefaultBalance is the amount the ledger is created with and reset to.
const DefaultBalance = 1000.00

type (
	Product struct {
		ID         int64
		Name       string
		PricePerKg float64
		Weight     float64 // Nominal weight, informational only
		Category   string
	}

	// Filter selects products for a catalog listing.
	Filter struct {
		Category string
		Search   string
	}

	JournalKind string

	// JournalEntry records a ledger mutation for later export.
	JournalEntry struct {
		ID           int64
		Kind         JournalKind
		ProductName  string
		Weight       float64
		Price        float64
		BalanceAfter float64
		CreatedAt    time.Time
		SyncedAt     *time.Time
	}
)

const (
	JournalPurchase JournalKind = "purchase"
	JournalReset    JournalKind = "reset"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrInvalidWeight      = errors.New("invalid weight")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrEmptyName          = errors.New("empty product name")
	ErrInvalidPrice       = errors.New("invalid price per kg")
)

// Categories returns the fixed category list, sentinel first.
func Categories() []string {
	return []string{
		AllCategories,
		"грузоподъемное оборудование",
		"колесные опоры",
		"складская техника",
		"строительное оборудование",
	}
}

// NormalizeFilter fills in the sentinel for an empty category. The search
// text is kept verbatim: any non-empty value, whitespace included, is a
// substring to match.
func NormalizeFilter(f Filter) Filter {
	if f.Category == "" {
		f.Category = AllCategories
	}
	return f
}

// Matches reports whether p passes the filter. Category comparison is exact,
// search is a case-insensitive substring match on the name.
func (f Filter) Matches(p Product) bool {
	if f.Category != AllCategories && p.Category != f.Category {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.PricePerKg < 0 || isNaNOrInf(p.PricePerKg) {
		return ErrInvalidPrice
	}
	return nil
}

// PriceFor returns the cost of weight kilograms of p.
func (p Product) PriceFor(weight float64) float64 {
	return p.PricePerKg * weight
}

func (k JournalKind) Valid() bool {
	return k == JournalPurchase || k == JournalReset
}

// SeedProducts is the catalog loaded into an empty database at startup.
func SeedProducts() []Product {
	return []Product{
		{Name: "Яблоки", PricePerKg: 2.50, Weight: 1.0, Category: AllCategories},
		{Name: "Бананы", PricePerKg: 1.80, Weight: 1.0, Category: AllCategories},
		{Name: "Мясо", PricePerKg: 8.99, Weight: 1.0, Category: AllCategories},
		{Name: "Рыба", PricePerKg: 5.50, Weight: 1.0, Category: AllCategories},
		{Name: "Помидоры", PricePerKg: 3.10, Weight: 1.0, Category: AllCategories},
		{Name: "Огурцы", PricePerKg: 3.00, Weight: 1.0, Category: AllCategories},
		{Name: "Шаурма", PricePerKg: 18.00, Weight: 1.0, Category: AllCategories},
		{Name: "Стеллаж офисный", PricePerKg: 50.00, Weight: 20.0, Category: "складская техника"},
		{Name: "Шкаф офисный", PricePerKg: 100.00, Weight: 40.0, Category: "складская техника"},
		{Name: "Сейф офисный", PricePerKg: 200.00, Weight: 100.0, Category: "складская техника"},
		{Name: "Кран балка", PricePerKg: 300.00, Weight: 150.0, Category: "грузоподъемное оборудование"},
		{Name: "Лебедка", PricePerKg: 150.00, Weight: 50.0, Category: "грузоподъемное оборудование"},
		{Name: "Опора поворотная", PricePerKg: 20.00, Weight: 5.0, Category: "колесные опоры"},
		{Name: "Опора неповоротная", PricePerKg: 15.00, Weight: 4.0, Category: "колесные опоры"},
		{Name: "Бетономешалка", PricePerKg: 250.00, Weight: 120.0, Category: "строительное оборудование"},
		{Name: "Вибратор для бетона", PricePerKg: 80.00, Weight: 20.0, Category: "строительное оборудование"},
	}
}
