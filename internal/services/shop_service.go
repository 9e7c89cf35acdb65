package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"shop/internal/core"
	"shop/internal/log"
	"shop/internal/metrics"
)

// Ports implemented by storage.SQLiteRepository.
type (
	Catalog interface {
		ListProducts(ctx context.Context, f core.Filter) ([]core.Product, error)
		FindProductByName(ctx context.Context, name string) (core.Product, error)
		SeedProducts(ctx context.Context, products []core.Product) (int, error)
	}

	Ledger interface {
		GetBalance(ctx context.Context) (float64, error)
		EnsureBalance(ctx context.Context, amount float64) error
		DebitIfSufficient(ctx context.Context, amount float64) (float64, bool, error)
		ResetBalance(ctx context.Context, amount float64) error
	}

	Journal interface {
		RecordJournal(ctx context.Context, e core.JournalEntry) (int64, error)
		RecentJournal(ctx context.Context, limit int) ([]core.JournalEntry, error)
	}

	// EventPublisher announces journal entries to the export worker.
	EventPublisher interface {
		PublishJournalEvent(ctx context.Context, entryID int64, kind core.JournalKind) error
	}
)

// Quote is the price of a given weight of a product.
type Quote struct {
	Product core.Product
	Weight  float64
	Price   float64
}

// Receipt is the outcome of a purchase attempt. Balance is always the
// balance after the attempt, whether or not it succeeded.
type Receipt struct {
	Quote
	Balance float64
}

// ShopService orchestrates catalog reads, purchases and resets.
//
// Purchases and resets are serialized by mu, and the debit itself is a
// single check-and-write transaction, so concurrent purchases cannot both
// spend the same funds.
type ShopService struct {
	catalog        Catalog
	ledger         Ledger
	journal        Journal
	publisher      EventPublisher
	initialBalance float64

	mu sync.Mutex
}

func NewShopService(catalog Catalog, ledger Ledger, journal Journal, publisher EventPublisher, initialBalance float64) *ShopService {
	return &ShopService{
		catalog:        catalog,
		ledger:         ledger,
		journal:        journal,
		publisher:      publisher,
		initialBalance: initialBalance,
	}
}

// Bootstrap seeds the catalog and creates the ledger row when missing.
func (s *ShopService) Bootstrap(ctx context.Context, products []core.Product) error {
	if _, err := s.catalog.SeedProducts(ctx, products); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	if err := s.ledger.EnsureBalance(ctx, s.initialBalance); err != nil {
		return fmt.Errorf("initialize ledger: %w", err)
	}
	return nil
}

// Products lists the catalog through the given filter.
func (s *ShopService) Products(ctx context.Context, f core.Filter) ([]core.Product, error) {
	return s.catalog.ListProducts(ctx, core.NormalizeFilter(f))
}

// Balance reads the current funds.
func (s *ShopService) Balance(ctx context.Context) (float64, error) {
	money, err := s.ledger.GetBalance(ctx)
	if err != nil {
		return 0, err
	}
	metrics.Balance.Set(money)
	return money, nil
}

// Quote resolves productName and prices rawWeight kilograms of it.
// The product is resolved before the weight is validated.
func (s *ShopService) Quote(ctx context.Context, productName, rawWeight string) (Quote, error) {
	product, err := s.catalog.FindProductByName(ctx, productName)
	if err != nil {
		return Quote{}, err
	}
	weight, err := core.ParseWeight(rawWeight)
	if err != nil {
		return Quote{Product: product}, err
	}
	return Quote{Product: product, Weight: weight, Price: product.PriceFor(weight)}, nil
}

// Purchase debits the price of rawWeight kilograms of productName when the
// balance covers it. On ErrInsufficientFunds the receipt carries the
// unchanged balance.
func (s *ShopService) Purchase(ctx context.Context, productName, rawWeight string) (Receipt, error) {
	slog.InfoContext(ctx, "Purchase started", "component", "purchase", "product_name", productName, "weight", rawWeight)

	q, err := s.Quote(ctx, productName, rawWeight)
	if err != nil {
		metrics.PurchasesTotal.WithLabelValues(outcome(err)).Inc()
		return Receipt{Quote: q}, err
	}

	s.mu.Lock()
	balance, ok, err := s.ledger.DebitIfSufficient(ctx, q.Price)
	s.mu.Unlock()
	if err != nil {
		metrics.PurchasesTotal.WithLabelValues(outcome(err)).Inc()
		return Receipt{Quote: q}, fmt.Errorf("debit ledger: %w", err)
	}
	metrics.Balance.Set(balance)

	receipt := Receipt{Quote: q, Balance: balance}
	if !ok {
		slog.InfoContext(ctx, "Insufficient funds", "component", "purchase",
			"product_name", productName, "price", q.Price, "balance", balance)
		metrics.PurchasesTotal.WithLabelValues(outcome(core.ErrInsufficientFunds)).Inc()
		return receipt, core.ErrInsufficientFunds
	}

	metrics.PurchasesTotal.WithLabelValues(outcome(nil)).Inc()
	log.LogPurchase(ctx, q.Product.Name, q.Weight, q.Price, balance)

	s.record(ctx, core.JournalEntry{
		Kind:         core.JournalPurchase,
		ProductName:  q.Product.Name,
		Weight:       q.Weight,
		Price:        q.Price,
		BalanceAfter: balance,
	})
	return receipt, nil
}

// Reset restores the initial balance. It does not undo the latest purchase:
// any purchase history is discarded in favour of the fixed amount.
func (s *ShopService) Reset(ctx context.Context) (float64, error) {
	s.mu.Lock()
	err := s.ledger.ResetBalance(ctx, s.initialBalance)
	s.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("reset ledger: %w", err)
	}

	metrics.BalanceResetsTotal.Inc()
	metrics.Balance.Set(s.initialBalance)
	slog.InfoContext(ctx, "Balance reset", "component", "ledger", "balance", s.initialBalance)

	s.record(ctx, core.JournalEntry{Kind: core.JournalReset, BalanceAfter: s.initialBalance})
	return s.initialBalance, nil
}

// RecentJournal returns the latest ledger mutations, newest first.
func (s *ShopService) RecentJournal(ctx context.Context, limit int) ([]core.JournalEntry, error) {
	if s.journal == nil {
		return nil, nil
	}
	return s.journal.RecentJournal(ctx, limit)
}

// record journals e and publishes it. The ledger mutation already
// happened, so failures here are logged and never returned.
func (s *ShopService) record(ctx context.Context, e core.JournalEntry) {
	if s.journal == nil {
		return
	}
	id, err := s.journal.RecordJournal(ctx, e)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to record journal entry", "component", "purchase", "kind", e.Kind, "error", err)
		return
	}

	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not available, skipping journal event", "id", id)
		return
	}
	if err := s.publisher.PublishJournalEvent(ctx, id, e.Kind); err != nil {
		metrics.JournalEventsPublished.WithLabelValues("error").Inc()
		slog.ErrorContext(ctx, "Failed to publish journal event", "component", "purchase", "id", id, "error", err)
		return
	}
	metrics.JournalEventsPublished.WithLabelValues("ok").Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, core.ErrProductNotFound):
		return "not_found"
	case errors.Is(err, core.ErrInvalidWeight):
		return "invalid_weight"
	case errors.Is(err, core.ErrInsufficientFunds):
		return "insufficient_funds"
	default:
		return "error"
	}
}
