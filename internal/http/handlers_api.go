package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"shop/internal/core"
	"shop/internal/log"
)

type productJSON struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	PricePerKg float64 `json:"price_per_kg"`
	Weight     float64 `json:"weight"`
	Category   string  `json:"category"`
}

type journalEntryJSON struct {
	ID           int64      `json:"id"`
	Kind         string     `json:"kind"`
	ProductName  string     `json:"product_name,omitempty"`
	Weight       float64    `json:"weight,omitempty"`
	Price        float64    `json:"price,omitempty"`
	BalanceAfter float64    `json:"balance_after"`
	CreatedAt    time.Time  `json:"created_at"`
	SyncedAt     *time.Time `json:"synced_at,omitempty"`
}

func toProductJSON(products []core.Product) []productJSON {
	out := make([]productJSON, len(products))
	for i, p := range products {
		out[i] = productJSON{ID: p.ID, Name: p.Name, PricePerKg: p.PricePerKg, Weight: p.Weight, Category: p.Category}
	}
	return out
}

func toJournalJSON(entries []core.JournalEntry) []journalEntryJSON {
	out := make([]journalEntryJSON, len(entries))
	for i, e := range entries {
		out[i] = journalEntryJSON{
			ID:           e.ID,
			Kind:         string(e.Kind),
			ProductName:  e.ProductName,
			Weight:       e.Weight,
			Price:        e.Price,
			BalanceAfter: e.BalanceAfter,
			CreatedAt:    e.CreatedAt,
			SyncedAt:     e.SyncedAt,
		}
	}
	return out
}

func (s *Server) apiProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f := ParseFilter(r.URL.Query())

	products, err := s.shop.Products(ctx, f)
	if err != nil {
		log.LogError(ctx, "Product listing failed", err, log.ComponentCatalog, log.OpList)
		FailureJSON(err).Write(w)
		return
	}
	balance, err := s.shop.Balance(ctx)
	if err != nil {
		log.LogError(ctx, "Balance lookup failed", err, log.ComponentLedger, log.OpList)
		FailureJSON(err).Write(w)
		return
	}

	NewJSONResponse().Data(map[string]interface{}{
		"products":   toProductJSON(products),
		"balance":    balance,
		"category":   f.Category,
		"search":     f.Search,
		"categories": core.Categories(),
	}).Write(w)
}

func (s *Server) apiBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.shop.Balance(r.Context())
	if err != nil {
		FailureJSON(err).Write(w)
		return
	}
	NewJSONResponse().Data(map[string]float64{"balance": balance}).Write(w)
}

func (s *Server) apiQuote(w http.ResponseWriter, r *http.Request) {
	form, ok := parseAPIForm(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	q, err := s.shop.Quote(ctx, form.ProductName, form.Weight)
	if err != nil {
		FailureJSON(err).Write(w)
		return
	}
	balance, err := s.shop.Balance(ctx)
	if err != nil {
		FailureJSON(err).Write(w)
		return
	}

	NewJSONResponse().Data(map[string]interface{}{
		"product_name": q.Product.Name,
		"weight":       q.Weight,
		"price":        q.Price,
		"balance":      balance,
	}).Write(w)
}

func (s *Server) apiPurchase(w http.ResponseWriter, r *http.Request) {
	form, ok := parseAPIForm(w, r)
	if !ok {
		return
	}

	receipt, err := s.shop.Purchase(r.Context(), form.ProductName, form.Weight)
	if errors.Is(err, core.ErrInsufficientFunds) {
		balance := receipt.Balance
		f := classify(err)
		NewJSONResponse().Status(f.Status).Data(errorBody{
			Error:   f.Code,
			Message: f.Message,
			Balance: &balance,
		}).Write(w)
		return
	}
	if err != nil {
		if classify(err).Status >= http.StatusInternalServerError {
			log.LogError(r.Context(), "Purchase failed", err, log.ComponentPurchase, log.OpPurchase)
		}
		FailureJSON(err).Write(w)
		return
	}

	NewJSONResponse().Data(map[string]interface{}{
		"product_name": receipt.Product.Name,
		"weight":       receipt.Weight,
		"price":        receipt.Price,
		"balance":      receipt.Balance,
		"message":      purchaseMessage(receipt.Balance),
	}).Write(w)
}

func (s *Server) apiReset(w http.ResponseWriter, r *http.Request) {
	balance, err := s.shop.Reset(r.Context())
	if err != nil {
		log.LogError(r.Context(), "Balance reset failed", err, log.ComponentLedger, log.OpReset)
		FailureJSON(err).Write(w)
		return
	}
	NewJSONResponse().Data(map[string]interface{}{
		"balance": balance,
		"message": msgBalanceRestored,
	}).Write(w)
}

func (s *Server) apiJournal(w http.ResponseWriter, r *http.Request) {
	limit := journalPageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			BadRequestJSON("limit must be a positive integer").Write(w)
			return
		}
		limit = min(n, 500)
	}

	entries, err := s.shop.RecentJournal(r.Context(), limit)
	if err != nil {
		log.LogError(r.Context(), "Journal listing failed", err, log.ComponentLedger, log.OpList)
		FailureJSON(err).Write(w)
		return
	}
	NewJSONResponse().Data(map[string]interface{}{
		"entries": toJournalJSON(entries),
	}).Write(w)
}

func parseAPIForm(w http.ResponseWriter, r *http.Request) (PurchaseForm, bool) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Invalid API request body",
			log.FieldComponent, log.ComponentHTTP, log.FieldError, err)
		BadRequestJSON(msgBadRequest).Write(w)
		return PurchaseForm{}, false
	}
	return p.PurchaseForm(), true
}
