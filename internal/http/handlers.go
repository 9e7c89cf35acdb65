package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"shop/internal/core"
	"shop/internal/log"
)

// pageData feeds index.html.
type pageData struct {
	Products   []core.Product
	Balance    float64
	Categories []string
	Category   string
	Search     string

	ProductName string
	Weight      string
	Price       float64
	HasPrice    bool

	Message string
	Error   string
}

type journalData struct {
	Entries []core.JournalEntry
	Error   string
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).String(),
	}).Write(w)
}

// handleReady checks templates and storage
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.pinger == nil {
		checks["storage"] = "not_configured"
	} else if err := s.pinger.Ping(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldComponent, log.ComponentStorage, log.FieldError, err)
		checks["storage"] = "failed"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["storage"] = "ok"
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.limiter.ActiveClients(),
		"status":         "ok",
	}
	checks["security"] = map[string]interface{}{
		"suspicious_requests": s.detector.SuspiciousRequests(),
	}

	NewJSONResponse().Status(httpStatus).Data(map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	f := ParseFilter(r.URL.Query())
	s.renderIndex(w, r, http.StatusOK, pageData{Category: f.Category, Search: f.Search})
}

func (s *Server) handleCalculatePrice(w http.ResponseWriter, r *http.Request) {
	form, ok := s.parseForm(w, r)
	if !ok {
		return
	}
	data := formPage(form)

	q, err := s.shop.Quote(r.Context(), form.ProductName, form.Weight)
	if err != nil {
		s.renderFailure(w, r, data, err, log.OpQuote)
		return
	}
	data.Price = q.Price
	data.HasPrice = true
	s.renderIndex(w, r, http.StatusOK, data)
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	form, ok := s.parseForm(w, r)
	if !ok {
		return
	}
	data := formPage(form)

	receipt, err := s.shop.Purchase(r.Context(), form.ProductName, form.Weight)
	if err != nil {
		s.renderFailure(w, r, data, err, log.OpPurchase)
		return
	}
	data.Message = purchaseMessage(receipt.Balance)
	s.renderIndex(w, r, http.StatusOK, data)
}

// handleCancelLastPurchase restores the initial balance. It does not
// replay the journal, so every purchase since the last reset is forgotten.
func (s *Server) handleCancelLastPurchase(w http.ResponseWriter, r *http.Request) {
	form, ok := s.parseForm(w, r)
	if !ok {
		return
	}
	data := pageData{Category: form.Filter.Category, Search: form.Filter.Search}

	if _, err := s.shop.Reset(r.Context()); err != nil {
		s.renderFailure(w, r, data, err, log.OpReset)
		return
	}
	data.Message = msgBalanceRestored
	s.renderIndex(w, r, http.StatusOK, data)
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	data := journalData{}
	status := http.StatusOK

	entries, err := s.shop.RecentJournal(r.Context(), journalPageSize)
	if err != nil {
		log.LogError(r.Context(), "Journal listing failed", err, log.ComponentLedger, log.OpList)
		f := classify(err)
		data.Error = f.Message
		status = f.Status
	}
	data.Entries = entries
	s.execute(w, r, status, "journal.html", data)
}

func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) (PurchaseForm, bool) {
	form, err := ParsePurchaseForm(w, r)
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Invalid form submission",
			log.FieldComponent, log.ComponentHTTP, log.FieldError, err)
		http.Error(w, msgBadRequest, http.StatusBadRequest)
		return PurchaseForm{}, false
	}
	return form, true
}

func formPage(form PurchaseForm) pageData {
	return pageData{
		Category:    form.Filter.Category,
		Search:      form.Filter.Search,
		ProductName: form.ProductName,
		Weight:      form.Weight,
	}
}

// renderFailure shows err as a banner over the current listing.
func (s *Server) renderFailure(w http.ResponseWriter, r *http.Request, data pageData, err error, op string) {
	f := classify(err)
	if f.Status >= http.StatusInternalServerError {
		log.LogError(r.Context(), "Shop operation failed", err, log.ComponentPurchase, op)
	}
	data.Error = f.Message
	s.renderIndex(w, r, pageStatus(err), data)
}

// renderIndex fills in the listing and balance, then renders index.html.
// A storage failure while loading them replaces the page status with 503.
func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	ctx := r.Context()
	data.Categories = core.Categories()

	filter := core.NormalizeFilter(core.Filter{Category: data.Category, Search: data.Search})
	data.Category = filter.Category

	var loadErr error
	products, err := s.shop.Products(ctx, filter)
	if err != nil {
		loadErr = err
	}
	data.Products = products

	balance, err := s.shop.Balance(ctx)
	if err != nil {
		loadErr = errors.Join(loadErr, err)
	}
	data.Balance = balance

	if loadErr != nil {
		log.LogError(ctx, "Catalog page data unavailable", loadErr, log.ComponentCatalog, log.OpRender)
		f := classify(loadErr)
		data.Error = f.Message
		status = f.Status
	}
	s.execute(w, r, status, "index.html", data)
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path, log.FieldComponent, log.ComponentTemplate)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldComponent, log.ComponentTemplate, "template", name, log.FieldError, err)
	}
}
