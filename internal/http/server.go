package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"shop/internal/core"
	"shop/internal/metrics"
	"shop/internal/middleware/ratelimit"
	"shop/internal/middleware/security"
	"shop/internal/middleware/trace"
	"shop/internal/services"
	appweb "shop/web"
)

// Shop is the application surface the handlers drive.
// *services.ShopService implements it.
type Shop interface {
	Products(ctx context.Context, f core.Filter) ([]core.Product, error)
	Balance(ctx context.Context) (float64, error)
	Quote(ctx context.Context, productName, rawWeight string) (services.Quote, error)
	Purchase(ctx context.Context, productName, rawWeight string) (services.Receipt, error)
	Reset(ctx context.Context) (float64, error)
	RecentJournal(ctx context.Context, limit int) ([]core.JournalEntry, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tunes the server. Zero values pick sensible defaults.
type Options struct {
	RateLimitPerMinute int
	AllowedOrigins     []string
	Pinger             Pinger
}

// Server wraps http.Server with the shop handlers and their middleware state.
type Server struct {
	http.Server
	shop      Shop
	pinger    Pinger
	templates *template.Template
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	startedAt time.Time
}

const journalPageSize = 50

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, shop Shop, opts Options) *Server {
	rpm := opts.RateLimitPerMinute
	if rpm <= 0 {
		rpm = ratelimit.DefaultConfig().RequestsPerMinute
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s := &Server{
		shop:      shop,
		pinger:    opts.Pinger,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: rpm, CleanupInterval: 5 * time.Minute}),
		detector:  security.NewDetector(),
		startedAt: time.Now(),
	}

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "component", "template", "error", err)
	}
	s.templates = t

	tracer := trace.NewMiddleware(s.detector.ExtractClientIP)
	limit := s.limiter.Middleware(s.detector.ExtractClientIP, s.writeRateLimited)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(tracer.Middleware)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(s.detector.Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssets(3600)).Handle("/static/*", static)
	} else {
		slog.Warn("Failed to mount embedded static FS", "component", "template", "error", err)
	}

	r.Get("/", s.handleIndex)
	r.Get("/journal", s.handleJournal)
	r.Group(func(r chi.Router) {
		r.Use(limit)
		r.Post("/calculate_price/", s.handleCalculatePrice)
		r.Post("/buy/", s.handleBuy)
		r.Post("/cancel_last_purchase/", s.handleCancelLastPurchase)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", trace.RequestIDHeader},
			ExposedHeaders: []string{trace.RequestIDHeader},
			MaxAge:         300,
		}))
		r.Get("/products", s.apiProducts)
		r.Get("/balance", s.apiBalance)
		r.Get("/journal", s.apiJournal)
		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Post("/quote", s.apiQuote)
			r.Post("/purchase", s.apiPurchase)
			r.Post("/reset", s.apiReset)
		})
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops background cleanup and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

func (s *Server) writeRateLimited(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		ErrorJSON(http.StatusTooManyRequests, "rate_limited", msgRateLimited).Write(w)
		return
	}
	http.Error(w, msgRateLimited, http.StatusTooManyRequests)
}
