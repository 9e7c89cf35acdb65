package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Purchase attempts by outcome (success, not_found, invalid_weight, insufficient_funds, error).
	PurchasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_purchases_total",
			Help: "Total number of purchase attempts by outcome.",
		},
		[]string{"outcome"},
	)

	BalanceResetsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shop_balance_resets_total",
			Help: "Number of times the balance was reset to its initial amount.",
		},
	)

	// Last balance observed by the service.
	Balance = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shop_balance",
			Help: "Current ledger balance as last read or written.",
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_http_requests_total",
			Help: "Total number of HTTP requests (by route, method and status).",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shop_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms → ~2s
		},
		[]string{"route", "method"},
	)

	CatalogCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_catalog_cache_lookups_total",
			Help: "Catalog listing cache lookups by result (hit, miss).",
		},
		[]string{"result"},
	)

	JournalEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_journal_events_published_total",
			Help: "Journal events published to AMQP by status.",
		},
		[]string{"status"},
	)

	JournalEntriesSynced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_journal_entries_synced_total",
			Help: "Journal entries exported by the worker by status.",
		},
		[]string{"status"},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shop_rate_limited_requests_total",
			Help: "Requests rejected by the rate limiter.",
		},
	)
)

// ObserveDuration records the time elapsed since start on the given histogram.
func ObserveDuration(v any, start time.Time, labels ...string) {
	duration := time.Since(start).Seconds()

	switch metric := v.(type) {
	case *prometheus.HistogramVec:
		metric.WithLabelValues(labels...).Observe(duration)
	case *prometheus.SummaryVec:
		metric.WithLabelValues(labels...).Observe(duration)
	default:
		// counters and gauges carry no duration
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
