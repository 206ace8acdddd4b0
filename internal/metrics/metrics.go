// Package metrics defines the Prometheus metrics of the schedule bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Scraper metrics
	ScraperRequestsTotal   *prometheus.CounterVec
	ScraperDurationSeconds *prometheus.HistogramVec

	// Extraction metrics
	ExtractionsTotal          *prometheus.CounterVec
	ExtractionDurationSeconds *prometheus.HistogramVec
	TermHalfFallbackTotal     *prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
	CacheEntries     *prometheus.GaugeVec

	// Bot metrics
	BotUpdatesTotal          *prometheus.CounterVec
	BotUpdateDurationSeconds *prometheus.HistogramVec

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec

	// Singleflight metrics
	SingleflightDedupTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		ScraperRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rozklad_scraper_requests_total",
				Help: "Total number of schedule page requests by mode and status",
			},
			[]string{"mode", "status"}, // mode: direct, proxy; status: success, error, timeout, anti_bot
		),

		ScraperDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rozklad_scraper_duration_seconds",
				Help:    "Schedule page request duration in seconds by mode",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 45}, // up to the request timeout
			},
			[]string{"mode"},
		),

		ExtractionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rozklad_extractions_total",
				Help: "Total number of schedule lookups by winning strategy and outcome",
			},
			[]string{"strategy", "outcome"}, // strategy: structured, text, none; outcome: schedule or info kind
		),

		ExtractionDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rozklad_extraction_duration_seconds",
				Help:    "End-to-end schedule lookup duration in seconds, fetches included",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 100},
			},
			[]string{"strategy"},
		),

		TermHalfFallbackTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rozklad_term_half_fallback_total",
				Help: "Total number of alternate term-half lookups by outcome",
			},
			[]string{"outcome"}, // outcome: hit, miss, error
		),

		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rozklad_cache_hits_total",
				Help: "Total number of cache hits by cache",
			},
			[]string{"cache"}, // cache: session, result
		),

		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rozklad_cache_misses_total",
				Help: "Total number of cache misses by cache",
			},
			[]string{"cache"},
		),

		CacheEntries: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rozklad_cache_entries",
				Help: "Current number of entries by cache",
			},
			[]string{"cache"},
		),

		BotUpdatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rozklad_bot_updates_total",
				Help: "Total number of Telegram updates by kind and status",
			},
			[]string{"kind", "status"}, // kind: command, callback, text; status: success, error, throttled
		),

		BotUpdateDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rozklad_bot_update_duration_seconds",
				Help:    "Telegram update handling duration in seconds by kind",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"kind"},
		),

		RateLimiterDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rozklad_rate_limiter_dropped_total",
				Help: "Total number of updates dropped by rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: chat
		),

		SingleflightDedupTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rozklad_singleflight_dedup_total",
				Help: "Total number of lookups that joined an identical in-flight lookup",
			},
			[]string{"module"},
		),
	}
}

// RecordScraperRequest records a schedule page request with status
func (m *Metrics) RecordScraperRequest(mode, status string, duration float64) {
	m.ScraperRequestsTotal.WithLabelValues(mode, status).Inc()
	m.ScraperDurationSeconds.WithLabelValues(mode).Observe(duration)
}

// RecordExtraction records one schedule lookup.
func (m *Metrics) RecordExtraction(strategy, outcome string, duration float64) {
	m.ExtractionsTotal.WithLabelValues(strategy, outcome).Inc()
	m.ExtractionDurationSeconds.WithLabelValues(strategy).Observe(duration)
}

// RecordTermHalfFallback records an alternate term-half lookup.
func (m *Metrics) RecordTermHalfFallback(outcome string) {
	m.TermHalfFallbackTotal.WithLabelValues(outcome).Inc()
}

// RecordCacheHit records a cache hit
func (m *Metrics) RecordCacheHit(cache string) {
	m.CacheHitsTotal.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records a cache miss
func (m *Metrics) RecordCacheMiss(cache string) {
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}

// SetCacheEntries publishes the current size of a cache.
func (m *Metrics) SetCacheEntries(cache string, n int) {
	m.CacheEntries.WithLabelValues(cache).Set(float64(n))
}

// RecordBotUpdate records a handled Telegram update.
func (m *Metrics) RecordBotUpdate(kind, status string, duration float64) {
	m.BotUpdatesTotal.WithLabelValues(kind, status).Inc()
	m.BotUpdateDurationSeconds.WithLabelValues(kind).Observe(duration)
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// RecordSingleflightDedup records a deduplicated request
func (m *Metrics) RecordSingleflightDedup(module string) {
	m.SingleflightDedupTotal.WithLabelValues(module).Inc()
}
