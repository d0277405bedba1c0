// metrics.go - Prometheus metrics for the record lifecycle.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric names
const (
	MetricPublishTotal      = "privlib_publish_total"
	MetricDisclosureTotal   = "privlib_disclosure_total"
	MetricErrorTotal        = "privlib_error_total"
	MetricReloadSeconds     = "privlib_reload_duration_seconds"
	MetricProofSeconds      = "privlib_proof_generation_seconds"
	MetricBooks             = "privlib_books"
	MetricAvgPages          = "privlib_avg_pages"
	MetricHandleCacheHits   = "privlib_handle_cache_hits_total"
	MetricHandleCacheMisses = "privlib_handle_cache_misses_total"
	MetricRateLimitedTotal  = "privlib_rate_limited_total"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	publishes   *prometheus.CounterVec
	disclosures *prometheus.CounterVec
	errors      *prometheus.CounterVec
	reload      prometheus.Histogram
	proof       prometheus.Histogram
	books       *prometheus.GaugeVec
	avgPages    prometheus.Gauge
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	rateLimited prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		publishes: f.NewCounterVec(prometheus.CounterOpts{
			Name: MetricPublishTotal,
			Help: "Publish workflows by outcome.",
		}, []string{"outcome"}),
		disclosures: f.NewCounterVec(prometheus.CounterOpts{
			Name: MetricDisclosureTotal,
			Help: "Disclose workflows by outcome.",
		}, []string{"outcome"}),
		errors: f.NewCounterVec(prometheus.CounterOpts{
			Name: MetricErrorTotal,
			Help: "Workflow failures by classification.",
		}, []string{"kind"}),
		reload: f.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricReloadSeconds,
			Help:    "Duration of full record store reloads.",
			Buckets: prometheus.DefBuckets,
		}),
		proof: f.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricProofSeconds,
			Help:    "Duration of disclosure proof generation.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		books: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: MetricBooks,
			Help: "Records in the store by category.",
		}, []string{"category"}),
		avgPages: f.NewGauge(prometheus.GaugeOpts{
			Name: MetricAvgPages,
			Help: "Mean public page count over the store.",
		}),
		cacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: MetricHandleCacheHits,
			Help: "Encrypted handle cache hits.",
		}),
		cacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: MetricHandleCacheMisses,
			Help: "Encrypted handle cache misses.",
		}),
		rateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: MetricRateLimitedTotal,
			Help: "Intents refused by the per-address rate limiter.",
		}),
	}
}

// RecordPublish counts a publish workflow outcome ("success" or an error kind).
func (m *Metrics) RecordPublish(outcome string) {
	if m == nil {
		return
	}
	m.publishes.WithLabelValues(outcome).Inc()
}

// RecordDisclosure counts a disclose workflow outcome.
func (m *Metrics) RecordDisclosure(outcome string) {
	if m == nil {
		return
	}
	m.disclosures.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordError(kind string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordReload(d time.Duration) {
	if m == nil {
		return
	}
	m.reload.Observe(d.Seconds())
}

func (m *Metrics) RecordProofGeneration(d time.Duration) {
	if m == nil {
		return
	}
	m.proof.Observe(d.Seconds())
}

// SetStats publishes the aggregate figures as gauges.
func (m *Metrics) SetStats(total, verified, recent int, avgPages float64) {
	if m == nil {
		return
	}
	m.books.WithLabelValues("total").Set(float64(total))
	m.books.WithLabelValues("verified").Set(float64(verified))
	m.books.WithLabelValues("recent").Set(float64(recent))
	m.avgPages.Set(avgPages)
}

func (m *Metrics) RecordHandleCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		return
	}
	m.cacheMisses.Inc()
}

func (m *Metrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
