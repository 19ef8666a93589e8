package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/setuplab/internal/domain/grouping"
)

// MetricsRegistry holds all Prometheus metrics for setuplab. It implements
// application.Recorder.
type MetricsRegistry struct {
	// Classification metrics
	ClassifyDuration *prometheus.HistogramVec
	Classifications  *prometheus.CounterVec
	BatchSize        *prometheus.GaugeVec
	GroupSize        *prometheus.GaugeVec

	// Load metrics
	LoadErrors *prometheus.CounterVec

	// Cache performance metrics
	CacheHitRatio prometheus.Gauge
	CacheHits     prometheus.Counter
	CacheMisses   prometheus.Counter

	// HTTP metrics
	RequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// NewMetricsRegistry creates the setuplab metrics and registers them with
// reg. A nil reg uses a fresh registry.
func NewMetricsRegistry(reg *prometheus.Registry) *MetricsRegistry {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	registry := &MetricsRegistry{
		ClassifyDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "setuplab_classify_duration_seconds",
				Help:    "Duration of classifying one scenario batch in seconds",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
			[]string{"scenario"},
		),

		Classifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "setuplab_classifications_total",
				Help: "Total number of classification runs by scenario",
			},
			[]string{"scenario"},
		),

		BatchSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "setuplab_batch_setups",
				Help: "Number of setups in the latest classified batch",
			},
			[]string{"scenario"},
		),

		GroupSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "setuplab_group_setups",
				Help: "Number of setups per group in the latest classified batch",
			},
			[]string{"scenario", "label"},
		),

		LoadErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "setuplab_load_errors_total",
				Help: "Total number of scenario load failures by reason",
			},
			[]string{"reason"},
		),

		CacheHitRatio: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "setuplab_cache_hit_ratio",
				Help: "Current setup cache hit ratio (0.0 to 1.0)",
			},
		),

		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "setuplab_cache_hits_total",
				Help: "Total number of setup cache hits",
			},
		),

		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "setuplab_cache_misses_total",
				Help: "Total number of setup cache misses",
			},
		),

		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "setuplab_http_request_duration_seconds",
				Help:    "Duration of API requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),

		gatherer: reg,
	}

	reg.MustRegister(
		registry.ClassifyDuration,
		registry.Classifications,
		registry.BatchSize,
		registry.GroupSize,
		registry.LoadErrors,
		registry.CacheHitRatio,
		registry.CacheHits,
		registry.CacheMisses,
		registry.RequestDuration,
	)

	return registry
}

// ObserveClassification records one classification run. Group gauges are
// reset for the scenario so groups that emptied drop out.
func (m *MetricsRegistry) ObserveClassification(scenario string, setups int, counts map[grouping.Label]int, d time.Duration) {
	m.ClassifyDuration.WithLabelValues(scenario).Observe(d.Seconds())
	m.Classifications.WithLabelValues(scenario).Inc()
	m.BatchSize.WithLabelValues(scenario).Set(float64(setups))

	m.GroupSize.DeletePartialMatch(prometheus.Labels{"scenario": scenario})
	for label, n := range counts {
		m.GroupSize.WithLabelValues(scenario, label.String()).Set(float64(n))
	}
}

// RecordLoadError records a failed scenario load
func (m *MetricsRegistry) RecordLoadError(scenario, reason string) {
	m.LoadErrors.WithLabelValues(reason).Inc()
	log.Warn().
		Str("scenario", scenario).
		Str("reason", reason).
		Msg("Scenario load error recorded")
}

// RecordCacheHit records a setup cache hit
func (m *MetricsRegistry) RecordCacheHit() {
	m.CacheHits.Inc()
	m.updateCacheHitRatio()
}

// RecordCacheMiss records a setup cache miss
func (m *MetricsRegistry) RecordCacheMiss() {
	m.CacheMisses.Inc()
	m.updateCacheHitRatio()
}

// ObserveRequest records an API request
func (m *MetricsRegistry) ObserveRequest(route, method string, status int, d time.Duration) {
	m.RequestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(d.Seconds())
}

// updateCacheHitRatio recomputes the ratio from the counters
func (m *MetricsRegistry) updateCacheHitRatio() {
	hits := counterValue(m.CacheHits)
	misses := counterValue(m.CacheMisses)
	if total := hits + misses; total > 0 {
		m.CacheHitRatio.Set(hits / total)
	}
}

func counterValue(c prometheus.Counter) float64 {
	metric := &io_prometheus_client.Metric{}
	if err := c.Write(metric); err != nil {
		return 0
	}
	return metric.GetCounter().GetValue()
}

// MetricsHandler returns an HTTP handler for the registered metrics
func (m *MetricsRegistry) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
