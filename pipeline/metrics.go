package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the pipeline.
type Metrics struct {
	Registry          *prometheus.Registry
	KeywordsTotal     *prometheus.CounterVec
	FetchDuration     prometheus.Histogram
	RowsAppendedTotal *prometheus.CounterVec
	ErrorsTotal       *prometheus.CounterVec
	DedupeHitsTotal   prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	keywords := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serpwatch_keywords_total",
			Help: "Keywords attempted, by outcome.",
		},
		[]string{"outcome"},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "serpwatch_fetch_duration_seconds",
			Help:    "SERP provider request latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	rowsAppended := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serpwatch_rows_appended_total",
			Help: "Rows appended to the store, by table.",
		},
		[]string{"table"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serpwatch_errors_total",
			Help: "Per-keyword errors, by type.",
		},
		[]string{"error_type"},
	)
	dedupeHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "serpwatch_related_dedupe_hits_total",
			Help: "Related searches skipped because they were already seen this run.",
		},
	)

	registry.MustRegister(keywords, fetchDuration, rowsAppended, errorsTotal, dedupeHits)

	return &Metrics{
		Registry:          registry,
		KeywordsTotal:     keywords,
		FetchDuration:     fetchDuration,
		RowsAppendedTotal: rowsAppended,
		ErrorsTotal:       errorsTotal,
		DedupeHitsTotal:   dedupeHits,
	}
}

// IncKeyword increments the keywords counter for an outcome.
func (m *Metrics) IncKeyword(outcome string) {
	if m == nil {
		return
	}
	m.KeywordsTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetch records a provider request duration.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// AddRows records rows appended to a table.
func (m *Metrics) AddRows(table string, n int) {
	if m == nil {
		return
	}
	m.RowsAppendedTotal.WithLabelValues(table).Add(float64(n))
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncDedupeHit increments the related-search dedupe counter.
func (m *Metrics) IncDedupeHit() {
	if m == nil {
		return
	}
	m.DedupeHitsTotal.Inc()
}
