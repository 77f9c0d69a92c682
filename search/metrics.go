package search

import (
	"errors"
	"time"

	"github.com/poiesic/aisearch/core"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors updated by a Searcher.
type Metrics struct {
	operations       *prometheus.CounterVec
	latency          *prometheus.HistogramVec
	results          *prometheus.HistogramVec
	summaryFallbacks prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aisearch_operations_total",
				Help: "Total number of engine operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aisearch_operation_duration_seconds",
				Help:    "Engine operation latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		results: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aisearch_results",
				Help:    "Number of results returned per operation",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
			[]string{"operation"},
		),
		summaryFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "aisearch_summary_fallbacks_total",
				Help: "Summaries replaced by the document title after a failure",
			},
		),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.operations, m.latency, m.results, m.summaryFallbacks} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) observe(operation string, start time.Time, results int, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome(err)).Inc()
	m.latency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err == nil {
		m.results.WithLabelValues(operation).Observe(float64(results))
	}
}

func (m *Metrics) summaryFallback() {
	if m == nil {
		return
	}
	m.summaryFallbacks.Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, core.ErrNotFound):
		return "not_found"
	case errors.Is(err, core.ErrEmbeddingFailure):
		return "embedding_failure"
	case errors.Is(err, core.ErrIndexQueryFailure):
		return "index_failure"
	default:
		return "error"
	}
}
