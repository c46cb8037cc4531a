// Package prometheus exposes pipeline measurements in the Prometheus text format.
package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/concierge/internal/core/domain"
	"github.com/custodia-labs/concierge/internal/core/ports/driven"
)

// Ensure Metrics implements the interface.
var _ driven.Metrics = (*Metrics)(nil)

const namespace = "concierge"

// Metrics records pipeline measurements in its own registry.
type Metrics struct {
	registry *prometheus.Registry

	answers         *prometheus.CounterVec
	answerDuration  prometheus.Histogram
	retrievalHits   *prometheus.CounterVec
	reindexRuns     *prometheus.CounterVec
	reindexDuration prometheus.Histogram
	indexedChunks   prometheus.Gauge
	lastSuccess     prometheus.Gauge
}

// NewMetrics creates and registers all concierge metrics, plus the Go runtime
// and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		answers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Total number of answered questions by intent and outcome",
		}, []string{"intent", "outcome"}),
		answerDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "answer_duration_seconds",
			Help:      "Duration of answering one question in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}),
		retrievalHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_hits_total",
			Help:      "Retrieved chunks kept or dropped by the similarity floor",
		}, []string{"result"}),
		reindexRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reindex_runs_total",
			Help:      "Total number of index builds by trigger and outcome",
		}, []string{"trigger", "outcome"}),
		reindexDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reindex_duration_seconds",
			Help:      "Duration of index builds in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~7min
		}),
		indexedChunks: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "indexed_chunks",
			Help:      "Number of chunks currently in the vector index",
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_successful_reindex_timestamp_seconds",
			Help:      "Unix time the last successful build finished",
		}),
	}
}

// ObserveAnswer records one answered question.
func (m *Metrics) ObserveAnswer(intent domain.Intent, failed bool, elapsed time.Duration) {
	m.answers.WithLabelValues(string(intent), outcome(!failed)).Inc()
	m.answerDuration.Observe(elapsed.Seconds())
}

// ObserveRetrieval records how many hits survived the similarity floor.
func (m *Metrics) ObserveRetrieval(kept, dropped int) {
	m.retrievalHits.WithLabelValues("kept").Add(float64(kept))
	m.retrievalHits.WithLabelValues("dropped").Add(float64(dropped))
}

// ObserveReindex records a finished build.
func (m *Metrics) ObserveReindex(run domain.ReindexRun) {
	m.reindexRuns.WithLabelValues(string(run.Trigger), outcome(run.Success)).Inc()
	m.reindexDuration.Observe(run.Duration().Seconds())
	if run.Success && !run.EndedAt.IsZero() {
		m.lastSuccess.Set(float64(run.EndedAt.UnixNano()) / 1e9)
	}
}

// SetIndexedChunks records the current chunk count.
func (m *Metrics) SetIndexedChunks(n int) {
	m.indexedChunks.Set(float64(n))
}

// Registry returns the registry holding all metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
