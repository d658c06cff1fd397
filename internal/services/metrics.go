package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Ingestion metrics
	SnippetCreates prometheus.Counter
	SnippetDeletes prometheus.Counter
	EntriesCreated prometheus.Counter

	// Best-effort propagation metrics
	UserSyncFailures *prometheus.CounterVec

	// Read-path metrics
	StatisticsRequests prometheus.Counter
	StatisticsLatency  prometheus.Histogram
	SummaryLatency     prometheus.Histogram
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics() *Metrics {
	metrics := &Metrics{
		SnippetCreates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "daybook_snippet_creates_total",
			Help: "Total number of snippets created",
		}),
		SnippetDeletes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "daybook_snippet_deletes_total",
			Help: "Total number of snippets deleted",
		}),
		EntriesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "daybook_journal_entries_created_total",
			Help: "Total number of journal entries created (lazy and manual)",
		}),

		// Sync failures by target array ("journalEntries" or "snippets")
		UserSyncFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "daybook_user_sync_failures_total",
			Help: "Total number of swallowed user directory sync failures",
		}, []string{"target"}),

		StatisticsRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "daybook_statistics_requests_total",
			Help: "Total number of statistics computations",
		}),
		StatisticsLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "daybook_statistics_duration_seconds",
			Help:    "Statistics computation latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		}),
		SummaryLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "daybook_summary_duration_seconds",
			Help:    "Summary generation latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60}, // LLM calls are slow
		}),
	}

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance (nil until InitMetrics)
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordSnippetCreate records a created snippet
func (m *Metrics) RecordSnippetCreate() {
	m.SnippetCreates.Inc()
}

// RecordSnippetDelete records a deleted snippet
func (m *Metrics) RecordSnippetDelete() {
	m.SnippetDeletes.Inc()
}

// RecordEntryCreated records a created journal entry
func (m *Metrics) RecordEntryCreated() {
	m.EntriesCreated.Inc()
}

// RecordUserSyncFailure records a swallowed user directory failure
func (m *Metrics) RecordUserSyncFailure(target string) {
	m.UserSyncFailures.WithLabelValues(target).Inc()
}

// RecordStatistics records a statistics computation and its latency
func (m *Metrics) RecordStatistics(seconds float64) {
	m.StatisticsRequests.Inc()
	m.StatisticsLatency.Observe(seconds)
}

// RecordSummaryLatency records a summary generation latency
func (m *Metrics) RecordSummaryLatency(seconds float64) {
	m.SummaryLatency.Observe(seconds)
}
