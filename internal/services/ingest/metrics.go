package ingest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mcoot/pokerstats/internal/model"
)

// Metrics records ingestion throughput
type Metrics struct {
	rows          *prometheus.CounterVec
	rowErrors     *prometheus.CounterVec
	batches       *prometheus.CounterVec
	batchDuration prometheus.Histogram
	retries       prometheus.Counter
}

// Batch statuses
const (
	BatchCompleted    = "completed"
	BatchCancelled    = "cancelled"
	BatchParseFailure = "parse_failure"
)

// NewMetrics creates the ingestion metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pokerstats",
			Subsystem: "ingest",
			Name:      "rows_total",
			Help:      "Ingested rows by platform and outcome.",
		}, []string{"platform", "outcome"}),
		rowErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pokerstats",
			Subsystem: "ingest",
			Name:      "row_errors_total",
			Help:      "Rejected rows by error code.",
		}, []string{"code"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pokerstats",
			Subsystem: "ingest",
			Name:      "batches_total",
			Help:      "Upload batches by final status.",
		}, []string{"status"}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pokerstats",
			Subsystem: "ingest",
			Name:      "batch_duration_seconds",
			Help:      "Wall time to process one upload.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pokerstats",
			Subsystem: "ingest",
			Name:      "store_timeout_retries_total",
			Help:      "Rows retried after a store timeout.",
		}),
	}
	reg.MustRegister(m.rows, m.rowErrors, m.batches, m.batchDuration, m.retries)
	return m
}

func (m *Metrics) observeRow(platform model.Platform, outcome model.Outcome, rowErr *model.RowError) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues(string(platform), string(outcome)).Inc()
	if rowErr != nil {
		m.rowErrors.WithLabelValues(string(rowErr.Code)).Inc()
	}
}

func (m *Metrics) observeBatch(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.batches.WithLabelValues(status).Inc()
	m.batchDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) observeRetry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}
