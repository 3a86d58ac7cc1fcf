package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	symbolsFetched *prometheus.CounterVec
	rowsIngested   *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	queryDuration  *prometheus.HistogramVec
	lastRefresh    prometheus.Gauge
	signalRows     prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		symbolsFetched: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketradar_symbols_fetched_total",
				Help: "Per-symbol ingestion fetch outcomes",
			},
			[]string{"result"},
		),
		rowsIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketradar_rows_ingested_total",
				Help: "Rows appended to bronze tables",
			},
			[]string{"table"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketradar_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		queryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketradar_operation_duration_seconds",
				Help:    "Duration of pipeline operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		lastRefresh: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "marketradar_last_refresh_timestamp_seconds",
				Help: "Unix time of the last successful pipeline refresh",
			},
		),
		signalRows: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "marketradar_signal_rows",
				Help: "Rows produced by the most recent signal computation",
			},
		),
	}
}

// RecordSymbolFetched records a per-symbol fetch outcome.
func (r *Recorder) RecordSymbolFetched(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	r.symbolsFetched.WithLabelValues(result).Inc()
}

// RecordRowsIngested records rows appended to a bronze table.
func (r *Recorder) RecordRowsIngested(table string, n int) {
	r.rowsIngested.WithLabelValues(table).Add(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordDuration records operation duration in seconds.
func (r *Recorder) RecordDuration(op string, seconds float64) {
	r.queryDuration.WithLabelValues(op).Observe(seconds)
}

// RecordRefresh marks a successful full pipeline refresh.
func (r *Recorder) RecordRefresh(unixSeconds float64) {
	r.lastRefresh.Set(unixSeconds)
}

// RecordSignalRows records the size of the latest ranked result set.
func (r *Recorder) RecordSignalRows(n int) {
	r.signalRows.Set(float64(n))
}
