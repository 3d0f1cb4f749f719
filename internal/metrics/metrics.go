package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	subsystem = "patient_import"

	jobsTotal     = "jobs_total"
	rowsTotal     = "rows_total"
	flushDuration = "flush_duration_seconds"

	statusLabel  = "status"
	outcomeLabel = "outcome"
)

// Row outcomes.
const (
	RowInserted = "inserted"
	RowUpdated  = "updated"
	RowSkipped  = "skipped"
	RowFailed   = "failed"
)

var jobsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      jobsTotal,
		Help:      "number of import jobs that reached a terminal status",
	},
	[]string{statusLabel},
)

var rowsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      rowsTotal,
		Help:      "number of imported rows by outcome",
	},
	[]string{outcomeLabel},
)

var flushDurationMetric = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Subsystem: subsystem,
		Name:      flushDuration,
		Help:      "time spent persisting one chunk of patients",
		Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5},
	},
)

func IncreaseJobsTotalMetric(status string) {
	jobsTotalMetric.With(prometheus.Labels{statusLabel: status}).Inc()
}

func AddRowsMetric(outcome string, n int) {
	if n <= 0 {
		return
	}
	rowsTotalMetric.With(prometheus.Labels{outcomeLabel: outcome}).Add(float64(n))
}

func ObserveFlushDuration(d time.Duration) {
	flushDurationMetric.Observe(d.Seconds())
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(jobsTotalMetric)
	prometheus.MustRegister(rowsTotalMetric)
	prometheus.MustRegister(flushDurationMetric)
}
