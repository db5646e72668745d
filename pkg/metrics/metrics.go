// Package metrics holds the Prometheus collectors of the studies server.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "pvstudies_"

	ResultSuccess = "success"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	studyRuns    *prometheus.CounterVec
	studyLatency *prometheus.HistogramVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	missingHours prometheus.Histogram
)

// Init registers the collectors with the default registry. It is safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		studyRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "study_runs_total",
				Help: "Total study runs by tariff and result",
			},
			[]string{"tariff", "result"},
		)
		studyLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "study_run_latency_seconds",
				Help:    "Study run latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "study_export_total",
				Help: "Total study exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "study_export_latency_seconds",
				Help:    "Study export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format"},
		)
		missingHours = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "consumption_missing_hours",
				Help:    "Hours filled in while normalizing metered consumption",
				Buckets: []float64{0, 1, 24, 168, 720, 2190, 8760},
			},
		)
		prometheus.MustRegister(
			studyRuns,
			studyLatency,
			exportTotal,
			exportLatency,
			missingHours,
		)
	})
}

// ObserveStudyRun records a study run's latency and result.
func ObserveStudyRun(tariff, result string, duration time.Duration) {
	if tariff == "" {
		tariff = "unknown"
	}
	if result == "" {
		result = ResultSuccess
	}
	if studyRuns != nil {
		studyRuns.WithLabelValues(tariff, result).Inc()
	}
	if studyLatency != nil {
		studyLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveExport records a study export's latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = ResultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format).Observe(duration.Seconds())
	}
}

// ObserveMissingHours records how many hours of a metered curve were filled in.
func ObserveMissingHours(n int) {
	if n < 0 {
		return
	}
	if missingHours != nil {
		missingHours.Observe(float64(n))
	}
}
