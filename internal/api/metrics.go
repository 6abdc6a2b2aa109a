package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service Prometheus metrics.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	ReportBuildsTotal   *prometheus.CounterVec
	ReportBuildDuration prometheus.Histogram
}

// NewMetrics registers the service metrics on the default registry.
func NewMetrics() *Metrics {
	return newMetricsWith(prometheus.DefaultRegisterer)
}

func newMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "posture_report_http_requests_total",
			Help: "HTTP requests by method, path and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "posture_report_http_request_duration_seconds",
			Help:    "HTTP request latency by method and path.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),

		ReportBuildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "posture_report_builds_total",
			Help: "Report builds by outcome.",
		}, []string{"outcome"}),

		ReportBuildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "posture_report_build_duration_seconds",
			Help:    "End-to-end report build latency.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}
}
