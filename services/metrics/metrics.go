// Package metrics exposes the Prometheus metrics of the API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	// rejected requests by reason: missing_token, invalid_token, not_owner, forbidden
	AuthFailures *prometheus.CounterVec

	BackupExports prometheus.Counter

	// dashboard aggregation latency by report
	ReportDuration *prometheus.HistogramVec
}

// New registers every metric on a registry of its own, next to the Go runtime collectors.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		AuthFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Rejected requests by reason",
		}, []string{"reason"}),

		BackupExports: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backup_exports_total",
			Help:      "Backup exports served",
		}),

		ReportDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dashboard_report_duration_seconds",
			Help:      "Duration of dashboard reports, store reads included",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"report"}),
	}
}

func (m *Metrics) IncAuthFailure(reason string) {
	if m != nil {
		m.AuthFailures.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) IncBackupExports() {
	if m != nil {
		m.BackupExports.Inc()
	}
}

func (m *Metrics) ObserveReport(report string, d time.Duration) {
	if m != nil {
		m.ReportDuration.WithLabelValues(report).Observe(d.Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
