// Package metrics exposes scrape pipeline counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/startup-roles/backend/internal/domain"
)

const namespace = "startup_roles"

// Metrics holds the pipeline collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal          *prometheus.CounterVec
	RunDuration        prometheus.Histogram
	SourceRuns         *prometheus.CounterVec
	SourceDuration     *prometheus.HistogramVec
	RecordsExtracted   *prometheus.CounterVec
	RecordsRejected    *prometheus.CounterVec
	RolesCreated       *prometheus.CounterVec
	SourcesCreated     *prometheus.CounterVec
	PersistFailures    *prometheus.CounterVec
	RolesDeactivated   prometheus.Counter
	LastRunCompletedAt prometheus.Gauge
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// New creates the collectors on a private registry that also carries the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "runs_total",
			Help: "Scrape runs by final status",
		}, []string{"status"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "run_duration_seconds",
			Help:    "Wall time of full scrape runs",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10s to ~85min
		}),
		SourceRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "source_runs_total",
			Help: "Extractor runs by source and outcome",
		}, []string{"source", "outcome"}),
		SourceDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "source_duration_seconds",
			Help:    "Time spent fetching and extracting one source",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"source"}),
		RecordsExtracted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "records_extracted_total",
			Help: "Valid records produced by extractors",
		}, []string{"source"}),
		RecordsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "records_rejected_total",
			Help: "Candidates dropped by the validity classifier, by failing check",
		}, []string{"source", "check"}),
		RolesCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "roles_created_total",
			Help: "Roles created by reconciliation",
		}, []string{"source"}),
		SourcesCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "role_sources_created_total",
			Help: "Role sources created by reconciliation",
		}, []string{"source"}),
		PersistFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "persist_failures_total",
			Help: "Records skipped because the store rejected them",
		}, []string{"source"}),
		RolesDeactivated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "roles_deactivated_total",
			Help: "Roles deactivated by cleanup",
		}),
		LastRunCompletedAt: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_run_completed_timestamp_seconds",
			Help: "Unix time the last scrape run finished",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "API requests by route and status code",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "API request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Registry returns the registry backing Handler
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRejection counts a classifier rejection
func (m *Metrics) ObserveRejection(source, check string) {
	if m == nil {
		return
	}
	m.RecordsRejected.WithLabelValues(source, check).Inc()
}

// ObserveSource records one extractor's contribution
func (m *Metrics) ObserveSource(s domain.SourceSummary) {
	if m == nil {
		return
	}
	outcome := "success"
	if !s.Success {
		outcome = "failure"
	}
	m.SourceRuns.WithLabelValues(s.Source, outcome).Inc()
	m.SourceDuration.WithLabelValues(s.Source).Observe(s.Duration.Seconds())
	m.RecordsExtracted.WithLabelValues(s.Source).Add(float64(s.Extracted))
	m.RolesCreated.WithLabelValues(s.Source).Add(float64(s.NewRoles))
	m.SourcesCreated.WithLabelValues(s.Source).Add(float64(s.NewSources))
	m.PersistFailures.WithLabelValues(s.Source).Add(float64(s.PersistFailures))
}

// ObserveRun records a finished run; a nil summary counts as a failed run.
func (m *Metrics) ObserveRun(summary *domain.RunSummary, err error) {
	if m == nil {
		return
	}
	status := string(domain.RunStatusCompleted)
	if err != nil || summary == nil {
		status = string(domain.RunStatusFailed)
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	if summary != nil {
		m.RunDuration.Observe(summary.Duration().Seconds())
		m.LastRunCompletedAt.Set(float64(summary.FinishedAt.Unix()))
	} else {
		m.LastRunCompletedAt.Set(float64(time.Now().Unix()))
	}
}

// ObserveDeactivated counts roles removed from the catalog by cleanup
func (m *Metrics) ObserveDeactivated(n int) {
	if m == nil {
		return
	}
	m.RolesDeactivated.Add(float64(n))
}

// ObserveHTTP records one API request. route is the matched route pattern, not the raw path.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
