// Package metrics holds the Prometheus collectors of the server. All methods
// are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "memorylocks"

type Metrics struct {
	HTTPRequestsTotal      *prometheus.CounterVec   // method, route, status
	HTTPRequestDuration    *prometheus.HistogramVec // method, route
	RateLimitedTotal       *prometheus.CounterVec   // policy
	ScansTotal             prometheus.Counter
	MilestonesTotal        *prometheus.CounterVec // milestone
	NotifyFailuresTotal    prometheus.Counter
	BulkItemsTotal         *prometheus.CounterVec // operation, outcome
	AssetDeleteErrorsTotal prometheus.Counter

	registry *prometheus.Registry
}

// New registers all collectors, plus Go runtime and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		RateLimitedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter by policy",
		}, []string{"policy"}),
		ScansTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lock_scans_total",
			Help:      "Recorded lock scans",
		}),
		MilestonesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lock_milestones_total",
			Help:      "Milestones reached by value",
		}, []string{"milestone"}),
		NotifyFailuresTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "milestone_notify_failures_total",
			Help:      "Milestone notifications that could not be delivered",
		}),
		BulkItemsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_items_total",
			Help:      "Items processed by bulk operations by outcome",
		}, []string{"operation", "outcome"}),
		AssetDeleteErrorsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_delete_errors_total",
			Help:      "Stored media assets that could not be deleted",
		}),
	}
}

// Registry returns the registry backing /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) RateLimited(policy string) {
	if m == nil {
		return
	}
	m.RateLimitedTotal.WithLabelValues(policy).Inc()
}

func (m *Metrics) Scan() {
	if m == nil {
		return
	}
	m.ScansTotal.Inc()
}

func (m *Metrics) MilestoneReached(milestone int64) {
	if m == nil {
		return
	}
	m.MilestonesTotal.WithLabelValues(strconv.FormatInt(milestone, 10)).Inc()
}

func (m *Metrics) NotifyFailed() {
	if m == nil {
		return
	}
	m.NotifyFailuresTotal.Inc()
}

func (m *Metrics) BulkItems(operation string, succeeded, failed int) {
	if m == nil {
		return
	}
	m.BulkItemsTotal.WithLabelValues(operation, "succeeded").Add(float64(succeeded))
	m.BulkItemsTotal.WithLabelValues(operation, "failed").Add(float64(failed))
}

func (m *Metrics) AssetDeleteFailed() {
	if m == nil {
		return
	}
	m.AssetDeleteErrorsTotal.Inc()
}
