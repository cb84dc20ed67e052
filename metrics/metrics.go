// ABOUTME: Prometheus collectors for upstream calls and session lifecycle
// ABOUTME: All recording methods are safe on a nil *Metrics

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upstream call outcomes
const (
	OutcomeSuccess         = "success"
	OutcomeUpstreamError   = "upstream_error"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeInvalidResponse = "invalid_response"
	OutcomeTimeout         = "timeout"
	OutcomeUnavailable     = "unavailable"
)

// Metrics holds all Prometheus metrics for the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	SessionsCreated  *prometheus.CounterVec
	AutoLogouts      prometheus.Counter
}

// New creates and registers all metrics with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UpstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "drive_bff_upstream_requests_total",
			Help: "Forwarded upstream calls by operation and outcome",
		}, []string{"operation", "outcome"}),
		UpstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "drive_bff_upstream_request_duration_seconds",
			Help:    "Latency of forwarded upstream calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		SessionsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "drive_bff_sessions_created_total",
			Help: "Sessions established, by login method",
		}, []string{"method"}),
		AutoLogouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "drive_bff_auto_logouts_total",
			Help: "Sessions cleared because upstream rejected the token",
		}),
	}
}

// ObserveUpstream records one forwarded call
func (m *Metrics) ObserveUpstream(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(operation, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// IncrementSessionsCreated counts a new session for method (password, google, auto_login)
func (m *Metrics) IncrementSessionsCreated(method string) {
	if m == nil {
		return
	}
	m.SessionsCreated.WithLabelValues(method).Inc()
}

// IncrementAutoLogouts counts one auto-logout
func (m *Metrics) IncrementAutoLogouts() {
	if m == nil {
		return
	}
	m.AutoLogouts.Inc()
}
