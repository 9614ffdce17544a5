// Package metrics holds the Prometheus counters of the API client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "scholardesk_client"

// Request outcomes
const (
	OutcomeOK        = "ok"
	OutcomeHTTPError = "http_error"
	OutcomeError     = "error"
	OutcomeAuth      = "auth_failed"
)

// Refresh outcomes
const (
	RefreshOK      = "ok"
	RefreshFailed  = "failed"
	RefreshNoToken = "no_token"
	RefreshReused  = "reused"
)

// Metrics groups the client counters
type Metrics struct {
	Requests       *prometheus.CounterVec
	Refreshes      *prometheus.CounterVec
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	CacheEvictions prometheus.Counter
}

// New creates the counters and registers them on reg.
// A nil reg leaves them unregistered
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "Access token refresh attempts by outcome.",
		}, []string{"outcome"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Read cache hits.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Read cache misses, expired entries included.",
		}),
		CacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Expired entries removed on read.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Requests, m.Refreshes, m.CacheHits, m.CacheMisses, m.CacheEvictions)
	}
	return m
}

// Nop returns unregistered counters
func Nop() *Metrics {
	return New(nil)
}

// ObserveRequest counts one finished logical request
func (m *Metrics) ObserveRequest(method, outcome string) {
	m.Requests.WithLabelValues(method, outcome).Inc()
}

// ObserveRefresh counts one refresh attempt
func (m *Metrics) ObserveRefresh(outcome string) {
	m.Refreshes.WithLabelValues(outcome).Inc()
}
