// Package metrics holds the prometheus collectors for scoring decisions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors exported on /metrics.
type Metrics struct {
	Registry *prometheus.Registry

	decisions  *prometheus.CounterVec
	routeScore prometheus.Histogram
	requests   *prometheus.CounterVec
	reloads    *prometheus.CounterVec
}

// New registers all collectors on a fresh registry, so tests and
// multiple servers in one process do not collide.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meshgate_decisions_total",
			Help: "Crypto plan decisions by band and algorithm",
		}, []string{"band", "alg"}),
		routeScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "meshgate_route_score",
			Help:    "Distribution of computed route scores",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meshgate_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meshgate_policy_reloads_total",
			Help: "Policy hot-reload attempts by result",
		}, []string{"result"}),
	}
	reg.MustRegister(m.decisions, m.routeScore, m.requests, m.reloads)
	return m
}

// ObserveDecision records one pipeline outcome.
func (m *Metrics) ObserveDecision(band, alg string, routeScore float64) {
	m.decisions.WithLabelValues(band, alg).Inc()
	m.routeScore.Observe(routeScore)
}

// ObserveRequest counts an HTTP response.
func (m *Metrics) ObserveRequest(route, code string) {
	m.requests.WithLabelValues(route, code).Inc()
}

// ObserveReload counts a policy reload attempt ("ok" or "error").
func (m *Metrics) ObserveReload(result string) {
	m.reloads.WithLabelValues(result).Inc()
}
