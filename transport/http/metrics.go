package http

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts flow outcomes for Prometheus scraping
type Metrics struct {
	logins    *prometheus.CounterVec
	refreshes *prometheus.CounterVec
}

// NewMetrics creates the flow counters and registers them
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teslatracker_logins_total",
			Help: "OAuth login flow outcomes",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teslatracker_token_refreshes_total",
			Help: "Tesla token refresh outcomes",
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.logins, m.refreshes)

	return m
}

// RecordLogin records a login flow outcome
func (m *Metrics) RecordLogin(outcome string) {
	m.logins.WithLabelValues(outcome).Inc()
}

// RecordRefresh records a refresh outcome
func (m *Metrics) RecordRefresh(outcome string) {
	m.refreshes.WithLabelValues(outcome).Inc()
}
