// Package metrics exposes Prometheus counters for the account flows.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values shared by both counters.
const (
	OutcomeSuccess  = "success"
	OutcomeInvalid  = "invalid"  // validation failure
	OutcomeConflict = "conflict" // duplicate registration
	OutcomeDenied   = "denied"   // bad credentials
	OutcomeError    = "error"    // internal failure
)

// AuthMetrics counts registration and login attempts by outcome.
type AuthMetrics struct {
	Registrations *prometheus.CounterVec
	Logins        *prometheus.CounterVec
}

// NewAuthMetrics creates the counters and registers them with reg.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	m := &AuthMetrics{
		Registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shortlink_registrations_total",
				Help: "Total number of registration attempts by outcome",
			},
			[]string{"outcome"},
		),
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shortlink_logins_total",
				Help: "Total number of login attempts by outcome",
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(m.Registrations)
	reg.MustRegister(m.Logins)

	return m
}

// ObserveRegistration records one registration attempt.
func (m *AuthMetrics) ObserveRegistration(outcome string) {
	m.Registrations.WithLabelValues(outcome).Inc()
}

// ObserveLogin records one login attempt.
func (m *AuthMetrics) ObserveLogin(outcome string) {
	m.Logins.WithLabelValues(outcome).Inc()
}

// NewRegistry returns a registry preloaded with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
