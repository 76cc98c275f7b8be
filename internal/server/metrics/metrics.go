// Package metrics exposes the server's Prometheus collectors on a private
// registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK                 = "ok"
	OutcomeInvalidInput       = "invalid_input"
	OutcomeWeakCredential     = "weak_credential"
	OutcomeAlreadyExists      = "already_exists"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeError              = "error"
)

type Metrics struct {
	registry *prometheus.Registry
	signups  *prometheus.CounterVec
	logins   *prometheus.CounterVec
	hashes   *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authkeeper",
			Name:      "signup_total",
			Help:      "Signup attempts by outcome.",
		}, []string{"outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authkeeper",
			Name:      "login_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		hashes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "authkeeper",
			Name:      "hash_seconds",
			Help:      "Time spent deriving password digests.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"op"}),
	}

	m.registry.MustRegister(
		m.signups,
		m.logins,
		m.hashes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) SignupOutcome(outcome string) { m.signups.WithLabelValues(outcome).Inc() }

func (m *Metrics) LoginOutcome(outcome string) { m.logins.WithLabelValues(outcome).Inc() }

// ObserveHash matches the hasher observer signature.
func (m *Metrics) ObserveHash(op string, d time.Duration) {
	m.hashes.WithLabelValues(op).Observe(d.Seconds())
}

// Registry is exposed for tests and for callers adding their own collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
