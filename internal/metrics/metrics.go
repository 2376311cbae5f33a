package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "membership/internal/errors"
)

const namespace = "membership"

// Metrics holds the application counters and the registry they are exposed from.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	signups     *prometheus.CounterVec
	signins     *prometheus.CounterVec
	logouts     *prometheus.CounterVec
	roleChanges *prometheus.CounterVec
}

// New registers the counters on a fresh registry together with the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signups_total",
			Help:      "Signup attempts by result.",
		}, []string{"result"}),
		signins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signins_total",
			Help:      "Signin attempts by result.",
		}, []string{"result"}),
		logouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logouts_total",
			Help:      "Logouts by result.",
		}, []string{"result"}),
		roleChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "role_changes_total",
			Help:      "Admin role mutations by action and result.",
		}, []string{"action", "result"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.signups, m.signins, m.logouts, m.roleChanges,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveSignup(err error) {
	if m == nil {
		return
	}
	m.signups.WithLabelValues(Result(err)).Inc()
}

func (m *Metrics) ObserveSignin(err error) {
	if m == nil {
		return
	}
	m.signins.WithLabelValues(Result(err)).Inc()
}

func (m *Metrics) ObserveLogout(err error) {
	if m == nil {
		return
	}
	m.logouts.WithLabelValues(Result(err)).Inc()
}

func (m *Metrics) ObserveRoleChange(action string, err error) {
	if m == nil {
		return
	}
	m.roleChanges.WithLabelValues(action, Result(err)).Inc()
}

// Result turns an operation outcome into a low-cardinality label value.
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ToLower(apperrors.MapErrorToHTTP(err).Code)
}
