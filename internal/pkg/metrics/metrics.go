package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the authorization core
type Metrics struct {
	registry      *prometheus.Registry
	handler       http.Handler
	sessions      *prometheus.CounterVec
	decisions     *prometheus.CounterVec
	adminSyncs    prometheus.Counter
	tokensPurged  prometheus.Counter
	permissionOps *prometheus.CounterVec
}

// New registers all collectors on a private registry
func New() *Metrics {
	registry := prometheus.NewRegistry()
	sessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "edvisa_auth_sessions_total",
		Help: "Login and refresh attempts by operation and outcome.",
	}, []string{"operation", "outcome"})
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "edvisa_authz_decisions_total",
		Help: "Authorization decisions by route and decision.",
	}, []string{"route", "decision"})
	adminSyncs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "edvisa_admin_permission_syncs_total",
		Help: "Admin permission resets applied during login or refresh.",
	})
	tokensPurged := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "edvisa_refresh_tokens_purged_total",
		Help: "Expired refresh tokens deleted by the cleanup job.",
	})
	permissionOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "edvisa_permission_changes_total",
		Help: "Explicit permission grants and revocations.",
	}, []string{"operation"})
	registry.MustRegister(sessions, decisions, adminSyncs, tokensPurged, permissionOps)
	return &Metrics{
		registry:      registry,
		handler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		sessions:      sessions,
		decisions:     decisions,
		adminSyncs:    adminSyncs,
		tokensPurged:  tokensPurged,
		permissionOps: permissionOps,
	}
}

// Handler serves the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveSession counts a login/refresh outcome
func (m *Metrics) ObserveSession(operation, outcome string) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(operation, outcome).Inc()
}

// ObserveDecision counts an authorization decision
func (m *Metrics) ObserveDecision(route, decision string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(route, decision).Inc()
}

// ObserveAdminSync counts an Admin permission reset
func (m *Metrics) ObserveAdminSync() {
	if m == nil {
		return
	}
	m.adminSyncs.Inc()
}

// ObserveTokensPurged adds n purged refresh tokens
func (m *Metrics) ObserveTokensPurged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.tokensPurged.Add(float64(n))
}

// ObservePermissionChange counts a grant or revoke
func (m *Metrics) ObservePermissionChange(operation string) {
	if m == nil {
		return
	}
	m.permissionOps.WithLabelValues(operation).Inc()
}
