package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/dochub/internal/domain"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Authorization metrics
	AccessChecks *prometheus.CounterVec

	// Token metrics
	TokenStates  *prometheus.CounterVec
	TokensIssued prometheus.Counter

	// Role registry metrics
	RoleMutations *prometheus.CounterVec
	TxRetries     *prometheus.CounterVec

	// Authentication metrics
	AuthAttempts *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Audit metrics
	AuditLogsCreated *prometheus.CounterVec
	AuditQueueDepth  prometheus.Gauge
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AccessChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dochub_access_checks_total",
				Help: "Total access checks by scope and outcome",
			},
			[]string{"scope", "granted"},
		),

		TokenStates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dochub_token_states_total",
				Help: "Total classified bearer tokens by state",
			},
			[]string{"state"},
		),
		TokensIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "dochub_tokens_issued_total",
			Help: "Total bearer tokens issued",
		}),

		RoleMutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dochub_role_mutations_total",
				Help: "Total role registry mutations by operation",
			},
			[]string{"operation"},
		),
		TxRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dochub_tx_retries_total",
				Help: "Transaction attempts repeated after a conflict, by SQLSTATE",
			},
			[]string{"sqlstate"},
		),

		AuthAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dochub_auth_attempts_total",
				Help: "Total authentication attempts",
			},
			[]string{"status"},
		),

		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dochub_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"limiter"},
		),

		AuditLogsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dochub_audit_logs_total",
				Help: "Total audit logs by outcome",
			},
			[]string{"status"},
		),
		AuditQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dochub_audit_queue_depth",
			Help: "Audit entries waiting to be persisted",
		}),
	}
}

// AccessChecked implements usecase.Observer.
func (m *Metrics) AccessChecked(scope domain.Scope, granted bool) {
	m.AccessChecks.WithLabelValues(string(scope), strconv.FormatBool(granted)).Inc()
}

// TokenClassified implements usecase.Observer.
func (m *Metrics) TokenClassified(state string) {
	m.TokenStates.WithLabelValues(state).Inc()
}

// TokenIssued implements usecase.Observer.
func (m *Metrics) TokenIssued() {
	m.TokensIssued.Inc()
}

// RoleMutated implements usecase.Observer.
func (m *Metrics) RoleMutated(operation string) {
	m.RoleMutations.WithLabelValues(operation).Inc()
}

// TxRetried implements postgres.RetryObserver.
func (m *Metrics) TxRetried(code string) {
	m.TxRetries.WithLabelValues(code).Inc()
}

// AuditRecorded counts an audit entry outcome: persisted, dropped or failed.
func (m *Metrics) AuditRecorded(status string) {
	m.AuditLogsCreated.WithLabelValues(status).Inc()
}

// AuditQueued reports the audit queue depth.
func (m *Metrics) AuditQueued(depth int) {
	m.AuditQueueDepth.Set(float64(depth))
}

// RateLimited counts a rejected request for limiter.
func (m *Metrics) RateLimited(limiter string) {
	m.RateLimitHits.WithLabelValues(limiter).Inc()
}

// AuthAttempt counts a login attempt.
func (m *Metrics) AuthAttempt(success bool) {
	status := "failure"
	if success {
		status = "success"
	}
	m.AuthAttempts.WithLabelValues(status).Inc()
}
