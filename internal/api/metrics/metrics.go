// Package metrics defines and registers all custom Prometheus metrics for the
// TaskFlow API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// init through promauto; HTTP request metrics come from echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "taskflow"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts auth operations.
// Labels:
//   - operation: "register", "login", "password_reset_request", "password_reset"
//   - result: "ok" or a short failure reason (e.g. "duplicate_email", "invalid_credentials")
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of auth operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// ResetEmailsTotal counts password reset emails handed to the mailer.
// Label:
//   - result: "sent" or "failed"
var ResetEmailsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reset_emails_total",
		Help:      "Total number of password reset emails, by delivery result.",
	},
	[]string{"result"},
)

// ── Task store metrics ────────────────────────────────────────────────────────

// TaskMutationsTotal counts committed task collection writes.
// Label:
//   - operation: "create", "update", "delete", "progress", "toggle", "complete", "move"
var TaskMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_mutations_total",
		Help:      "Total number of committed task mutations, by operation.",
	},
	[]string{"operation"},
)

// TaskVersionConflictsTotal counts compare-and-swap conflicts that forced a retry.
var TaskVersionConflictsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_version_conflicts_total",
		Help:      "Total number of optimistic version conflicts on task collections.",
	},
)

// TaskSubscribers tracks open change-feed subscriptions.
var TaskSubscribers = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "task_subscribers",
		Help:      "Current number of open task change subscriptions.",
	},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditEventsTotal counts audit events by outcome.
// Labels:
//   - action: "register", "login", "password_reset"
//   - result: "stored", "failed" or "dropped"
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of auth audit events, by action and result.",
	},
	[]string{"action", "result"},
)

// AuditQueueDepth tracks the number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
