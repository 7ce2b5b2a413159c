// Package metrics defines the custom Prometheus metrics of the todo board
// service. It is the single source of truth for metric names, labels, and
// help strings. Metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "todo"

// ── Store metrics ─────────────────────────────────────────────────────────────

// StoreOperationDuration measures each ports.Store call.
// Labels:
//   - backend: "memory", "dynamodb" or "mongo"
//   - operation: "get", "put", "update", "delete", "query" or "query_index"
var StoreOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "store_operation_duration_seconds",
		Help:      "Duration of key-value store operations.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"backend", "operation"},
)

// StoreErrorsTotal counts store calls that failed.
// Labels:
//   - backend, operation: as above
//   - kind: "not_found", "conflict", "already_exists", "validation" or "internal"
var StoreErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_errors_total",
		Help:      "Total number of failed key-value store operations.",
	},
	[]string{"backend", "operation", "kind"},
)

// CacheRequestsTotal counts read-cache lookups.
// Label:
//   - result: "hit" or "miss"
var CacheRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_requests_total",
		Help:      "Total number of read-cache lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// ── Domain metrics ────────────────────────────────────────────────────────────

// EntitiesCreatedTotal counts newly created entities.
// Label:
//   - entity: "user", "tenant", "project", "member", "task", "stage", "target", "action", "cell", "invitation"
var EntitiesCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entities_created_total",
		Help:      "Total number of entities created, by entity type.",
	},
	[]string{"entity"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsDispatchedTotal counts notifications handled by the dispatcher.
// Labels:
//   - type: the notification type
//   - result: "stored", "failed" or "dropped"
var NotificationsDispatchedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_dispatched_total",
		Help:      "Total number of notifications handled by the dispatcher.",
	},
	[]string{"type", "result"},
)

// NotificationQueueDepth tracks pending notifications per worker channel.
// Label:
//   - worker_id: numeric worker index
var NotificationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Current number of notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// RemindersSentTotal counts due-date reminders published by the scheduler.
var RemindersSentTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reminders_sent_total",
		Help:      "Total number of due-date reminders published.",
	},
)

// ReminderRunsTotal counts scheduled reminder runs.
// Label:
//   - result: "ok" or "error"
var ReminderRunsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reminder_runs_total",
		Help:      "Total number of scheduled reminder runs, by result.",
	},
	[]string{"result"},
)
