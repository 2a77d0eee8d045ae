// Package metrics defines and registers all custom Prometheus metrics for the
// eatwhat API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default registry on package init through
// promauto, so importing the package is enough.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "eatwhat"

// ── Event metrics ─────────────────────────────────────────────────────────────

// EventsPublishedTotal counts session events handed to the broker.
// Labels:
//   - type: the event type (e.g. "session.locked")
//   - result: "ok" or "error"
var EventsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Total number of session events published, by type and result.",
	},
	[]string{"type", "result"},
)

// EventsDroppedTotal counts events rejected because a worker queue was full
// or the dispatcher was already stopped.
var EventsDroppedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Total number of session events dropped before publishing.",
	},
	[]string{"type"},
)

// EventsQueueDepth tracks the current number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var EventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// EventPublishDuration measures how long a single broker publish takes.
var EventPublishDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "event_publish_duration_seconds",
		Help:      "Duration of a single session event publish.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"type"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionsCreatedTotal counts newly opened sessions.
var SessionsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_created_total",
		Help:      "Total number of sessions created.",
	},
)

// SessionsLockedTotal counts ACTIVE -> LOCKED transitions.
// Label:
//   - trigger: "manual" (PUT /lock) or "pick" (random pick)
var SessionsLockedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_locked_total",
		Help:      "Total number of sessions locked, by trigger.",
	},
	[]string{"trigger"},
)

// RestaurantsSubmittedTotal counts ledger entries accepted.
var RestaurantsSubmittedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "restaurants_submitted_total",
		Help:      "Total number of restaurants submitted to a session ledger.",
	},
)

// PicksTotal counts random pick attempts.
// Label:
//   - result: "picked", "locked", "empty", "busy", "denied", or "error"
var PicksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "picks_total",
		Help:      "Total number of random pick requests, by outcome.",
	},
	[]string{"result"},
)

// ── User metrics ──────────────────────────────────────────────────────────────

// UsersImportedTotal counts rows processed by CSV imports.
// Label:
//   - result: "imported" or "skipped"
var UsersImportedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_imported_total",
		Help:      "Total number of CSV rows processed by user imports, by result.",
	},
	[]string{"result"},
)
