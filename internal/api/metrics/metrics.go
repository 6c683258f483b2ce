// Package metrics defines and registers the custom Prometheus metrics of the
// role service. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics register with the default registry on import via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "roles"

// ── Role assignment ──────────────────────────────────────────────────────────

// AssignmentsTotal counts role assignment requests by outcome.
// Label:
//   - outcome: "assigned", "validation", "invalid_role", "rate_limited",
//     "forbidden", "target_not_found", "target_disabled", "unauthenticated", "error"
var AssignmentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "assignments_total",
		Help:      "Total number of role assignment requests, by outcome.",
	},
	[]string{"outcome"},
)

// RateLimitDecisionsTotal counts limiter verdicts.
// Label:
//   - verdict: "allowed", "denied_quota", "denied_unavailable"
var RateLimitDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_decisions_total",
		Help:      "Total number of rate limit checks, by verdict.",
	},
	[]string{"verdict"},
)

// ── Access resolution ────────────────────────────────────────────────────────

// AccessDecisionsTotal counts page guard outcomes.
// Labels:
//   - surface: requested surface, e.g. "/dashboard"
//   - state: "authorized" or "redirected"
var AccessDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_decisions_total",
		Help:      "Total number of role-scoped page decisions.",
	},
	[]string{"surface", "state"},
)

// DegradedResolutionsTotal counts resolutions that fell back to token claims
// because the Profile could not be read.
var DegradedResolutionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "degraded_resolutions_total",
		Help:      "Total number of role resolutions made from token claims only.",
	},
)

// ── Dispatcher ───────────────────────────────────────────────────────────────

// EventsQueueDepth is the number of role change events waiting for a worker.
var EventsQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of role change events pending in the dispatcher.",
	},
)

// EventsDroppedTotal counts role change events discarded because the target's
// worker queue was full.
var EventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Total number of role change events dropped on a full dispatcher queue.",
	},
)
