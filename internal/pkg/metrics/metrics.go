// Package metrics defines the custom Prometheus metrics of the Midnight
// service. Metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "midnight"

// SignInsTotal counts sign-in attempts.
// Labels:
//   - method: popup, redirect, email, signup, phone, demo
//   - result: ok, pending, error
var SignInsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sign_ins_total",
		Help:      "Total number of sign-in attempts by method and result.",
	},
	[]string{"method", "result"},
)

// RedirectRecoveriesTotal counts redirect recovery outcomes.
// Label:
//   - result: recovered, none, error
var RedirectRecoveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "redirect_recoveries_total",
		Help:      "Total number of redirect recovery checks by result.",
	},
	[]string{"result"},
)

// GateDecisionsTotal counts routing decisions by gate state and outcome.
var GateDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_decisions_total",
		Help:      "Total number of onboarding gate decisions.",
	},
	[]string{"state", "outcome"},
)

// DataMutationsTotal counts committed local mutations.
// Labels:
//   - kind: goal, task, reminder, journal, habit, domain_item, insight, chat
//   - op: add, update, delete, toggle, complete, dismiss, read, clear
var DataMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "data_mutations_total",
		Help:      "Total number of committed local data mutations.",
	},
	[]string{"kind", "op"},
)

// RemoteSuppressedTotal counts remote calls skipped because the session is
// in demo mode.
var RemoteSuppressedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "remote_suppressed_total",
		Help:      "Total number of remote store calls suppressed in demo mode.",
	},
	[]string{"op"},
)

// MirrorQueueDepth tracks pending mirror jobs per worker.
var MirrorQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mirror_queue_depth",
		Help:      "Current number of mirror jobs pending in each worker channel.",
	},
	[]string{"worker_id"},
)

// MirrorErrorsTotal counts failed mirror writes.
var MirrorErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mirror_errors_total",
		Help:      "Total number of mirror jobs that failed.",
	},
	[]string{"collection", "op"},
)

// AssistantRequestDuration measures assistant round trips.
var AssistantRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "assistant_request_duration_seconds",
		Help:      "Duration of AI assistant requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)
