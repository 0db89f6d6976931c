package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsCreated tracks sessions allocated by the session engine.
	SessionsCreated = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "created_total",
			Help:      "Total number of sessions created",
		},
		[]string{"role"}, // initiator, acceptor
	)

	// SessionsActive tracks currently active (non-terminal) sessions.
	SessionsActive = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "active",
			Help:      "Number of currently active sessions",
		},
	)

	// SessionStateTransitions tracks every session state transition.
	SessionStateTransitions = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "state_transitions_total",
			Help:      "Total number of session state transitions",
		},
		[]string{"from", "to"},
	)

	// SessionsDisconnected tracks sessions that reached Disconnected.
	SessionsDisconnected = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "disconnected_total",
			Help:      "Total number of sessions disconnected",
		},
	)

	// PendingRequests tracks the number of outstanding pending requests.
	PendingRequests = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "pending_requests",
			Help:      "Number of outbound RPC requests awaiting a response",
		},
	)

	// PendingRequestsDropped tracks responses/requests dropped for having no
	// matching session or pending entry.
	PendingRequestsDropped = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "dropped_total",
			Help:      "Total number of inbound frames dropped (no session / no pending entry / decrypt failure)",
		},
		[]string{"reason"},
	)
)
