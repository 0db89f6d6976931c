package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsSent tracks outbound RPC requests by command.
	RequestsSent = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "requests_sent_total",
			Help:      "Total number of outbound RPC requests sent",
		},
		[]string{"command"},
	)

	// RequestsReceived tracks inbound RPC requests by command.
	RequestsReceived = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "requests_received_total",
			Help:      "Total number of inbound RPC requests received",
		},
		[]string{"command"},
	)

	// ResponsesReceived tracks inbound RPC responses by command and outcome.
	ResponsesReceived = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "responses_received_total",
			Help:      "Total number of inbound RPC responses received",
		},
		[]string{"command", "outcome"}, // success, error
	)

	// EventsPublished tracks signed events published to relays.
	EventsPublished = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "events_published_total",
			Help:      "Total number of signed events published via the relay facade",
		},
	)

	// EventsReceived tracks inbound events observed by the relay facade.
	EventsReceived = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "events_received_total",
			Help:      "Total number of inbound events observed by the relay facade",
		},
	)
)
