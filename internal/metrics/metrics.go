// Package metrics exposes Prometheus instruments for the settlement
// pipeline. Counters are registered via promauto at init time and served
// on /metrics by both binaries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsPublished counts settlement events published to the queue,
	// including reconciliation re-publishes.
	EventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transflow_settlement_events_published_total",
		Help: "Total settlement events published to the settlement queue",
	})

	// SettlementsTotal counts processed deliveries by outcome
	// (settled, unmatched, duplicate).
	SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transflow_settlements_total",
		Help: "Total settlement deliveries processed, labeled by outcome",
	}, []string{"outcome"})

	// SettlementFailures counts deliveries that errored and were handed
	// back to the channel for redelivery.
	SettlementFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transflow_settlement_failures_total",
		Help: "Total settlement deliveries that failed and were requeued",
	})

	// MalformedEvents counts deliveries dropped because the payload did
	// not decode into a settlement event.
	MalformedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transflow_malformed_events_total",
		Help: "Total deliveries dropped as undecodable",
	})
)
