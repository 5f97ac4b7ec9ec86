package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BrokerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mock_bus_broker_requests_total",
			Help: "Total number of management requests issued to the broker by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	ReconcilePasses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mock_bus_reconcile_passes_total",
			Help: "Total number of reconciliation passes by outcome (clean or with skipped entities).",
		},
		[]string{"outcome"},
	)

	ReconcileCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mock_bus_reconcile_created_total",
			Help: "Total number of broker resources provisioned by the reconciler by resource type.",
		},
		[]string{"resource"},
	)

	CascadeDeletes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mock_bus_cascade_deletes_total",
			Help: "Total number of cascade delete operations by scope and outcome.",
		},
		[]string{"scope", "outcome"},
	)
)

func Register() {

}
