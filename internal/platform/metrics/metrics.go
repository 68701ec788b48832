package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the registry.
type Metrics struct {
	ProofsAdded       prometheus.Counter
	ProofsDeleted     prometheus.Counter
	Confirmations     prometheus.Counter
	Transfers         prometheus.Counter
	RoleGrants        prometheus.Counter
	RoleRevokes       prometheus.Counter
	FailedOperations  *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

// New creates and registers all metrics against the given registerer. main
// passes prometheus.DefaultRegisterer; tests pass a throwaway registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ProofsAdded: factory.NewCounter(prometheus.CounterOpts{
			Name: "proofvault_proofs_added_total",
			Help: "Total number of proofs successfully registered",
		}),
		ProofsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "proofvault_proofs_deleted_total",
			Help: "Total number of proofs deleted",
		}),
		Confirmations: factory.NewCounter(prometheus.CounterOpts{
			Name: "proofvault_confirmations_total",
			Help: "Total number of proof confirmations recorded",
		}),
		Transfers: factory.NewCounter(prometheus.CounterOpts{
			Name: "proofvault_transfers_total",
			Help: "Total number of ownership transfers, mints and burns excluded",
		}),
		RoleGrants: factory.NewCounter(prometheus.CounterOpts{
			Name: "proofvault_role_grants_total",
			Help: "Total number of effective role grants",
		}),
		RoleRevokes: factory.NewCounter(prometheus.CounterOpts{
			Name: "proofvault_role_revokes_total",
			Help: "Total number of effective role revocations",
		}),
		FailedOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "proofvault_failed_operations_total",
			Help: "Operations rejected before mutation, by domain error code",
		}, []string{"code"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "proofvault_operation_duration_seconds",
			Help:    "Latency of registry operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// ObserveOperation records one operation's latency.
func (m *Metrics) ObserveOperation(op string, start time.Time) {
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// RecordFailure counts a rejected operation by its domain code.
func (m *Metrics) RecordFailure(code string) {
	m.FailedOperations.WithLabelValues(code).Inc()
}
