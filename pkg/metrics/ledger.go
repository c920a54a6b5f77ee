package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics records the outcome of ledger units of work.
type LedgerMetrics struct {
	duration          *prometheus.HistogramVec
	lockTimeouts      *prometheus.CounterVec
	insufficientFunds prometheus.Counter
	ordersAccepted    *prometheus.CounterVec
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_unit_duration_seconds",
		Help:    "Duration of ledger units of work in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})
	lockTimeouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_lock_timeouts",
		Help: "Wallet row lock waits that exceeded the configured timeout.",
	}, []string{"operation"})
	insufficientFunds := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_insufficient_funds",
		Help: "Debits rejected because the balance would go negative.",
	})
	ordersAccepted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_accepted",
		Help: "Orders accepted by the register.",
	}, []string{"status"})
	reg.MustRegister(duration, lockTimeouts, insufficientFunds, ordersAccepted)
	return &LedgerMetrics{
		duration:          duration,
		lockTimeouts:      lockTimeouts,
		insufficientFunds: insufficientFunds,
		ordersAccepted:    ordersAccepted,
	}
}

// ObserveUnit records the duration and outcome for the named operation.
func (l *LedgerMetrics) ObserveUnit(operation, outcome string, duration time.Duration) {
	if l == nil || l.duration == nil {
		return
	}
	l.duration.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncLockTimeout increments the lock timeout counter for the named operation.
func (l *LedgerMetrics) IncLockTimeout(operation string) {
	if l == nil || l.lockTimeouts == nil {
		return
	}
	l.lockTimeouts.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncInsufficientFunds increments the rejected debit counter.
func (l *LedgerMetrics) IncInsufficientFunds() {
	if l == nil || l.insufficientFunds == nil {
		return
	}
	l.insufficientFunds.Inc()
}

// IncOrderAccepted increments the accepted order counter for the status.
func (l *LedgerMetrics) IncOrderAccepted(status string) {
	if l == nil || l.ordersAccepted == nil {
		return
	}
	l.ordersAccepted.WithLabelValues(normalizeLabel(status)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
