package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
var (
	AttrOperation = attribute.Key("operation")
	AttrOutcome   = attribute.Key("outcome")
	AttrStatus    = attribute.Key("status")
)

// LedgerMetrics records sale reconciliation and sweep activity.
// A nil *LedgerMetrics is valid and records nothing.
type LedgerMetrics struct {
	paymentsApplied      *Counter
	overpaymentsRejected *Counter
	conflictsRetried     *Counter
	notificationsEmitted *Counter
	operationDuration    *Histogram
}

// NewLedgerMetrics registers the ledger instruments on meter
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	var (
		m   LedgerMetrics
		err error
	)
	if m.paymentsApplied, err = NewCounter(meter,
		"ledger_payments_applied_total", "Payments accepted against a sale", "{payments}"); err != nil {
		return nil, err
	}
	if m.overpaymentsRejected, err = NewCounter(meter,
		"ledger_overpayments_rejected_total", "Payments rejected for exceeding the outstanding amount", "{payments}"); err != nil {
		return nil, err
	}
	if m.conflictsRetried, err = NewCounter(meter,
		"ledger_concurrency_retries_total", "Sale mutations retried after a concurrency conflict", "{retries}"); err != nil {
		return nil, err
	}
	if m.notificationsEmitted, err = NewCounter(meter,
		"ledger_stale_notifications_total", "Stale-debt notifications emitted by sweeps", "{notifications}"); err != nil {
		return nil, err
	}
	if m.operationDuration, err = NewHistogram(meter,
		"ledger_operation_duration_seconds", "Duration of ledger mutations", "s", DurationBuckets...); err != nil {
		return nil, err
	}
	return &m, nil
}

// PaymentApplied counts an accepted payment; status is the resulting sale status
func (m *LedgerMetrics) PaymentApplied(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.paymentsApplied.Inc(ctx, AttrStatus.String(status))
}

// OverpaymentRejected counts a rejected payment
func (m *LedgerMetrics) OverpaymentRejected(ctx context.Context) {
	if m == nil {
		return
	}
	m.overpaymentsRejected.Inc(ctx)
}

// ConflictRetried counts one retry of operation
func (m *LedgerMetrics) ConflictRetried(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.conflictsRetried.Inc(ctx, AttrOperation.String(operation))
}

// NotificationsEmitted counts notifications produced by a sweep
func (m *LedgerMetrics) NotificationsEmitted(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.notificationsEmitted.Add(ctx, int64(n))
}

// ObserveOperation records how long operation took and whether it failed
func (m *LedgerMetrics) ObserveOperation(ctx context.Context, operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.operationDuration.RecordDuration(ctx, time.Since(start),
		AttrOperation.String(operation), AttrOutcome.String(outcome))
}
