package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/noloworld/oribeti-app-sub000/internal/domain/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared/valueobject"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/logger"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// RetryPolicy bounds how often a sale mutation is re-run after a concurrency conflict
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration // multiplied by the attempt number
}

// DefaultRetryPolicy retries three times with a 25ms linear backoff
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, Backoff: 25 * time.Millisecond}
}

// SaleService owns every mutation of a sale's lines and payment ledger.
// Each mutation runs in one transaction holding the sale's row lock, and
// re-derives paid and status before it commits.
type SaleService struct {
	scope    TransactionScope
	sales    ledger.SaleRepository
	payments ledger.PaymentRepository
	audit    AuditSink
	retry    RetryPolicy
	metrics  *telemetry.LedgerMetrics
	logger   *zap.Logger
}

// NewSaleService creates a new SaleService. sales and payments serve reads
// outside a transaction; audit may be nil.
func NewSaleService(
	scope TransactionScope,
	sales ledger.SaleRepository,
	payments ledger.PaymentRepository,
	audit AuditSink,
	retry RetryPolicy,
	logger *zap.Logger,
) *SaleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retry.MaxRetries < 0 {
		retry.MaxRetries = 0
	}
	return &SaleService{
		scope:    scope,
		sales:    sales,
		payments: payments,
		audit:    audit,
		retry:    retry,
		logger:   logger,
	}
}

// SetMetrics sets the business metrics recorder
func (s *SaleService) SetMetrics(m *telemetry.LedgerMetrics) {
	s.metrics = m
}

// SaleDetail is a sale together with its payment history
type SaleDetail struct {
	Sale     *ledger.Sale
	Payments []ledger.Payment
}

// CreateSale validates the lines, checks the client exists and stores the
// sale with its lines. The new sale has nothing paid.
func (s *SaleService) CreateSale(ctx context.Context, actorID string, clientID ledger.ClientID, lines []ledger.ProductLine, date time.Time) (sale *ledger.Sale, err error) {
	ctx, finish := s.begin(ctx, "create_sale", telemetry.AttrClientID, clientID.String())
	defer func() { finish(err) }()

	sale, err = ledger.NewSale(clientID, date, lines)
	if err != nil {
		return nil, err
	}

	err = s.withRetry(ctx, "create_sale", func(repos TransactionalRepositories) error {
		exists, err := repos.Clients().Exists(ctx, clientID)
		if err != nil {
			return err
		}
		if !exists {
			return ledger.ErrClientNotFound
		}
		return repos.Sales().Create(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, actorID, ActionSaleCreated, map[string]any{
		"sale_id":    sale.ID.String(),
		"client_id":  clientID.String(),
		"face_value": sale.FaceValue().String(),
		"lines":      len(sale.Lines),
	})
	return sale, nil
}

// EditSale replaces a sale's lines and re-derives its status against the
// recomputed paid total. A face value below what was already paid leaves the
// sale SETTLED with an excess; nothing is refunded.
func (s *SaleService) EditSale(ctx context.Context, actorID string, saleID ledger.SaleID, lines []ledger.ProductLine) (sale *ledger.Sale, err error) {
	ctx, finish := s.begin(ctx, "edit_sale", telemetry.AttrSaleID, saleID.String())
	defer func() { finish(err) }()

	if err := ledger.ValidateLines(lines); err != nil {
		return nil, err
	}

	var previous valueobject.Amount
	err = s.withRetry(ctx, "edit_sale", func(repos TransactionalRepositories) error {
		locked, err := repos.Sales().FindByIDForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		previous = locked.FaceValue()

		paid, err := repos.Payments().SumBySale(ctx, saleID)
		if err != nil {
			return err
		}
		if err := locked.ReplaceLines(lines); err != nil {
			return err
		}
		locked.Reconcile(paid)

		if err := repos.Sales().ReplaceLines(ctx, locked); err != nil {
			return err
		}
		if err := repos.Sales().SaveWithLock(ctx, locked); err != nil {
			return err
		}
		sale = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	details := map[string]any{
		"sale_id":        saleID.String(),
		"old_face_value": previous.String(),
		"new_face_value": sale.FaceValue().String(),
		"status":         sale.Status.String(),
	}
	if excess := sale.Excess(); excess.IsPositive() {
		details["excess"] = excess.String()
		logger.Enrich(ctx, s.logger).Info("Sale edited below amount paid",
			zap.String("sale_id", saleID.String()),
			zap.String("excess", excess.String()),
		)
	}
	s.record(ctx, actorID, ActionSaleEdited, details)
	return sale, nil
}

// DeleteSale removes a sale with its lines and payments
func (s *SaleService) DeleteSale(ctx context.Context, actorID string, saleID ledger.SaleID) (err error) {
	ctx, finish := s.begin(ctx, "delete_sale", telemetry.AttrSaleID, saleID.String())
	defer func() { finish(err) }()

	var deleted *ledger.Sale
	err = s.withRetry(ctx, "delete_sale", func(repos TransactionalRepositories) error {
		locked, err := repos.Sales().FindByIDForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		deleted = locked
		return repos.Sales().Delete(ctx, saleID)
	})
	if err != nil {
		return err
	}

	s.record(ctx, actorID, ActionSaleDeleted, map[string]any{
		"sale_id":    saleID.String(),
		"client_id":  deleted.ClientID.String(),
		"face_value": deleted.FaceValue().String(),
		"paid":       deleted.Paid.String(),
	})
	return nil
}

// AddPayment applies a partial payment under the sale's row lock. The paid
// total is recomputed from the stored payments first, so the overpayment
// check never runs against a drifted value.
func (s *SaleService) AddPayment(ctx context.Context, actorID string, saleID ledger.SaleID, amount valueobject.Amount, date time.Time, note string) (payment *ledger.Payment, err error) {
	ctx, finish := s.begin(ctx, "add_payment",
		telemetry.AttrSaleID, saleID.String(),
		telemetry.AttrAmount, amount.String(),
	)
	defer func() { finish(err) }()

	// Validates amount and date before any lock is taken
	if _, err := ledger.NewPayment(saleID, amount, date, note); err != nil {
		return nil, err
	}

	var sale *ledger.Sale
	err = s.withRetry(ctx, "add_payment", func(repos TransactionalRepositories) error {
		locked, err := repos.Sales().FindByIDForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		paid, err := repos.Payments().SumBySale(ctx, saleID)
		if err != nil {
			return err
		}
		locked.Reconcile(paid)
		if err := locked.CheckPayment(amount); err != nil {
			return err
		}

		p, err := ledger.NewPayment(saleID, amount, date, note)
		if err != nil {
			return err
		}
		if p.Sequence, err = repos.Payments().NextSequence(ctx, saleID); err != nil {
			return err
		}
		if err := repos.Payments().Create(ctx, p); err != nil {
			return err
		}

		locked.Reconcile(paid.Add(amount))
		if err := repos.Sales().SaveWithLock(ctx, locked); err != nil {
			return err
		}
		payment, sale = p, locked
		return nil
	})
	if err != nil {
		if errors.Is(err, ledger.ErrOverpayment) {
			s.metrics.OverpaymentRejected(ctx)
		}
		return nil, err
	}

	s.metrics.PaymentApplied(ctx, sale.Status.String())
	s.record(ctx, actorID, ActionPaymentAdded, map[string]any{
		"sale_id":    saleID.String(),
		"payment_id": payment.ID.String(),
		"amount":     amount.String(),
		"paid":       sale.Paid.String(),
		"status":     sale.Status.String(),
	})
	return payment, nil
}

// DeletePayment removes a payment and recomputes the owning sale in the same transaction
func (s *SaleService) DeletePayment(ctx context.Context, actorID string, paymentID ledger.PaymentID) (err error) {
	ctx, finish := s.begin(ctx, "delete_payment", telemetry.AttrPaymentID, paymentID.String())
	defer func() { finish(err) }()

	var (
		payment *ledger.Payment
		sale    *ledger.Sale
	)
	err = s.withRetry(ctx, "delete_payment", func(repos TransactionalRepositories) error {
		p, err := repos.Payments().FindByID(ctx, paymentID)
		if err != nil {
			return err
		}
		locked, err := repos.Sales().FindByIDForUpdate(ctx, p.SaleID)
		if err != nil {
			return err
		}
		if err := repos.Payments().Delete(ctx, paymentID); err != nil {
			return err
		}
		if err := recompute(ctx, repos, locked); err != nil {
			return err
		}
		payment, sale = p, locked
		return nil
	})
	if err != nil {
		return err
	}

	s.record(ctx, actorID, ActionPaymentDeleted, map[string]any{
		"sale_id":    payment.SaleID.String(),
		"payment_id": paymentID.String(),
		"amount":     payment.Amount.String(),
		"paid":       sale.Paid.String(),
		"status":     sale.Status.String(),
	})
	return nil
}

// RecomputeAfterDeletion resets a sale's paid total to the sum of its stored
// payments and re-derives the status. Running it twice changes nothing.
func (s *SaleService) RecomputeAfterDeletion(ctx context.Context, actorID string, saleID ledger.SaleID) (sale *ledger.Sale, err error) {
	ctx, finish := s.begin(ctx, "recompute_sale", telemetry.AttrSaleID, saleID.String())
	defer func() { finish(err) }()

	var before ledger.SaleStatus
	err = s.withRetry(ctx, "recompute_sale", func(repos TransactionalRepositories) error {
		locked, err := repos.Sales().FindByIDForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		before = locked.Status
		if err := recompute(ctx, repos, locked); err != nil {
			return err
		}
		sale = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	if before != sale.Status {
		s.record(ctx, actorID, ActionSaleRecomputed, map[string]any{
			"sale_id":     saleID.String(),
			"paid":        sale.Paid.String(),
			"from_status": before.String(),
			"to_status":   sale.Status.String(),
		})
	}
	return sale, nil
}

// GetSale returns a sale with its payments ordered by date, then sequence
func (s *SaleService) GetSale(ctx context.Context, saleID ledger.SaleID) (*SaleDetail, error) {
	sale, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.FindBySale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return &SaleDetail{Sale: sale, Payments: payments}, nil
}

// ListSales lists sales newest first
func (s *SaleService) ListSales(ctx context.Context, filter ledger.SaleFilter) ([]ledger.Sale, int64, error) {
	return s.sales.FindAll(ctx, filter)
}

// ListPayments returns a sale's payment history
func (s *SaleService) ListPayments(ctx context.Context, saleID ledger.SaleID) ([]ledger.Payment, error) {
	if _, err := s.sales.FindByID(ctx, saleID); err != nil {
		return nil, err
	}
	return s.payments.FindBySale(ctx, saleID)
}

// recompute sets paid from the full payment set and writes the sale back
func recompute(ctx context.Context, repos TransactionalRepositories, sale *ledger.Sale) error {
	paid, err := repos.Payments().SumBySale(ctx, sale.ID)
	if err != nil {
		return err
	}
	sale.Reconcile(paid)
	return repos.Sales().SaveWithLock(ctx, sale)
}

// withRetry runs fn in a fresh transaction until it succeeds, fails with
// anything other than a concurrency conflict, or runs out of retries.
func (s *SaleService) withRetry(ctx context.Context, op string, fn func(repos TransactionalRepositories) error) error {
	for attempt := 0; ; attempt++ {
		err := s.scope.Execute(ctx, fn)
		if err == nil || !errors.Is(err, shared.ErrConcurrencyConflict) {
			return err
		}
		if attempt >= s.retry.MaxRetries {
			logger.Enrich(ctx, s.logger).Warn("Sale mutation gave up after concurrency conflicts",
				zap.String("operation", op),
				zap.Int("attempts", attempt+1),
				zap.Error(err),
			)
			return err
		}

		s.metrics.ConflictRetried(ctx, op)
		logger.Enrich(ctx, s.logger).Debug("Retrying sale mutation after concurrency conflict",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.retry.Backoff * time.Duration(attempt+1)):
		}
	}
}

// begin opens the operation span; the returned func ends it and records the outcome
func (s *SaleService) begin(ctx context.Context, op string, keyValues ...any) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", op, keyValues...)
	return ctx, func(err error) {
		telemetry.RecordError(span, err)
		s.metrics.ObserveOperation(ctx, op, start, err)
		span.End()
	}
}

// record writes an audit entry. Audit failures are logged, never returned.
func (s *SaleService) record(ctx context.Context, actorID, action string, details map[string]any) {
	recordAudit(ctx, s.audit, s.logger, actorID, action, details)
}

func recordAudit(ctx context.Context, sink AuditSink, base *zap.Logger, actorID, action string, details map[string]any) {
	if sink == nil {
		return
	}
	if err := sink.Record(ctx, actorID, action, details); err != nil {
		logger.Enrich(ctx, base).Warn("Failed to record audit entry",
			zap.String("action", action),
			zap.String("actor_id", actorID),
			zap.Error(err),
		)
	}
}
