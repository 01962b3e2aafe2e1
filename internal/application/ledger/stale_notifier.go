package ledger

import (
	"context"
	"time"

	"github.com/noloworld/oribeti-app-sub000/internal/domain/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/logger"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// NotificationBatch summarizes one sweep
type NotificationBatch struct {
	SweptAt     time.Time       `json:"swept_at"`
	StaleSales  int             `json:"stale_sales"`
	Suppressed  bool            `json:"suppressed"` // a sweep already notified inside the dedup window
	Recipients  int             `json:"recipients"`
	Emitted     int             `json:"emitted"`
	SaleIDs     []ledger.SaleID `json:"sale_ids"`
	FailedSales []ledger.SaleID `json:"failed_sales,omitempty"`
}

// StaleDebtNotifier finds sales pending past the stale threshold and notifies
// the configured recipients about each of them.
//
// The dedup gate is global: once a sweep has claimed the window, the whole
// next sweep is skipped, including sales that became stale since. Windows are
// measured on the sweep's own clock, not the wall clock.
type StaleDebtNotifier struct {
	sales      ledger.SaleRepository
	clients    ledger.ClientRepository
	history    SweepHistory
	sink       NotificationSink
	recipients RecipientProvider
	policy     ledger.StalePolicy
	metrics    *telemetry.LedgerMetrics
	logger     *zap.Logger
}

// NewStaleDebtNotifier creates a new StaleDebtNotifier
func NewStaleDebtNotifier(
	sales ledger.SaleRepository,
	clients ledger.ClientRepository,
	history SweepHistory,
	sink NotificationSink,
	recipients RecipientProvider,
	policy ledger.StalePolicy,
	logger *zap.Logger,
) *StaleDebtNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaleDebtNotifier{
		sales:      sales,
		clients:    clients,
		history:    history,
		sink:       sink,
		recipients: recipients,
		policy:     policy,
		logger:     logger,
	}
}

// SetMetrics sets the business metrics recorder
func (n *StaleDebtNotifier) SetMetrics(m *telemetry.LedgerMetrics) {
	n.metrics = m
}

// Sweep emits one notification per recipient for every stale sale, unless a
// sweep already notified within the dedup window. A failed delivery for one
// sale is logged and the sweep continues with the next.
func (n *StaleDebtNotifier) Sweep(ctx context.Context, now time.Time) (batch *NotificationBatch, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "sweep_stale_debts")
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()
	log := logger.Enrich(ctx, n.logger)

	batch = &NotificationBatch{SweptAt: now, SaleIDs: []ledger.SaleID{}}

	stale, err := n.sales.FindPendingBefore(ctx, n.policy.Cutoff(now))
	if err != nil {
		return nil, err
	}
	batch.StaleSales = len(stale)
	if len(stale) == 0 {
		log.Debug("No stale sales found")
		return batch, nil
	}

	recipients, err := n.recipients.Recipients(ctx)
	if err != nil {
		return nil, err
	}
	batch.Recipients = len(recipients)
	if len(recipients) == 0 {
		log.Warn("Stale sales found but no notification recipients configured", zap.Int("stale_sales", len(stale)))
		return batch, nil
	}

	claimID, claimed, err := n.history.ClaimSweep(ctx, ledger.NotificationKindStaleDebt, n.policy.DedupSince(now), now)
	if err != nil {
		return nil, err
	}
	if !claimed {
		batch.Suppressed = true
		log.Debug("Stale-debt sweep suppressed by dedup window", zap.Int("stale_sales", len(stale)))
		return batch, nil
	}
	defer func() {
		// a sweep that delivered nothing must not hold the window
		if err == nil && batch.Emitted > 0 {
			return
		}
		if releaseErr := n.history.ReleaseSweep(context.WithoutCancel(ctx), claimID); releaseErr != nil {
			log.Error("Failed to release stale-debt sweep claim", zap.Error(releaseErr))
		}
	}()

	names, err := n.clientNames(ctx, stale)
	if err != nil {
		return nil, err
	}

	for i := range stale {
		sale := &stale[i]
		notice := ledger.NoticeFor(ledger.StaleSale{Sale: sale, ClientName: names[sale.ClientID]}, now)
		if err := n.sink.Notify(ctx, recipients, ledger.NotificationKindStaleDebt, notice.Title, notice.Body, notice.Payload, now); err != nil {
			log.Error("Failed to emit stale-debt notification",
				zap.String("sale_id", sale.ID.String()),
				zap.Error(err),
			)
			batch.FailedSales = append(batch.FailedSales, sale.ID)
			continue
		}
		batch.SaleIDs = append(batch.SaleIDs, sale.ID)
		batch.Emitted += len(recipients)
	}

	n.metrics.NotificationsEmitted(ctx, batch.Emitted)
	telemetry.SetAttributes(span, "stale_sales", batch.StaleSales, "emitted", batch.Emitted)
	log.Info("Stale-debt sweep completed",
		zap.Int("stale_sales", batch.StaleSales),
		zap.Int("recipients", batch.Recipients),
		zap.Int("emitted", batch.Emitted),
		zap.Int("failed", len(batch.FailedSales)),
	)
	return batch, nil
}

func (n *StaleDebtNotifier) clientNames(ctx context.Context, sales []ledger.Sale) (map[ledger.ClientID]string, error) {
	ids := make([]ledger.ClientID, 0, len(sales))
	for _, sale := range sales {
		ids = append(ids, sale.ClientID)
	}
	clients, err := n.clients.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[ledger.ClientID]string, len(clients))
	for id, c := range clients {
		names[id] = c.Name
	}
	return names, nil
}
