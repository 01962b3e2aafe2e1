package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/ledger"
)

// TransactionScope runs fn inside one database transaction. The repositories
// handed to fn are bound to that transaction; fn returning an error rolls it back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories gives access to the ledger repositories within a transaction
type TransactionalRepositories interface {
	Sales() ledger.SaleRepository
	Payments() ledger.PaymentRepository
	Clients() ledger.ClientRepository
}

// AuditSink records who changed what. Failures never fail the mutation.
type AuditSink interface {
	Record(ctx context.Context, actorID, action string, details map[string]any) error
}

// NotificationSink delivers one notification to each recipient, dated at
type NotificationSink interface {
	Notify(ctx context.Context, recipientIDs []string, kind, title, body string, payload map[string]any, at time.Time) error
}

// SweepHistory is the dedup gate of the stale-debt sweep. It must be safe
// across processes: of two sweeps claiming overlapping windows, one loses.
type SweepHistory interface {
	// ClaimSweep records a sweep of kind at `at` unless one is already
	// recorded after since. claimed is false when the window is taken.
	ClaimSweep(ctx context.Context, kind string, since, at time.Time) (claimID uuid.UUID, claimed bool, err error)
	// ReleaseSweep drops a claim whose sweep delivered nothing
	ReleaseSweep(ctx context.Context, claimID uuid.UUID) error
}

// RecipientProvider lists who receives stale-debt notifications
type RecipientProvider interface {
	Recipients(ctx context.Context) ([]string, error)
}

// StaticRecipients is a RecipientProvider over a fixed list
type StaticRecipients []string

// Recipients returns the configured list
func (r StaticRecipients) Recipients(context.Context) ([]string, error) {
	return r, nil
}

// Audit actions
const (
	ActionSaleCreated    = "sale.created"
	ActionSaleEdited     = "sale.edited"
	ActionSaleDeleted    = "sale.deleted"
	ActionPaymentAdded   = "payment.added"
	ActionPaymentDeleted = "payment.deleted"
	ActionSaleRecomputed = "sale.recomputed"
	ActionClientCreated  = "client.created"
	ActionClientUpdated  = "client.updated"
	ActionClientDeleted  = "client.deleted"
	ActionRaffleClaimed  = "raffle.number_claimed"
)
