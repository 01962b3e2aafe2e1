package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared/valueobject"
)

// ClientFilter narrows client listings
type ClientFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string // name, created_at or updated_at; name when empty
	SortOrder string // asc or desc
}

// ClientRepository defines persistence for clients
type ClientRepository interface {
	FindByID(ctx context.Context, id ClientID) (*Client, error)
	// FindByIDs returns the clients that exist among ids, keyed by id
	FindByIDs(ctx context.Context, ids []ClientID) (map[ClientID]*Client, error)
	Exists(ctx context.Context, id ClientID) (bool, error)
	FindAll(ctx context.Context, filter ClientFilter) ([]Client, int64, error)
	Save(ctx context.Context, client *Client) error
	// Delete fails with ErrClientHasSales while sales reference the client
	Delete(ctx context.Context, id ClientID) error
}

// SaleFilter narrows sale listings
type SaleFilter struct {
	ClientID  *ClientID
	Status    *SaleStatus
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
	SortBy    string // date, paid, status, created_at or updated_at; newest first when empty
	SortOrder string // asc or desc
}

// SaleRepository defines persistence for the Sale aggregate and its product lines
type SaleRepository interface {
	// FindByID loads a sale with its lines
	FindByID(ctx context.Context, id SaleID) (*Sale, error)
	// FindByIDForUpdate loads a sale with its lines and holds a row lock on it
	// until the surrounding transaction ends. Only meaningful inside a TransactionScope.
	FindByIDForUpdate(ctx context.Context, id SaleID) (*Sale, error)
	FindAll(ctx context.Context, filter SaleFilter) ([]Sale, int64, error)
	// FindPendingBefore returns PENDING sales dated strictly before cutoff
	FindPendingBefore(ctx context.Context, cutoff time.Time) ([]Sale, error)
	CountByClient(ctx context.Context, clientID ClientID) (int64, error)
	// Create persists a sale and its lines atomically
	Create(ctx context.Context, sale *Sale) error
	// SaveWithLock writes paid, status and date guarded by the version the
	// sale was loaded with, and bumps the version. A stale version yields
	// shared.ErrConcurrencyConflict.
	SaveWithLock(ctx context.Context, sale *Sale) error
	// ReplaceLines swaps the stored product lines for the sale's current lines
	ReplaceLines(ctx context.Context, sale *Sale) error
	// Delete removes the sale with its lines and payments
	Delete(ctx context.Context, id SaleID) error
}

// PaymentRepository defines persistence for the payment ledger
type PaymentRepository interface {
	FindByID(ctx context.Context, id PaymentID) (*Payment, error)
	// FindBySale returns a sale's payments ordered by date, then sequence
	FindBySale(ctx context.Context, saleID SaleID) ([]Payment, error)
	// SumBySale recomputes the total from the full payment set
	SumBySale(ctx context.Context, saleID SaleID) (valueobject.Amount, error)
	// NextSequence returns the next insertion sequence for a sale's payments
	NextSequence(ctx context.Context, saleID SaleID) (int64, error)
	Create(ctx context.Context, payment *Payment) error
	Delete(ctx context.Context, id PaymentID) error
}

// RecordFilter narrows the sales loaded for reporting
type RecordFilter struct {
	ClientID *ClientID
	Year     *int
}

// LedgerReader loads sales with their lines and payments in one consistent read
type LedgerReader interface {
	LoadRecords(ctx context.Context, filter RecordFilter) ([]SaleRecord, error)
}

// RaffleRepository defines persistence for raffles and their tickets
type RaffleRepository interface {
	Create(ctx context.Context, raffle *Raffle) error
	FindByID(ctx context.Context, id uuid.UUID) (*Raffle, error)
	FindAll(ctx context.Context) ([]Raffle, error)
	// InsertTicket is a compare-and-insert guarded by UNIQUE(raffle_id, number);
	// a taken number yields ErrRaffleNumberUsed.
	InsertTicket(ctx context.Context, ticket *RaffleTicket) error
	FindTickets(ctx context.Context, raffleID uuid.UUID) ([]RaffleTicket, error)
}
