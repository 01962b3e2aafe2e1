package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// RaffleBoard is a raffle with its claimed tickets and the numbers still free
type RaffleBoard struct {
	Raffle    *ledger.Raffle
	Tickets   []ledger.RaffleTicket
	Available []int
}

// RaffleService hands out raffle numbers. Claims are a single guarded insert,
// never a read followed by a write.
type RaffleService struct {
	raffles ledger.RaffleRepository
	clients ledger.ClientRepository
	audit   AuditSink
	logger  *zap.Logger
}

// NewRaffleService creates a new RaffleService
func NewRaffleService(raffles ledger.RaffleRepository, clients ledger.ClientRepository, audit AuditSink, logger *zap.Logger) *RaffleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RaffleService{raffles: raffles, clients: clients, audit: audit, logger: logger}
}

// CreateRaffle opens a raffle with numbers 1..maxNumber
func (s *RaffleService) CreateRaffle(ctx context.Context, name string, maxNumber int, drawDate *time.Time) (*ledger.Raffle, error) {
	raffle, err := ledger.NewRaffle(name, maxNumber, drawDate)
	if err != nil {
		return nil, err
	}
	if err := s.raffles.Create(ctx, raffle); err != nil {
		return nil, err
	}
	return raffle, nil
}

// ListRaffles lists raffles newest first
func (s *RaffleService) ListRaffles(ctx context.Context) ([]ledger.Raffle, error) {
	return s.raffles.FindAll(ctx)
}

// Board returns a raffle with its tickets and free numbers
func (s *RaffleService) Board(ctx context.Context, raffleID uuid.UUID) (*RaffleBoard, error) {
	raffle, err := s.raffles.FindByID(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	tickets, err := s.raffles.FindTickets(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	return &RaffleBoard{Raffle: raffle, Tickets: tickets, Available: raffle.AvailableNumbers(tickets)}, nil
}

// ClaimNumber assigns number to the client. Of two concurrent claims for the
// same number exactly one succeeds; the other gets ErrRaffleNumberUsed.
func (s *RaffleService) ClaimNumber(ctx context.Context, actorID string, raffleID uuid.UUID, number int, clientID ledger.ClientID) (ticket *ledger.RaffleTicket, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "raffle", "claim_number",
		telemetry.AttrRaffleID, raffleID.String(),
		telemetry.AttrClientID, clientID.String(),
		"number", number,
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	raffle, err := s.raffles.FindByID(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	exists, err := s.clients.Exists(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ledger.ErrClientNotFound
	}

	ticket, err = raffle.NewTicket(number, clientID)
	if err != nil {
		return nil, err
	}
	if err := s.raffles.InsertTicket(ctx, ticket); err != nil {
		return nil, err
	}

	recordAudit(ctx, s.audit, s.logger, actorID, ActionRaffleClaimed, map[string]any{
		"raffle_id": raffleID.String(),
		"number":    number,
		"client_id": clientID.String(),
	})
	return ticket, nil
}
