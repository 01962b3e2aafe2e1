package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormRaffleRepository implements ledger.RaffleRepository using GORM
type GormRaffleRepository struct {
	db *gorm.DB
}

// NewGormRaffleRepository creates a new GormRaffleRepository
func NewGormRaffleRepository(db *gorm.DB) *GormRaffleRepository {
	return &GormRaffleRepository{db: db}
}

// Create persists a raffle
func (r *GormRaffleRepository) Create(ctx context.Context, raffle *ledger.Raffle) error {
	err := r.db.WithContext(ctx).Create(models.RaffleModelFromDomain(raffle)).Error
	return wrapStoreError("create raffle", err)
}

// FindByID finds a raffle by its ID
func (r *GormRaffleRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Raffle, error) {
	var m models.RaffleModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrRaffleNotFound
		}
		return nil, wrapStoreError("find raffle", err)
	}
	return m.ToDomain(), nil
}

// FindAll lists raffles newest first
func (r *GormRaffleRepository) FindAll(ctx context.Context) ([]ledger.Raffle, error) {
	var rows []models.RaffleModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, wrapStoreError("list raffles", err)
	}
	raffles := make([]ledger.Raffle, len(rows))
	for i := range rows {
		raffles[i] = *rows[i].ToDomain()
	}
	return raffles, nil
}

// InsertTicket claims a number. The unique (raffle_id, number) index decides
// between concurrent claims; the loser gets ErrRaffleNumberUsed.
func (r *GormRaffleRepository) InsertTicket(ctx context.Context, ticket *ledger.RaffleTicket) error {
	err := r.db.WithContext(ctx).Create(models.RaffleTicketModelFromDomain(ticket)).Error
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return ledger.ErrRaffleNumberUsed.WithDetail("number", ticket.Number)
	case isForeignKeyViolation(err):
		return ledger.ErrClientNotFound
	}
	return wrapStoreError("insert raffle ticket", err)
}

// FindTickets lists a raffle's tickets by number
func (r *GormRaffleRepository) FindTickets(ctx context.Context, raffleID uuid.UUID) ([]ledger.RaffleTicket, error) {
	var rows []models.RaffleTicketModel
	if err := r.db.WithContext(ctx).
		Where("raffle_id = ?", raffleID).
		Order("number ASC").
		Find(&rows).Error; err != nil {
		return nil, wrapStoreError("list raffle tickets", err)
	}
	tickets := make([]ledger.RaffleTicket, len(rows))
	for i := range rows {
		tickets[i] = rows[i].ToDomain()
	}
	return tickets, nil
}

var _ ledger.RaffleRepository = (*GormRaffleRepository)(nil)
