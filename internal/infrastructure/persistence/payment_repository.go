package persistence

import (
	"context"
	"errors"

	"github.com/noloworld/oribeti-app-sub000/internal/domain/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared/valueobject"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentRepository implements ledger.PaymentRepository using GORM.
// Payments are append-only: rows are inserted or deleted, never updated.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id ledger.PaymentID) (*ledger.Payment, error) {
	var m models.PaymentModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id.UUID()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrPaymentNotFound
		}
		return nil, wrapStoreError("find payment", err)
	}
	p := m.ToDomain()
	return &p, nil
}

// FindBySale returns a sale's payments ordered by date, then sequence
func (r *GormPaymentRepository) FindBySale(ctx context.Context, saleID ledger.SaleID) ([]ledger.Payment, error) {
	var rows []models.PaymentModel
	err := r.db.WithContext(ctx).
		Where("sale_id = ?", saleID.UUID()).
		Order("date ASC, sequence ASC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError("find sale payments", err)
	}
	return paymentsToDomain(rows), nil
}

// SumBySale recomputes the paid total from every stored payment of the sale
func (r *GormPaymentRepository) SumBySale(ctx context.Context, saleID ledger.SaleID) (valueobject.Amount, error) {
	var total valueobject.Amount
	err := r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("sale_id = ?", saleID.UUID()).
		Row().Scan(&total)
	if err != nil {
		return valueobject.ZeroAmount(), wrapStoreError("sum sale payments", err)
	}
	return total, nil
}

// NextSequence returns max(sequence)+1 for the sale. Callers hold the sale
// row lock, so two writers never read the same maximum.
func (r *GormPaymentRepository) NextSequence(ctx context.Context, saleID ledger.SaleID) (int64, error) {
	var last int64
	err := r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Select("COALESCE(MAX(sequence), 0)").
		Where("sale_id = ?", saleID.UUID()).
		Row().Scan(&last)
	if err != nil {
		return 0, wrapStoreError("next payment sequence", err)
	}
	return last + 1, nil
}

// Create appends a payment to the ledger
func (r *GormPaymentRepository) Create(ctx context.Context, payment *ledger.Payment) error {
	err := r.db.WithContext(ctx).Create(models.PaymentModelFromDomain(payment)).Error
	switch {
	case err == nil:
		return nil
	case isForeignKeyViolation(err):
		return ledger.ErrSaleNotFound
	case isUniqueViolation(err):
		// Sequence clash: another writer got past the sale lock
		return shared.ErrConcurrencyConflict
	}
	return wrapStoreError("create payment", err)
}

// Delete removes a payment from the ledger
func (r *GormPaymentRepository) Delete(ctx context.Context, id ledger.PaymentID) error {
	result := r.db.WithContext(ctx).Delete(&models.PaymentModel{}, "id = ?", id.UUID())
	if result.Error != nil {
		return wrapStoreError("delete payment", result.Error)
	}
	if result.RowsAffected == 0 {
		return ledger.ErrPaymentNotFound
	}
	return nil
}

func paymentsToDomain(rows []models.PaymentModel) []ledger.Payment {
	payments := make([]ledger.Payment, len(rows))
	for i := range rows {
		payments[i] = rows[i].ToDomain()
	}
	return payments
}

var _ ledger.PaymentRepository = (*GormPaymentRepository)(nil)
