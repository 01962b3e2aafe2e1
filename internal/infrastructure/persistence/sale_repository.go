package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSaleRepository implements ledger.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID loads a sale with its lines
func (r *GormSaleRepository) FindByID(ctx context.Context, id ledger.SaleID) (*ledger.Sale, error) {
	var m models.SaleModel
	err := r.db.WithContext(ctx).
		Preload("Lines", orderByPosition).
		First(&m, "id = ?", id.UUID()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrSaleNotFound
		}
		return nil, wrapStoreError("find sale", err)
	}
	return m.ToDomain(), nil
}

// FindByIDForUpdate locks the sale row (SELECT ... FOR UPDATE) and then loads
// its lines. The lock is held until the surrounding transaction ends.
func (r *GormSaleRepository) FindByIDForUpdate(ctx context.Context, id ledger.SaleID) (*ledger.Sale, error) {
	db := r.db.WithContext(ctx)

	var m models.SaleModel
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "id = ?", id.UUID()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrSaleNotFound
		}
		return nil, wrapStoreError("lock sale", err)
	}

	if err := db.Where("sale_id = ?", m.ID).Order("position ASC").Find(&m.Lines).Error; err != nil {
		return nil, wrapStoreError("load sale lines", err)
	}
	return m.ToDomain(), nil
}

// FindAll lists sales newest first with their lines
func (r *GormSaleRepository) FindAll(ctx context.Context, filter ledger.SaleFilter) ([]ledger.Sale, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SaleModel{})
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", filter.ClientID.UUID())
	}
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}
	if filter.From != nil {
		query = query.Where("date >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("date < ?", filter.To.UTC())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrapStoreError("count sales", err)
	}

	var rows []models.SaleModel
	err := paginate(query.Order(orderBy(filter.SortBy, filter.SortOrder, SaleSortFields, "date DESC, id ASC")), filter.Page, filter.PageSize).
		Preload("Lines", orderByPosition).
		Find(&rows).Error
	if err != nil {
		return nil, 0, wrapStoreError("list sales", err)
	}
	return salesToDomain(rows), total, nil
}

// FindPendingBefore returns PENDING sales dated strictly before cutoff, oldest first
func (r *GormSaleRepository) FindPendingBefore(ctx context.Context, cutoff time.Time) ([]ledger.Sale, error) {
	var rows []models.SaleModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND date < ?", ledger.SaleStatusPending.String(), cutoff.UTC()).
		Order("date ASC, id ASC").
		Preload("Lines", orderByPosition).
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError("find pending sales", err)
	}
	return salesToDomain(rows), nil
}

// CountByClient counts the sales that reference a client
func (r *GormSaleRepository) CountByClient(ctx context.Context, clientID ledger.ClientID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Where("client_id = ?", clientID.UUID()).Count(&count).Error
	return count, wrapStoreError("count client sales", err)
}

// Create persists a sale and its lines atomically
func (r *GormSaleRepository) Create(ctx context.Context, sale *ledger.Sale) error {
	m := models.SaleModelFromDomain(sale)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lines are written explicitly so their position is kept
		if err := tx.Omit("Lines").Create(m).Error; err != nil {
			if isForeignKeyViolation(err) {
				return ledger.ErrClientNotFound
			}
			return err
		}
		if len(m.Lines) > 0 {
			return tx.Create(&m.Lines).Error
		}
		return nil
	})
	return wrapStoreError("create sale", err)
}

// SaveWithLock writes the mutable sale columns if the stored version still
// matches the one the sale was loaded with, then bumps the version.
func (r *GormSaleRepository) SaveWithLock(ctx context.Context, sale *ledger.Sale) error {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Where("id = ? AND version = ?", sale.ID.UUID(), sale.Version).
		Updates(map[string]any{
			"paid":       sale.Paid,
			"status":     sale.Status.String(),
			"date":       sale.Date.UTC(),
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		})
	if result.Error != nil {
		return wrapStoreError("save sale", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	sale.Version++
	sale.UpdatedAt = now
	return nil
}

// ReplaceLines swaps the stored lines for the sale's current lines
func (r *GormSaleRepository) ReplaceLines(ctx context.Context, sale *ledger.Sale) error {
	lines := models.LineModelsFromDomain(sale.ID, sale.Lines)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sale_id = ?", sale.ID.UUID()).Delete(&models.ProductLineModel{}).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		return tx.Create(&lines).Error
	})
	return wrapStoreError("replace sale lines", err)
}

// Delete removes a sale together with its payments and lines
func (r *GormSaleRepository) Delete(ctx context.Context, id ledger.SaleID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		raw := id.UUID()
		if err := tx.Where("sale_id = ?", raw).Delete(&models.PaymentModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("sale_id = ?", raw).Delete(&models.ProductLineModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.SaleModel{}, "id = ?", raw)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ledger.ErrSaleNotFound
		}
		return nil
	})
	return wrapStoreError("delete sale", err)
}

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func salesToDomain(rows []models.SaleModel) []ledger.Sale {
	sales := make([]ledger.Sale, len(rows))
	for i := range rows {
		sales[i] = *rows[i].ToDomain()
	}
	return sales
}

func saleUUIDs(ids []ledger.SaleID) []uuid.UUID {
	out := make([]uuid.UUID, len(ids))
	for i, id := range ids {
		out[i] = id.UUID()
	}
	return out
}

var _ ledger.SaleRepository = (*GormSaleRepository)(nil)
