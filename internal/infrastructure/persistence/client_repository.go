package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormClientRepository implements ledger.ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// FindByID finds a client by its ID
func (r *GormClientRepository) FindByID(ctx context.Context, id ledger.ClientID) (*ledger.Client, error) {
	var m models.ClientModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id.UUID()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrClientNotFound
		}
		return nil, wrapStoreError("find client", err)
	}
	return m.ToDomain(), nil
}

// FindByIDs returns the existing clients among ids
func (r *GormClientRepository) FindByIDs(ctx context.Context, ids []ledger.ClientID) (map[ledger.ClientID]*ledger.Client, error) {
	out := make(map[ledger.ClientID]*ledger.Client, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	raw := make([]uuid.UUID, len(ids))
	for i, id := range ids {
		raw[i] = id.UUID()
	}

	var rows []models.ClientModel
	if err := r.db.WithContext(ctx).Where("id IN ?", raw).Find(&rows).Error; err != nil {
		return nil, wrapStoreError("find clients", err)
	}
	for i := range rows {
		c := rows[i].ToDomain()
		out[c.ID] = c
	}
	return out, nil
}

// Exists reports whether a client with id exists
func (r *GormClientRepository) Exists(ctx context.Context, id ledger.ClientID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ClientModel{}).
		Where("id = ?", id.UUID()).Count(&count).Error; err != nil {
		return false, wrapStoreError("check client", err)
	}
	return count > 0, nil
}

// FindAll lists clients ordered by name, with an optional name/phone/email search
func (r *GormClientRepository) FindAll(ctx context.Context, filter ledger.ClientFilter) ([]ledger.Client, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ClientModel{})
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrapStoreError("count clients", err)
	}

	var rows []models.ClientModel
	if err := paginate(query.Order(orderBy(filter.SortBy, filter.SortOrder, ClientSortFields, "name ASC, id ASC")), filter.Page, filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, wrapStoreError("list clients", err)
	}

	clients := make([]ledger.Client, len(rows))
	for i := range rows {
		clients[i] = *rows[i].ToDomain()
	}
	return clients, total, nil
}

// Save creates or updates a client
func (r *GormClientRepository) Save(ctx context.Context, client *ledger.Client) error {
	m := models.ClientModelFromDomain(client)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "phone", "email", "address", "updated_at"}),
	}).Create(m).Error
	return wrapStoreError("save client", err)
}

// Delete removes a client that has no sales
func (r *GormClientRepository) Delete(ctx context.Context, id ledger.ClientID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sales int64
		if err := tx.Model(&models.SaleModel{}).Where("client_id = ?", id.UUID()).Count(&sales).Error; err != nil {
			return wrapStoreError("count client sales", err)
		}
		if sales > 0 {
			return ledger.ErrClientHasSales
		}

		result := tx.Delete(&models.ClientModel{}, "id = ?", id.UUID())
		if result.Error != nil {
			// A sale inserted concurrently still trips the foreign key
			if isForeignKeyViolation(result.Error) {
				return ledger.ErrClientHasSales
			}
			return wrapStoreError("delete client", result.Error)
		}
		if result.RowsAffected == 0 {
			return ledger.ErrClientNotFound
		}
		return nil
	})
}

// paginate applies page/pageSize when both are positive
func paginate(query *gorm.DB, page, pageSize int) *gorm.DB {
	if page <= 0 || pageSize <= 0 {
		return query
	}
	return query.Offset((page - 1) * pageSize).Limit(pageSize)
}

var _ ledger.ClientRepository = (*GormClientRepository)(nil)
