package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAuditRepository appends audit entries to the audit_entries table
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Record appends one audit entry
func (r *GormAuditRepository) Record(ctx context.Context, actorID, action string, details map[string]any) error {
	encoded, err := encodeJSON(details)
	if err != nil {
		return fmt.Errorf("encode audit details: %w", err)
	}
	entry := models.AuditEntryModel{
		AppendOnlyModel: models.AppendOnlyModel{ID: uuid.New(), CreatedAt: time.Now().UTC()},
		ActorID:         actorID,
		Action:          action,
		Details:         encoded,
	}
	return wrapStoreError("record audit entry", r.db.WithContext(ctx).Create(&entry).Error)
}
