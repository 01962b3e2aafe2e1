package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// Notification is a stored feed entry, as read back by ListForRecipient
type Notification struct {
	ID          uuid.UUID      `json:"id"`
	RecipientID string         `json:"recipient_id"`
	Kind        string         `json:"kind"`
	Source      string         `json:"source,omitempty"`
	Title       string         `json:"title"`
	Body        string         `json:"body"`
	Payload     map[string]any `json:"payload,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// GormNotificationRepository stores notifications in the notifications table.
// It is the ledger's NotificationSink.
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Notify writes one row per recipient in a single insert, stamped with at (the
// wall clock when at is zero). payload["source"], when present, is copied to
// the source column.
func (r *GormNotificationRepository) Notify(ctx context.Context, recipientIDs []string, kind, title, body string, payload map[string]any, at time.Time) error {
	if len(recipientIDs) == 0 {
		return nil
	}
	encoded, err := encodeJSON(payload)
	if err != nil {
		return fmt.Errorf("encode notification payload: %w", err)
	}
	source, _ := payload["source"].(string)

	if at.IsZero() {
		at = time.Now()
	}
	createdAt := storedInstant(at)
	rows := make([]models.NotificationModel, len(recipientIDs))
	for i, recipient := range recipientIDs {
		rows[i] = models.NotificationModel{
			AppendOnlyModel: models.AppendOnlyModel{ID: uuid.New(), CreatedAt: createdAt},
			RecipientID:     recipient,
			Kind:            kind,
			Source:          source,
			Title:           title,
			Body:            body,
			Payload:         encoded,
		}
	}
	return wrapStoreError("create notifications", r.db.WithContext(ctx).Create(&rows).Error)
}

// ListForRecipient returns a recipient's notifications, newest first
func (r *GormNotificationRepository) ListForRecipient(ctx context.Context, recipientID string, limit int) ([]Notification, error) {
	if recipientID == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Recipient ID cannot be empty")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var rows []models.NotificationModel
	if err := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, wrapStoreError("list notifications", err)
	}

	out := make([]Notification, len(rows))
	for i, m := range rows {
		n := Notification{
			ID:          m.ID,
			RecipientID: m.RecipientID,
			Kind:        m.Kind,
			Source:      m.Source,
			Title:       m.Title,
			Body:        m.Body,
			CreatedAt:   m.CreatedAt,
		}
		if m.Payload != "" {
			// A payload that no longer decodes is dropped, the row is still listed
			_ = json.Unmarshal([]byte(m.Payload), &n.Payload)
		}
		out[i] = n
	}
	return out, nil
}

// encodeJSON renders v for a json/jsonb column; empty maps become "{}"
func encodeJSON(v map[string]any) (string, error) {
	if len(v) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
