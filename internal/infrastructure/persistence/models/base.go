package models

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel provides the id and timestamp columns shared by mutable tables
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// AppendOnlyModel provides the columns of tables whose rows are never updated
type AppendOnlyModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null;index"`
}

// utc normalizes stored instants so comparisons behave the same on every driver
func utc(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
