package models

import "time"

// NotificationModel is one row of the notification feed. Payload holds JSON.
type NotificationModel struct {
	AppendOnlyModel
	RecipientID string `gorm:"type:varchar(100);not null;index"`
	Kind        string `gorm:"type:varchar(50);not null;index:idx_notifications_kind_source,priority:1"`
	Source      string `gorm:"type:varchar(50);index:idx_notifications_kind_source,priority:2"`
	Title       string `gorm:"type:varchar(200);not null"`
	Body        string `gorm:"type:text;not null"`
	Payload     string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (NotificationModel) TableName() string {
	return "notifications"
}

// AuditEntryModel is one row of the audit trail. Details holds JSON.
type AuditEntryModel struct {
	AppendOnlyModel
	ActorID string `gorm:"type:varchar(100);index"`
	Action  string `gorm:"type:varchar(100);not null;index"`
	Details string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (AuditEntryModel) TableName() string {
	return "audit_entries"
}

// SweepRunModel marks one sweep that claimed the dedup window. SweptAt is the
// sweep's own clock, which can differ from CreatedAt.
type SweepRunModel struct {
	AppendOnlyModel
	Kind    string    `gorm:"type:varchar(50);not null;uniqueIndex:uq_sweep_runs_kind_swept_at,priority:1"`
	SweptAt time.Time `gorm:"not null;uniqueIndex:uq_sweep_runs_kind_swept_at,priority:2"`
}

// TableName returns the table name for GORM
func (SweepRunModel) TableName() string {
	return "sweep_runs"
}

// All lists every ledger model, in dependency order, for AutoMigrate
func All() []any {
	return []any{
		&ClientModel{},
		&SaleModel{},
		&ProductLineModel{},
		&PaymentModel{},
		&RaffleModel{},
		&RaffleTicketModel{},
		&NotificationModel{},
		&AuditEntryModel{},
		&SweepRunModel{},
	}
}
