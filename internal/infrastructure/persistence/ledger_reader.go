package persistence

import (
	"context"
	"time"

	"github.com/noloworld/oribeti-app-sub000/internal/domain/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLedgerReader implements ledger.LedgerReader. Sales, lines and payments
// are read in one transaction so reports see a single snapshot.
type GormLedgerReader struct {
	db *gorm.DB
}

// NewGormLedgerReader creates a new GormLedgerReader
func NewGormLedgerReader(db *gorm.DB) *GormLedgerReader {
	return &GormLedgerReader{db: db}
}

// LoadRecords loads the filtered sales (oldest first) with lines and payments
func (r *GormLedgerReader) LoadRecords(ctx context.Context, filter ledger.RecordFilter) ([]ledger.SaleRecord, error) {
	var records []ledger.SaleRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&models.SaleModel{})
		if filter.ClientID != nil {
			query = query.Where("client_id = ?", filter.ClientID.UUID())
		}
		if filter.Year != nil {
			from := time.Date(*filter.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
			query = query.Where("date >= ? AND date < ?", from, from.AddDate(1, 0, 0))
		}

		var rows []models.SaleModel
		if err := query.Order("date ASC, id ASC").Preload("Lines", orderByPosition).Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		ids := make([]ledger.SaleID, len(rows))
		for i := range rows {
			ids[i] = ledger.SaleID(rows[i].ID)
		}
		var payments []models.PaymentModel
		if err := tx.Where("sale_id IN ?", saleUUIDs(ids)).
			Order("date ASC, sequence ASC").
			Find(&payments).Error; err != nil {
			return err
		}

		bySale := make(map[ledger.SaleID][]ledger.Payment, len(rows))
		for i := range payments {
			p := payments[i].ToDomain()
			bySale[p.SaleID] = append(bySale[p.SaleID], p)
		}

		records = make([]ledger.SaleRecord, len(rows))
		for i := range rows {
			sale := rows[i].ToDomain()
			records[i] = ledger.SaleRecord{Sale: sale, Payments: bySale[sale.ID]}
		}
		return nil
	})
	if err != nil {
		return nil, wrapStoreError("load ledger records", err)
	}
	return records, nil
}

var _ ledger.LedgerReader = (*GormLedgerReader)(nil)
