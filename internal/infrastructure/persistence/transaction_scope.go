package persistence

import (
	"context"

	appledger "github.com/noloworld/oribeti-app-sub000/internal/application/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/ledger"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back; otherwise it is committed.
// Commit-time contention errors are mapped like any other store error.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appledger.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
	return wrapStoreError("ledger transaction", err)
}

// gormTransactionalRepositories provides the ledger repositories bound to one transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Sales returns the sale repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Sales() ledger.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

// Payments returns the payment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Payments() ledger.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// Clients returns the client repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Clients() ledger.ClientRepository {
	return NewGormClientRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appledger.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appledger.TransactionalRepositories = (*gormTransactionalRepositories)(nil)

var (
	_ appledger.AuditSink        = (*GormAuditRepository)(nil)
	_ appledger.NotificationSink = (*GormNotificationRepository)(nil)
	_ appledger.SweepHistory     = (*GormSweepRepository)(nil)
)
