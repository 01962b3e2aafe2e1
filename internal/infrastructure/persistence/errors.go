package persistence

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes the ledger reacts to
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// isUniqueViolation reports a duplicate key, whether or not gorm translated it
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// isForeignKeyViolation reports a broken reference, whether or not gorm translated it
func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

// isRetryable reports contention errors a sale mutation may be retried after
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
		return true
	}
	return false
}

// wrapStoreError maps contention errors to shared.ErrConcurrencyConflict and
// wraps everything else with op for context.
func wrapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	if isRetryable(err) {
		return fmt.Errorf("%s: %w: %v", op, shared.ErrConcurrencyConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
