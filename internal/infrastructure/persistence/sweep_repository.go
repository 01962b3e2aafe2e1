package persistence

import (
	"context"
	"errors"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSweepRepository records sweeps in sweep_runs. It is the ledger's
// SweepHistory: the dedup check and the claim happen in one transaction, so
// two instances sweeping at once emit only once.
type GormSweepRepository struct {
	db *gorm.DB
}

// NewGormSweepRepository creates a new GormSweepRepository
func NewGormSweepRepository(db *gorm.DB) *GormSweepRepository {
	return &GormSweepRepository{db: db}
}

// ClaimSweep records a sweep of kind at `at` unless another one is already
// recorded after since. On Postgres the transaction holds an advisory lock
// per kind; SQLite serializes writers on its own.
func (r *GormSweepRepository) ClaimSweep(ctx context.Context, kind string, since, at time.Time) (uuid.UUID, bool, error) {
	at = storedInstant(at)
	row := models.SweepRunModel{
		AppendOnlyModel: models.AppendOnlyModel{ID: uuid.New(), CreatedAt: time.Now().UTC()},
		Kind:            kind,
		SweptAt:         at,
	}

	claimed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", sweepLockKey(kind)).Error; err != nil {
				return err
			}
		}

		var count int64
		if err := tx.Model(&models.SweepRunModel{}).
			Where("kind = ? AND swept_at > ?", kind, storedInstant(since)).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		claimed = true
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// another sweep with the very same clock won
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, wrapStoreError("claim sweep", err)
	}
	if !claimed {
		return uuid.Nil, false, nil
	}
	return row.ID, true, nil
}

// ReleaseSweep deletes a claim so the next sweep is not suppressed by it
func (r *GormSweepRepository) ReleaseSweep(ctx context.Context, claimID uuid.UUID) error {
	err := r.db.WithContext(ctx).Where("id = ?", claimID).Delete(&models.SweepRunModel{}).Error
	return wrapStoreError("release sweep", err)
}

// storedInstant matches the precision of a timestamptz column
func storedInstant(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func sweepLockKey(kind string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("ledger:sweep:" + kind))
	return int64(h.Sum64())
}
