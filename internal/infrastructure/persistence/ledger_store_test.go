package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared/valueobject"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupLedgerTestDB opens a private in-memory SQLite database with the ledger schema
func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database.DB
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedClient(t *testing.T, db *gorm.DB, name string) *ledger.Client {
	t.Helper()
	c, err := ledger.NewClient(name, "", "", "")
	require.NoError(t, err)
	require.NoError(t, NewGormClientRepository(db).Save(context.Background(), c))
	return c
}

func seedSale(t *testing.T, db *gorm.DB, clientID ledger.ClientID, date time.Time, prices ...string) *ledger.Sale {
	t.Helper()
	lines := make([]ledger.ProductLine, len(prices))
	for i, p := range prices {
		line, err := ledger.NewProductLine("Item", 1, valueobject.MustAmount(p), valueobject.MustAmount(p))
		require.NoError(t, err)
		lines[i] = line
	}
	sale, err := ledger.NewSale(clientID, date, lines)
	require.NoError(t, err)
	require.NoError(t, NewGormSaleRepository(db).Create(context.Background(), sale))
	return sale
}

func seedPayment(t *testing.T, db *gorm.DB, saleID ledger.SaleID, amount string, date time.Time) *ledger.Payment {
	t.Helper()
	ctx := context.Background()
	repo := NewGormPaymentRepository(db)
	p, err := ledger.NewPayment(saleID, valueobject.MustAmount(amount), date, "")
	require.NoError(t, err)
	p.Sequence, err = repo.NextSequence(ctx, saleID)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, p))
	return p
}

func TestGormSaleRepository_SQLite(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a sale with its lines in order", func(t *testing.T) {
		db := setupLedgerTestDB(t)
		client := seedClient(t, db, "Ana")
		sale := seedSale(t, db, client.ID, day(2024, 3, 5), "10", "20", "30")

		loaded, err := NewGormSaleRepository(db).FindByID(ctx, sale.ID)
		require.NoError(t, err)

		assert.Equal(t, client.ID, loaded.ClientID)
		assert.Equal(t, ledger.SaleStatusPending, loaded.Status)
		assert.Equal(t, 1, loaded.Version)
		require.Len(t, loaded.Lines, 3)
		assert.Equal(t, sale.Lines[0].ID, loaded.Lines[0].ID)
		assert.Equal(t, sale.Lines[2].ID, loaded.Lines[2].ID)
		assert.Equal(t, "60.00", loaded.FaceValue().String())
	})

	t.Run("SaveWithLock rejects a stale version", func(t *testing.T) {
		db := setupLedgerTestDB(t)
		repo := NewGormSaleRepository(db)
		client := seedClient(t, db, "Ana")
		sale := seedSale(t, db, client.ID, day(2024, 3, 5), "50")

		first, err := repo.FindByID(ctx, sale.ID)
		require.NoError(t, err)
		second, err := repo.FindByID(ctx, sale.ID)
		require.NoError(t, err)

		first.Reconcile(valueobject.MustAmount("50"))
		require.NoError(t, repo.SaveWithLock(ctx, first))
		assert.Equal(t, 2, first.Version)

		second.Reconcile(valueobject.MustAmount("10"))
		err = repo.SaveWithLock(ctx, second)
		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))

		stored, err := repo.FindByID(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, ledger.SaleStatusSettled, stored.Status)
		assert.Equal(t, "50.00", stored.Paid.String())
	})

	t.Run("ReplaceLines swaps the stored lines", func(t *testing.T) {
		db := setupLedgerTestDB(t)
		repo := NewGormSaleRepository(db)
		client := seedClient(t, db, "Ana")
		sale := seedSale(t, db, client.ID, day(2024, 3, 5), "10", "20")

		line, err := ledger.NewProductLine("Cream", 3, valueobject.MustAmount("5"), valueobject.MustAmount("4"))
		require.NoError(t, err)
		require.NoError(t, sale.ReplaceLines([]ledger.ProductLine{line}))
		require.NoError(t, repo.ReplaceLines(ctx, sale))

		loaded, err := repo.FindByID(ctx, sale.ID)
		require.NoError(t, err)
		require.Len(t, loaded.Lines, 1)
		assert.Equal(t, "Cream", loaded.Lines[0].ProductName)
		assert.Equal(t, "12.00", loaded.FaceValue().String())
	})

	t.Run("Delete removes lines and payments", func(t *testing.T) {
		db := setupLedgerTestDB(t)
		repo := NewGormSaleRepository(db)
		client := seedClient(t, db, "Ana")
		sale := seedSale(t, db, client.ID, day(2024, 3, 5), "10")
		seedPayment(t, db, sale.ID, "5", day(2024, 3, 6))

		require.NoError(t, repo.Delete(ctx, sale.ID))

		_, err := repo.FindByID(ctx, sale.ID)
		assert.True(t, errors.Is(err, ledger.ErrSaleNotFound))
		payments, err := NewGormPaymentRepository(db).FindBySale(ctx, sale.ID)
		require.NoError(t, err)
		assert.Empty(t, payments)

		err = repo.Delete(ctx, sale.ID)
		assert.True(t, errors.Is(err, ledger.ErrSaleNotFound))
	})

	t.Run("FindPendingBefore is strict on the cutoff", func(t *testing.T) {
		db := setupLedgerTestDB(t)
		repo := NewGormSaleRepository(db)
		client := seedClient(t, db, "Ana")
		old := seedSale(t, db, client.ID, day(2024, 1, 10), "10")
		seedSale(t, db, client.ID, day(2024, 3, 15), "10")
		settled := seedSale(t, db, client.ID, day(2024, 1, 1), "10")
		settled.Reconcile(valueobject.MustAmount("10"))
		require.NoError(t, repo.SaveWithLock(ctx, settled))

		pending, err := repo.FindPendingBefore(ctx, day(2024, 3, 15))
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, old.ID, pending[0].ID)
	})

	t.Run("FindAll filters by client and status", func(t *testing.T) {
		db := setupLedgerTestDB(t)
		repo := NewGormSaleRepository(db)
		ana := seedClient(t, db, "Ana")
		bia := seedClient(t, db, "Bia")
		seedSale(t, db, ana.ID, day(2024, 1, 1), "10")
		newest := seedSale(t, db, ana.ID, day(2024, 2, 1), "10")
		seedSale(t, db, bia.ID, day(2024, 1, 1), "10")

		sales, total, err := repo.FindAll(ctx, ledger.SaleFilter{ClientID: &ana.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, sales, 2)
		assert.Equal(t, newest.ID, sales[0].ID)

		settled := ledger.SaleStatusSettled
		_, total, err = repo.FindAll(ctx, ledger.SaleFilter{Status: &settled})
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}

func TestGormPaymentRepository_SQLite(t *testing.T) {
	ctx := context.Background()

	t.Run("sum, sequence and ordering", func(t *testing.T) {
		db := setupLedgerTestDB(t)
		repo := NewGormPaymentRepository(db)
		client := seedClient(t, db, "Ana")
		sale := seedSale(t, db, client.ID, day(2024, 3, 1), "100")

		total, err := repo.SumBySale(ctx, sale.ID)
		require.NoError(t, err)
		assert.True(t, total.IsZero())

		p1 := seedPayment(t, db, sale.ID, "30", day(2024, 3, 10))
		p2 := seedPayment(t, db, sale.ID, "20.50", day(2024, 3, 2))
		p3 := seedPayment(t, db, sale.ID, "10", day(2024, 3, 10))
		assert.Equal(t, int64(1), p1.Sequence)
		assert.Equal(t, int64(3), p3.Sequence)

		total, err = repo.SumBySale(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, "60.50", total.String())

		payments, err := repo.FindBySale(ctx, sale.ID)
		require.NoError(t, err)
		require.Len(t, payments, 3)
		assert.Equal(t, p2.ID, payments[0].ID)
		assert.Equal(t, p1.ID, payments[1].ID)
		assert.Equal(t, p3.ID, payments[2].ID)
	})

	t.Run("duplicate sequence is a concurrency conflict", func(t *testing.T) {
		db := setupLedgerTestDB(t)
		repo := NewGormPaymentRepository(db)
		client := seedClient(t, db, "Ana")
		sale := seedSale(t, db, client.ID, day(2024, 3, 1), "100")
		seedPayment(t, db, sale.ID, "10", day(2024, 3, 2))

		dup, err := ledger.NewPayment(sale.ID, valueobject.MustAmount("5"), day(2024, 3, 3), "")
		require.NoError(t, err)
		dup.Sequence = 1

		err = repo.Create(ctx, dup)
		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))
	})

	t.Run("delete of a missing payment", func(t *testing.T) {
		db := setupLedgerTestDB(t)
		err := NewGormPaymentRepository(db).Delete(ctx, ledger.NewPaymentID())
		assert.True(t, errors.Is(err, ledger.ErrPaymentNotFound))
	})
}

func TestGormClientRepository_SQLite(t *testing.T) {
	ctx := context.Background()

	t.Run("save is an upsert", func(t *testing.T) {
		db := setupLedgerTestDB(t)
		repo := NewGormClientRepository(db)
		client := seedClient(t, db, "Ana")

		require.NoError(t, client.Update("Ana Maria", "555-0101", "", ""))
		require.NoError(t, repo.Save(ctx, client))

		loaded, err := repo.FindByID(ctx, client.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ana Maria", loaded.Name)
		assert.Equal(t, "555-0101", loaded.Phone)
	})

	t.Run("search and lookup by ids", func(t *testing.T) {
		db := setupLedgerTestDB(t)
		repo := NewGormClientRepository(db)
		ana := seedClient(t, db, "Ana")
		bia := seedClient(t, db, "Bia")
		seedClient(t, db, "Carla")

		found, total, err := repo.FindAll(ctx, ledger.ClientFilter{Search: "bi"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, bia.ID, found[0].ID)

		page, total, err := repo.FindAll(ctx, ledger.ClientFilter{Page: 2, PageSize: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, page, 1)
		assert.Equal(t, "Carla", page[0].Name)

		missing := ledger.NewClientID()
		byID, err := repo.FindByIDs(ctx, []ledger.ClientID{ana.ID, missing})
		require.NoError(t, err)
		assert.Len(t, byID, 1)
		assert.Equal(t, "Ana", byID[ana.ID].Name)

		ok, err := repo.Exists(ctx, missing)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("delete is restricted while sales exist", func(t *testing.T) {
		db := setupLedgerTestDB(t)
		repo := NewGormClientRepository(db)
		client := seedClient(t, db, "Ana")
		sale := seedSale(t, db, client.ID, day(2024, 3, 1), "10")

		err := repo.Delete(ctx, client.ID)
		assert.True(t, errors.Is(err, ledger.ErrClientHasSales))

		require.NoError(t, NewGormSaleRepository(db).Delete(ctx, sale.ID))
		require.NoError(t, repo.Delete(ctx, client.ID))

		_, err = repo.FindByID(ctx, client.ID)
		assert.True(t, errors.Is(err, ledger.ErrClientNotFound))
		assert.True(t, errors.Is(repo.Delete(ctx, client.ID), ledger.ErrClientNotFound))
	})
}

func TestGormLedgerReader_LoadRecords(t *testing.T) {
	ctx := context.Background()
	db := setupLedgerTestDB(t)
	ana := seedClient(t, db, "Ana")
	bia := seedClient(t, db, "Bia")

	s2023 := seedSale(t, db, ana.ID, day(2023, 12, 31), "40")
	s2024 := seedSale(t, db, ana.ID, day(2024, 1, 1), "50")
	other := seedSale(t, db, bia.ID, day(2024, 6, 1), "70")
	seedPayment(t, db, s2024.ID, "20", day(2024, 1, 5))
	seedPayment(t, db, s2024.ID, "10", day(2024, 1, 6))

	reader := NewGormLedgerReader(db)

	t.Run("all records oldest first with payments attached", func(t *testing.T) {
		records, err := reader.LoadRecords(ctx, ledger.RecordFilter{})
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, s2023.ID, records[0].Sale.ID)
		assert.Empty(t, records[0].Payments)
		assert.Len(t, records[1].Payments, 2)
		assert.Equal(t, other.ID, records[2].Sale.ID)
	})

	t.Run("year filter uses calendar boundaries", func(t *testing.T) {
		year := 2024
		records, err := reader.LoadRecords(ctx, ledger.RecordFilter{Year: &year})
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("client filter", func(t *testing.T) {
		records, err := reader.LoadRecords(ctx, ledger.RecordFilter{ClientID: &bia.ID})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "70.00", records[0].Sale.FaceValue().String())
	})
}

func TestGormRaffleRepository_InsertTicket(t *testing.T) {
	ctx := context.Background()
	db := setupLedgerTestDB(t)
	repo := NewGormRaffleRepository(db)
	client := seedClient(t, db, "Ana")

	raffle, err := ledger.NewRaffle("Mother's day", 20, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, raffle))

	first, err := raffle.NewTicket(7, client.ID)
	require.NoError(t, err)
	require.NoError(t, repo.InsertTicket(ctx, first))

	again, err := raffle.NewTicket(7, client.ID)
	require.NoError(t, err)
	err = repo.InsertTicket(ctx, again)
	assert.True(t, errors.Is(err, ledger.ErrRaffleNumberUsed))

	tickets, err := repo.FindTickets(ctx, raffle.ID)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, 7, tickets[0].Number)

	_, err = repo.FindByID(ctx, ledger.NewClientID().UUID())
	assert.True(t, errors.Is(err, ledger.ErrRaffleNotFound))
}

func TestGormNotificationRepository(t *testing.T) {
	ctx := context.Background()
	db := setupLedgerTestDB(t)
	repo := NewGormNotificationRepository(db)
	sweptAt := time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)

	payload := map[string]any{"source": ledger.NotificationSourceSweep, "sale_id": "abc"}
	require.NoError(t, repo.Notify(ctx, []string{"admin-1", "admin-2"}, ledger.NotificationKindStaleDebt, "Overdue", "Pay up", payload, sweptAt))
	require.NoError(t, repo.Notify(ctx, []string{"admin-1"}, "OTHER", "t", "b", nil, time.Time{}))

	feed, err := repo.ListForRecipient(ctx, "admin-2", 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "abc", feed[0].Payload["sale_id"])
	assert.Equal(t, ledger.NotificationSourceSweep, feed[0].Source)
	assert.True(t, feed[0].CreatedAt.Equal(sweptAt), "created_at follows the caller's clock")

	// a zero time falls back to the wall clock, so the newer row comes first
	feed, err = repo.ListForRecipient(ctx, "admin-1", 10)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, "OTHER", feed[0].Kind)
	assert.WithinDuration(t, time.Now(), feed[0].CreatedAt, time.Minute)

	_, err = repo.ListForRecipient(ctx, "", 10)
	assert.Error(t, err)
}

func TestGormSweepRepository(t *testing.T) {
	ctx := context.Background()
	const window = 24 * time.Hour
	now := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

	claim := func(t *testing.T, repo *GormSweepRepository, kind string, at time.Time) (uuid.UUID, bool) {
		t.Helper()
		id, ok, err := repo.ClaimSweep(ctx, kind, at.Add(-window), at)
		require.NoError(t, err)
		return id, ok
	}

	t.Run("window follows the sweep clock", func(t *testing.T) {
		repo := NewGormSweepRepository(setupLedgerTestDB(t))

		_, ok := claim(t, repo, ledger.NotificationKindStaleDebt, now)
		assert.True(t, ok)
		_, ok = claim(t, repo, ledger.NotificationKindStaleDebt, now)
		assert.False(t, ok, "same clock twice")
		_, ok = claim(t, repo, ledger.NotificationKindStaleDebt, now.Add(time.Hour))
		assert.False(t, ok, "inside the window")
		_, ok = claim(t, repo, "OTHER", now.Add(time.Hour))
		assert.True(t, ok, "kinds do not share a window")
		_, ok = claim(t, repo, ledger.NotificationKindStaleDebt, now.Add(25*time.Hour))
		assert.True(t, ok, "past the window")
	})

	t.Run("released claim frees the window", func(t *testing.T) {
		repo := NewGormSweepRepository(setupLedgerTestDB(t))

		id, ok := claim(t, repo, ledger.NotificationKindStaleDebt, now)
		require.True(t, ok)
		require.NoError(t, repo.ReleaseSweep(ctx, id))

		_, ok = claim(t, repo, ledger.NotificationKindStaleDebt, now.Add(time.Minute))
		assert.True(t, ok)
	})

	t.Run("concurrent claims on one window have one winner", func(t *testing.T) {
		repo := NewGormSweepRepository(setupLedgerTestDB(t))

		const sweepers = 8
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
			errs []error
		)
		for i := 0; i < sweepers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, ok, err := repo.ClaimSweep(ctx, ledger.NotificationKindStaleDebt, now.Add(-window), now.Add(time.Duration(i)*time.Second))
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, err)
				} else if ok {
					wins++
				}
			}()
		}
		wg.Wait()

		assert.Empty(t, errs)
		assert.Equal(t, 1, wins)
	})
}

func TestGormAuditRepository_Record(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormAuditRepository(db)

	require.NoError(t, repo.Record(context.Background(), "user-1", "sale.created", map[string]any{"sale_id": "s-1"}))

	var count int64
	require.NoError(t, db.Table("audit_entries").Where("actor_id = ? AND action = ?", "user-1", "sale.created").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
