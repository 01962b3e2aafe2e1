package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	appledger "github.com/noloworld/oribeti-app-sub000/internal/application/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared/valueobject"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/config"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/persistence"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MockAuditSink is a mock implementation of appledger.AuditSink
type MockAuditSink struct {
	mock.Mock
}

func (m *MockAuditSink) Record(ctx context.Context, actorID, action string, details map[string]any) error {
	args := m.Called(ctx, actorID, action, details)
	return args.Error(0)
}

// recordingAudit keeps every audit entry in memory
type recordingAudit struct {
	mu      sync.Mutex
	actions []string
	actors  []string
}

func (r *recordingAudit) Record(_ context.Context, actorID, action string, _ map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
	r.actors = append(r.actors, actorID)
	return nil
}

func (r *recordingAudit) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.actions...)
}

type harness struct {
	db       *gorm.DB
	clients  *persistence.GormClientRepository
	sales    *persistence.GormSaleRepository
	payments *persistence.GormPaymentRepository
	audit    *recordingAudit
	service  *appledger.SaleService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	database, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, persistence.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	h := &harness{
		db:       database.DB,
		clients:  persistence.NewGormClientRepository(database.DB),
		sales:    persistence.NewGormSaleRepository(database.DB),
		payments: persistence.NewGormPaymentRepository(database.DB),
		audit:    &recordingAudit{},
	}
	h.service = appledger.NewSaleService(
		persistence.NewGormTransactionScope(database.DB),
		h.sales,
		h.payments,
		h.audit,
		appledger.RetryPolicy{MaxRetries: 2, Backoff: time.Millisecond},
		zap.NewNop(),
	)
	return h
}

func (h *harness) client(t *testing.T, name string) *ledger.Client {
	t.Helper()
	c, err := ledger.NewClient(name, "", "", "")
	require.NoError(t, err)
	require.NoError(t, h.clients.Save(context.Background(), c))
	return c
}

func (h *harness) sale(t *testing.T, clientID ledger.ClientID, date time.Time, prices ...string) *ledger.Sale {
	t.Helper()
	sale, err := h.service.CreateSale(context.Background(), "tester", clientID, linesOf(t, prices...), date)
	require.NoError(t, err)
	return sale
}

func (h *harness) pay(t *testing.T, saleID ledger.SaleID, amount string, date time.Time) *ledger.Payment {
	t.Helper()
	p, err := h.service.AddPayment(context.Background(), "tester", saleID, amt(amount), date, "")
	require.NoError(t, err)
	return p
}

func (h *harness) reload(t *testing.T, id ledger.SaleID) *ledger.Sale {
	t.Helper()
	sale, err := h.sales.FindByID(context.Background(), id)
	require.NoError(t, err)
	return sale
}

func linesOf(t *testing.T, prices ...string) []ledger.ProductLine {
	t.Helper()
	lines := make([]ledger.ProductLine, len(prices))
	for i, p := range prices {
		line, err := ledger.NewProductLine("Product", 1, amt(p), amt(p))
		require.NoError(t, err)
		lines[i] = line
	}
	return lines
}

func amt(s string) valueobject.Amount {
	return valueobject.MustAmount(s)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
