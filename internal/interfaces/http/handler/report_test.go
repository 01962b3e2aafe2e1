package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/noloworld/oribeti-app-sub000/internal/domain/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockReports struct {
	mock.Mock
}

func (m *mockReports) ListDebtors(ctx context.Context) ([]ledger.DebtSnapshot, error) {
	args := m.Called(ctx)
	d, _ := args.Get(0).([]ledger.DebtSnapshot)
	return d, args.Error(1)
}

func (m *mockReports) TopSpenders(ctx context.Context, n int) ([]ledger.RankedClient, error) {
	args := m.Called(ctx, n)
	r, _ := args.Get(0).([]ledger.RankedClient)
	return r, args.Error(1)
}

func (m *mockReports) SalesByMonth(ctx context.Context, year int) ([12]valueobject.Amount, error) {
	args := m.Called(ctx, year)
	return args.Get(0).([12]valueobject.Amount), args.Error(1)
}

func (m *mockReports) SalesByYear(ctx context.Context) ([]ledger.YearlyTotal, error) {
	args := m.Called(ctx)
	y, _ := args.Get(0).([]ledger.YearlyTotal)
	return y, args.Error(1)
}

func (m *mockReports) ClientStatement(ctx context.Context, clientID ledger.ClientID) (*ledger.ClientStatement, error) {
	args := m.Called(ctx, clientID)
	s, _ := args.Get(0).(*ledger.ClientStatement)
	return s, args.Error(1)
}

func TestReportHandler_Monthly(t *testing.T) {
	var months [12]valueobject.Amount
	for i := range months {
		months[i] = valueobject.ZeroAmount()
	}
	months[0] = amt("100")
	months[11] = amt("50.50")

	reports := new(mockReports)
	reports.On("SalesByMonth", mock.Anything, 2024).Return(months, nil)

	h := NewReportHandler(reports, 10)
	r := newRouter("")
	r.GET("/reports/monthly/:year", h.Monthly)

	w := doJSON(r, http.MethodGet, "/reports/monthly/2024", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got MonthlySalesResponse
	decodeData(t, w, &got)
	assert.Equal(t, 2024, got.Year)
	assert.Equal(t, "150.50", got.Total.String())
	assert.Equal(t, "50.50", got.Months[11].String())

	w = doJSON(r, http.MethodGet, "/reports/monthly/last", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandler_TopSpendersDefaultLimit(t *testing.T) {
	reports := new(mockReports)
	reports.On("TopSpenders", mock.Anything, 5).Return([]ledger.RankedClient{}, nil).Once()
	reports.On("TopSpenders", mock.Anything, 3).Return([]ledger.RankedClient{}, nil).Once()

	h := NewReportHandler(reports, 5)
	r := newRouter("")
	r.GET("/reports/top-spenders", h.TopSpenders)

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/reports/top-spenders", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/reports/top-spenders?limit=3", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/reports/top-spenders?limit=0x", nil).Code)
	reports.AssertExpectations(t)
}

func TestReportHandler_Statement(t *testing.T) {
	clientID := ledger.NewClientID()
	reports := new(mockReports)
	reports.On("ClientStatement", mock.Anything, clientID).Return(&ledger.ClientStatement{
		ClientID:         clientID,
		ClientName:       "Ana",
		TotalOutstanding: amt("12.5"),
	}, nil)
	reports.On("ClientStatement", mock.Anything, mock.Anything).Return(nil, ledger.ErrClientNotFound)

	h := NewReportHandler(reports, 0)
	r := newRouter("")
	r.GET("/clients/:id/statement", h.Statement)

	w := doJSON(r, http.MethodGet, "/clients/"+clientID.String()+"/statement", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]any
	decodeData(t, w, &got)
	assert.Equal(t, "Ana", got["client_name"])
	assert.EqualValues(t, 12.5, got["total_outstanding"])

	w = doJSON(r, http.MethodGet, "/clients/"+ledger.NewClientID().String()+"/statement", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportHandler_Debtors(t *testing.T) {
	reports := new(mockReports)
	reports.On("ListDebtors", mock.Anything).Return([]ledger.DebtSnapshot{
		{ClientName: "Ana", OpenCount: 2, TotalOutstanding: amt("30")},
	}, nil)

	h := NewReportHandler(reports, 0)
	r := newRouter("")
	r.GET("/reports/debtors", h.Debtors)

	w := doJSON(r, http.MethodGet, "/reports/debtors", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got []map[string]any
	decodeData(t, w, &got)
	require.Len(t, got, 1)
	assert.EqualValues(t, 2, got[0]["open_count"])
}
