package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared/valueobject"
)

// ReportUseCases is the debtor aggregation service as seen by the HTTP layer
type ReportUseCases interface {
	ListDebtors(ctx context.Context) ([]ledger.DebtSnapshot, error)
	TopSpenders(ctx context.Context, n int) ([]ledger.RankedClient, error)
	SalesByMonth(ctx context.Context, year int) ([12]valueobject.Amount, error)
	SalesByYear(ctx context.Context) ([]ledger.YearlyTotal, error)
	ClientStatement(ctx context.Context, clientID ledger.ClientID) (*ledger.ClientStatement, error)
}

// TopSpendersQuery are the top-spender query parameters
type TopSpendersQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// MonthlySalesResponse holds a year's sales per calendar month, January first
type MonthlySalesResponse struct {
	Year   int                    `json:"year"`
	Months [12]valueobject.Amount `json:"months"`
	Total  valueobject.Amount     `json:"total"`
}

// ReportHandler handles reporting endpoints
type ReportHandler struct {
	BaseHandler
	reports         ReportUseCases
	defaultTopLimit int
}

// NewReportHandler creates a new ReportHandler. defaultTopLimit applies when
// the caller sends no limit.
func NewReportHandler(reports ReportUseCases, defaultTopLimit int) *ReportHandler {
	if defaultTopLimit <= 0 {
		defaultTopLimit = 10
	}
	return &ReportHandler{reports: reports, defaultTopLimit: defaultTopLimit}
}

// Debtors handles GET /reports/debtors
func (h *ReportHandler) Debtors(c *gin.Context) {
	debtors, err := h.reports.ListDebtors(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, debtors)
}

// TopSpenders handles GET /reports/top-spenders
func (h *ReportHandler) TopSpenders(c *gin.Context) {
	var q TopSpendersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	if q.Limit == 0 {
		q.Limit = h.defaultTopLimit
	}
	ranked, err := h.reports.TopSpenders(c.Request.Context(), q.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ranked)
}

// Monthly handles GET /reports/monthly/:year
func (h *ReportHandler) Monthly(c *gin.Context) {
	year, err := intParam(c, "year")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	months, err := h.reports.SalesByMonth(c.Request.Context(), year)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MonthlySalesResponse{
		Year:   year,
		Months: months,
		Total:  valueobject.SumAmounts(months[:]...),
	})
}

// Yearly handles GET /reports/yearly
func (h *ReportHandler) Yearly(c *gin.Context) {
	totals, err := h.reports.SalesByYear(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, totals)
}

// Statement handles GET /clients/:id/statement
func (h *ReportHandler) Statement(c *gin.Context) {
	id, err := ledger.ParseClientID(c.Param("id"))
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	statement, err := h.reports.ClientStatement(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, statement)
}
