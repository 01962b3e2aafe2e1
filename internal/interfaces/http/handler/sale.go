package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	appledger "github.com/noloworld/oribeti-app-sub000/internal/application/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared/valueobject"
)

// SaleUseCases is the sale reconciliation service as seen by the HTTP layer
type SaleUseCases interface {
	CreateSale(ctx context.Context, actorID string, clientID ledger.ClientID, lines []ledger.ProductLine, date time.Time) (*ledger.Sale, error)
	EditSale(ctx context.Context, actorID string, saleID ledger.SaleID, lines []ledger.ProductLine) (*ledger.Sale, error)
	DeleteSale(ctx context.Context, actorID string, saleID ledger.SaleID) error
	AddPayment(ctx context.Context, actorID string, saleID ledger.SaleID, amount valueobject.Amount, date time.Time, note string) (*ledger.Payment, error)
	DeletePayment(ctx context.Context, actorID string, paymentID ledger.PaymentID) error
	RecomputeAfterDeletion(ctx context.Context, actorID string, saleID ledger.SaleID) (*ledger.Sale, error)
	GetSale(ctx context.Context, saleID ledger.SaleID) (*appledger.SaleDetail, error)
	ListSales(ctx context.Context, filter ledger.SaleFilter) ([]ledger.Sale, int64, error)
	ListPayments(ctx context.Context, saleID ledger.SaleID) ([]ledger.Payment, error)
}

// SaleHandler handles sale and payment endpoints
type SaleHandler struct {
	BaseHandler
	sales SaleUseCases
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(sales SaleUseCases) *SaleHandler {
	return &SaleHandler{sales: sales}
}

// Create handles POST /sales. The date defaults to today.
func (h *SaleHandler) Create(c *gin.Context) {
	var req CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	clientID, err := ledger.ParseClientID(req.ClientID)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	date, err := parseDate(req.Date, today())
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sale, err := h.sales.CreateSale(c.Request.Context(), getActorID(c), clientID, toProductLines(req.Lines), date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toSaleResponse(sale))
}

// Update handles PUT /sales/:id, replacing the sale's product lines
func (h *SaleHandler) Update(c *gin.Context) {
	saleID, ok := h.saleID(c)
	if !ok {
		return
	}
	var req EditSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	sale, err := h.sales.EditSale(c.Request.Context(), getActorID(c), saleID, toProductLines(req.Lines))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSaleResponse(sale))
}

// Delete handles DELETE /sales/:id
func (h *SaleHandler) Delete(c *gin.Context) {
	saleID, ok := h.saleID(c)
	if !ok {
		return
	}
	if err := h.sales.DeleteSale(c.Request.Context(), getActorID(c), saleID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Get handles GET /sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	saleID, ok := h.saleID(c)
	if !ok {
		return
	}
	detail, err := h.sales.GetSale(c.Request.Context(), saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSaleDetailResponse(detail))
}

// List handles GET /sales
func (h *SaleHandler) List(c *gin.Context) {
	var q SaleListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	page := q.PageRequest.Normalize()
	filter := ledger.SaleFilter{
		Page:      page.Page,
		PageSize:  page.PageSize,
		SortBy:    page.SortBy,
		SortOrder: page.SortOrder,
	}

	if q.ClientID != "" {
		id, err := ledger.ParseClientID(q.ClientID)
		if err != nil {
			h.BadRequest(c, err.Error())
			return
		}
		filter.ClientID = &id
	}
	if q.Status != "" {
		status := ledger.SaleStatus(q.Status)
		filter.Status = &status
	}
	var err error
	if filter.From, err = parseOptionalDate(q.From); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if filter.To, err = parseOptionalDate(q.To); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sales, total, err := h.sales.ListSales(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]SaleResponse, len(sales))
	for i := range sales {
		out[i] = toSaleResponse(&sales[i])
	}
	h.SuccessWithMeta(c, out, total, page.Page, page.PageSize)
}

// Recompute handles POST /sales/:id/recompute, re-deriving paid and status
// from the stored payments
func (h *SaleHandler) Recompute(c *gin.Context) {
	saleID, ok := h.saleID(c)
	if !ok {
		return
	}
	sale, err := h.sales.RecomputeAfterDeletion(c.Request.Context(), getActorID(c), saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSaleResponse(sale))
}

// AddPayment handles POST /sales/:id/payments. The date defaults to today.
func (h *SaleHandler) AddPayment(c *gin.Context) {
	saleID, ok := h.saleID(c)
	if !ok {
		return
	}
	var req AddPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	date, err := parseDate(req.Date, today())
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payment, err := h.sales.AddPayment(c.Request.Context(), getActorID(c), saleID, req.Amount, date, req.Note)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toPaymentResponse(payment))
}

// ListPayments handles GET /sales/:id/payments
func (h *SaleHandler) ListPayments(c *gin.Context) {
	saleID, ok := h.saleID(c)
	if !ok {
		return
	}
	payments, err := h.sales.ListPayments(c.Request.Context(), saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPaymentResponses(payments))
}

// DeletePayment handles DELETE /payments/:id
func (h *SaleHandler) DeletePayment(c *gin.Context) {
	paymentID, err := ledger.ParsePaymentID(c.Param("id"))
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if err := h.sales.DeletePayment(c.Request.Context(), getActorID(c), paymentID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *SaleHandler) saleID(c *gin.Context) (ledger.SaleID, bool) {
	id, err := ledger.ParseSaleID(c.Param("id"))
	if err != nil {
		h.BadRequest(c, err.Error())
		return ledger.SaleID{}, false
	}
	return id, true
}
