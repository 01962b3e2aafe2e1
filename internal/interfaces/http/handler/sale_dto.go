package handler

import (
	"time"

	"github.com/google/uuid"
	appledger "github.com/noloworld/oribeti-app-sub000/internal/application/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared/valueobject"
	"github.com/noloworld/oribeti-app-sub000/internal/interfaces/http/dto"
)

// ProductLineRequest is one product line of a sale body. Quantities and
// prices are checked by the ledger so that errors name the offending line.
type ProductLineRequest struct {
	ProductName  string             `json:"product_name"`
	Quantity     int                `json:"quantity"`
	CatalogPrice valueobject.Amount `json:"catalog_price"`
	FinalPrice   valueobject.Amount `json:"final_price"`
}

// CreateSaleRequest is the body of POST /sales
type CreateSaleRequest struct {
	ClientID string               `json:"client_id" binding:"required,uuid"`
	Date     string               `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Lines    []ProductLineRequest `json:"lines" binding:"required,min=1"`
}

// EditSaleRequest is the body of PUT /sales/:id
type EditSaleRequest struct {
	Lines []ProductLineRequest `json:"lines" binding:"required,min=1"`
}

// AddPaymentRequest is the body of POST /sales/:id/payments
type AddPaymentRequest struct {
	Amount valueobject.Amount `json:"amount"`
	Date   string             `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Note   string             `json:"note" binding:"max=500"`
}

// SaleListQuery are the sale listing query parameters
type SaleListQuery struct {
	dto.PageRequest
	ClientID string `form:"client_id" binding:"omitempty,uuid"`
	Status   string `form:"status" binding:"omitempty,oneof=PENDING SETTLED"`
	From     string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To       string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// ProductLineResponse represents a product line in API responses
type ProductLineResponse struct {
	ID           uuid.UUID          `json:"id"`
	ProductName  string             `json:"product_name"`
	Quantity     int                `json:"quantity"`
	CatalogPrice valueobject.Amount `json:"catalog_price"`
	FinalPrice   valueobject.Amount `json:"final_price"`
	Total        valueobject.Amount `json:"total"`
	Discount     valueobject.Amount `json:"discount"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID          ledger.SaleID         `json:"id"`
	ClientID    ledger.ClientID       `json:"client_id"`
	Date        string                `json:"date"`
	Lines       []ProductLineResponse `json:"lines"`
	FaceValue   valueobject.Amount    `json:"face_value"`
	Paid        valueobject.Amount    `json:"paid"`
	Outstanding valueobject.Amount    `json:"outstanding"`
	Excess      valueobject.Amount    `json:"excess"`
	Status      ledger.SaleStatus     `json:"status"`
	Version     int                   `json:"version"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// SaleDetailResponse is a sale with its payment history
type SaleDetailResponse struct {
	SaleResponse
	Payments []PaymentResponse `json:"payments"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID        ledger.PaymentID   `json:"id"`
	SaleID    ledger.SaleID      `json:"sale_id"`
	Amount    valueobject.Amount `json:"amount"`
	Date      string             `json:"date"`
	Note      string             `json:"note,omitempty"`
	Sequence  int64              `json:"sequence"`
	CreatedAt time.Time          `json:"created_at"`
}

func toProductLines(req []ProductLineRequest) []ledger.ProductLine {
	lines := make([]ledger.ProductLine, len(req))
	for i, l := range req {
		lines[i] = ledger.ProductLine{
			ProductName:  l.ProductName,
			Quantity:     l.Quantity,
			CatalogPrice: l.CatalogPrice,
			FinalPrice:   l.FinalPrice,
		}
	}
	return lines
}

func toSaleResponse(s *ledger.Sale) SaleResponse {
	lines := make([]ProductLineResponse, len(s.Lines))
	for i, l := range s.Lines {
		lines[i] = ProductLineResponse{
			ID:           l.ID,
			ProductName:  l.ProductName,
			Quantity:     l.Quantity,
			CatalogPrice: l.CatalogPrice,
			FinalPrice:   l.FinalPrice,
			Total:        l.Total(),
			Discount:     l.Discount(),
		}
	}
	return SaleResponse{
		ID:          s.ID,
		ClientID:    s.ClientID,
		Date:        s.Date.Format(DateLayout),
		Lines:       lines,
		FaceValue:   s.FaceValue(),
		Paid:        s.Paid,
		Outstanding: s.Outstanding(),
		Excess:      s.Excess(),
		Status:      s.Status,
		Version:     s.Version,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func toPaymentResponse(p *ledger.Payment) PaymentResponse {
	return PaymentResponse{
		ID:        p.ID,
		SaleID:    p.SaleID,
		Amount:    p.Amount,
		Date:      p.Date.Format(DateLayout),
		Note:      p.Note,
		Sequence:  p.Sequence,
		CreatedAt: p.CreatedAt,
	}
}

func toPaymentResponses(payments []ledger.Payment) []PaymentResponse {
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		out[i] = toPaymentResponse(&payments[i])
	}
	return out
}

func toSaleDetailResponse(d *appledger.SaleDetail) SaleDetailResponse {
	return SaleDetailResponse{
		SaleResponse: toSaleResponse(d.Sale),
		Payments:     toPaymentResponses(d.Payments),
	}
}
