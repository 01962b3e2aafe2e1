package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared/valueobject"
)

// ClientModel is the persistence model for ledger.Client
type ClientModel struct {
	BaseModel
	Name    string `gorm:"type:varchar(200);not null;index"`
	Phone   string `gorm:"type:varchar(50)"`
	Email   string `gorm:"type:varchar(200)"`
	Address string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the model to a domain Client
func (m *ClientModel) ToDomain() *ledger.Client {
	return &ledger.Client{
		ID:        ledger.ClientID(m.ID),
		Name:      m.Name,
		Phone:     m.Phone,
		Email:     m.Email,
		Address:   m.Address,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ClientModelFromDomain creates a model from a domain Client
func ClientModelFromDomain(c *ledger.Client) *ClientModel {
	return &ClientModel{
		BaseModel: BaseModel{ID: c.ID.UUID(), CreatedAt: utc(c.CreatedAt), UpdatedAt: utc(c.UpdatedAt)},
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		Address:   c.Address,
	}
}

// SaleModel is the persistence model for the ledger.Sale aggregate root
type SaleModel struct {
	BaseModel
	ClientID uuid.UUID          `gorm:"type:uuid;not null;index"`
	Date     time.Time          `gorm:"not null;index"`
	Paid     valueobject.Amount `gorm:"type:numeric(18,2);not null;default:0"`
	Status   string             `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Version  int                `gorm:"not null;default:1"`
	Lines    []ProductLineModel `gorm:"foreignKey:SaleID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the model (with its preloaded lines) to a domain Sale
func (m *SaleModel) ToDomain() *ledger.Sale {
	sale := &ledger.Sale{
		ID:        ledger.SaleID(m.ID),
		ClientID:  ledger.ClientID(m.ClientID),
		Date:      m.Date,
		Paid:      m.Paid,
		Status:    ledger.SaleStatus(m.Status),
		Version:   m.Version,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	sale.Lines = LinesToDomain(m.Lines)
	return sale
}

// SaleModelFromDomain creates a model with lines from a domain Sale
func SaleModelFromDomain(s *ledger.Sale) *SaleModel {
	return &SaleModel{
		BaseModel: BaseModel{ID: s.ID.UUID(), CreatedAt: utc(s.CreatedAt), UpdatedAt: utc(s.UpdatedAt)},
		ClientID:  s.ClientID.UUID(),
		Date:      utc(s.Date),
		Paid:      s.Paid,
		Status:    s.Status.String(),
		Version:   s.Version,
		Lines:     LineModelsFromDomain(s.ID, s.Lines),
	}
}

// ProductLineModel is the persistence model for ledger.ProductLine.
// Position keeps the order lines were entered in.
type ProductLineModel struct {
	ID           uuid.UUID          `gorm:"type:uuid;primaryKey"`
	SaleID       uuid.UUID          `gorm:"type:uuid;not null;index"`
	Position     int                `gorm:"not null"`
	ProductName  string             `gorm:"type:varchar(200);not null"`
	Quantity     int                `gorm:"not null"`
	CatalogPrice valueobject.Amount `gorm:"type:numeric(18,2);not null;default:0"`
	FinalPrice   valueobject.Amount `gorm:"type:numeric(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductLineModel) TableName() string {
	return "sale_lines"
}

// LinesToDomain converts line models to domain lines in position order
func LinesToDomain(models []ProductLineModel) []ledger.ProductLine {
	sorted := make([]ProductLineModel, len(models))
	copy(sorted, models)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	lines := make([]ledger.ProductLine, len(sorted))
	for i, m := range sorted {
		lines[i] = ledger.ProductLine{
			ID:           m.ID,
			ProductName:  m.ProductName,
			Quantity:     m.Quantity,
			CatalogPrice: m.CatalogPrice,
			FinalPrice:   m.FinalPrice,
		}
	}
	return lines
}

// LineModelsFromDomain creates line models for saleID
func LineModelsFromDomain(saleID ledger.SaleID, lines []ledger.ProductLine) []ProductLineModel {
	out := make([]ProductLineModel, len(lines))
	for i, l := range lines {
		id := l.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		out[i] = ProductLineModel{
			ID:           id,
			SaleID:       saleID.UUID(),
			Position:     i,
			ProductName:  l.ProductName,
			Quantity:     l.Quantity,
			CatalogPrice: l.CatalogPrice,
			FinalPrice:   l.FinalPrice,
		}
	}
	return out
}

// PaymentModel is the persistence model for ledger.Payment
type PaymentModel struct {
	AppendOnlyModel
	SaleID   uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_payments_sale_sequence,priority:1"`
	Amount   valueobject.Amount `gorm:"type:numeric(18,2);not null"`
	Date     time.Time          `gorm:"not null"`
	Note     string             `gorm:"type:varchar(500)"`
	Sequence int64              `gorm:"not null;uniqueIndex:idx_payments_sale_sequence,priority:2"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the model to a domain Payment
func (m *PaymentModel) ToDomain() ledger.Payment {
	return ledger.Payment{
		ID:        ledger.PaymentID(m.ID),
		SaleID:    ledger.SaleID(m.SaleID),
		Amount:    m.Amount,
		Date:      m.Date,
		Note:      m.Note,
		Sequence:  m.Sequence,
		CreatedAt: m.CreatedAt,
	}
}

// PaymentModelFromDomain creates a model from a domain Payment
func PaymentModelFromDomain(p *ledger.Payment) *PaymentModel {
	return &PaymentModel{
		AppendOnlyModel: AppendOnlyModel{ID: p.ID.UUID(), CreatedAt: utc(p.CreatedAt)},
		SaleID:          p.SaleID.UUID(),
		Amount:          p.Amount,
		Date:            utc(p.Date),
		Note:            p.Note,
		Sequence:        p.Sequence,
	}
}

// RaffleModel is the persistence model for ledger.Raffle
type RaffleModel struct {
	AppendOnlyModel
	Name      string `gorm:"type:varchar(200);not null"`
	MaxNumber int    `gorm:"not null"`
	DrawDate  *time.Time
}

// TableName returns the table name for GORM
func (RaffleModel) TableName() string {
	return "raffles"
}

// ToDomain converts the model to a domain Raffle
func (m *RaffleModel) ToDomain() *ledger.Raffle {
	return &ledger.Raffle{
		ID:        m.ID,
		Name:      m.Name,
		MaxNumber: m.MaxNumber,
		DrawDate:  m.DrawDate,
		CreatedAt: m.CreatedAt,
	}
}

// RaffleModelFromDomain creates a model from a domain Raffle
func RaffleModelFromDomain(r *ledger.Raffle) *RaffleModel {
	m := &RaffleModel{
		AppendOnlyModel: AppendOnlyModel{ID: r.ID, CreatedAt: utc(r.CreatedAt)},
		Name:            r.Name,
		MaxNumber:       r.MaxNumber,
	}
	if r.DrawDate != nil {
		d := utc(*r.DrawDate)
		m.DrawDate = &d
	}
	return m
}

// RaffleTicketModel is the persistence model for ledger.RaffleTicket.
// The unique index on (raffle_id, number) is what makes number claims safe.
type RaffleTicketModel struct {
	AppendOnlyModel
	RaffleID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_raffle_tickets_number,priority:1"`
	Number   int       `gorm:"not null;uniqueIndex:idx_raffle_tickets_number,priority:2"`
	ClientID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (RaffleTicketModel) TableName() string {
	return "raffle_tickets"
}

// ToDomain converts the model to a domain RaffleTicket
func (m *RaffleTicketModel) ToDomain() ledger.RaffleTicket {
	return ledger.RaffleTicket{
		ID:        m.ID,
		RaffleID:  m.RaffleID,
		Number:    m.Number,
		ClientID:  ledger.ClientID(m.ClientID),
		CreatedAt: m.CreatedAt,
	}
}

// RaffleTicketModelFromDomain creates a model from a domain RaffleTicket
func RaffleTicketModelFromDomain(t *ledger.RaffleTicket) *RaffleTicketModel {
	return &RaffleTicketModel{
		AppendOnlyModel: AppendOnlyModel{ID: t.ID, CreatedAt: utc(t.CreatedAt)},
		RaffleID:        t.RaffleID,
		Number:          t.Number,
		ClientID:        t.ClientID.UUID(),
	}
}
