package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared/valueobject"
)

// SaleStatus represents the settlement status of a sale
type SaleStatus string

const (
	SaleStatusPending SaleStatus = "PENDING" // paid < face value
	SaleStatusSettled SaleStatus = "SETTLED" // paid >= face value
)

// IsValid checks if the status is a valid SaleStatus
func (s SaleStatus) IsValid() bool {
	return s == SaleStatusPending || s == SaleStatusSettled
}

// String returns the string representation of SaleStatus
func (s SaleStatus) String() string {
	return string(s)
}

// StatusFor is the settlement rule: SETTLED iff paid >= faceValue.
func StatusFor(paid, faceValue valueobject.Amount) SaleStatus {
	if paid.GreaterThanOrEqual(faceValue) {
		return SaleStatusSettled
	}
	return SaleStatusPending
}

// Sale is the aggregate root of the ledger. Face value is always derived from
// Lines; Paid is the denormalized sum of the sale's payments and is only moved
// through Reconcile and ApplyPayment.
type Sale struct {
	ID        SaleID
	ClientID  ClientID
	Date      time.Time
	Lines     []ProductLine
	Paid      valueobject.Amount
	Status    SaleStatus
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSale creates a new pending sale with no payments
func NewSale(clientID ClientID, date time.Time, lines []ProductLine) (*Sale, error) {
	if clientID.IsZero() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Client ID cannot be empty")
	}
	if date.IsZero() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Sale date is required")
	}
	if err := ValidateLines(lines); err != nil {
		return nil, err
	}

	now := time.Now()
	sale := &Sale{
		ID:        NewSaleID(),
		ClientID:  clientID,
		Date:      date,
		Lines:     withLineIDs(lines),
		Paid:      valueobject.ZeroAmount(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	sale.Status = StatusFor(sale.Paid, sale.FaceValue())
	return sale, nil
}

func withLineIDs(lines []ProductLine) []ProductLine {
	out := make([]ProductLine, len(lines))
	for i, line := range lines {
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		out[i] = line
	}
	return out
}

// FaceValue returns Σ finalPrice × quantity over the sale's lines
func (s *Sale) FaceValue() valueobject.Amount {
	total := valueobject.ZeroAmount()
	for _, line := range s.Lines {
		total = total.Add(line.Total())
	}
	return total
}

// Outstanding returns faceValue - paid, never negative
func (s *Sale) Outstanding() valueobject.Amount {
	return s.FaceValue().Sub(s.Paid).ClampZero()
}

// Excess returns paid - faceValue when a settled sale was edited down, else zero.
// It is informational only and never refunded automatically.
func (s *Sale) Excess() valueobject.Amount {
	return s.Paid.Sub(s.FaceValue()).ClampZero()
}

// IsOpen reports whether the sale still has an outstanding balance
func (s *Sale) IsOpen() bool {
	return s.Paid.LessThan(s.FaceValue())
}

// IsSettled reports whether the sale is fully paid
func (s *Sale) IsSettled() bool {
	return s.Status == SaleStatusSettled
}

// CheckPayment validates a payment against the current balance without
// changing the sale. Paid must already reflect the full payment set.
func (s *Sale) CheckPayment(amount valueobject.Amount) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	outstanding := s.FaceValue().Sub(s.Paid)
	if amount.GreaterThan(outstanding) {
		return NewOverpaymentError(amount, outstanding.ClampZero())
	}
	return nil
}

// ApplyPayment adds amount to Paid and re-derives the status.
// Overpayment is rejected here; excess can only arise through ReplaceLines.
func (s *Sale) ApplyPayment(amount valueobject.Amount) error {
	if err := s.CheckPayment(amount); err != nil {
		return err
	}
	s.Reconcile(s.Paid.Add(amount))
	return nil
}

// Reconcile sets Paid to the recomputed ledger total and re-derives the status.
// It returns true if the status changed.
func (s *Sale) Reconcile(totalPaid valueobject.Amount) bool {
	previous := s.Status
	s.Paid = totalPaid
	s.Status = StatusFor(s.Paid, s.FaceValue())
	s.UpdatedAt = time.Now()
	return previous != s.Status
}

// ReplaceLines swaps the product lines and re-derives the status against the
// current Paid. A face value below Paid leaves the sale SETTLED with an excess.
func (s *Sale) ReplaceLines(lines []ProductLine) error {
	if err := ValidateLines(lines); err != nil {
		return err
	}
	s.Lines = withLineIDs(lines)
	s.Status = StatusFor(s.Paid, s.FaceValue())
	s.UpdatedAt = time.Now()
	return nil
}
