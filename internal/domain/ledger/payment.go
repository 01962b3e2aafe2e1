package ledger

import (
	"sort"
	"strings"
	"time"

	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared/valueobject"
)

// Payment is one entry of a sale's append-only payment ledger.
// Sequence is the per-sale insertion order and breaks ties between payments
// sharing the same Date.
type Payment struct {
	ID        PaymentID
	SaleID    SaleID
	Amount    valueobject.Amount
	Date      time.Time
	Note      string
	Sequence  int64
	CreatedAt time.Time
}

// NewPayment creates a payment; settlement is decided by the reconciliation service
func NewPayment(saleID SaleID, amount valueobject.Amount, date time.Time, note string) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if saleID.IsZero() {
		return nil, ErrSaleNotFound
	}
	if date.IsZero() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payment date is required")
	}
	return &Payment{
		ID:        NewPaymentID(),
		SaleID:    saleID,
		Amount:    amount,
		Date:      date,
		Note:      strings.TrimSpace(note),
		CreatedAt: time.Now(),
	}, nil
}

// TotalPaid sums the full payment set
func TotalPaid(payments []Payment) valueobject.Amount {
	total := valueobject.ZeroAmount()
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}

// SortPayments orders payments by date, then insertion order
func SortPayments(payments []Payment) {
	sort.SliceStable(payments, func(i, j int) bool {
		return paymentBefore(payments[i], payments[j])
	})
}

// LatestPayment returns the most recent payment: max(date), ties broken by insertion order
func LatestPayment(payments []Payment) (Payment, bool) {
	if len(payments) == 0 {
		return Payment{}, false
	}
	latest := payments[0]
	for _, p := range payments[1:] {
		if paymentBefore(latest, p) {
			latest = p
		}
	}
	return latest, true
}

func paymentBefore(a, b Payment) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	if a.Sequence != b.Sequence {
		return a.Sequence < b.Sequence
	}
	return a.CreatedAt.Before(b.CreatedAt)
}
