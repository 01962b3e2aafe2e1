package ledger

import (
	"fmt"

	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared/valueobject"
)

// Error codes surfaced by the ledger
const (
	CodeInvalidLineItem     = "INVALID_LINE_ITEM"
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeOverpaymentRejected = "OVERPAYMENT_REJECTED"
	CodeSaleNotFound        = "SALE_NOT_FOUND"
	CodePaymentNotFound     = "PAYMENT_NOT_FOUND"
	CodeClientNotFound      = "CLIENT_NOT_FOUND"
	CodeClientHasSales      = "CLIENT_HAS_SALES"
	CodeRaffleNumberTaken   = "RAFFLE_NUMBER_TAKEN"
	CodeRaffleNotFound      = "RAFFLE_NOT_FOUND"
)

var (
	ErrSaleNotFound     = shared.NewDomainError(CodeSaleNotFound, "Sale not found")
	ErrPaymentNotFound  = shared.NewDomainError(CodePaymentNotFound, "Payment not found")
	ErrClientNotFound   = shared.NewDomainError(CodeClientNotFound, "Client not found")
	ErrInvalidAmount    = shared.NewDomainError(CodeInvalidAmount, "Payment amount must be positive")
	ErrClientHasSales   = shared.NewDomainError(CodeClientHasSales, "Client still has sales and cannot be deleted")
	ErrRaffleNumberUsed = shared.NewDomainError(CodeRaffleNumberTaken, "Raffle number is already taken")
	ErrRaffleNotFound   = shared.NewDomainError(CodeRaffleNotFound, "Raffle not found")
	ErrInvalidLineItem  = shared.NewDomainError(CodeInvalidLineItem, "Invalid product line")
	ErrOverpayment      = shared.NewDomainError(CodeOverpaymentRejected, "Payment exceeds outstanding balance")
)

// NewInvalidLineItemError reports which product line failed validation and why
func NewInvalidLineItemError(index int, reason string) *shared.DomainError {
	err := shared.NewDomainError(CodeInvalidLineItem, fmt.Sprintf("Product line %d: %s", index+1, reason))
	return err.WithDetail("line", index)
}

// NewOverpaymentError carries the exact remaining outstanding amount so the
// caller can correct the input.
func NewOverpaymentError(amount, outstanding valueobject.Amount) *shared.DomainError {
	err := shared.NewDomainError(
		CodeOverpaymentRejected,
		fmt.Sprintf("Payment of %s exceeds outstanding balance; remaining outstanding is %s", amount, outstanding),
	)
	return err.WithDetail("outstanding", outstanding.String()).WithDetail("amount", amount.String())
}
