package ledger

import (
	"strings"

	"github.com/google/uuid"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared/valueobject"
)

// ProductLine is one priced product within a Sale.
// CatalogPrice is informational; the sale is valued at FinalPrice.
type ProductLine struct {
	ID           uuid.UUID
	ProductName  string
	Quantity     int
	CatalogPrice valueobject.Amount
	FinalPrice   valueobject.Amount
}

// NewProductLine creates a validated product line
func NewProductLine(name string, quantity int, catalogPrice, finalPrice valueobject.Amount) (ProductLine, error) {
	line := ProductLine{
		ID:           uuid.New(),
		ProductName:  strings.TrimSpace(name),
		Quantity:     quantity,
		CatalogPrice: catalogPrice,
		FinalPrice:   finalPrice,
	}
	if err := line.validate(0); err != nil {
		return ProductLine{}, err
	}
	return line, nil
}

// Total returns FinalPrice × Quantity
func (l ProductLine) Total() valueobject.Amount {
	return l.FinalPrice.MulInt(int64(l.Quantity))
}

// Discount returns how much below catalog price the line was sold, never negative
func (l ProductLine) Discount() valueobject.Amount {
	return l.CatalogPrice.Sub(l.FinalPrice).MulInt(int64(l.Quantity)).ClampZero()
}

func (l ProductLine) validate(index int) error {
	if strings.TrimSpace(l.ProductName) == "" {
		return NewInvalidLineItemError(index, "product name cannot be empty")
	}
	if l.Quantity <= 0 {
		return NewInvalidLineItemError(index, "quantity must be a positive integer")
	}
	if l.CatalogPrice.IsNegative() {
		return NewInvalidLineItemError(index, "catalog price cannot be negative")
	}
	if l.FinalPrice.IsNegative() {
		return NewInvalidLineItemError(index, "final price cannot be negative")
	}
	return nil
}

// ValidateLines checks every line; a sale needs at least one.
func ValidateLines(lines []ProductLine) error {
	if len(lines) == 0 {
		return shared.NewDomainError(CodeInvalidLineItem, "A sale needs at least one product line")
	}
	for i, line := range lines {
		if err := line.validate(i); err != nil {
			return err
		}
	}
	return nil
}

// FaceValue sums FinalPrice × Quantity over all lines.
// It fails with INVALID_LINE_ITEM when any line has a non-positive quantity or a negative price.
func FaceValue(lines []ProductLine) (valueobject.Amount, error) {
	total := valueobject.ZeroAmount()
	for i, line := range lines {
		if err := line.validate(i); err != nil {
			return valueobject.Amount{}, err
		}
		total = total.Add(line.Total())
	}
	return total, nil
}
