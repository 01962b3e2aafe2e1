package valueobject

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// AmountPlaces is the number of decimal places every Amount is kept at.
const AmountPlaces int32 = 2

// Amount is a value object representing a monetary amount with two-decimal precision.
// It is immutable - all operations return new Amount instances.
// The ledger is single-currency, so no currency is carried.
type Amount struct {
	value decimal.Decimal
}

// NewAmount creates an Amount from a decimal, rounding half away from zero to two places
func NewAmount(d decimal.Decimal) Amount {
	return Amount{value: d.Round(AmountPlaces)}
}

// NewAmountFromString creates an Amount from a string representation such as "12.50"
func NewAmountFromString(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return NewAmount(d), nil
}

// MustAmount is like NewAmountFromString but panics on malformed input.
// Intended for constants and tests.
func MustAmount(s string) Amount {
	a, err := NewAmountFromString(s)
	if err != nil {
		panic(err)
	}
	return a
}

// NewAmountFromMinor creates an Amount from integer minor units (cents)
func NewAmountFromMinor(minor int64) Amount {
	return Amount{value: decimal.New(minor, -AmountPlaces)}
}

// NewAmountFromFloat creates an Amount from a float64 value.
// Only for boundary conversion; arithmetic never goes through float64.
func NewAmountFromFloat(f float64) Amount {
	return NewAmount(decimal.NewFromFloat(f))
}

// ZeroAmount returns a zero Amount
func ZeroAmount() Amount {
	return Amount{value: decimal.Zero}
}

// SumAmounts adds all amounts together
func SumAmounts(amounts ...Amount) Amount {
	total := ZeroAmount()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Decimal returns the underlying decimal value
func (a Amount) Decimal() decimal.Decimal {
	return a.value
}

// MinorUnits returns the amount in integer minor units (cents)
func (a Amount) MinorUnits() int64 {
	return a.value.Shift(AmountPlaces).IntPart()
}

// IsZero returns true if the amount is zero
func (a Amount) IsZero() bool {
	return a.value.IsZero()
}

// IsPositive returns true if the amount is greater than zero
func (a Amount) IsPositive() bool {
	return a.value.IsPositive()
}

// IsNegative returns true if the amount is less than zero
func (a Amount) IsNegative() bool {
	return a.value.IsNegative()
}

// Add returns a new Amount with the sum of both amounts
func (a Amount) Add(other Amount) Amount {
	return Amount{value: a.value.Add(other.value)}
}

// Sub returns a new Amount with the difference
func (a Amount) Sub(other Amount) Amount {
	return Amount{value: a.value.Sub(other.value)}
}

// MulInt returns a new Amount multiplied by an integer quantity
func (a Amount) MulInt(quantity int64) Amount {
	return Amount{value: a.value.Mul(decimal.NewFromInt(quantity))}
}

// Cmp compares two amounts: -1 if a < other, 0 if equal, +1 if a > other
func (a Amount) Cmp(other Amount) int {
	return a.value.Cmp(other.value)
}

// Equals returns true if both amounts are numerically equal
func (a Amount) Equals(other Amount) bool {
	return a.value.Equal(other.value)
}

// LessThan returns true if a < other
func (a Amount) LessThan(other Amount) bool {
	return a.value.LessThan(other.value)
}

// LessThanOrEqual returns true if a <= other
func (a Amount) LessThanOrEqual(other Amount) bool {
	return a.value.LessThanOrEqual(other.value)
}

// GreaterThan returns true if a > other
func (a Amount) GreaterThan(other Amount) bool {
	return a.value.GreaterThan(other.value)
}

// GreaterThanOrEqual returns true if a >= other
func (a Amount) GreaterThanOrEqual(other Amount) bool {
	return a.value.GreaterThanOrEqual(other.value)
}

// Max returns the larger of the two amounts
func (a Amount) Max(other Amount) Amount {
	if a.LessThan(other) {
		return other
	}
	return a
}

// ClampZero returns the amount, or zero if it is negative
func (a Amount) ClampZero() Amount {
	if a.IsNegative() {
		return ZeroAmount()
	}
	return a
}

// String returns the amount with exactly two decimal places
func (a Amount) String() string {
	return a.value.StringFixed(AmountPlaces)
}

// Float64 returns the amount as a float64 (may lose precision, for metrics only)
func (a Amount) Float64() float64 {
	f, _ := a.value.Float64()
	return f
}

// MarshalJSON emits the amount as a JSON number with two decimal places
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts both a JSON number (12.5) and a quoted decimal ("12.50")
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	*a = NewAmount(d)
	return nil
}

// Value implements driver.Valuer for numeric(18,2) columns
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner for database retrieval
func (a *Amount) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*a = ZeroAmount()
	case string:
		return a.scanString(v)
	case []byte:
		return a.scanString(string(v))
	case int64:
		*a = NewAmount(decimal.NewFromInt(v))
	case float64:
		*a = NewAmountFromFloat(v)
	default:
		return fmt.Errorf("cannot scan %T into Amount", value)
	}
	return nil
}

func (a *Amount) scanString(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid decimal value: %w", err)
	}
	*a = NewAmount(d)
	return nil
}
