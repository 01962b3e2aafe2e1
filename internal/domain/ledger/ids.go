package ledger

import (
	"fmt"

	"github.com/google/uuid"
)

// ClientID identifies a Client
type ClientID uuid.UUID

// SaleID identifies a Sale
type SaleID uuid.UUID

// PaymentID identifies a Payment
type PaymentID uuid.UUID

// NewClientID generates a new random ClientID
func NewClientID() ClientID {
	return ClientID(uuid.New())
}

// NewSaleID generates a new random SaleID
func NewSaleID() SaleID {
	return SaleID(uuid.New())
}

// NewPaymentID generates a new random PaymentID
func NewPaymentID() PaymentID {
	return PaymentID(uuid.New())
}

// ParseClientID parses a ClientID from its canonical string form
func ParseClientID(s string) (ClientID, error) {
	id, err := parseUUID("client", s)
	return ClientID(id), err
}

// ParseSaleID parses a SaleID from its canonical string form
func ParseSaleID(s string) (SaleID, error) {
	id, err := parseUUID("sale", s)
	return SaleID(id), err
}

// ParsePaymentID parses a PaymentID from its canonical string form
func ParsePaymentID(s string) (PaymentID, error) {
	id, err := parseUUID("payment", s)
	return PaymentID(id), err
}

func parseUUID(kind, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q: %w", kind, s, err)
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("invalid %s id: must not be nil", kind)
	}
	return id, nil
}

// UUID returns the underlying uuid
func (id ClientID) UUID() uuid.UUID {
	return uuid.UUID(id)
}

// String returns the canonical string form
func (id ClientID) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether the id is unset
func (id ClientID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

// UUID returns the underlying uuid
func (id SaleID) UUID() uuid.UUID {
	return uuid.UUID(id)
}

// String returns the canonical string form
func (id SaleID) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether the id is unset
func (id SaleID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

// UUID returns the underlying uuid
func (id PaymentID) UUID() uuid.UUID {
	return uuid.UUID(id)
}

// String returns the canonical string form
func (id PaymentID) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether the id is unset
func (id PaymentID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

// MarshalText lets ids render as strings in JSON and logs
func (id ClientID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

// UnmarshalText parses a ClientID from text
func (id *ClientID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

// MarshalText lets ids render as strings in JSON and logs
func (id SaleID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

// UnmarshalText parses a SaleID from text
func (id *SaleID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

// MarshalText lets ids render as strings in JSON and logs
func (id PaymentID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

// UnmarshalText parses a PaymentID from text
func (id *PaymentID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}
