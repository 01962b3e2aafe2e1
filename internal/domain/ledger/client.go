package ledger

import (
	"strings"
	"time"

	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared"
)

// Client is a customer sales are made to
type Client struct {
	ID        ClientID
	Name      string
	Phone     string
	Email     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewClient creates a new client
func NewClient(name, phone, email, address string) (*Client, error) {
	c := &Client{ID: NewClientID()}
	if err := c.Update(name, phone, email, address); err != nil {
		return nil, err
	}
	c.CreatedAt = c.UpdatedAt
	return c, nil
}

// Update replaces the client's contact details
func (c *Client) Update(name, phone, email, address string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_INPUT", "Client name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_INPUT", "Client name cannot exceed 200 characters")
	}
	c.Name = name
	c.Phone = strings.TrimSpace(phone)
	c.Email = strings.TrimSpace(email)
	c.Address = strings.TrimSpace(address)
	c.UpdatedAt = time.Now()
	return nil
}
