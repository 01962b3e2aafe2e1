package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared"
)

// Raffle is a promotional draw with a fixed range of numbers 1..MaxNumber
type Raffle struct {
	ID        uuid.UUID
	Name      string
	MaxNumber int
	DrawDate  *time.Time
	CreatedAt time.Time
}

// NewRaffle creates a raffle
func NewRaffle(name string, maxNumber int, drawDate *time.Time) (*Raffle, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Raffle name cannot be empty")
	}
	if maxNumber <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Raffle must have at least one number")
	}
	return &Raffle{
		ID:        uuid.New(),
		Name:      name,
		MaxNumber: maxNumber,
		DrawDate:  drawDate,
		CreatedAt: time.Now(),
	}, nil
}

// RaffleTicket assigns one raffle number to one client.
// (RaffleID, Number) is unique at the storage layer.
type RaffleTicket struct {
	ID        uuid.UUID
	RaffleID  uuid.UUID
	Number    int
	ClientID  ClientID
	CreatedAt time.Time
}

// NewTicket creates a ticket for number, checking it is in range
func (r *Raffle) NewTicket(number int, clientID ClientID) (*RaffleTicket, error) {
	if number < 1 || number > r.MaxNumber {
		return nil, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Raffle number must be between 1 and %d", r.MaxNumber))
	}
	if clientID.IsZero() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Client ID cannot be empty")
	}
	return &RaffleTicket{
		ID:        uuid.New(),
		RaffleID:  r.ID,
		Number:    number,
		ClientID:  clientID,
		CreatedAt: time.Now(),
	}, nil
}

// AvailableNumbers returns the numbers not yet taken, ascending
func (r *Raffle) AvailableNumbers(tickets []RaffleTicket) []int {
	taken := make(map[int]struct{}, len(tickets))
	for _, t := range tickets {
		taken[t.Number] = struct{}{}
	}
	available := make([]int, 0, r.MaxNumber)
	for n := 1; n <= r.MaxNumber; n++ {
		if _, ok := taken[n]; !ok {
			available = append(available, n)
		}
	}
	return available
}
