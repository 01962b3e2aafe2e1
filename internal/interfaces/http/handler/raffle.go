package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appledger "github.com/noloworld/oribeti-app-sub000/internal/application/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/ledger"
)

// RaffleUseCases is the raffle service as seen by the HTTP layer
type RaffleUseCases interface {
	CreateRaffle(ctx context.Context, name string, maxNumber int, drawDate *time.Time) (*ledger.Raffle, error)
	ListRaffles(ctx context.Context) ([]ledger.Raffle, error)
	Board(ctx context.Context, raffleID uuid.UUID) (*appledger.RaffleBoard, error)
	ClaimNumber(ctx context.Context, actorID string, raffleID uuid.UUID, number int, clientID ledger.ClientID) (*ledger.RaffleTicket, error)
}

// CreateRaffleRequest is the body of POST /raffles
type CreateRaffleRequest struct {
	Name      string `json:"name" binding:"required,max=200"`
	MaxNumber int    `json:"max_number" binding:"required,min=1,max=10000"`
	DrawDate  string `json:"draw_date" binding:"omitempty,datetime=2006-01-02"`
}

// ClaimNumberRequest is the body of POST /raffles/:id/tickets
type ClaimNumberRequest struct {
	Number   int    `json:"number" binding:"required,min=1"`
	ClientID string `json:"client_id" binding:"required,uuid"`
}

// RaffleResponse represents a raffle in API responses
type RaffleResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	MaxNumber int       `json:"max_number"`
	DrawDate  string    `json:"draw_date,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RaffleTicketResponse represents a claimed number
type RaffleTicketResponse struct {
	ID        uuid.UUID       `json:"id"`
	RaffleID  uuid.UUID       `json:"raffle_id"`
	Number    int             `json:"number"`
	ClientID  ledger.ClientID `json:"client_id"`
	CreatedAt time.Time       `json:"created_at"`
}

// RaffleBoardResponse is a raffle with its claimed and free numbers
type RaffleBoardResponse struct {
	Raffle    RaffleResponse         `json:"raffle"`
	Tickets   []RaffleTicketResponse `json:"tickets"`
	Available []int                  `json:"available"`
}

// RaffleHandler handles raffle endpoints
type RaffleHandler struct {
	BaseHandler
	raffles RaffleUseCases
}

// NewRaffleHandler creates a new RaffleHandler
func NewRaffleHandler(raffles RaffleUseCases) *RaffleHandler {
	return &RaffleHandler{raffles: raffles}
}

// Create handles POST /raffles
func (h *RaffleHandler) Create(c *gin.Context) {
	var req CreateRaffleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	drawDate, err := parseOptionalDate(req.DrawDate)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	raffle, err := h.raffles.CreateRaffle(c.Request.Context(), req.Name, req.MaxNumber, drawDate)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toRaffleResponse(raffle))
}

// List handles GET /raffles
func (h *RaffleHandler) List(c *gin.Context) {
	raffles, err := h.raffles.ListRaffles(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]RaffleResponse, len(raffles))
	for i := range raffles {
		out[i] = toRaffleResponse(&raffles[i])
	}
	h.Success(c, out)
}

// Board handles GET /raffles/:id
func (h *RaffleHandler) Board(c *gin.Context) {
	raffleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid raffle id")
		return
	}
	board, err := h.raffles.Board(c.Request.Context(), raffleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	tickets := make([]RaffleTicketResponse, len(board.Tickets))
	for i := range board.Tickets {
		tickets[i] = toTicketResponse(&board.Tickets[i])
	}
	h.Success(c, RaffleBoardResponse{
		Raffle:    toRaffleResponse(board.Raffle),
		Tickets:   tickets,
		Available: board.Available,
	})
}

// Claim handles POST /raffles/:id/tickets. A number already taken yields 409.
func (h *RaffleHandler) Claim(c *gin.Context) {
	raffleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid raffle id")
		return
	}
	var req ClaimNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	clientID, err := ledger.ParseClientID(req.ClientID)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	ticket, err := h.raffles.ClaimNumber(c.Request.Context(), getActorID(c), raffleID, req.Number, clientID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toTicketResponse(ticket))
}

func toRaffleResponse(r *ledger.Raffle) RaffleResponse {
	resp := RaffleResponse{
		ID:        r.ID,
		Name:      r.Name,
		MaxNumber: r.MaxNumber,
		CreatedAt: r.CreatedAt,
	}
	if r.DrawDate != nil {
		resp.DrawDate = r.DrawDate.Format(DateLayout)
	}
	return resp
}

func toTicketResponse(t *ledger.RaffleTicket) RaffleTicketResponse {
	return RaffleTicketResponse{
		ID:        t.ID,
		RaffleID:  t.RaffleID,
		Number:    t.Number,
		ClientID:  t.ClientID,
		CreatedAt: t.CreatedAt,
	}
}
