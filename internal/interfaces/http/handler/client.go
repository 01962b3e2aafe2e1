package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	appledger "github.com/noloworld/oribeti-app-sub000/internal/application/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/ledger"
)

// ClientUseCases is the client directory as seen by the HTTP layer
type ClientUseCases interface {
	Create(ctx context.Context, actorID string, in appledger.ClientInput) (*ledger.Client, error)
	Update(ctx context.Context, actorID string, id ledger.ClientID, in appledger.ClientInput) (*ledger.Client, error)
	Delete(ctx context.Context, actorID string, id ledger.ClientID) error
	Get(ctx context.Context, id ledger.ClientID) (*ledger.Client, error)
	List(ctx context.Context, filter ledger.ClientFilter) ([]ledger.Client, int64, error)
}

// ClientHandler handles client-related API endpoints
type ClientHandler struct {
	BaseHandler
	clients ClientUseCases
}

// NewClientHandler creates a new ClientHandler
func NewClientHandler(clients ClientUseCases) *ClientHandler {
	return &ClientHandler{clients: clients}
}

// Create handles POST /clients
func (h *ClientHandler) Create(c *gin.Context) {
	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	client, err := h.clients.Create(c.Request.Context(), getActorID(c), clientInput(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toClientResponse(client))
}

// Update handles PUT /clients/:id
func (h *ClientHandler) Update(c *gin.Context) {
	id, err := ledger.ParseClientID(c.Param("id"))
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	client, err := h.clients.Update(c.Request.Context(), getActorID(c), id, clientInput(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toClientResponse(client))
}

// Delete handles DELETE /clients/:id. Clients with sales cannot be deleted.
func (h *ClientHandler) Delete(c *gin.Context) {
	id, err := ledger.ParseClientID(c.Param("id"))
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if err := h.clients.Delete(c.Request.Context(), getActorID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Get handles GET /clients/:id
func (h *ClientHandler) Get(c *gin.Context) {
	id, err := ledger.ParseClientID(c.Param("id"))
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	client, err := h.clients.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toClientResponse(client))
}

// List handles GET /clients
func (h *ClientHandler) List(c *gin.Context) {
	var q ClientListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	page := q.PageRequest.Normalize()

	clients, total, err := h.clients.List(c.Request.Context(), ledger.ClientFilter{
		Search:    q.Search,
		Page:      page.Page,
		PageSize:  page.PageSize,
		SortBy:    page.SortBy,
		SortOrder: page.SortOrder,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]ClientResponse, len(clients))
	for i := range clients {
		out[i] = toClientResponse(&clients[i])
	}
	h.SuccessWithMeta(c, out, total, page.Page, page.PageSize)
}

func clientInput(req ClientRequest) appledger.ClientInput {
	return appledger.ClientInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	}
}
