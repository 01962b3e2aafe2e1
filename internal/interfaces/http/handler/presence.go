package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/presence"
	"github.com/noloworld/oribeti-app-sub000/internal/interfaces/http/middleware"
)

// HeartbeatRequest is the optional body of POST /presence/heartbeat. The
// authenticated actor wins over UserID when both are present.
type HeartbeatRequest struct {
	UserID string `json:"user_id" binding:"max=100"`
}

// OnlineResponse lists the users currently online
type OnlineResponse struct {
	Users []presence.Presence `json:"users"`
	Count int                 `json:"count"`
	AsOf  time.Time           `json:"as_of"`
}

// PresenceHandler handles presence endpoints
type PresenceHandler struct {
	BaseHandler
	tracker presence.Tracker
}

// NewPresenceHandler creates a new PresenceHandler
func NewPresenceHandler(tracker presence.Tracker) *PresenceHandler {
	return &PresenceHandler{tracker: tracker}
}

// Heartbeat handles POST /presence/heartbeat
func (h *PresenceHandler) Heartbeat(c *gin.Context) {
	userID := middleware.GetActorID(c)
	if userID == "" {
		var req HeartbeatRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				h.BindError(c, err)
				return
			}
		}
		userID = req.UserID
	}

	if err := h.tracker.Heartbeat(c.Request.Context(), userID); err != nil {
		if errors.Is(err, presence.ErrEmptyUserID) {
			h.BadRequest(c, "user_id is required for anonymous heartbeats")
			return
		}
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Leave handles DELETE /presence/heartbeat for the authenticated actor
func (h *PresenceHandler) Leave(c *gin.Context) {
	userID := middleware.GetActorID(c)
	if userID == "" {
		h.Unauthorized(c, "Authentication required")
		return
	}
	if err := h.tracker.Remove(c.Request.Context(), userID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Online handles GET /presence/online
func (h *PresenceHandler) Online(c *gin.Context) {
	users, err := h.tracker.Online(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if users == nil {
		users = []presence.Presence{}
	}
	h.Success(c, OnlineResponse{Users: users, Count: len(users), AsOf: time.Now().UTC()})
}
