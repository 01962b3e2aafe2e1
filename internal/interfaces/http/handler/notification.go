package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	appledger "github.com/noloworld/oribeti-app-sub000/internal/application/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/persistence"
	"github.com/noloworld/oribeti-app-sub000/internal/interfaces/http/middleware"
)

// SweepRunner runs one stale-debt sweep on demand
type SweepRunner interface {
	RunOnce(ctx context.Context) (*appledger.NotificationBatch, error)
}

// NotificationFeed reads a recipient's notifications
type NotificationFeed interface {
	ListForRecipient(ctx context.Context, recipientID string, limit int) ([]persistence.Notification, error)
}

// NotificationQuery are the feed query parameters
type NotificationQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=200"`
}

// NotificationHandler exposes the stale-debt sweep and the notification feed
type NotificationHandler struct {
	BaseHandler
	sweeper SweepRunner
	feed    NotificationFeed
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(sweeper SweepRunner, feed NotificationFeed) *NotificationHandler {
	return &NotificationHandler{sweeper: sweeper, feed: feed}
}

// Sweep handles POST /notifications/sweep. A sweep already in flight yields 409.
func (h *NotificationHandler) Sweep(c *gin.Context) {
	batch, err := h.sweeper.RunOnce(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

// Feed handles GET /notifications for the authenticated actor
func (h *NotificationHandler) Feed(c *gin.Context) {
	recipientID := middleware.GetActorID(c)
	if recipientID == "" {
		h.Unauthorized(c, "Authentication required")
		return
	}
	var q NotificationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	notifications, err := h.feed.ListForRecipient(c.Request.Context(), recipientID, q.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if notifications == nil {
		notifications = []persistence.Notification{}
	}
	h.Success(c, notifications)
}
