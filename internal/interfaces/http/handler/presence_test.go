package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/noloworld/oribeti-app-sub000/internal/application/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/persistence"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/presence"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/scheduler"
	"github.com/noloworld/oribeti-app-sub000/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryTracker(t *testing.T) *presence.MemoryTracker {
	t.Helper()
	tracker := presence.NewMemoryTracker(time.Minute, 0)
	t.Cleanup(func() { _ = tracker.Close() })
	return tracker
}

func TestPresenceHandler_HeartbeatAsActor(t *testing.T) {
	tracker := newMemoryTracker(t)
	h := NewPresenceHandler(tracker)
	r := newRouter("owner-1")
	r.POST("/presence/heartbeat", h.Heartbeat)
	r.DELETE("/presence/heartbeat", h.Leave)
	r.GET("/presence/online", h.Online)

	w := doJSON(r, http.MethodPost, "/presence/heartbeat", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(r, http.MethodGet, "/presence/online", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got OnlineResponse
	decodeData(t, w, &got)
	assert.Equal(t, 1, got.Count)
	assert.Equal(t, "owner-1", got.Users[0].UserID)

	w = doJSON(r, http.MethodDelete, "/presence/heartbeat", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	online, err := tracker.IsOnline(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.False(t, online)
}

func TestPresenceHandler_AnonymousHeartbeat(t *testing.T) {
	tracker := newMemoryTracker(t)
	h := NewPresenceHandler(tracker)
	r := newRouter("")
	r.POST("/presence/heartbeat", h.Heartbeat)
	r.DELETE("/presence/heartbeat", h.Leave)

	w := doJSON(r, http.MethodPost, "/presence/heartbeat", map[string]any{"user_id": "kiosk"})
	require.Equal(t, http.StatusNoContent, w.Code)
	online, err := tracker.IsOnline(context.Background(), "kiosk")
	require.NoError(t, err)
	assert.True(t, online)

	w = doJSON(r, http.MethodPost, "/presence/heartbeat", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodDelete, "/presence/heartbeat", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type stubSweeper struct {
	batch *ledger.NotificationBatch
	err   error
}

func (s stubSweeper) RunOnce(context.Context) (*ledger.NotificationBatch, error) {
	return s.batch, s.err
}

type stubFeed struct {
	recipient string
	limit     int
	items     []persistence.Notification
}

func (f *stubFeed) ListForRecipient(_ context.Context, recipientID string, limit int) ([]persistence.Notification, error) {
	f.recipient = recipientID
	f.limit = limit
	return f.items, nil
}

func TestNotificationHandler_Sweep(t *testing.T) {
	r := newRouter("owner-1")
	h := NewNotificationHandler(stubSweeper{batch: &ledger.NotificationBatch{StaleSales: 3, Emitted: 3}}, &stubFeed{})
	r.POST("/notifications/sweep", h.Sweep)

	w := doJSON(r, http.MethodPost, "/notifications/sweep", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got ledger.NotificationBatch
	decodeData(t, w, &got)
	assert.Equal(t, 3, got.StaleSales)

	r = newRouter("owner-1")
	h = NewNotificationHandler(stubSweeper{err: scheduler.ErrSweepInProgress}, &stubFeed{})
	r.POST("/notifications/sweep", h.Sweep)

	w = doJSON(r, http.MethodPost, "/notifications/sweep", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeSweepInProgress, decode(t, w).Error.Code)

	r = newRouter("owner-1")
	h = NewNotificationHandler(stubSweeper{err: errors.New("db down")}, &stubFeed{})
	r.POST("/notifications/sweep", h.Sweep)
	assert.Equal(t, http.StatusInternalServerError, doJSON(r, http.MethodPost, "/notifications/sweep", nil).Code)
}

func TestNotificationHandler_Feed(t *testing.T) {
	feed := &stubFeed{}
	h := NewNotificationHandler(stubSweeper{}, feed)

	r := newRouter("owner-1")
	r.GET("/notifications", h.Feed)
	w := doJSON(r, http.MethodGet, "/notifications?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)
	assert.Equal(t, "owner-1", feed.recipient)
	assert.Equal(t, 5, feed.limit)

	anon := newRouter("")
	anon.GET("/notifications", h.Feed)
	assert.Equal(t, http.StatusUnauthorized, doJSON(anon, http.MethodGet, "/notifications", nil).Code)
}

func TestSystemHandler_Ready(t *testing.T) {
	healthy := NewSystemHandler("ledger", "test", map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
	})
	failing := NewSystemHandler("ledger", "test", map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	r := newRouter("")
	r.GET("/ready", healthy.Ready)
	r.GET("/health", healthy.Health)
	r.GET("/info", healthy.Info)
	r.GET("/ready-failing", failing.Ready)

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/ready", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/health", nil).Code)

	w := doJSON(r, http.MethodGet, "/ready-failing", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")

	var info SystemInfoResponse
	decodeData(t, doJSON(r, http.MethodGet, "/info", nil), &info)
	assert.Equal(t, "ledger", info.Name)
}
