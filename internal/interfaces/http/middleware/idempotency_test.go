package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
)

type brokenStore struct{}

func (brokenStore) Claim(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

func (brokenStore) Release(context.Context, string) error { return nil }

func (brokenStore) Close() error { return nil }

func idempotentRouter(store cache.IdempotencyStore, status *int, calls *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if actor := c.GetHeader("X-Test-Actor"); actor != "" {
			c.Set(ActorIDKey, actor)
		}
		c.Next()
	})
	r.Use(Idempotency(store, time.Hour, nil))
	handler := func(c *gin.Context) {
		*calls++
		c.Status(*status)
	}
	r.POST("/sales/:id/payments", handler)
	r.GET("/sales/:id/payments", handler)
	return r
}

func send(r *gin.Engine, method, path, key, actor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	if actor != "" {
		req.Header.Set("X-Test-Actor", actor)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency(t *testing.T) {
	t.Run("repeated key is rejected", func(t *testing.T) {
		store := cache.NewMemoryStore(0)
		defer store.Close()
		status, calls := http.StatusCreated, 0
		r := idempotentRouter(store, &status, &calls)

		assert.Equal(t, http.StatusCreated, send(r, http.MethodPost, "/sales/1/payments", "k1", "alice").Code)
		w := send(r, http.MethodPost, "/sales/1/payments", "k1", "alice")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_DUPLICATE_REQUEST")
		assert.Equal(t, 1, calls)
	})

	t.Run("key is scoped to actor and path", func(t *testing.T) {
		store := cache.NewMemoryStore(0)
		defer store.Close()
		status, calls := http.StatusCreated, 0
		r := idempotentRouter(store, &status, &calls)

		send(r, http.MethodPost, "/sales/1/payments", "k1", "alice")
		assert.Equal(t, http.StatusCreated, send(r, http.MethodPost, "/sales/1/payments", "k1", "bob").Code)
		assert.Equal(t, http.StatusCreated, send(r, http.MethodPost, "/sales/2/payments", "k1", "alice").Code)
		assert.Equal(t, 3, calls)
	})

	t.Run("failed request releases the key", func(t *testing.T) {
		store := cache.NewMemoryStore(0)
		defer store.Close()
		status, calls := http.StatusUnprocessableEntity, 0
		r := idempotentRouter(store, &status, &calls)

		assert.Equal(t, http.StatusUnprocessableEntity, send(r, http.MethodPost, "/sales/1/payments", "k2", "alice").Code)
		status = http.StatusCreated
		assert.Equal(t, http.StatusCreated, send(r, http.MethodPost, "/sales/1/payments", "k2", "alice").Code)
		assert.Equal(t, 2, calls)
	})

	t.Run("requests without a key and reads pass through", func(t *testing.T) {
		store := cache.NewMemoryStore(0)
		defer store.Close()
		status, calls := http.StatusOK, 0
		r := idempotentRouter(store, &status, &calls)

		send(r, http.MethodPost, "/sales/1/payments", "", "alice")
		send(r, http.MethodPost, "/sales/1/payments", "", "alice")
		send(r, http.MethodGet, "/sales/1/payments", "k3", "alice")
		send(r, http.MethodGet, "/sales/1/payments", "k3", "alice")
		assert.Equal(t, 4, calls)
		assert.Zero(t, store.Len())
	})

	t.Run("overlong key", func(t *testing.T) {
		store := cache.NewMemoryStore(0)
		defer store.Close()
		status, calls := http.StatusOK, 0
		r := idempotentRouter(store, &status, &calls)

		w := send(r, http.MethodPost, "/sales/1/payments", strings.Repeat("k", MaxIdempotencyKeyLength+1), "alice")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, calls)
	})

	t.Run("store failure fails open", func(t *testing.T) {
		status, calls := http.StatusCreated, 0
		r := idempotentRouter(brokenStore{}, &status, &calls)

		send(r, http.MethodPost, "/sales/1/payments", "k4", "alice")
		send(r, http.MethodPost, "/sales/1/payments", "k4", "alice")
		assert.Equal(t, 2, calls)
	})
}
