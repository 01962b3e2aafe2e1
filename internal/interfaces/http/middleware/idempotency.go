package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/cache"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/logger"
	"github.com/noloworld/oribeti-app-sub000/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"

	// MaxIdempotencyKeyLength bounds caller-supplied keys
	MaxIdempotencyKeyLength = 128
)

// Idempotency rejects a repeated mutating request that carries an
// Idempotency-Key already seen for the same actor and path within ttl.
// Requests without the header pass through. A request that fails (status
// >= 400) releases its key so the caller can retry with the same key.
// Store errors are logged and the request proceeds.
func Idempotency(store cache.IdempotencyStore, ttl time.Duration, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
		default:
			c.Next()
			return
		}
		header := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if header == "" {
			c.Next()
			return
		}
		if len(header) > MaxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeBadRequest,
				"Idempotency-Key is too long",
				GetRequestID(c),
			))
			return
		}

		ctx := c.Request.Context()
		key := GetActorID(c) + "|" + c.Request.Method + " " + c.Request.URL.Path + "|" + header
		claimed, err := store.Claim(ctx, key, ttl)
		if err != nil {
			logger.Enrich(ctx, log).Warn("Idempotency store unavailable, request not deduplicated", zap.Error(err))
			c.Next()
			return
		}
		if !claimed {
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeDuplicateRequest,
				"A request with this Idempotency-Key was already processed",
				GetRequestID(c),
			))
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := store.Release(ctx, key); err != nil {
				logger.Enrich(ctx, log).Warn("Failed to release idempotency key", zap.Error(err))
			}
		}
	}
}
