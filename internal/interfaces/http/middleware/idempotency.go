package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	// MaxIdempotencyKeyLength bounds the key so it cannot bloat the store
	MaxIdempotencyKeyLength = 255
)

// Idempotency makes a request carrying an Idempotency-Key header run at most
// once per user and route within ttl. A replay gets 409 DUPLICATE_REQUEST.
// Keys of requests that ended in an error are forgotten so the client can retry.
// Requests without the header pass through untouched.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if key == "" {
			c.Next()
			return
		}
		if len(key) > MaxIdempotencyKeyLength {
			abortWithError(c, dto.ErrCodeBadRequest, "Idempotency-Key is too long")
			return
		}

		ctx := c.Request.Context()
		scoped := "http:" + c.GetString(JWTUserIDKey) + ":" + c.FullPath() + ":" + key
		fresh, err := store.MarkProcessed(ctx, scoped, ttl)
		if err != nil {
			// fail open: losing dedup is better than refusing orders
			logger.L(ctx).Warn("Idempotency store unavailable, processing request without dedup", zap.Error(err))
			c.Next()
			return
		}
		if !fresh {
			abortWithError(c, dto.ErrCodeDuplicateRequest, "A request with this Idempotency-Key was already processed")
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			forgetCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			if err := store.Forget(forgetCtx, scoped); err != nil {
				logger.L(ctx).Warn("Failed to release idempotency key", zap.Error(err))
			}
		}
	}
}
