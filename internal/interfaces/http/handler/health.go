package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// HealthCheck checks one dependency
type HealthCheck func(ctx context.Context) error

// HealthHandler reports liveness of the service and its dependencies
type HealthHandler struct {
	checks  map[string]HealthCheck
	timeout time.Duration
	now     func() time.Time
}

// NewHealthHandler creates a HealthHandler. Each check gets timeout to answer.
func NewHealthHandler(timeout time.Duration) *HealthHandler {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthHandler{
		checks:  make(map[string]HealthCheck),
		timeout: timeout,
		now:     time.Now,
	}
}

// Register adds a named dependency check
func (h *HealthHandler) Register(name string, check HealthCheck) *HealthHandler {
	h.checks[name] = check
	return h
}

// Check handles GET /health. Any failing check turns the response into a 503.
func (h *HealthHandler) Check(c *gin.Context) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := make(gin.H, len(names))
	for _, name := range names {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		err := h.checks[name](ctx)
		cancel()
		if err != nil {
			logger.GetGinLogger(c).Warn("Health check failed", zap.String("dependency", name), zap.Error(err))
			results[name] = "error"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status": overall,
		"time":   h.now().UTC().Format(time.RFC3339),
		"checks": results,
	})
}
