package middleware

import (
	"context"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// Profiling attaches pprof labels for the matched route so Pyroscope can
// break CPU and allocation profiles down per endpoint. Unmatched requests
// run unlabeled.
func Profiling() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" || untracedPaths[route] {
			c.Next()
			return
		}
		labels := map[string]string{
			telemetry.ProfilingLabelRoute:     route,
			telemetry.ProfilingLabelMethod:    c.Request.Method,
			telemetry.ProfilingLabelOperation: operationName(c.HandlerName()),
		}
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// operationName shortens a handler's symbol name:
// "github.com/x/handler.(*OrderHandler).PlaceOrder-fm" -> "OrderHandler.PlaceOrder"
func operationName(handler string) string {
	name := strings.TrimSuffix(path.Base(handler), "-fm")
	if _, rest, ok := strings.Cut(name, "."); ok {
		name = rest
	}
	name = strings.NewReplacer("(", "", ")", "", "*", "").Replace(name)
	return name
}
