package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	return rec
}

func attrMap(attrs []attribute.KeyValue) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[string(a.Key)] = a.Value.Emit()
	}
	return m
}

func TestTracing_AnnotatesRequestSpan(t *testing.T) {
	rec := recordSpans(t)
	r := gin.New()
	r.Use(RequestID(), Tracing("storefront-test"), TracingAttributes())
	r.GET("/orders/:id", func(c *gin.Context) {
		c.Set(JWTUserIDKey, "user-1")
		c.Set(JWTRoleKey, "customer")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/orders/42", nil)
	req.Header.Set(RequestIDHeader, "req-trace")
	serve(r, req)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, "req-trace", attrs["request_id"])
	assert.Equal(t, "user-1", attrs["user_id"])
	assert.Equal(t, "customer", attrs["user_role"])
}

func TestTracing_SkipsHealthChecks(t *testing.T) {
	rec := recordSpans(t)
	r := gin.New()
	r.Use(Tracing("storefront-test"), TracingAttributes())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, rec.Ended())
}
