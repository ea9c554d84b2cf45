package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag/v2"
)

func TestSwaggerDocRegistered(t *testing.T) {
	raw, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var doc struct {
		BasePath string                    `json:"basePath"`
		Paths    map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	assert.Equal(t, "/api/v1", doc.BasePath)
	for path, method := range map[string]string{
		"/orders":                  "post",
		"/orders/{id}/status":      "put",
		"/cart/{itemId}":           "delete",
		"/auth/login":              "post",
		"/admin/outbox/{id}/retry": "post",
		"/products/{id}":           "get",
		"/admin/outbox/retry-all":  "post",
	} {
		assert.Contains(t, doc.Paths[path], method, path)
	}
}
