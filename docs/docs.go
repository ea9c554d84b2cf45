// Package docs registers the OpenAPI document served under /swagger.
// swagger.json follows the @ annotations on the HTTP handlers; regenerate it with
//
//	swag init -g cmd/server/main.go -o docs --outputTypes json
package docs

import (
	_ "embed"

	"github.com/swaggo/swag/v2"
)

//go:embed swagger.json
var docTemplate string

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Storefront API",
	Description:      "Storefront backend: catalog, cart, checkout and order management",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
