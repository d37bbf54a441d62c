// Package docs registers the API description with swag so the Swagger UI
// handler can serve it.
package docs

import (
	"encoding/json"

	"github.com/swaggo/swag"

	"codeapi/internal/apidoc"
)

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "dev",
	BasePath:         "/",
	Title:            "Code Lookup API",
	Description:      "Read-only lookups over reference code tables.",
	InfoInstanceName: "swagger",
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

// Build renders the document for version. Host and schemes are left out so
// the UI resolves them against the address it was loaded from.
func Build(version string) {
	b, err := json.Marshal(apidoc.Build(version))
	if err != nil {
		panic(err)
	}
	SwaggerInfo.Version = version
	SwaggerInfo.SwaggerTemplate = string(b)
}

func init() {
	Build(SwaggerInfo.Version)
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
