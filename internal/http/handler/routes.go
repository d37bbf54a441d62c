package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"

	"codeapi/docs"
	"codeapi/internal/paging"
	"codeapi/internal/service"
)

// Deps carries what the routes need.
type Deps struct {
	DB       *sql.DB
	Codes    service.CodeService
	Srsnames service.SrsnamesService
	Paging   paging.Defaults
	Name     string
	Version  string
	Gatherer prometheus.Gatherer
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Fixed paths
// are registered before the /:codetype family so they are never taken as a
// code type.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/openapi.yaml", OpenAPIYAML(d.Version))
	app.Get("/openapi.json", OpenAPIJSON(d.Version))
	app.Get("/swagger/*", SwaggerUI())

	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())
	app.Get("/version", Version(d.Name, d.Version))
	if d.Gatherer != nil {
		app.Get("/metrics", Metrics(d.Gatherer))
	}

	app.Get("/publicsrsnames", PublicSrsnames(d.Srsnames))

	app.Get("/:codetype", ListCodes(d.Codes, d.Paging.Validate()))
	app.Get("/:codetype/validate", ValidateCode(d.Codes))
	app.Get("/:codetype/:value", CodeByValue(d.Codes))
}

// SwaggerUI serves the UI over the document registered by package docs.
func SwaggerUI() fiber.Handler {
	return swagger.New(swagger.Config{
		InstanceName: docs.SwaggerInfo.InstanceName(),
		Title:        docs.SwaggerInfo.Title,
		DeepLinking:  true,
	})
}
