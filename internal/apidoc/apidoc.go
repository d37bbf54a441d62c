// Package apidoc builds the Swagger 2.0 description of the HTTP API from the
// registered code types.
package apidoc

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"

	"codeapi/internal/model"
)

type Document struct {
	Swagger     string              `json:"swagger" yaml:"swagger"`
	Info        Info                `json:"info" yaml:"info"`
	Host        string              `json:"host,omitempty" yaml:"host,omitempty"`
	BasePath    string              `json:"basePath" yaml:"basePath"`
	Schemes     []string            `json:"schemes,omitempty" yaml:"schemes,omitempty"`
	Produces    []string            `json:"produces" yaml:"produces"`
	Paths       map[string]PathItem `json:"paths" yaml:"paths"`
	Definitions map[string]Schema   `json:"definitions" yaml:"definitions"`
}

type Info struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string `json:"version" yaml:"version"`
}

type PathItem struct {
	Get *Operation `json:"get,omitempty" yaml:"get,omitempty"`
}

type Operation struct {
	Summary    string              `json:"summary" yaml:"summary"`
	Tags       []string            `json:"tags,omitempty" yaml:"tags,omitempty"`
	Produces   []string            `json:"produces,omitempty" yaml:"produces,omitempty"`
	Parameters []Parameter         `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Responses  map[string]Response `json:"responses" yaml:"responses"`
}

type Parameter struct {
	Name        string   `json:"name" yaml:"name"`
	In          string   `json:"in" yaml:"in"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Type        string   `json:"type" yaml:"type"`
	Enum        []string `json:"enum,omitempty" yaml:"enum,omitempty"`
	Default     any      `json:"default,omitempty" yaml:"default,omitempty"`
}

type Response struct {
	Description string  `json:"description" yaml:"description"`
	Schema      *Schema `json:"schema,omitempty" yaml:"schema,omitempty"`
}

type Schema struct {
	Ref        string            `json:"$ref,omitempty" yaml:"$ref,omitempty"`
	Type       string            `json:"type,omitempty" yaml:"type,omitempty"`
	Format     string            `json:"format,omitempty" yaml:"format,omitempty"`
	Properties map[string]Schema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Items      *Schema           `json:"items,omitempty" yaml:"items,omitempty"`
}

func ref(name string) *Schema { return &Schema{Ref: "#/definitions/" + name} }

var (
	codeFormats = []string{"application/json", "application/xml", "text/xml", "text/csv"}
	errorResp   = Response{Description: "error", Schema: ref("Error")}
)

func codeTypeParam() Parameter {
	types := model.CodeTypes()
	enum := make([]string, len(types))
	names := make([]string, len(types))
	for i, ct := range types {
		enum[i] = ct.String()
		names[i] = ct.String() + ": " + ct.Tag()
	}
	return Parameter{
		Name:        "codetype",
		In:          "path",
		Description: strings.Join(names, "; "),
		Required:    true,
		Type:        "string",
		Enum:        enum,
	}
}

func mimeTypeParam(values ...string) Parameter {
	return Parameter{
		Name:        "mimeType",
		In:          "query",
		Description: "response format, overrides Accept",
		Type:        "string",
		Enum:        values,
	}
}

func ifModifiedSince() Parameter {
	return Parameter{Name: "If-Modified-Since", In: "header", Type: "string"}
}

func lookupResponses(ok *Schema) map[string]Response {
	return map[string]Response{
		"200": {Description: "OK", Schema: ok},
		"304": {Description: "not modified since the last data load"},
		"404": errorResp,
		"500": errorResp,
	}
}

// Build returns the API description for version.
func Build(version string) Document {
	single := &Operation{
		Summary:  "Look up one code by exact value",
		Tags:     []string{"codes"},
		Produces: codeFormats,
		Parameters: []Parameter{
			codeTypeParam(),
			{Name: "value", In: "query", Required: true, Type: "string"},
			mimeTypeParam("json", "xml", "csv"),
			ifModifiedSince(),
		},
		Responses: lookupResponses(ref("Code")),
	}
	byPath := *single
	byPath.Parameters = append([]Parameter{}, single.Parameters...)
	byPath.Parameters[1].In = "path"

	return Document{
		Swagger: "2.0",
		Info: Info{
			Title:       "Code Lookup API",
			Description: "Read-only lookups over reference code tables.",
			Version:     version,
		},
		BasePath: "/",
		Produces: []string{"application/json"},
		Paths: map[string]PathItem{
			"/{codetype}": {Get: &Operation{
				Summary:  "List codes matching text",
				Tags:     []string{"codes"},
				Produces: codeFormats,
				Parameters: []Parameter{
					codeTypeParam(),
					{Name: "text", In: "query", Description: "value prefix or description substring", Type: "string"},
					{Name: "offset", In: "query", Type: "integer", Default: 0},
					{Name: "limit", In: "query", Type: "integer"},
					{Name: "pageNumber", In: "query", Description: "1-based, used with pageSize instead of offset", Type: "integer"},
					{Name: "pageSize", In: "query", Type: "integer"},
					mimeTypeParam("json", "xml", "csv"),
					ifModifiedSince(),
				},
				Responses: lookupResponses(ref("CodeList")),
			}},
			"/{codetype}/validate": {Get: single},
			"/{codetype}/{value}":  {Get: &byPath},
			"/publicsrsnames": {Get: &Operation{
				Summary:  "Export public SRS names",
				Tags:     []string{"export"},
				Produces: []string{"application/json", "application/zip"},
				Parameters: []Parameter{
					func() Parameter { p := mimeTypeParam("json", "csv"); p.Required = true; return p }(),
				},
				Responses: map[string]Response{
					"200": {Description: "JSON document or zip archive"},
					"400": errorResp,
					"500": errorResp,
				},
			}},
			"/version": {Get: &Operation{
				Summary:   "Build information",
				Tags:      []string{"ops"},
				Responses: map[string]Response{"200": {Description: "OK", Schema: ref("Version")}},
			}},
			"/health": {Get: &Operation{
				Summary: "Readiness, checks the database",
				Tags:    []string{"ops"},
				Responses: map[string]Response{
					"200": {Description: "healthy"},
					"503": errorResp,
				},
			}},
			"/healthz": {Get: &Operation{
				Summary:   "Liveness",
				Tags:      []string{"ops"},
				Responses: map[string]Response{"200": {Description: "alive"}},
			}},
		},
		Definitions: map[string]Schema{
			"Code": {Type: "object", Properties: map[string]Schema{
				"value":     {Type: "string"},
				"desc":      {Type: "string"},
				"providers": {Type: "string"},
			}},
			"CodeList": {Type: "object", Properties: map[string]Schema{
				"codes":       {Type: "array", Items: ref("Code")},
				"recordCount": {Type: "integer"},
			}},
			"Version": {Type: "object", Properties: map[string]Schema{
				"name":    {Type: "string"},
				"version": {Type: "string"},
			}},
			"Error": {Type: "object", Properties: map[string]Schema{
				"request_id": {Type: "string"},
				"error": {Type: "object", Properties: map[string]Schema{
					"code":    {Type: "string"},
					"message": {Type: "string"},
				}},
			}},
		},
	}
}

// YAML encodes d for /openapi.yaml.
func (d Document) YAML() ([]byte, error) {
	return yaml.Marshal(d)
}

// JSON encodes d for /openapi.json.
func (d Document) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
