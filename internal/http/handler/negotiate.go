package handler

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"codeapi/internal/tabular"
)

type format struct {
	name string
	mime string
}

var (
	formatJSON    = format{"json", fiber.MIMEApplicationJSON}
	formatXML     = format{"xml", fiber.MIMEApplicationXML}
	formatTextXML = format{"xml", fiber.MIMETextXML}
	formatCSV     = format{"csv", "text/csv"}
)

// mimeTypeParam reads the mimeType query value. The lowercase spelling
// older clients send is accepted too.
func mimeTypeParam(c *fiber.Ctx) string {
	return strings.ToLower(cmp.Or(c.Query("mimeType"), c.Query("mimetype")))
}

// negotiate picks the response format. A recognized mimeType query value
// wins over Accept; JSON is the fallback.
func negotiate(c *fiber.Ctx) format {
	switch mimeTypeParam(c) {
	case "json":
		return formatJSON
	case "xml":
		return formatXML
	case "csv":
		return formatCSV
	}
	switch c.Accepts(formatJSON.mime, formatXML.mime, formatTextXML.mime, formatCSV.mime) {
	case formatXML.mime:
		return formatXML
	case formatTextXML.mime:
		return formatTextXML
	case formatCSV.mime:
		return formatCSV
	default:
		return formatJSON
	}
}

// sendXML writes v with the standard XML header.
func sendXML(c *fiber.Ctx, f format, v any) error {
	body, err := xml.Marshal(v)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, f.mime)
	return c.Send(append([]byte(xml.Header), body...))
}

// sendCSV renders records through the tabular exporter.
func sendCSV(c *fiber.Ctx, records []tabular.Record) error {
	var buf bytes.Buffer
	if err := tabular.Render(&buf, tabular.Seq(records)); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, formatCSV.mime)
	return c.Send(buf.Bytes())
}

func setLastModified(c *fiber.Ctx, t time.Time) {
	if !t.IsZero() {
		c.Set(fiber.HeaderLastModified, t.UTC().Format(http.TimeFormat))
	}
}
