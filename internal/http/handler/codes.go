package handler

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"codeapi/internal/freshness"
	"codeapi/internal/model"
	"codeapi/internal/paging"
	"codeapi/internal/service"
	"codeapi/internal/tabular"
)

// codeType resolves the :codetype route parameter. ok is false when an error
// response has already been written.
func codeType(c *fiber.Ctx) (model.CodeType, bool, error) {
	ct, err := model.ParseCodeType(strings.ToLower(c.Params("codetype")))
	if err != nil {
		return "", false, writeError(c, fiber.StatusNotFound, "UNKNOWN_CODE_TYPE", "unknown code type")
	}
	return ct, true, nil
}

func lookupFailed(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrUnknownCodeType) {
		return writeError(c, fiber.StatusNotFound, "UNKNOWN_CODE_TYPE", "unknown code type")
	}
	return internalError(c, err, "code lookup failed")
}

// ListCodes serves GET /:codetype.
func ListCodes(svc service.CodeService, d paging.Defaults) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ct, ok, err := codeType(c)
		if !ok {
			return err
		}

		var q paging.Query
		if c.Query("pageNumber") != "" || c.Query("pageSize") != "" {
			q = paging.CoercePageNumber(c.Query("text"), c.Query("pageNumber"), c.Query("pageSize"), d)
		} else {
			q = paging.Coerce(c.Query("text"), c.Query("offset"), c.Query("limit"), d)
		}

		res, err := svc.List(c.UserContext(), ct, q, freshness.ParseHTTPDate(c.Get(fiber.HeaderIfModifiedSince)))
		if err != nil {
			return lookupFailed(c, err)
		}
		setLastModified(c, res.LastModified)

		switch res.Status {
		case service.StatusNotModified:
			c.Status(fiber.StatusNotModified)
			return nil
		case service.StatusNotFound:
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "resource not found")
		}

		switch f := negotiate(c); f {
		case formatXML, formatTextXML:
			return sendXML(c, f, res.List)
		case formatCSV:
			c.Attachment(ct.String() + ".csv")
			c.Set("X-Total-Count", strconv.Itoa(res.List.RecordCount))
			return sendCSV(c, tabular.CodeRecords(res.List.Codes))
		default:
			return c.JSON(res.List)
		}
	}
}

// GetCode serves single-code lookups. value extracts the code value from the
// request.
func GetCode(svc service.CodeService, value func(*fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ct, ok, err := codeType(c)
		if !ok {
			return err
		}

		res, err := svc.Get(c.UserContext(), ct, value(c), freshness.ParseHTTPDate(c.Get(fiber.HeaderIfModifiedSince)))
		if err != nil {
			return lookupFailed(c, err)
		}
		setLastModified(c, res.LastModified)

		switch res.Status {
		case service.StatusNotModified:
			c.Status(fiber.StatusNotModified)
			return nil
		case service.StatusNotFound:
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "code not found")
		}

		switch f := negotiate(c); f {
		case formatXML, formatTextXML:
			return sendXML(c, f, res.Code)
		case formatCSV:
			return sendCSV(c, []tabular.Record{tabular.CodeRecord(res.Code)})
		default:
			return c.JSON(res.Code)
		}
	}
}

// ValidateCode serves GET /:codetype/validate?value=X.
func ValidateCode(svc service.CodeService) fiber.Handler {
	return GetCode(svc, func(c *fiber.Ctx) string { return c.Query("value") })
}

// CodeByValue serves GET /:codetype/:value.
func CodeByValue(svc service.CodeService) fiber.Handler {
	return GetCode(svc, func(c *fiber.Ctx) string {
		raw := c.Params("value")
		if v, err := url.PathUnescape(raw); err == nil {
			return v
		}
		return raw
	})
}
