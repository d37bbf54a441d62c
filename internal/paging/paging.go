// Package paging turns untrusted pagination query parameters into a bounded
// page window. Malformed input never fails a request: it falls back to the
// configured defaults so degenerate clients still receive the first page.
package paging

import "strconv"

// Defaults holds the limits applied when the client omits or garbles them.
type Defaults struct {
	Limit    int
	MaxLimit int
}

// Validate returns a copy of d with a usable default and maximum.
func (d Defaults) Validate() Defaults {
	if d.Limit <= 0 {
		d.Limit = 100
	}
	if d.MaxLimit < d.Limit {
		d.MaxLimit = d.Limit
	}
	return d
}

// PageRequest is a normalized offset/limit window.
// Offset >= 0 and 0 < Limit <= Defaults.MaxLimit.
type PageRequest struct {
	Offset int
	Limit  int
}

// Query is a normalized list request. An empty Text means no filter.
type Query struct {
	Text string
	Page PageRequest
}

// IsInteger reports whether s is a plain integer literal: an optional sign
// followed by at least one ASCII digit. Decimals, spaces and exponents are
// rejected.
func IsInteger(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// parseInt returns the value of an integer literal, or false when s is not
// one or does not fit in an int.
func parseInt(s string) (int, bool) {
	if !IsInteger(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Coerce normalizes raw text/offset/limit query values.
func Coerce(rawText, rawOffset, rawLimit string, d Defaults) Query {
	d = d.Validate()

	offset, ok := parseInt(rawOffset)
	if !ok || offset < 0 {
		offset = 0
	}

	return Query{
		Text: rawText,
		Page: PageRequest{Offset: offset, Limit: coerceLimit(rawLimit, d)},
	}
}

// CoercePageNumber normalizes the 1-based pageNumber/pageSize form of a list
// request. The offset is (pageNumber-1)*pageSize; an unusable page number
// starts at the first row.
func CoercePageNumber(rawText, rawPageNumber, rawPageSize string, d Defaults) Query {
	d = d.Validate()
	limit := coerceLimit(rawPageSize, d)

	offset := 0
	if n, ok := parseInt(rawPageNumber); ok && n > 0 {
		if n-1 <= maxInt/limit {
			offset = (n - 1) * limit
		}
	}

	return Query{
		Text: rawText,
		Page: PageRequest{Offset: offset, Limit: limit},
	}
}

const maxInt = int(^uint(0) >> 1)

func coerceLimit(raw string, d Defaults) int {
	limit, ok := parseInt(raw)
	if !ok || limit <= 0 {
		return d.Limit
	}
	if limit > d.MaxLimit {
		return d.MaxLimit
	}
	return limit
}
