// Package freshness decides whether a conditional request can be answered
// with "not modified" based on the time of the last successful data load.
package freshness

import (
	"net/http"
	"strings"
	"time"
)

// IsFresh reports whether a client holding data as of ifModifiedSince already
// has everything loaded up to lastUpdate. A nil ifModifiedSince is never fresh.
func IsFresh(ifModifiedSince *time.Time, lastUpdate time.Time) bool {
	if ifModifiedSince == nil {
		return false
	}
	return !ifModifiedSince.Before(lastUpdate)
}

// ParseHTTPDate parses an If-Modified-Since header value. Empty or malformed
// values yield nil and are treated as if the header was absent.
func ParseHTTPDate(header string) *time.Time {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil
	}
	t, err := http.ParseTime(header)
	if err != nil {
		return nil
	}
	return &t
}

// HTTPResolution truncates t to the whole seconds an HTTP date can express.
func HTTPResolution(t time.Time) time.Time {
	return t.Truncate(time.Second)
}
