package domain

import (
	"net/http"
	"strings"
	"time"
)

// FetchResult is the structured outcome of a single fetch attempt. One
// attempt per call; retries are the caller's concern.
type FetchResult struct {
	// StatusCode is the HTTP status of the response
	StatusCode int `json:"status_code"`
	// ContentType is the response Content-Type header value
	ContentType string `json:"content_type"`
	// URL is the final URL after redirects
	URL string `json:"url"`
	// Headers holds the response headers
	Headers http.Header `json:"-"`
	// Body is the response body, bounded by the client's size cap
	Body []byte `json:"-"`
	// Elapsed is the total request duration
	Elapsed time.Duration `json:"elapsed"`
}

// IsHTML reports whether the response looks like an HTML document.
func (r *FetchResult) IsHTML() bool {
	return strings.Contains(strings.ToLower(r.ContentType), "text/html")
}
