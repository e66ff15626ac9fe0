// Package fetcher provides the HTTP GET primitive the pipeline is built on:
// one attempt per call, no retries, bounded response bodies.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/jonesrussell/goread/internal/constants"
	"github.com/jonesrussell/goread/internal/domain"
	"github.com/jonesrussell/goread/internal/logger"
)

// ErrEmptyURL is returned when a fetch is requested without a URL.
var ErrEmptyURL = errors.New("url cannot be empty")

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.StatusCode, e.URL)
}

// Options carries per-call request settings.
type Options struct {
	Headers map[string]string
	Cookies map[string]string
	Timeout time.Duration
}

// Config configures a Client.
type Config struct {
	Timeout     time.Duration
	MaxBodySize int64
	UserAgent   string
}

// Client issues single GET requests and returns structured results.
type Client struct {
	httpClient  *http.Client
	maxBodySize int64
	userAgent   string
	logger      logger.Interface
}

// NewClient creates a fetch client. Zero config fields fall back to defaults.
func NewClient(cfg Config, log logger.Interface) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultFetchTimeout
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = constants.DefaultMaxBodySize
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = constants.DefaultUserAgent
	}
	if log == nil {
		log = logger.NewNoOp()
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: newTransport(),
		},
		maxBodySize: cfg.MaxBodySize,
		userAgent:   cfg.UserAgent,
		logger:      log.WithComponent("fetcher"),
	}
}

// Fetch performs one GET request. Non-2xx responses return the result
// together with a *StatusError so callers can inspect the response; transport
// failures return a nil result.
func (c *Client) Fetch(ctx context.Context, rawURL string, opts *Options) (*domain.FetchResult, error) {
	if rawURL == "" {
		return nil, ErrEmptyURL
	}
	if opts == nil {
		opts = &Options{}
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setRequestHeaders(req, opts)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http fetch: %w", err)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, c.maxBodySize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" && len(body) > 0 {
		contentType = http.DetectContentType(body)
	}

	result := &domain.FetchResult{
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		URL:         resp.Request.URL.String(),
		Headers:     resp.Header,
		Body:        body,
		Elapsed:     time.Since(start),
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return result, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	c.logger.Debug("Fetched URL",
		"url", rawURL,
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed", result.Elapsed.String())
	return result, nil
}

// setRequestHeaders applies per-call headers and cookies in a stable order
// and guarantees a User-Agent is always present.
func (c *Client) setRequestHeaders(req *http.Request, opts *Options) {
	for _, key := range sortedKeys(opts.Headers) {
		req.Header.Set(key, opts.Headers[key])
	}
	for _, name := range sortedKeys(opts.Cookies) {
		req.AddCookie(&http.Cookie{Name: name, Value: opts.Cookies[name]})
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
