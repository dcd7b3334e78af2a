// Package httpclient provides HTTP client functionality for the enrichment
// API calls.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	// DefaultTimeout is the default timeout for HTTP requests
	DefaultTimeout = 10 * time.Second

	// MaxResponseSize is the maximum allowed response size (10MB). The
	// enrichment APIs return small JSON payloads; anything larger is wrong.
	MaxResponseSize = 10 * 1024 * 1024

	// UserAgent is the user agent string for HTTP requests
	UserAgent = "component-directory-enrich/1.0"

	// defaultMaxTries bounds retries for transient upstream failures.
	defaultMaxTries = 4
)

// retryableStatuses are upstream responses worth retrying: rate limits and
// transient server errors. GitHub signals rate limiting with 403 as well as
// 429.
var retryableStatuses = map[int]struct{}{
	http.StatusForbidden:           {},
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

// Response is the successful result of a GET request. Header is kept because
// the GitHub contributors count is read from the Link pagination header.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client is an interface for HTTP operations
type Client interface {
	// Get performs an HTTP GET request with the given extra headers and
	// returns the response.
	Get(ctx context.Context, url string, headers map[string]string) (*Response, error)
}

// Option configures a DefaultClient.
type Option func(*DefaultClient)

// WithHTTPClient replaces the underlying http.Client, e.g. with an
// oauth2-authenticated one.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *DefaultClient) {
		c.client = hc
	}
}

// WithMaxTries overrides the retry budget for transient failures.
func WithMaxTries(n uint) Option {
	return func(c *DefaultClient) {
		c.maxTries = n
	}
}

// DefaultClient is the default HTTP client implementation. Transient upstream
// failures are retried with exponential backoff.
type DefaultClient struct {
	client   *http.Client
	maxTries uint
}

// NewDefaultClient creates a new default HTTP client with the specified timeout.
// If timeout is 0, uses DefaultTimeout.
func NewDefaultClient(timeout time.Duration, opts ...Option) *DefaultClient {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	c := &DefaultClient{
		client: &http.Client{
			Timeout: timeout,
		},
		maxTries: defaultMaxTries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs an HTTP GET request, retrying rate-limited and transient
// server failures.
func (c *DefaultClient) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	operation := func() (*Response, error) {
		resp, err := c.get(ctx, url, headers)
		if err != nil {
			var httpErr *HTTPError
			if asHTTPError(err, &httpErr) {
				if _, retryable := retryableStatuses[httpErr.StatusCode]; retryable {
					return nil, err
				}
				return nil, backoff.Permanent(err)
			}
			// Network-level errors are worth retrying.
			return nil, err
		}
		return resp, nil
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(c.maxTries),
	)
}

func (c *DefaultClient) get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, NewHTTPError(resp.StatusCode, url, resp.Status)
	}

	if resp.ContentLength > MaxResponseSize {
		return nil, fmt.Errorf("response size %d bytes exceeds maximum allowed size of %d bytes",
			resp.ContentLength, MaxResponseSize)
	}

	// Read with a limit; +1 to detect responses past the cap.
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response size exceeds maximum allowed size of %d bytes", MaxResponseSize)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}
