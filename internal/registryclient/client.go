package registryclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenk/backoff"
)

// AuthFunc returns the header name/value pair to attach to every outbound
// request, or ("", "") to attach nothing.
type AuthFunc func() (headerName, headerValue string)

// Client is an HTTP client tuned for small, frequent JSON requests against
// the npm registry: bounded timeout, retry with exponential backoff on 429
// and 5xx responses, and an optional auth hook.
type Client struct {
	http       *http.Client
	userAgent  string
	maxRetries int
	baseDelay  time.Duration
	auth       AuthFunc
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout (default 30s).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithMaxRetries overrides the retry budget (default 5).
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithUserAgent overrides the User-Agent header (default "moldau/1.0").
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithAuth installs a header to attach to every request, e.g. a bearer
// token read from COREPACK_NPM_TOKEN.
func WithAuth(fn AuthFunc) Option {
	return func(c *Client) { c.auth = fn }
}

// WithHTTPClient swaps the underlying *http.Client entirely (tests use this
// to point at an httptest.Server's transport).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// DefaultClient returns a Client with sensible defaults: a 30s timeout, 5
// retries with exponential backoff, retrying on 429 and 5xx responses.
func DefaultClient(opts ...Option) *Client {
	c := &Client{
		http:       &http.Client{Timeout: 30 * time.Second},
		userAgent:  "moldau/1.0",
		maxRetries: 5,
		baseDelay:  250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON issues a GET to url and decodes the JSON response body into dst.
// It maps network failures, 429 and 5xx to UnavailableError and retries
// those; it maps 404 to NotFoundError and 401/403 to AuthError, and returns
// any other non-2xx status as a plain error, none of them retried.
func (c *Client) GetJSON(ctx context.Context, url string, accept string, name, version string, dst any) error {
	// cenk/backoff computes the jittered exponential delay; this loop keeps
	// the same ctx-cancellation and retryable-error handling the circuit
	// breaker fetcher's caller expects, since backoff.Retry itself sleeps
	// without consulting ctx.
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.baseDelay
	eb.Multiplier = 2.0
	eb.MaxInterval = c.baseDelay * time.Duration(1<<uint(c.maxRetries))
	eb.Reset()

	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(eb.NextBackOff()):
			}
		}

		err := c.doGetJSON(ctx, url, accept, name, version, dst)
		if err == nil {
			return nil
		}
		lastErr = err

		if isRetryable(err) {
			continue
		}
		return err
	}

	return lastErr
}

func isRetryable(err error) bool {
	_, ok := err.(*UnavailableError)
	return ok
}

func (c *Client) doGetJSON(ctx context.Context, url string, accept string, name, version string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)
	if c.auth != nil {
		if h, v := c.auth(); h != "" {
			req.Header.Set(h, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &UnavailableError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &NotFoundError{Name: name, Version: version}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &AuthError{URL: url, StatusCode: resp.StatusCode}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &UnavailableError{URL: url, Err: fmt.Errorf("HTTP %d: %s", resp.StatusCode, body)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("registry: unexpected HTTP %d from %s: %s", resp.StatusCode, url, body)
	}

	return decodeJSON(resp.Body, dst)
}
