// Package fetcher downloads package manager tarballs with retry, DNS
// caching, and per-host circuit breaking.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/dnscache"
)

var (
	ErrNotFound     = errors.New("fetcher: tarball not found")
	ErrRateLimited  = errors.New("fetcher: rate limited by upstream")
	ErrUpstreamDown = errors.New("fetcher: upstream unavailable")
)

// Artifact is a downloaded tarball's body plus transport metadata.
type Artifact struct {
	Body        io.ReadCloser
	Size        int64 // -1 if unknown
	ContentType string
	ETag        string
}

// Fetcher downloads tarballs from npm's CDN-backed tarball hosts.
type Fetcher struct {
	client     *http.Client
	userAgent  string
	maxRetries int
	baseDelay  time.Duration
	authFn     func(url string) (headerName, headerValue string)
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithMaxRetries overrides the retry budget (default 3, per spec).
func WithMaxRetries(n int) Option {
	return func(f *Fetcher) { f.maxRetries = n }
}

// WithBaseDelay overrides the exponential-backoff base delay (default
// 250ms, giving a 250ms/1s/4s schedule across 3 retries).
func WithBaseDelay(d time.Duration) Option {
	return func(f *Fetcher) { f.baseDelay = d }
}

// WithAuthFunc installs a per-request auth header function, e.g. reading
// COREPACK_NPM_TOKEN.
func WithAuthFunc(fn func(url string) (headerName, headerValue string)) Option {
	return func(f *Fetcher) { f.authFn = fn }
}

// New creates a Fetcher with DNS caching and connection pooling tuned for
// bulk tarball transfer.
func New(opts ...Option) *Fetcher {
	resolver := &dnscache.Resolver{}
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			resolver.Refresh(true)
		}
	}()

	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}

	f := &Fetcher{
		client: &http.Client{
			Timeout: 5 * time.Minute,
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
					host, port, err := net.SplitHostPort(addr)
					if err != nil {
						return nil, err
					}
					ips, err := resolver.LookupHost(ctx, host)
					if err != nil {
						return nil, err
					}
					var lastErr error
					for _, ip := range ips {
						conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
						if err == nil {
							return conn, nil
						}
						lastErr = err
					}
					return nil, fmt.Errorf("fetcher: dialing resolved IPs for %s: %w", host, lastErr)
				},
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		userAgent:  "moldau/1.0",
		maxRetries: 3,
		baseDelay:  250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads the tarball at url. The caller must close Artifact.Body.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Artifact, error) {
	var lastErr error

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			delay := f.baseDelay * time.Duration(math.Pow(4, float64(attempt-1)))
			delay += time.Duration(float64(delay) * (rand.Float64() * 0.1))

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		artifact, err := f.doFetch(ctx, url)
		if err == nil {
			return artifact, nil
		}
		lastErr = err

		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUpstreamDown) {
			continue
		}
		return nil, err
	}

	return nil, lastErr
}

func (f *Fetcher) doFetch(ctx context.Context, url string) (*Artifact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetcher: creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "*/*")
	if f.authFn != nil {
		if name, value := f.authFn(url); name != "" {
			req.Header.Set(name, value)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetcher: fetching %s: %w", url, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		size := int64(-1)
		if cl := resp.Header.Get("Content-Length"); cl != "" {
			if n, err := strconv.ParseInt(cl, 10, 64); err == nil {
				size = n
			}
		}
		return &Artifact{Body: resp.Body, Size: size, ContentType: resp.Header.Get("Content-Type"), ETag: resp.Header.Get("ETag")}, nil

	case resp.StatusCode == http.StatusNotFound:
		_ = resp.Body.Close()
		return nil, ErrNotFound

	case resp.StatusCode == http.StatusTooManyRequests:
		_ = resp.Body.Close()
		return nil, ErrRateLimited

	case resp.StatusCode >= 500:
		_ = resp.Body.Close()
		return nil, ErrUpstreamDown

	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("fetcher: unexpected status %d fetching %s: %s", resp.StatusCode, url, body)
	}
}
