package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

// CircuitBreakerFetcher wraps a Fetcher with a circuit breaker per upstream
// host, so an outage on one tarball host doesn't exhaust retries against
// every other host moldau talks to.
type CircuitBreakerFetcher struct {
	fetcher  *Fetcher
	breakers map[string]*circuit.Breaker
	mu       sync.RWMutex
}

// NewCircuitBreakerFetcher wraps f.
func NewCircuitBreakerFetcher(f *Fetcher) *CircuitBreakerFetcher {
	return &CircuitBreakerFetcher{fetcher: f, breakers: make(map[string]*circuit.Breaker)}
}

func (cbf *CircuitBreakerFetcher) getBreaker(host string) *circuit.Breaker {
	cbf.mu.RLock()
	breaker, exists := cbf.breakers[host]
	cbf.mu.RUnlock()
	if exists {
		return breaker
	}

	cbf.mu.Lock()
	defer cbf.mu.Unlock()
	if breaker, exists := cbf.breakers[host]; exists {
		return breaker
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	breaker = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(5),
	})

	cbf.breakers[host] = breaker
	return breaker
}

// Fetch wraps Fetcher.Fetch with a per-host circuit breaker.
func (cbf *CircuitBreakerFetcher) Fetch(ctx context.Context, fetchURL string) (*Artifact, error) {
	host := extractHost(fetchURL)
	breaker := cbf.getBreaker(host)

	if !breaker.Ready() {
		return nil, fmt.Errorf("fetcher: circuit breaker open for %s: %w", host, ErrUpstreamDown)
	}

	var artifact *Artifact
	err := breaker.Call(func() error {
		var fetchErr error
		artifact, fetchErr = cbf.fetcher.Fetch(ctx, fetchURL)
		return fetchErr
	}, 0)
	if err != nil {
		return nil, err
	}
	return artifact, nil
}

func extractHost(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		if len(rawURL) > 50 {
			return rawURL[:50]
		}
		return rawURL
	}
	return parsed.Host
}

// BreakerState reports open/closed state per host, for diagnostics.
func (cbf *CircuitBreakerFetcher) BreakerState() map[string]string {
	cbf.mu.RLock()
	defer cbf.mu.RUnlock()

	states := make(map[string]string, len(cbf.breakers))
	for host, breaker := range cbf.breakers {
		if breaker.Tripped() {
			states[host] = "open"
		} else {
			states[host] = "closed"
		}
	}
	return states
}
