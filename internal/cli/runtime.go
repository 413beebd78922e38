package cli

import (
	"fmt"

	"github.com/ryanccn-fork/moldau/internal/cache"
	"github.com/ryanccn-fork/moldau/internal/fetcher"
	"github.com/ryanccn-fork/moldau/internal/keys"
	"github.com/ryanccn-fork/moldau/internal/registryclient"
)

// runtime bundles the long-lived collaborators every subcommand needs:
// the registry client, tarball fetcher, key store, and cache, all wired
// from environment configuration the way Find/RegistryFromEnv already do.
type runtime struct {
	registry *registryclient.Registry
	urls     *registryclient.URLs
	fetcher  *fetcher.CircuitBreakerFetcher
	keys     *keys.Store
	cache    *cache.Cache
}

func newRuntime() (*runtime, error) {
	reg := registryclient.RegistryFromEnv(nil)

	ks, err := keys.NewStore()
	if err != nil {
		return nil, fmt.Errorf("initializing key store: %w", err)
	}

	root, err := cache.Root()
	if err != nil {
		return nil, fmt.Errorf("resolving cache directory: %w", err)
	}

	f := fetcher.NewCircuitBreakerFetcher(fetcher.New())
	c := cache.New(root, f, ks, reg.IsDefaultNpmRegistry())

	return &runtime{
		registry: reg,
		urls:     registryclient.NewURLs(reg),
		fetcher:  f,
		keys:     ks,
		cache:    c,
	}, nil
}
