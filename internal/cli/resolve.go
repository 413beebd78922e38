package cli

import (
	"context"
	"os"

	"github.com/ryanccn-fork/moldau/internal/cache"
	"github.com/ryanccn-fork/moldau/internal/pkgmgr"
	"github.com/ryanccn-fork/moldau/internal/resolver"
	"github.com/ryanccn-fork/moldau/internal/sri"
)

// strictMode reports whether COREPACK_ENABLE_STRICT is enabled, matching
// the upstream Corepack environment variable moldau preserves for
// compatibility. Corepack's convention is strict by default: the variable
// only turns strict mode off when explicitly set to "0" or "false".
func strictMode() bool {
	switch os.Getenv("COREPACK_ENABLE_STRICT") {
	case "0", "false":
		return false
	default:
		return true
	}
}

// resolveAndInstall resolves kind/spec against the registry and ensures the
// resolved version is installed in the cache, returning both the resolved
// metadata and the cache entry.
func resolveAndInstall(ctx context.Context, rt *runtime, kind pkgmgr.Kind, spec pkgmgr.VersionSpec) (*resolver.Resolved, cache.Entry, error) {
	resolved, err := resolver.Resolve(ctx, rt.registry, kind, spec)
	if err != nil {
		return nil, cache.Entry{}, err
	}

	var pin *sri.Pin
	if raw := spec.IntegrityPinRaw(); raw != "" {
		if p, ok, err := sri.ParsePin(raw); err == nil && ok {
			pin = &p
		}
	}

	entry, err := rt.cache.Install(ctx, resolved, pin)
	if err != nil {
		return nil, cache.Entry{}, err
	}
	return resolved, entry, nil
}
