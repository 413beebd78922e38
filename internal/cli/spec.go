package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/ryanccn-fork/moldau/internal/descriptor"
	"github.com/ryanccn-fork/moldau/internal/pkgmgr"
)

func osGetwd() (string, error) {
	return os.Getwd()
}

// parseSpecOverride parses a "<kind>@<version>" string (as accepted by
// `moldau exec --spec` and `moldau prefetch <spec>`) into a synthetic
// Descriptor not backed by any package.json.
func parseSpecOverride(s string) (*descriptor.Descriptor, error) {
	name, rest, ok := cutAt(s, '@')
	if !ok {
		name, rest = s, ""
	}
	kind, err := pkgmgr.ParseKind(name)
	if err != nil {
		return nil, fmt.Errorf("parsing spec %q: %w", s, err)
	}
	version := pkgmgr.DefaultVersionSpec()
	if rest != "" {
		v, err := pkgmgr.ParseVersionSpec(rest)
		if err != nil {
			return nil, fmt.Errorf("parsing spec %q: %w", s, err)
		}
		version = v
	}
	return &descriptor.Descriptor{Kind: kind, Version: version}, nil
}

func cutAt(s string, sep byte) (before, after string, found bool) {
	i := strings.IndexByte(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+1:], true
}
