package pkgmgr

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// VersionSpec is the version half of a package manager descriptor: an exact
// pinned version, a semver range, or a registry dist-tag such as "latest".
type VersionSpec struct {
	exact    *semver.Version
	rng      *semver.Constraints
	rngRaw   string
	distTag  string
	isRange  bool
	isDist   bool
}

// DefaultVersionSpec is the unconstrained "*" range used when a descriptor
// omits a version entirely.
// Every call returns the same value, so results compare equal with ==.
func DefaultVersionSpec() VersionSpec { return defaultVersionSpec }

var defaultVersionSpec = func() VersionSpec {
	c, err := semver.NewConstraint("*")
	if err != nil {
		panic(err)
	}
	return VersionSpec{rng: c, rngRaw: "*", isRange: true}
}()

// ParseVersionSpec parses the version half of a `packageManager`/
// `devEngines.packageManager` value. An exact semver string (optionally
// carrying build metadata as an integrity pin) is preferred; failing that, a
// semver range; failing that, the raw string is treated as a dist-tag.
func ParseVersionSpec(s string) (VersionSpec, error) {
	if v, err := semver.NewVersion(s); err == nil {
		return VersionSpec{exact: v}, nil
	}
	if c, err := semver.NewConstraint(s); err == nil {
		return VersionSpec{rng: c, rngRaw: s, isRange: true}, nil
	}
	return VersionSpec{distTag: s, isDist: true}, nil
}

// IsExact reports whether the spec pins an exact version.
func (v VersionSpec) IsExact() bool { return v.exact != nil }

// IsRange reports whether the spec is a semver range.
func (v VersionSpec) IsRange() bool { return v.isRange }

// IsDistTag reports whether the spec names a registry dist-tag.
func (v VersionSpec) IsDistTag() bool { return v.isDist }

// Exact returns the pinned version and true, or the zero value and false.
func (v VersionSpec) Exact() (*semver.Version, bool) { return v.exact, v.exact != nil }

// DistTag returns the dist-tag name and true, or "" and false.
func (v VersionSpec) DistTag() (string, bool) { return v.distTag, v.isDist }

// Matches reports whether candidate satisfies this spec. For a range spec
// this checks constraint membership; for an exact spec it compares
// precedence only (build metadata, which carries the integrity pin, is
// ignored per semver precedence rules and per the cache-hit scan in
// internal/cache, which must treat 9.1.0 and 9.1.0+sha512.xxx as the same
// cached artifact).
func (v VersionSpec) Matches(candidate *semver.Version) bool {
	switch {
	case v.exact != nil:
		return v.exact.Equal(candidate)
	case v.isRange:
		return v.rng.Check(candidate)
	default:
		return false
	}
}

func (v VersionSpec) String() string {
	switch {
	case v.exact != nil:
		return v.exact.Original()
	case v.isRange:
		return v.rngRaw
	default:
		return v.distTag
	}
}

// StrippedString returns the exact version with any build-metadata
// integrity pin removed, for display and for forming npm download URLs.
func (v VersionSpec) StrippedString() string {
	if v.exact == nil {
		return v.String()
	}
	s := v.exact.String()
	if i := strings.IndexByte(s, '+'); i >= 0 {
		s = s[:i]
	}
	return s
}

// IntegrityPinRaw returns the raw build-metadata string of an exact version
// spec, e.g. "sha512.<hex>", or "" if there is none or the spec isn't exact.
func (v VersionSpec) IntegrityPinRaw() string {
	if v.exact == nil {
		return ""
	}
	return v.exact.Metadata()
}

// NpmPackageName returns the npm registry package name that serves
// installable tarballs for this (kind, version) pair. Yarn is split between
// "yarn" (classic, major <= 1) and "@yarnpkg/cli-dist" (Berry); npm and pnpm
// map directly onto their own package names.
func NpmPackageName(kind Kind, v VersionSpec) string {
	switch kind {
	case Npm:
		return "npm"
	case Pnpm:
		return "pnpm"
	case Yarn:
		if isYarnClassic(v) {
			return "yarn"
		}
		return "@yarnpkg/cli-dist"
	default:
		return ""
	}
}

func isYarnClassic(v VersionSpec) bool {
	switch {
	case v.exact != nil:
		return v.exact.Major() <= 1
	case v.isRange:
		// A range is "classic" if any comparator in it names a 0.x/1.x
		// release. This mirrors the upstream heuristic of scanning
		// comparators for a major <= 1, with the refinement that a range
		// 1.0.0 satisfies (e.g. "<2.0.0" or "*") still counts as classic.
		for _, tok := range strings.FieldsFunc(v.rngRaw, func(r rune) bool {
			return r == ' ' || r == ',' || r == '|'
		}) {
			major, _, _ := strings.Cut(strings.TrimLeft(tok, "^~<>=vV"), ".")
			if major == "0" || major == "1" {
				return true
			}
		}
		return v.rng.Check(mustVersion("1.0.0"))
	default:
		return false
	}
}

func mustVersion(s string) *semver.Version {
	v, err := semver.NewVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// UnsupportedBerry2x reports whether kind/version names a Yarn Berry release
// other than the single grandfathered 2.4.1 exception.
func UnsupportedBerry2x(kind Kind, v VersionSpec) bool {
	if kind != Yarn || v.exact == nil {
		return false
	}
	if v.exact.Major() != 2 {
		return false
	}
	return !(v.exact.Major() == 2 && v.exact.Minor() == 4 && v.exact.Patch() == 1)
}

// ParseSpecBinLabel renders "<kind>@<version>" the way diagnostics and
// dispatch errors refer to a descriptor.
func ParseSpecBinLabel(kind Kind, v VersionSpec) string {
	return fmt.Sprintf("%s@%s", kind, v)
}
