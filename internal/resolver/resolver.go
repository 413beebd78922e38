// Package resolver turns a descriptor's version spec into an exact,
// registry-confirmed version plus its dist metadata.
package resolver

import (
	"context"
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/ryanccn-fork/moldau/internal/pkgmgr"
	"github.com/ryanccn-fork/moldau/internal/registryclient"
	"github.com/ryanccn-fork/moldau/internal/sri"
)

// IntegrityPinMismatchError is returned when a descriptor's embedded
// integrity pin disagrees with the registry's metadata for the resolved
// version, before any tarball bytes are downloaded.
type IntegrityPinMismatchError struct {
	Expected, Actual string
}

func (e *IntegrityPinMismatchError) Error() string {
	return fmt.Sprintf("resolver: integrity pin mismatch (expected %s, got %s)", e.Expected, e.Actual)
}

// NoMatchingVersionError is returned when no published version satisfies a
// range spec.
type NoMatchingVersionError struct {
	Name string
	Req  string
}

func (e *NoMatchingVersionError) Error() string {
	return fmt.Sprintf("resolver: no published version of %s matches %s", e.Name, e.Req)
}

// UnsupportedBerryError is returned when a descriptor pins a Yarn Berry
// version other than the grandfathered 2.4.1 release.
type UnsupportedBerryError struct {
	Version string
}

func (e *UnsupportedBerryError) Error() string {
	return fmt.Sprintf("resolver: yarn berry %s is unsupported (only 2.4.1 and >=3 are)", e.Version)
}

// TagUnknownError is returned when a dist-tag spec names a tag the package
// doesn't publish.
type TagUnknownError struct {
	Name string
	Tag  string
}

func (e *TagUnknownError) Error() string {
	return fmt.Sprintf("resolver: %s has no dist-tag %q", e.Name, e.Tag)
}

// Resolved is an exact version plus the registry metadata needed to
// download and verify it.
type Resolved struct {
	Kind        pkgmgr.Kind
	Version     string // exact, no build metadata
	PackageName string // npm registry package name, e.g. "yarn" or "@yarnpkg/cli-dist"
	Dist        registryclient.Dist
	Bin         map[string]string
}

// Resolve turns spec into a Resolved version. Dist-tag specs always query
// the registry (there's no way to know from a cache listing alone whether a
// cached version still matches a moving tag); exact specs always fetch
// their version document directly; range specs always need the package's
// full version list.
func Resolve(ctx context.Context, reg *registryclient.Registry, kind pkgmgr.Kind, spec pkgmgr.VersionSpec) (*Resolved, error) {
	if pkgmgr.UnsupportedBerry2x(kind, spec) {
		return nil, &UnsupportedBerryError{Version: spec.String()}
	}

	pkgName := pkgmgr.NpmPackageName(kind, spec)

	if _, ok := spec.Exact(); ok {
		ver, err := reg.FetchVersion(ctx, pkgName, spec.StrippedString())
		if err != nil {
			return nil, err
		}
		if kind != pkgmgr.Yarn {
			if err := checkPinAgainstMetadata(spec, ver.Dist); err != nil {
				return nil, err
			}
		}
		return toResolved(kind, pkgName, ver), nil
	}

	pkg, err := reg.FetchPackage(ctx, pkgName)
	if err != nil {
		return nil, err
	}

	if tag, ok := spec.DistTag(); ok {
		versionStr, found := pkg.DistTags[tag]
		if !found {
			return nil, &TagUnknownError{Name: pkgName, Tag: tag}
		}
		ver, found := pkg.Versions[versionStr]
		if !found {
			return nil, &TagUnknownError{Name: pkgName, Tag: tag}
		}
		return toResolved(kind, pkgName, &ver), nil
	}

	// Range spec: pick the highest published version satisfying it.
	var candidates []*semver.Version
	byVersion := make(map[string]registryclient.Version, len(pkg.Versions))
	for vs, v := range pkg.Versions {
		parsed, err := semver.NewVersion(vs)
		if err != nil {
			continue
		}
		if spec.Matches(parsed) {
			candidates = append(candidates, parsed)
			byVersion[parsed.String()] = v
		}
	}
	if len(candidates) == 0 {
		return nil, &NoMatchingVersionError{Name: pkgName, Req: spec.String()}
	}
	sort.Sort(semver.Collection(candidates))
	best := candidates[len(candidates)-1]
	v := byVersion[best.String()]
	return toResolved(kind, pkgName, &v), nil
}

// checkPinAgainstMetadata compares a descriptor's embedded integrity pin to
// the registry's dist metadata strings directly, without touching any
// tarball bytes. This lets a mismatched pin fail fast, before a single byte
// is downloaded, per the fetch-ordering invariant in spec §4.E step 5 and
// §8 scenario S6. It is skipped for Yarn, whose pin instead targets the
// extracted bin file's bytes post-extraction (see internal/verify).
func checkPinAgainstMetadata(spec pkgmgr.VersionSpec, dist registryclient.Dist) error {
	raw := spec.IntegrityPinRaw()
	pin, ok, err := sri.ParsePin(raw)
	if err != nil || !ok {
		return err
	}

	if pin.Digest.Algorithm == sri.SHA1 {
		actual := pin.Digest.HexString()
		if actual != dist.Shasum {
			return &IntegrityPinMismatchError{Expected: actual, Actual: dist.Shasum}
		}
		return nil
	}

	if dist.Integrity == "" {
		return &IntegrityPinMismatchError{Expected: pin.String(), Actual: "(no dist.integrity published)"}
	}
	d, err := sri.Parse(dist.Integrity)
	if err != nil {
		return fmt.Errorf("resolver: parsing dist.integrity: %w", err)
	}
	if d.Algorithm != pin.Digest.Algorithm {
		return &IntegrityPinMismatchError{Expected: pin.String(), Actual: d.String()}
	}
	if string(d.Sum) != string(pin.Digest.Sum) {
		return &IntegrityPinMismatchError{Expected: pin.String(), Actual: d.String()}
	}
	return nil
}

func toResolved(kind pkgmgr.Kind, pkgName string, v *registryclient.Version) *Resolved {
	return &Resolved{
		Kind:        kind,
		Version:     v.Version,
		PackageName: pkgName,
		Dist:        v.Dist,
		Bin:         v.Bin,
	}
}
