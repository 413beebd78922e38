// Package cache implements moldau's content-addressed on-disk cache:
// locking, atomic install, and safe tarball extraction.
package cache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"

	"github.com/ryanccn-fork/moldau/internal/fetcher"
	"github.com/ryanccn-fork/moldau/internal/keys"
	"github.com/ryanccn-fork/moldau/internal/pkgmgr"
	"github.com/ryanccn-fork/moldau/internal/resolver"
	"github.com/ryanccn-fork/moldau/internal/sri"
	"github.com/ryanccn-fork/moldau/internal/verify"
)

// Entry is a fully installed, verified package manager release.
type Entry struct {
	Dir string
	Bin map[string]string // name -> absolute path
}

// BinPath returns the absolute path of a named binary within the entry, or
// "" if it has none by that name.
func (e Entry) BinPath(name string) string {
	rel, ok := e.Bin[name]
	if !ok {
		return ""
	}
	return filepath.Join(e.Dir, rel)
}

// FilesystemError wraps an unexpected os/io failure encountered while
// managing the cache.
type FilesystemError struct {
	Op  string
	Err error
}

func (e *FilesystemError) Error() string { return fmt.Sprintf("cache: %s: %v", e.Op, e.Err) }
func (e *FilesystemError) Unwrap() error { return e.Err }

// Cache manages moldau's on-disk install cache.
type Cache struct {
	root       string
	fetcher    *fetcher.CircuitBreakerFetcher
	keys       *keys.Store
	isDefaultN bool
}

// New constructs a Cache rooted at root, using f to download tarballs and
// ks to verify registry signatures. isDefaultNpmRegistry should be true iff
// the registry client is bound to registry.npmjs.org.
func New(root string, f *fetcher.CircuitBreakerFetcher, ks *keys.Store, isDefaultNpmRegistry bool) *Cache {
	return &Cache{root: root, fetcher: f, keys: ks, isDefaultN: isDefaultNpmRegistry}
}

// Lookup checks for a complete cache hit for kind/version without touching
// the network. version must be the exact, stripped version string (no
// build-metadata pin suffix).
func (c *Cache) Lookup(kind pkgmgr.Kind, version string) (Entry, bool) {
	dir := VersionDir(c.root, kind, version)
	if _, err := os.Stat(filepath.Join(dir, okMarker)); err != nil {
		return Entry{}, false
	}
	bin, err := readBinManifest(dir)
	if err != nil {
		return Entry{}, false
	}
	return Entry{Dir: dir, Bin: bin}, true
}

// Install ensures kind/resolved.Version is present and verified in the
// cache, downloading and verifying it if necessary. pin, if non-nil, is the
// descriptor's embedded integrity pin; for Yarn it is checked against the
// extracted bin.yarn file, since the resolver's own pin check (against
// registry metadata, before any bytes are downloaded) is skipped for Yarn.
func (c *Cache) Install(ctx context.Context, resolved *resolver.Resolved, pin *sri.Pin) (Entry, error) {
	final := VersionDir(c.root, resolved.Kind, resolved.Version)

	if entry, ok := c.Lookup(resolved.Kind, resolved.Version); ok {
		return entry, nil
	}

	lockPath := LockPath(c.root, resolved.Kind, resolved.Version)
	unlock, err := acquireLock(ctx, lockPath)
	if err != nil {
		return Entry{}, &FilesystemError{Op: "acquiring install lock", Err: err}
	}
	defer unlock()

	// Another process may have finished installing while we waited for the
	// lock.
	if entry, ok := c.Lookup(resolved.Kind, resolved.Version); ok {
		return entry, nil
	}

	artifact, err := c.fetcher.Fetch(ctx, resolved.Dist.Tarball)
	if err != nil {
		return Entry{}, err
	}
	tarballBytes, err := io.ReadAll(artifact.Body)
	_ = artifact.Body.Close()
	if err != nil {
		return Entry{}, &FilesystemError{Op: "reading downloaded tarball", Err: err}
	}

	pkgName := resolved.PackageName
	if err := verify.Chain(c.keys, c.isDefaultN, pkgName, resolved.Version, resolved.Dist, tarballBytes); err != nil {
		return Entry{}, err
	}

	staging := filepath.Join(TmpRoot(c.root), uuid.NewString())
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return Entry{}, &FilesystemError{Op: "creating staging directory", Err: err}
	}
	defer os.RemoveAll(staging)

	if err := extractTarGz(bytes.NewReader(tarballBytes), staging); err != nil {
		return Entry{}, err
	}

	if pin != nil && resolved.Kind == pkgmgr.Yarn {
		binRel, ok := resolved.Bin["yarn"]
		if !ok {
			return Entry{}, &FilesystemError{Op: "locating yarn bin entry", Err: fmt.Errorf("no bin.yarn in version metadata")}
		}
		binBytes, err := os.ReadFile(filepath.Join(staging, binRel))
		if err != nil {
			return Entry{}, &FilesystemError{Op: "reading extracted yarn bin for pin check", Err: err}
		}
		if err := verify.IntegrityPin(resolved.Kind, *pin, binBytes); err != nil {
			return Entry{}, err
		}
	}

	if err := writeBinManifest(staging, resolved.Bin); err != nil {
		return Entry{}, &FilesystemError{Op: "writing bin manifest", Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(final), 0o755); err != nil {
		return Entry{}, &FilesystemError{Op: "creating kind directory", Err: err}
	}

	if err := os.Rename(staging, final); err != nil {
		// Another process may have won the race and already published
		// `final` between our lock-reacquire check and this rename; if so,
		// prefer its result over ours.
		if entry, ok := c.Lookup(resolved.Kind, resolved.Version); ok {
			return entry, nil
		}
		// Otherwise `final` is a leftover without an ok marker: move it
		// aside, publish ours in its place, then delete the old directory.
		aside := final + ".old-" + uuid.NewString()
		if asideErr := os.Rename(final, aside); asideErr != nil {
			return Entry{}, &FilesystemError{Op: "publishing install directory", Err: err}
		}
		defer os.RemoveAll(aside)
		if err := os.Rename(staging, final); err != nil {
			return Entry{}, &FilesystemError{Op: "publishing install directory", Err: err}
		}
	}

	if err := os.WriteFile(filepath.Join(final, okMarker), nil, 0o644); err != nil {
		return Entry{}, &FilesystemError{Op: "writing ok marker", Err: err}
	}

	bin, err := readBinManifest(final)
	if err != nil {
		return Entry{}, &FilesystemError{Op: "reading bin manifest", Err: err}
	}
	return Entry{Dir: final, Bin: bin}, nil
}

// Clean removes cached installs. When keepLatest is true, the single
// highest-version directory per kind is preserved (matching the
// reference implementation's default `clean` behavior); otherwise the
// entire cache root is deleted, matching the plain `moldau clean` contract.
func (c *Cache) Clean(keepLatest bool) error {
	if !keepLatest {
		return os.RemoveAll(c.root)
	}

	for _, kind := range []pkgmgr.Kind{pkgmgr.Npm, pkgmgr.Yarn, pkgmgr.Pnpm} {
		kindDir := filepath.Join(c.root, kind.String())
		entries, err := os.ReadDir(kindDir)
		if err != nil {
			continue
		}
		latest := latestVersionDir(entries)
		for _, e := range entries {
			if e.Name() == latest || !e.IsDir() {
				continue
			}
			_ = os.RemoveAll(filepath.Join(kindDir, e.Name()))
		}
	}
	return nil
}

func latestVersionDir(entries []os.DirEntry) string {
	var best string
	var bestVer *semver.Version
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		v, err := semver.NewVersion(e.Name())
		if err != nil {
			continue
		}
		if bestVer == nil || v.GreaterThan(bestVer) {
			best, bestVer = e.Name(), v
		}
	}
	return best
}
