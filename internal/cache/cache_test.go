package cache

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ryanccn-fork/moldau/internal/fetcher"
	"github.com/ryanccn-fork/moldau/internal/keys"
	"github.com/ryanccn-fork/moldau/internal/pkgmgr"
	"github.com/ryanccn-fork/moldau/internal/registryclient"
	"github.com/ryanccn-fork/moldau/internal/resolver"
	"github.com/ryanccn-fork/moldau/internal/sri"
)

func npmTarball(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	content := `{"name":"npm","version":"10.8.0"}`
	hdr := &tar.Header{Name: "package/package.json", Mode: 0o644, Size: int64(len(content)), Typeflag: tar.TypeReg}
	if err := tw.WriteHeader(hdr); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if _, err := tw.Write([]byte(content)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	binContent := "#!/usr/bin/env node\nconsole.log('npm')\n"
	binHdr := &tar.Header{Name: "package/bin/npm-cli.js", Mode: 0o755, Size: int64(len(binContent)), Typeflag: tar.TypeReg}
	if err := tw.WriteHeader(binHdr); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if _, err := tw.Write([]byte(binContent)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("tar Close: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip Close: %v", err)
	}
	return buf.Bytes()
}

func newTestCache(t *testing.T, tarball []byte) (*Cache, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(tarball)
	}))
	t.Cleanup(srv.Close)

	f := fetcher.New(fetcher.WithHTTPClient(srv.Client()), fetcher.WithMaxRetries(0))
	cbf := fetcher.NewCircuitBreakerFetcher(f)

	ks, err := keys.NewStore()
	if err != nil {
		t.Fatalf("keys.NewStore: %v", err)
	}

	root := t.TempDir()
	return New(root, cbf, ks, false), srv
}

func resolvedFor(srv *httptest.Server, version string, tarball []byte) *resolver.Resolved {
	sum := sha1.Sum(tarball)
	h := sha256.Sum256(tarball)
	return &resolver.Resolved{
		Kind:        pkgmgr.Npm,
		Version:     version,
		PackageName: "npm",
		Dist: registryclient.Dist{
			Tarball:   srv.URL + "/npm-" + version + ".tgz",
			Shasum:    hex.EncodeToString(sum[:]),
			Integrity: "sha256-" + base64.StdEncoding.EncodeToString(h[:]),
		},
		Bin: map[string]string{"npm": "bin/npm-cli.js"},
	}
}

func TestCacheInstallFullPipeline(t *testing.T) {
	tarball := npmTarball(t)
	c, srv := newTestCache(t, tarball)
	resolved := resolvedFor(srv, "10.8.0", tarball)

	entry, err := c.Install(context.Background(), resolved, nil)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}

	if _, err := os.Stat(filepath.Join(entry.Dir, "package.json")); err != nil {
		t.Errorf("expected extracted package.json: %v", err)
	}
	if _, err := os.Stat(filepath.Join(entry.Dir, okMarker)); err != nil {
		t.Errorf("expected ok marker to be written: %v", err)
	}

	binPath := entry.BinPath("npm")
	if binPath == "" {
		t.Fatal("expected a resolved npm bin path")
	}
	if _, err := os.Stat(binPath); err != nil {
		t.Errorf("expected bin path to exist on disk: %v", err)
	}
}

func TestCacheInstallIsIdempotentOnCacheHit(t *testing.T) {
	tarball := npmTarball(t)
	c, srv := newTestCache(t, tarball)
	resolved := resolvedFor(srv, "10.8.0", tarball)

	first, err := c.Install(context.Background(), resolved, nil)
	if err != nil {
		t.Fatalf("first Install: %v", err)
	}

	// A second install must hit the cache without touching the network
	// again; point the tarball URL somewhere that would fail if fetched.
	resolved.Dist.Tarball = "http://127.0.0.1:1/unreachable"
	second, err := c.Install(context.Background(), resolved, nil)
	if err != nil {
		t.Fatalf("second Install should have been a cache hit: %v", err)
	}
	if second.Dir != first.Dir {
		t.Errorf("Dir = %q, want %q", second.Dir, first.Dir)
	}
}

func TestCacheLookupMissBeforeInstall(t *testing.T) {
	tarball := npmTarball(t)
	c, _ := newTestCache(t, tarball)

	if _, ok := c.Lookup(pkgmgr.Npm, "10.8.0"); ok {
		t.Error("expected a Lookup miss before any Install")
	}
}

func TestCacheInstallRejectsShasumMismatch(t *testing.T) {
	tarball := npmTarball(t)
	c, srv := newTestCache(t, tarball)
	resolved := resolvedFor(srv, "10.8.0", tarball)
	resolved.Dist.Shasum = "0000000000000000000000000000000000000000"

	_, err := c.Install(context.Background(), resolved, nil)
	if err == nil {
		t.Fatal("expected Install to fail on a shasum mismatch")
	}
	if _, ok := c.Lookup(pkgmgr.Npm, "10.8.0"); ok {
		t.Error("a failed install must not leave a visible cache entry")
	}
}

func TestCacheInstallYarnPinChecksExtractedBin(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	yarnBin := "#!/usr/bin/env node\nconsole.log('yarn')\n"
	hdr := &tar.Header{Name: "package/bin/yarn.js", Mode: 0o755, Size: int64(len(yarnBin)), Typeflag: tar.TypeReg}
	_ = tw.WriteHeader(hdr)
	_, _ = tw.Write([]byte(yarnBin))
	_ = tw.Close()
	_ = gz.Close()
	tarball := buf.Bytes()

	c, srv := newTestCache(t, tarball)
	resolved := resolvedFor(srv, "4.1.0", tarball)
	resolved.Kind = pkgmgr.Yarn
	resolved.PackageName = "@yarnpkg/cli-dist"
	resolved.Bin = map[string]string{"yarn": "bin/yarn.js"}

	badPin := &sri.Pin{Digest: sri.Digest{Algorithm: sri.SHA512, Sum: []byte("not the right digest at all")}}
	_, err := c.Install(context.Background(), resolved, badPin)
	if err == nil {
		t.Fatal("expected Install to fail when the yarn pin doesn't match the extracted bin file")
	}

	goodSum := sri.HashBytes(sri.SHA512, []byte(yarnBin))
	goodPin := &sri.Pin{Digest: sri.Digest{Algorithm: sri.SHA512, Sum: goodSum}}
	entry, err := c.Install(context.Background(), resolved, goodPin)
	if err != nil {
		t.Fatalf("Install with a matching pin should succeed: %v", err)
	}
	if entry.BinPath("yarn") == "" {
		t.Error("expected a resolved yarn bin path")
	}
}

func TestCacheCleanAll(t *testing.T) {
	tarball := npmTarball(t)
	c, srv := newTestCache(t, tarball)
	resolved := resolvedFor(srv, "10.8.0", tarball)
	if _, err := c.Install(context.Background(), resolved, nil); err != nil {
		t.Fatalf("Install: %v", err)
	}

	if err := c.Clean(false); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if _, ok := c.Lookup(pkgmgr.Npm, "10.8.0"); ok {
		t.Error("expected Clean(false) to remove every cached install")
	}
}

func TestCacheCleanKeepsLatest(t *testing.T) {
	tarball := npmTarball(t)
	c, srv := newTestCache(t, tarball)

	for _, v := range []string{"9.0.0", "10.8.0"} {
		resolved := resolvedFor(srv, v, tarball)
		if _, err := c.Install(context.Background(), resolved, nil); err != nil {
			t.Fatalf("Install %s: %v", v, err)
		}
	}

	if err := c.Clean(true); err != nil {
		t.Fatalf("Clean: %v", err)
	}

	if _, ok := c.Lookup(pkgmgr.Npm, "10.8.0"); !ok {
		t.Error("expected the highest version to survive Clean(true)")
	}
	if _, ok := c.Lookup(pkgmgr.Npm, "9.0.0"); ok {
		t.Error("expected the older version to be removed by Clean(true)")
	}
}
