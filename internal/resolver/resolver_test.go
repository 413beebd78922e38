package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ryanccn-fork/moldau/internal/pkgmgr"
	"github.com/ryanccn-fork/moldau/internal/registryclient"
)

func newTestRegistry(t *testing.T, handler http.HandlerFunc) *registryclient.Registry {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := registryclient.DefaultClient(registryclient.WithHTTPClient(srv.Client()), registryclient.WithMaxRetries(0))
	return registryclient.NewRegistry(srv.URL, client)
}

func TestResolveExactVersion(t *testing.T) {
	reg := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(registryclient.Version{
			Name:    "npm",
			Version: "10.8.0",
			Bin:     map[string]string{"npm": "bin/npm-cli.js"},
			Dist:    registryclient.Dist{Tarball: "https://registry.npmjs.org/npm/-/npm-10.8.0.tgz", Shasum: "abc123"},
		})
	})

	spec, err := pkgmgr.ParseVersionSpec("10.8.0")
	if err != nil {
		t.Fatalf("ParseVersionSpec: %v", err)
	}

	resolved, err := Resolve(context.Background(), reg, pkgmgr.Npm, spec)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Version != "10.8.0" {
		t.Errorf("Version = %q, want 10.8.0", resolved.Version)
	}
	if resolved.PackageName != "npm" {
		t.Errorf("PackageName = %q, want npm", resolved.PackageName)
	}
}

func TestResolveRangePicksHighest(t *testing.T) {
	reg := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(registryclient.Package{
			Versions: map[string]registryclient.Version{
				"9.0.0": {Name: "pnpm", Version: "9.0.0"},
				"9.5.0": {Name: "pnpm", Version: "9.5.0"},
				"8.9.0": {Name: "pnpm", Version: "8.9.0"},
			},
			DistTags: map[string]string{"latest": "9.5.0"},
		})
	})

	spec, err := pkgmgr.ParseVersionSpec("^9.0.0")
	if err != nil {
		t.Fatalf("ParseVersionSpec: %v", err)
	}

	resolved, err := Resolve(context.Background(), reg, pkgmgr.Pnpm, spec)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Version != "9.5.0" {
		t.Errorf("Version = %q, want 9.5.0 (the highest matching ^9.0.0)", resolved.Version)
	}
}

func TestResolveDistTag(t *testing.T) {
	reg := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(registryclient.Package{
			Versions: map[string]registryclient.Version{
				"10.8.0": {Name: "npm", Version: "10.8.0"},
			},
			DistTags: map[string]string{"latest": "10.8.0"},
		})
	})

	spec, err := pkgmgr.ParseVersionSpec("latest")
	if err != nil {
		t.Fatalf("ParseVersionSpec: %v", err)
	}

	resolved, err := Resolve(context.Background(), reg, pkgmgr.Npm, spec)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Version != "10.8.0" {
		t.Errorf("Version = %q, want 10.8.0", resolved.Version)
	}
}

func TestResolveUnknownDistTag(t *testing.T) {
	reg := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(registryclient.Package{
			Versions: map[string]registryclient.Version{"10.8.0": {Name: "npm", Version: "10.8.0"}},
			DistTags: map[string]string{"latest": "10.8.0"},
		})
	})

	spec, _ := pkgmgr.ParseVersionSpec("nightly")
	_, err := Resolve(context.Background(), reg, pkgmgr.Npm, spec)
	var tagErr *TagUnknownError
	if err == nil {
		t.Fatal("expected TagUnknownError")
	}
	if e, ok := err.(*TagUnknownError); ok {
		tagErr = e
	} else {
		t.Fatalf("error %v is not a *TagUnknownError", err)
	}
	if tagErr.Tag != "nightly" {
		t.Errorf("Tag = %q, want nightly", tagErr.Tag)
	}
}

func TestResolveNoMatchingVersion(t *testing.T) {
	reg := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(registryclient.Package{
			Versions: map[string]registryclient.Version{"8.0.0": {Name: "pnpm", Version: "8.0.0"}},
		})
	})

	spec, _ := pkgmgr.ParseVersionSpec("^9.0.0")
	_, err := Resolve(context.Background(), reg, pkgmgr.Pnpm, spec)
	if _, ok := err.(*NoMatchingVersionError); !ok {
		t.Fatalf("error %v is not a *NoMatchingVersionError", err)
	}
}

func TestResolveUnsupportedBerry2x(t *testing.T) {
	reg := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach the registry for an unsupported berry 2.x version")
	})

	spec, _ := pkgmgr.ParseVersionSpec("2.0.0")
	_, err := Resolve(context.Background(), reg, pkgmgr.Yarn, spec)
	if _, ok := err.(*UnsupportedBerryError); !ok {
		t.Fatalf("error %v is not a *UnsupportedBerryError", err)
	}
}

func TestResolveBerry241Supported(t *testing.T) {
	reg := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(registryclient.Version{
			Name: "@yarnpkg/cli-dist", Version: "2.4.1",
			Dist: registryclient.Dist{Shasum: "abc"},
		})
	})

	spec, _ := pkgmgr.ParseVersionSpec("2.4.1")
	resolved, err := Resolve(context.Background(), reg, pkgmgr.Yarn, spec)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Version != "2.4.1" {
		t.Errorf("Version = %q, want 2.4.1", resolved.Version)
	}
}

func TestResolveIntegrityPinMismatch(t *testing.T) {
	reg := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(registryclient.Version{
			Name: "npm", Version: "10.8.0",
			Dist: registryclient.Dist{Shasum: "realshasumvalue"},
		})
	})

	spec, err := pkgmgr.ParseVersionSpec("10.8.0+sha1.deadbeef")
	if err != nil {
		t.Fatalf("ParseVersionSpec: %v", err)
	}

	_, err = Resolve(context.Background(), reg, pkgmgr.Npm, spec)
	if _, ok := err.(*IntegrityPinMismatchError); !ok {
		t.Fatalf("error %v is not a *IntegrityPinMismatchError", err)
	}
}

func TestResolveIntegrityPinSkippedForYarn(t *testing.T) {
	reg := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(registryclient.Version{
			Name: "@yarnpkg/cli-dist", Version: "4.1.0",
			Dist: registryclient.Dist{Shasum: "whatever-the-registry-says"},
		})
	})

	// The pin here deliberately mismatches dist.shasum; because this is a
	// Yarn resolve, the resolver must not pre-check it (that check happens
	// later, against the extracted bin file, in internal/cache).
	spec, err := pkgmgr.ParseVersionSpec("4.1.0+sha1.deadbeef")
	if err != nil {
		t.Fatalf("ParseVersionSpec: %v", err)
	}

	resolved, err := Resolve(context.Background(), reg, pkgmgr.Yarn, spec)
	if err != nil {
		t.Fatalf("Resolve should not fail the pin check for yarn: %v", err)
	}
	if resolved.Version != "4.1.0" {
		t.Errorf("Version = %q, want 4.1.0", resolved.Version)
	}
}
