package registryclient

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// installAccept is the Accept header the npm registry uses to return the
// abbreviated "install" metadata document instead of the full package
// document (smaller, and all moldau needs).
const installAccept = "application/vnd.npm.install-v1+json; q=1.0, application/json; q=0.8, */*"

// DefaultRegistry is the npm registry base URL used when
// COREPACK_NPM_REGISTRY is unset.
const DefaultRegistry = "https://registry.npmjs.org"

// Signature is one entry in a version's dist.signatures array.
type Signature struct {
	KeyID string `json:"keyid"`
	Sig   string `json:"sig"`
}

// Dist is the `dist` object of an npm version document.
type Dist struct {
	Tarball    string      `json:"tarball"`
	Shasum     string      `json:"shasum"`
	Integrity  string      `json:"integrity"`
	Signatures []Signature `json:"signatures"`
}

// Version is a single entry in a package document's `versions` map.
type Version struct {
	Name    string            `json:"name"`
	Version string            `json:"version"`
	Bin     map[string]string `json:"bin"`
	Dist    Dist              `json:"dist"`
}

// Package is the abbreviated package document the registry returns for
// GET /{package}.
type Package struct {
	Versions map[string]Version `json:"versions"`
	DistTags map[string]string  `json:"dist-tags"`
}

// Registry is an npm registry client bound to a base URL.
type Registry struct {
	baseURL string
	client  *Client
}

// NewRegistry constructs a Registry. baseURL defaults to DefaultRegistry
// if empty.
func NewRegistry(baseURL string, client *Client) *Registry {
	if baseURL == "" {
		baseURL = DefaultRegistry
	}
	if client == nil {
		client = DefaultClient()
	}
	return &Registry{baseURL: baseURL, client: client}
}

// RegistryFromEnv builds a Registry honoring COREPACK_NPM_REGISTRY and the
// COREPACK_NPM_TOKEN / COREPACK_NPM_USERNAME+COREPACK_NPM_PASSWORD auth
// environment variables.
func RegistryFromEnv(client *Client) *Registry {
	base := os.Getenv("COREPACK_NPM_REGISTRY")
	if base == "" {
		base = DefaultRegistry
	}
	if client == nil {
		client = DefaultClient(WithAuth(authFromEnv()))
	}
	return NewRegistry(base, client)
}

func authFromEnv() AuthFunc {
	return func() (string, string) {
		if token := os.Getenv("COREPACK_NPM_TOKEN"); token != "" {
			return "Authorization", "Bearer " + token
		}
		user := os.Getenv("COREPACK_NPM_USERNAME")
		pass := os.Getenv("COREPACK_NPM_PASSWORD")
		if user != "" || pass != "" {
			return "Authorization", "Basic " + basicAuth(user, pass)
		}
		return "", ""
	}
}

// BaseURL returns the registry's configured base URL.
func (r *Registry) BaseURL() string { return r.baseURL }

// IsDefaultNpmRegistry reports whether this registry is exactly
// registry.npmjs.org, the only host whose ECDSA signatures moldau verifies.
func (r *Registry) IsDefaultNpmRegistry() bool {
	u, err := url.Parse(r.baseURL)
	if err != nil {
		return false
	}
	return u.Hostname() == "registry.npmjs.org"
}

// FetchPackage retrieves the full abbreviated package document for name.
func (r *Registry) FetchPackage(ctx context.Context, name string) (*Package, error) {
	u := r.baseURL + "/" + pathEscapeSegments(name)
	var pkg Package
	if err := r.client.GetJSON(ctx, u, installAccept, name, "", &pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}

// FetchVersion retrieves metadata for one exact version of name.
func (r *Registry) FetchVersion(ctx context.Context, name, version string) (*Version, error) {
	u := r.baseURL + "/" + pathEscapeSegments(name) + "/" + url.PathEscape(version)
	var v Version
	if err := r.client.GetJSON(ctx, u, installAccept, name, version, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// pathEscapeSegments escapes each "/"-delimited path segment independently,
// so a scoped package name like "@babel/core" becomes "@babel/core" in the
// URL path (not "%40babel%2Fcore"), matching how npm's own clients build
// registry URLs.
func pathEscapeSegments(name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// DownloadURL returns the URL this package/version would be downloaded
// from by default, without needing a registry round-trip. Callers should
// prefer dist.tarball from FetchVersion when available; URLs.Download
// wraps it for diagnostics.
func (r *Registry) DownloadURL(name, version string) string {
	short := name
	if i := strings.LastIndex(name, "/"); i >= 0 {
		short = name[i+1:]
	}
	return fmt.Sprintf("%s/%s/-/%s-%s.tgz", r.baseURL, pathEscapeSegments(name), short, version)
}
