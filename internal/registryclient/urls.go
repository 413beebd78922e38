package registryclient

import "fmt"

// URLs renders the human-facing URLs for a resolved (name, version) pair:
// its npmjs.com package page, its tarball download, and its npm registry
// API URL. Mirrors the BaseURLs/URLBuilder shape used across the wider
// registry-client family this package was adapted from, narrowed to npm.
type URLs struct {
	reg *Registry
}

// NewURLs returns a URLs bound to reg.
func NewURLs(reg *Registry) *URLs { return &URLs{reg: reg} }

// Registry returns the registry API URL for name/version.
func (u *URLs) Registry(name, version string) string {
	if version == "" {
		return u.reg.baseURL + "/" + pathEscapeSegments(name)
	}
	return u.reg.baseURL + "/" + pathEscapeSegments(name) + "/" + version
}

// Download returns the tarball URL for name/version.
func (u *URLs) Download(name, version string) string {
	return u.reg.DownloadURL(name, version)
}

// Documentation returns the npmjs.com package page for name/version.
func (u *URLs) Documentation(name, version string) string {
	if version == "" {
		return "https://www.npmjs.com/package/" + name
	}
	return fmt.Sprintf("https://www.npmjs.com/package/%s/v/%s", name, version)
}
