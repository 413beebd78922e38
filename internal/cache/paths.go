package cache

import (
	"os"
	"path/filepath"

	"github.com/ryanccn-fork/moldau/internal/pkgmgr"
)

// Root returns moldau's cache root directory, creating it if necessary.
// It defers to os.UserCacheDir(), which already implements the
// platform-appropriate "cache directory" rules (XDG_CACHE_HOME on Linux,
// ~/Library/Caches on macOS, %LocalAppData% on Windows) that the reference
// implementation gets from a dedicated directories crate.
func Root() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	root := filepath.Join(base, "moldau")
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", err
	}
	return root, nil
}

// VersionDir returns the final install directory for kind/version under
// root.
func VersionDir(root string, kind pkgmgr.Kind, version string) string {
	return filepath.Join(root, kind.String(), version)
}

// LockPath returns the advisory lock file path for kind/version.
func LockPath(root string, kind pkgmgr.Kind, version string) string {
	return filepath.Join(root, kind.String(), version+".lock")
}

// TmpRoot returns the staging-directory parent under root.
func TmpRoot(root string) string {
	return filepath.Join(root, "tmp")
}

// okMarker is the filename written into a version directory once install
// has fully completed, used to distinguish a complete cache entry from a
// partially-extracted one left behind by a crash.
const okMarker = ".moldau-ok"
