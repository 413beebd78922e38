package cache

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// fixedModTime is applied to every extracted regular file instead of
// whatever the tarball recorded. Directories and symlinks are not touched
// and carry the time of extraction.
var fixedModTime = time.Unix(0, 0)

// UnsafeEntryError is returned when a tar entry would escape the
// extraction root via an absolute path, "..", or a symlink pointing
// outside it.
type UnsafeEntryError struct {
	Name string
}

func (e *UnsafeEntryError) Error() string {
	return fmt.Sprintf("cache: tar entry %q escapes extraction root", e.Name)
}

// extractTarGz extracts a gzip-compressed tarball into dest. Every entry is
// confined to dest: the npm-convention "package/" path prefix is stripped,
// absolute paths and ".." components are rejected, and a symlink is only
// honored if its target (resolved relative to its own directory) still
// lands inside dest. The executable bit is preserved; every other mode bit
// is replaced with a fixed value, owner metadata is ignored, and regular
// files get the fixed modification time.
func extractTarGz(r io.Reader, dest string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("cache: opening gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("cache: reading tar entry: %w", err)
		}

		name := stripPackagePrefix(header.Name)
		if name == "" {
			continue
		}

		target, ok := safeJoin(dest, name)
		if !ok {
			return &UnsafeEntryError{Name: header.Name}
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}

		case tar.TypeReg, tar.TypeRegA:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := extractRegularFile(tr, target, header); err != nil {
				return err
			}

		case tar.TypeSymlink:
			if filepath.IsAbs(header.Linkname) {
				return &UnsafeEntryError{Name: header.Name}
			}
			linkTarget, ok := safeJoin(dest, filepath.Join(filepath.Dir(name), header.Linkname))
			if !ok {
				return &UnsafeEntryError{Name: header.Name}
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			rel, err := filepath.Rel(filepath.Dir(target), linkTarget)
			if err != nil {
				return err
			}
			if err := os.Symlink(rel, target); err != nil && !os.IsExist(err) {
				return err
			}

		default:
			// Skip device nodes, fifos, and other non-regular entries; a
			// package manager tarball has no legitimate reason to ship one.
		}
	}
}

func extractRegularFile(r io.Reader, target string, header *tar.Header) error {
	mode := os.FileMode(0o644)
	if header.FileInfo().Mode()&0o111 != 0 {
		mode = 0o755
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Chtimes(target, fixedModTime, fixedModTime)
}

// stripPackagePrefix removes the leading "package/" path component npm
// tarballs wrap every entry in. An entry that is exactly "package" (the
// directory itself) is dropped.
func stripPackagePrefix(name string) string {
	name = strings.TrimPrefix(name, "./")
	const prefix = "package/"
	if name == "package" {
		return ""
	}
	if strings.HasPrefix(name, prefix) {
		return strings.TrimPrefix(name, prefix)
	}
	return name
}

// safeJoin joins dest and rel, rejecting any result that isn't a
// descendant of dest (rel containing "..", being absolute, or a symlink
// target pointing outside dest all fall here).
func safeJoin(dest, rel string) (string, bool) {
	if filepath.IsAbs(rel) {
		return "", false
	}
	joined := filepath.Join(dest, rel)
	cleanDest := filepath.Clean(dest)
	if joined != cleanDest && !strings.HasPrefix(joined, cleanDest+string(filepath.Separator)) {
		return "", false
	}
	return joined, true
}
