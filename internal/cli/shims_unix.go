//go:build !windows

package cli

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/ryanccn-fork/moldau/internal/pkgmgr"
)

// writeShim symlinks dest/<bin> to the moldau executable itself, so invoking
// it as that name dispatches through argv[0]-based shim detection in
// cmd/moldau/main.go.
func writeShim(dest string, bin pkgmgr.Bin, force bool) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return err
	}

	shimPath := filepath.Join(dest, bin.String())

	if force {
		if err := os.Remove(shimPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	if err := os.Symlink(exe, shimPath); err != nil {
		if errors.Is(err, os.ErrExist) {
			if existing, readErr := os.Readlink(shimPath); readErr == nil && existing == exe {
				return nil
			}
		}
		return err
	}
	return nil
}
