//go:build windows

package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ryanccn-fork/moldau/internal/pkgmgr"
)

// writeShim writes a pair of wrapper scripts (a bash script for Git Bash/WSL
// interop and a .cmd script for cmd.exe) that dispatch to `moldau exec`,
// since Windows has no equivalent to a Unix execve-preserving symlink shim.
func writeShim(dest string, bin pkgmgr.Bin, force bool) error {
	shimPath := filepath.Join(dest, bin.String())
	cmdPath := shimPath + ".cmd"

	if force {
		for _, p := range []string{shimPath, cmdPath} {
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
		}
	}

	bash := fmt.Sprintf("#!/bin/bash\nexec moldau exec %s -- \"$@\"\n", bin)
	if err := os.WriteFile(shimPath, []byte(bash), 0o755); err != nil {
		return err
	}

	cmd := fmt.Sprintf("@echo off\r\nsetlocal\r\nmoldau exec %s -- %%*\r\n", bin)
	return os.WriteFile(cmdPath, []byte(cmd), 0o755)
}
