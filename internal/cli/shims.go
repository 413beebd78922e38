package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ryanccn-fork/moldau/internal/pkgmgr"
)

var allShimBins = []pkgmgr.Bin{
	pkgmgr.BinNpm, pkgmgr.BinNpx,
	pkgmgr.BinYarn, pkgmgr.BinYarnpkg,
	pkgmgr.BinPnpm, pkgmgr.BinPnpx,
}

func newShimsCommand() *cobra.Command {
	var dest string
	var force bool

	cmd := &cobra.Command{
		Use:   "shims",
		Short: "Install shim executables for npm, npx, yarn, yarnpkg, pnpm, and pnpx",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dest == "" {
				d, err := defaultShimDir()
				if err != nil {
					return err
				}
				dest = d
			}

			if err := os.MkdirAll(dest, 0o755); err != nil {
				return err
			}

			var g errgroup.Group
			for _, bin := range allShimBins {
				bin := bin
				g.Go(func() error {
					if err := writeShim(dest, bin, force); err != nil {
						return fmt.Errorf("shims: writing shim for %s: %w", bin, err)
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "installed shims into %s\n", dest)

			if !pathContains(dest) {
				fmt.Fprintf(cmd.ErrOrStderr(),
					"moldau: %s is not in PATH; add it to the front of PATH for installed shims to take precedence\n", dest)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&dest, "dest", "", "directory to install shims into (default: a moldau-managed bin directory)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing shims")
	return cmd
}

func defaultShimDir() (string, error) {
	cacheRoot, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheRoot, "moldau", "shims"), nil
}

func pathContains(dir string) bool {
	for _, p := range filepath.SplitList(os.Getenv("PATH")) {
		if strings.TrimRight(p, string(filepath.Separator)) == strings.TrimRight(dir, string(filepath.Separator)) {
			return true
		}
	}
	return false
}
