package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ryanccn-fork/moldau/internal/pkgmgr"
)

func newUpCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Update the pinned package manager to the latest matching release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := findDescriptorOrErr()
			if err != nil {
				return err
			}

			rt, err := newRuntime()
			if err != nil {
				return err
			}

			resolved, entry, err := resolveAndInstall(cmd.Context(), rt, desc.Kind, desc.Version)
			if err != nil {
				return err
			}

			exactSpec, err := pkgmgr.ParseVersionSpec(resolved.Version)
			if err != nil {
				return fmt.Errorf("up: parsing resolved version %q: %w", resolved.Version, err)
			}

			pkgJSONPath := filepath.Join(desc.Dir, "package.json")
			if err := writePackageManagerField(pkgJSONPath, desc.Kind, exactSpec); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s@%s -> %s\n", desc.Kind, resolved.Version, entry.Dir)
			return nil
		},
	}
	return cmd
}
