package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ryanccn-fork/moldau/internal/purl"
)

func newWhichCommand() *cobra.Command {
	var showPurl bool

	cmd := &cobra.Command{
		Use:   "which [bin]",
		Short: "Print the cached binary path that would be run for a shim",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := findDescriptorOrErr()
			if err != nil {
				return err
			}

			binName := desc.Kind.String()
			if len(args) == 1 {
				binName = args[0]
			}

			rt, err := newRuntime()
			if err != nil {
				return err
			}

			resolved, entry, err := resolveAndInstall(cmd.Context(), rt, desc.Kind, desc.Version)
			if err != nil {
				return err
			}

			if showPurl {
				fmt.Fprintln(cmd.OutOrStdout(), purl.NPM(resolved.PackageName, resolved.Version))
				return nil
			}

			binPath := entry.BinPath(binName)
			if binPath == "" {
				binPath = entry.BinPath(desc.Kind.String())
			}
			if binPath == "" {
				return fmt.Errorf("which: %s has no bin entry %q in the cached install", desc.Kind, binName)
			}

			fmt.Fprintln(cmd.OutOrStdout(), binPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showPurl, "purl", false, "print the resolved package's Package URL instead of a path")
	return cmd
}
