package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ryanccn-fork/moldau/internal/descriptor"
)

func newPrefetchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefetch [spec]",
		Short: "Download and cache a package manager release without running it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}

			var desc *descriptor.Descriptor
			if len(args) == 1 {
				desc, err = parseSpecOverride(args[0])
			} else {
				desc, err = findDescriptorOrErr()
			}
			if err != nil {
				return err
			}

			_, entry, err := resolveAndInstall(cmd.Context(), rt, desc.Kind, desc.Version)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s@%s -> %s\n", desc.Kind, desc.Version.StrippedString(), entry.Dir)
			return nil
		},
	}
	return cmd
}

// findDescriptorOrErr locates the package manager descriptor for the
// current directory, failing loudly instead of silently falling back to
// PATH (which would be meaningless for prefetch/which/up).
func findDescriptorOrErr() (*descriptor.Descriptor, error) {
	cwd, err := osGetwd()
	if err != nil {
		return nil, err
	}
	desc, err := descriptor.Find(cwd, true)
	if err != nil {
		return nil, err
	}
	if desc == nil {
		return nil, fmt.Errorf("no packageManager declaration found in %s or its parents", cwd)
	}
	return desc, nil
}
