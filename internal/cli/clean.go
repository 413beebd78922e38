package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCleanCommand() *cobra.Command {
	var keepLatest bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove cached package manager installs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			if err := rt.cache.Clean(keepLatest); err != nil {
				return err
			}
			if keepLatest {
				fmt.Fprintln(cmd.OutOrStdout(), "removed all cached installs except the latest per package manager")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "removed the entire moldau cache")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepLatest, "keep-latest", false, "keep the latest cached install of each package manager")
	return cmd
}
