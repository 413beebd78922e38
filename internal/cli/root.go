// Package cli implements moldau's cobra-based command surface: the
// explicit subcommands and the shared wiring behind shim dispatch.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the top-level `moldau` command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "moldau",
		Short:         "Version manager for npm, Yarn, and pnpm",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newExecCommand(),
		newUseCommand(),
		newUpCommand(),
		newPrefetchCommand(),
		newCleanCommand(),
		newShimsCommand(),
		newWhichCommand(),
		newCompletionsCommand(),
	)

	return root
}

// PrintError prints err to stderr in moldau's own voice.
func PrintError(err error) {
	fmt.Fprintf(os.Stderr, "moldau: %v\n", err)
}
