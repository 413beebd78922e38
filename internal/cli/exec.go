package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ryanccn-fork/moldau/internal/descriptor"
	"github.com/ryanccn-fork/moldau/internal/dispatch"
	"github.com/ryanccn-fork/moldau/internal/pkgmgr"
)

func newExecCommand() *cobra.Command {
	var specStr string

	cmd := &cobra.Command{
		Use:                "exec <bin> -- <args...>",
		Short:              "Run a shim binary through moldau's dispatch logic",
		Args:               cobra.MinimumNArgs(1),
		DisableFlagParsing: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			binName := args[0]
			rest := args[1:]

			bin, ok := pkgmgr.ParseBin(binName)
			if !ok {
				return fmt.Errorf("unknown shim binary %q", binName)
			}

			return Exec(cmd, bin, rest, specStr)
		},
	}

	cmd.Flags().StringVar(&specStr, "spec", "", "override the descriptor spec (kind@version)")
	return cmd
}

// Exec is the shared entry point for both `moldau exec <bin> -- <args>` and
// argv[0]-based shim dispatch: it finds (or is given) the project's
// package manager descriptor, decides whether to run moldau's cached
// binary or fall through to PATH, and execs accordingly.
func Exec(cmd *cobra.Command, bin pkgmgr.Bin, args []string, specOverride string) error {
	cwd, err := osGetwd()
	if err != nil {
		return err
	}

	var desc *descriptor.Descriptor
	if specOverride != "" {
		d, err := parseSpecOverride(specOverride)
		if err != nil {
			return err
		}
		desc = d
	} else {
		d, err := descriptor.Find(cwd, true)
		if err != nil {
			return err
		}
		desc = d
	}

	haveDescriptor := desc != nil
	var descKind pkgmgr.Kind
	var onFail descriptor.OnFail
	if haveDescriptor {
		descKind = desc.Kind
		onFail = desc.OnFail
	}

	decision, err := dispatch.Decide(bin, args, descKind, haveDescriptor, onFail, strictMode())
	if err != nil {
		return err
	}

	if !decision.UseCache {
		if decision.Warning != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "moldau: %s\n", decision.Warning)
		}
		shimDir, _ := defaultShimDir()
		path, err := dispatch.ExecPath(bin, shimDir)
		if err != nil {
			return err
		}
		return dispatch.RunChild(path, args)
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}

	_, entry, err := resolveAndInstall(cmd.Context(), rt, desc.Kind, desc.Version)
	if err != nil {
		return err
	}

	binPath := entry.BinPath(bin.String())
	if binPath == "" {
		binPath = entry.BinPath(desc.Kind.String())
	}
	if binPath == "" {
		return fmt.Errorf("exec: %s has no bin entry %q in the cached install", desc.Kind, bin)
	}

	return dispatch.RunChild(binPath, args)
}
