// Command moldau is a version manager for npm, Yarn, and pnpm: it resolves,
// downloads, verifies, and caches package manager release tarballs from the
// npm registry, and transparently dispatches npm/npx/yarn/yarnpkg/pnpm/pnpx
// invocations to the cached binaries.
package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ryanccn-fork/moldau/internal/cli"
	"github.com/ryanccn-fork/moldau/internal/dispatch"
	"github.com/ryanccn-fork/moldau/internal/pkgmgr"
)

func main() {
	os.Exit(run())
}

// run implements moldau's two entry modes: if argv[0] names one of the
// shim binaries (npm, npx, yarn, yarnpkg, pnpm, pnpx), dispatch straight
// through moldau's exec logic without touching cobra's subcommand parser;
// otherwise parse args as an explicit `moldau <subcommand>` invocation.
func run() int {
	if len(os.Args) > 0 {
		if bin, ok := shimBinFromArgv0(os.Args[0]); ok {
			root := cli.NewRootCommand()
			root.SetContext(context.Background())
			err := cli.Exec(root, bin, os.Args[1:], "")
			return dispatch.ExitCode(err)
		}
	}

	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		cli.PrintError(err)
		return dispatch.ExitCode(err)
	}
	return 0
}

func shimBinFromArgv0(argv0 string) (pkgmgr.Bin, bool) {
	name := filepath.Base(argv0)
	name = strings.TrimSuffix(name, ".exe")
	return pkgmgr.ParseBin(name)
}
