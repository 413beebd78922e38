// Package pkgmgr models the package managers moldau knows how to fetch and
// dispatch to, and the version specifications that select a release of one.
package pkgmgr

import "fmt"

// Kind identifies which package manager a Descriptor or shim refers to.
type Kind int

const (
	Npm Kind = iota
	Yarn
	Pnpm
)

func (k Kind) String() string {
	switch k {
	case Npm:
		return "npm"
	case Yarn:
		return "yarn"
	case Pnpm:
		return "pnpm"
	default:
		return "unknown"
	}
}

// ParseKind parses the `name` half of a `packageManager` field, e.g. "yarn"
// from "yarn@4.1.0".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "npm":
		return Npm, nil
	case "yarn":
		return Yarn, nil
	case "pnpm":
		return Pnpm, nil
	default:
		return 0, fmt.Errorf("unknown package manager: %q", s)
	}
}

// Bin identifies one of the shim executables moldau may be invoked as.
type Bin int

const (
	BinNpm Bin = iota
	BinNpx
	BinYarn
	BinYarnpkg
	BinPnpm
	BinPnpx
)

var binNames = map[Bin]string{
	BinNpm:     "npm",
	BinNpx:     "npx",
	BinYarn:    "yarn",
	BinYarnpkg: "yarnpkg",
	BinPnpm:    "pnpm",
	BinPnpx:    "pnpx",
}

func (b Bin) String() string { return binNames[b] }

// ParseBin resolves a shim file name (argv[0], already stripped of any
// ".exe" suffix and directory components) into a Bin.
func ParseBin(s string) (Bin, bool) {
	for b, name := range binNames {
		if name == s {
			return b, true
		}
	}
	return 0, false
}

// Kind returns the package manager kind a shim binary name dispatches to.
func (b Bin) Kind() Kind {
	switch b {
	case BinNpm, BinNpx:
		return Npm
	case BinYarn, BinYarnpkg:
		return Yarn
	case BinPnpm, BinPnpx:
		return Pnpm
	default:
		return Npm
	}
}

// Transparent reports whether this bin is always allowed to run against
// whatever package manager is on PATH, bypassing strict-mode kind
// enforcement. npm, npx, and pnpx are transparent unconditionally; the
// remaining bins gain the exemption only for specific leading arguments
// (see IsTransparentArgs).
func (b Bin) Transparent() bool {
	switch b {
	case BinNpm, BinNpx, BinPnpx:
		return true
	default:
		return false
	}
}

// IsTransparentArgs reports whether the leading argument to this bin makes
// the invocation transparent regardless of the configured package manager.
// "init" is always transparent; "dlx" is transparent for yarn and pnpm only,
// mirroring upstream Corepack's exec carve-outs.
func (b Bin) IsTransparentArgs(args []string) bool {
	if len(args) == 0 {
		return false
	}
	switch args[0] {
	case "init":
		return true
	case "dlx":
		return b == BinYarn || b == BinYarnpkg || b == BinPnpm || b == BinPnpx
	default:
		return false
	}
}
