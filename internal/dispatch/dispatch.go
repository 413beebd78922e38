// Package dispatch decides, for a shim invocation or an explicit `exec`,
// whether to run the cached package manager binary or fall through to
// PATH, and maps moldau's error taxonomy onto process exit codes.
package dispatch

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ryanccn-fork/moldau/internal/descriptor"
	"github.com/ryanccn-fork/moldau/internal/pkgmgr"
)

// KindMismatchError is returned when strict mode forbids falling through
// to a package manager on PATH that doesn't match the descriptor's kind.
type KindMismatchError struct {
	Bin          pkgmgr.Bin
	WantKind     pkgmgr.Kind
	InvokedAsKind pkgmgr.Kind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("%s was invoked, but the project's package manager is %s", e.InvokedAsKind, e.WantKind)
}

// Decision is the outcome of deciding how to run a shim invocation.
type Decision struct {
	// UseCache is true when the resolved cache entry's binary should run;
	// false means fall through to whatever the bin resolves to on PATH.
	UseCache bool
	// Warning, when non-empty, should be printed to stderr before falling
	// through to PATH: set when onFail=warn downgrades what would
	// otherwise be a hard KindMismatchError.
	Warning string
}

// Decide determines whether bin (invoked with args) should run the
// project's declared package manager from the cache, or transparently
// fall through to PATH. descriptorKind is the kind a descriptor search
// found, if any. onFail is the descriptor's devEngines.packageManager.onFail
// policy (ignored when haveDescriptor is false); it governs what happens on
// a kind mismatch: "error" enforces strict, "warn" falls through with a
// printed warning, and "ignore" falls through silently, all regardless of
// strict. strict mirrors COREPACK_ENABLE_STRICT and only matters when
// onFail is "error" (or unset, which defaults to "error").
func Decide(bin pkgmgr.Bin, args []string, descriptorKind pkgmgr.Kind, haveDescriptor bool, onFail descriptor.OnFail, strict bool) (Decision, error) {
	if !haveDescriptor {
		// No project declaration at all: always fall through.
		return Decision{UseCache: false}, nil
	}

	if bin.Kind() == descriptorKind {
		return Decision{UseCache: true}, nil
	}

	// Kind mismatch: npm/npx/pnpx are always transparent, as are "init" and
	// (for yarn/pnpm) "dlx" regardless of strict mode or onFail.
	if bin.Transparent() || bin.IsTransparentArgs(args) {
		return Decision{UseCache: false}, nil
	}

	switch onFail {
	case descriptor.OnFailIgnore:
		return Decision{UseCache: false}, nil
	case descriptor.OnFailWarn:
		return Decision{
			UseCache: false,
			Warning: fmt.Sprintf("%s was invoked, but the project's package manager is %s; falling through to PATH (onFail=warn)", bin.Kind(), descriptorKind),
		}, nil
	}

	if strict {
		return Decision{}, &KindMismatchError{Bin: bin, WantKind: descriptorKind, InvokedAsKind: bin.Kind()}
	}

	return Decision{UseCache: false}, nil
}

// ExecPath finds the fallthrough binary on PATH for bin, explicitly
// excluding excludeDirs (moldau's own shim directories) so a mismatched
// invocation doesn't loop back into moldau. It reimplements exec.LookPath's
// search instead of calling it directly, since LookPath has no way to skip
// specific directories in $PATH.
func ExecPath(bin pkgmgr.Bin, excludeDirs ...string) (string, error) {
	name := bin.String()

	excluded := make(map[string]bool, len(excludeDirs))
	for _, d := range excludeDirs {
		if d == "" {
			continue
		}
		excluded[filepath.Clean(d)] = true
	}

	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" {
			continue
		}
		if excluded[filepath.Clean(dir)] {
			continue
		}

		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Mode()&0o111 == 0 {
			continue
		}
		return candidate, nil
	}

	return "", fmt.Errorf("dispatch: %s not found on PATH: %w", bin, exec.ErrNotFound)
}

// ExitCode maps an error from the moldau pipeline onto a process exit
// code, per the scheme in the external-interfaces section: 0 success, 1
// config/user error, 2 network error, 3 verification failure, 4
// filesystem error, and otherwise the child process's own exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}

	switch classify(err) {
	case classConfig:
		return 1
	case classNetwork:
		return 2
	case classVerification:
		return 3
	case classFilesystem:
		return 4
	default:
		return 1
	}
}

// RunChild execs bin with args, streaming the child's stdio directly and
// returning its own error (including *exec.ExitError on nonzero exit) so
// ExitCode can map it.
func RunChild(path string, args []string) error {
	cmd := exec.Command(path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
