// Package descriptor locates and parses the package manager declaration in
// a project's package.json: the `packageManager` field and its
// `devEngines.packageManager` fallback.
package descriptor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ryanccn-fork/moldau/internal/pkgmgr"
)

// OnFail is the devEngines.packageManager.onFail policy.
type OnFail string

const (
	OnFailError OnFail = "error"
	OnFailWarn  OnFail = "warn"
	OnFailIgnore OnFail = "ignore"
)

// Descriptor is the resolved package manager declaration for a project.
type Descriptor struct {
	Kind    pkgmgr.Kind
	Version pkgmgr.VersionSpec
	OnFail  OnFail
	// Dir is the directory the descriptor was read from.
	Dir string
}

type packageJSON struct {
	PackageManager *string          `json:"packageManager"`
	DevEngines     *devEngines      `json:"devEngines"`
}

type devEngines struct {
	PackageManager *devEnginesPM `json:"packageManager"`
}

type devEnginesPM struct {
	Name    string  `json:"name"`
	Version *string `json:"version"`
	OnFail  *string `json:"onFail"`
}

// KindMismatchError is returned when packageManager and
// devEngines.packageManager name different package managers.
type KindMismatchError struct {
	PackageManagerKind string
	DevEnginesKind     string
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("package.json declares conflicting package managers: packageManager=%s devEngines.packageManager=%s",
		e.PackageManagerKind, e.DevEnginesKind)
}

// Find walks upward from dir looking for a package.json that declares a
// package manager, returning the first one found (or nil, nil if none
// does). When strict is true, a name mismatch between packageManager and
// devEngines.packageManager is a KindMismatchError; otherwise it is
// resolved in favor of packageManager, with the caller expected to log a
// warning.
func Find(dir string, strict bool) (*Descriptor, error) {
	for {
		d, err := parseOne(dir, strict)
		if err != nil {
			return nil, err
		}
		if d != nil {
			return d, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

func parseOne(dir string, strict bool) (*Descriptor, error) {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var pj packageJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return nil, fmt.Errorf("descriptor: malformed package.json in %s: %w", dir, err)
	}

	var pmKind pkgmgr.Kind
	var pmVersion pkgmgr.VersionSpec
	var havePM bool
	if pj.PackageManager != nil {
		k, v, err := parseSpecString(*pj.PackageManager)
		if err != nil {
			return nil, fmt.Errorf("descriptor: invalid packageManager in %s: %w", dir, err)
		}
		pmKind, pmVersion, havePM = k, v, true
	}

	var deKind pkgmgr.Kind
	var deVersion pkgmgr.VersionSpec
	var onFail OnFail = OnFailError
	var haveDE bool
	if pj.DevEngines != nil && pj.DevEngines.PackageManager != nil {
		dep := pj.DevEngines.PackageManager
		k, err := pkgmgr.ParseKind(dep.Name)
		if err != nil {
			return nil, fmt.Errorf("descriptor: invalid devEngines.packageManager.name in %s: %w", dir, err)
		}
		v := pkgmgr.DefaultVersionSpec()
		if dep.Version != nil {
			v, err = pkgmgr.ParseVersionSpec(*dep.Version)
			if err != nil {
				return nil, fmt.Errorf("descriptor: invalid devEngines.packageManager.version in %s: %w", dir, err)
			}
		}
		deKind, deVersion, haveDE = k, v, true
		if dep.OnFail != nil {
			onFail = OnFail(*dep.OnFail)
		}
	}

	switch {
	case havePM && haveDE:
		if pmKind != deKind {
			if strict {
				return nil, &KindMismatchError{PackageManagerKind: pmKind.String(), DevEnginesKind: deKind.String()}
			}
			// Non-strict: packageManager wins; caller may log a warning.
		}
		return &Descriptor{Kind: pmKind, Version: pmVersion, OnFail: onFail, Dir: dir}, nil
	case havePM:
		return &Descriptor{Kind: pmKind, Version: pmVersion, OnFail: OnFailError, Dir: dir}, nil
	case haveDE:
		return &Descriptor{Kind: deKind, Version: deVersion, OnFail: onFail, Dir: dir}, nil
	default:
		return nil, nil
	}
}

// parseSpecString parses the top-level `packageManager` field, which spec
// §4.D requires to be a strict semver version (no ranges), unlike
// `devEngines.packageManager.version` which may be a range.
func parseSpecString(s string) (pkgmgr.Kind, pkgmgr.VersionSpec, error) {
	name, rest := splitAt(s)
	k, err := pkgmgr.ParseKind(name)
	if err != nil {
		return 0, pkgmgr.VersionSpec{}, err
	}
	if rest == "" {
		return 0, pkgmgr.VersionSpec{}, fmt.Errorf("descriptor: packageManager %q is missing a version", s)
	}
	v, err := pkgmgr.ParseVersionSpec(rest)
	if err != nil {
		return 0, pkgmgr.VersionSpec{}, err
	}
	if !v.IsExact() {
		return 0, pkgmgr.VersionSpec{}, fmt.Errorf("descriptor: packageManager %q must be an exact semver version, not a range or dist-tag", s)
	}
	return k, v, nil
}

func splitAt(s string) (name, rest string) {
	for i := 0; i < len(s); i++ {
		if s[i] == '@' && i > 0 {
			return s[:i], s[i+1:]
		}
	}
	return s, ""
}
