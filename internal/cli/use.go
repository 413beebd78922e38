package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ryanccn-fork/moldau/internal/pkgmgr"
)

func newUseCommand() *cobra.Command {
	var prefetch bool

	cmd := &cobra.Command{
		Use:   "use <spec>",
		Short: "Pin a package manager in package.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := parseSpecOverride(args[0])
			if err != nil {
				return err
			}

			cwd, err := osGetwd()
			if err != nil {
				return err
			}
			pkgJSONPath := filepath.Join(cwd, "package.json")

			if prefetch {
				rt, err := newRuntime()
				if err != nil {
					return err
				}
				if _, _, err := resolveAndInstall(cmd.Context(), rt, desc.Kind, desc.Version); err != nil {
					return err
				}
			}

			return writePackageManagerField(pkgJSONPath, desc.Kind, desc.Version)
		},
	}

	cmd.Flags().BoolVar(&prefetch, "prefetch", false, "also download and cache the pinned version")
	return cmd
}

// writePackageManagerField rewrites package.json's packageManager field
// (or, if present, devEngines.packageManager.version) in place. Other keys
// keep their values, but the whole document is re-serialized: object keys
// are written in sorted order with two-space indentation.
func writePackageManagerField(path string, kind pkgmgr.Kind, version pkgmgr.VersionSpec) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading package.json: %w", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing package.json: %w", err)
	}

	spec := fmt.Sprintf("%s@%s", kind, version.StrippedString())

	if raw, ok := doc["devEngines"]; ok {
		var de map[string]json.RawMessage
		if err := json.Unmarshal(raw, &de); err == nil {
			if pmRaw, ok := de["packageManager"]; ok {
				var pm map[string]json.RawMessage
				if err := json.Unmarshal(pmRaw, &pm); err == nil {
					nameJSON, _ := json.Marshal(kind.String())
					versionJSON, _ := json.Marshal(version.StrippedString())
					pm["name"] = nameJSON
					pm["version"] = versionJSON
					pmJSON, _ := json.Marshal(pm)
					de["packageManager"] = pmJSON
					deJSON, _ := json.Marshal(de)
					doc["devEngines"] = deJSON
					return writeJSONDoc(path, doc)
				}
			}
		}
	}

	specJSON, err := json.Marshal(spec)
	if err != nil {
		return err
	}
	doc["packageManager"] = specJSON
	return writeJSONDoc(path, doc)
}

func writeJSONDoc(path string, doc map[string]json.RawMessage) error {
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')
	return os.WriteFile(path, out, 0o644)
}
