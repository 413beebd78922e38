package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// binManifestName is a small moldau-authored sidecar recording the `bin`
// map from the registry version document, so a later `moldau which`/exec
// doesn't need a registry round-trip to find the binary inside an
// already-cached install.
const binManifestName = ".moldau-bin.json"

func writeBinManifest(dir string, bin map[string]string) error {
	data, err := json.Marshal(bin)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, binManifestName), data, 0o644)
}

func readBinManifest(dir string) (map[string]string, error) {
	data, err := os.ReadFile(filepath.Join(dir, binManifestName))
	if err != nil {
		return nil, err
	}
	var bin map[string]string
	if err := json.Unmarshal(data, &bin); err != nil {
		return nil, err
	}
	return bin, nil
}
