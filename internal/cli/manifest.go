package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// manifest is the small sidecar written next to every .nx archive produced
// by this CLI. The wire format itself carries no redundant top-level file or
// block count (internal/archive.BuildResult is the only place those two
// integers exist once Build returns), so a cold `nx unpack`/`nx list` needs
// them from somewhere other than the archive bytes — the same role the
// teacher's own .imageset file plays next to its .edds atlas.
type manifest struct {
	FileCount  int `yaml:"file_count"`
	BlockCount int `yaml:"block_count"`
}

// manifestPath derives the sidecar path for an archive path: out.nx ->
// out.nx.manifest.yaml.
func manifestPath(archivePath string) string {
	return archivePath + ".manifest.yaml"
}

func writeManifest(archivePath string, m manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath(archivePath), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func readManifest(archivePath string) (manifest, error) {
	var m manifest
	data, err := os.ReadFile(manifestPath(archivePath))
	if err != nil {
		return m, fmt.Errorf("read manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parse manifest: %w", err)
	}
	return m, nil
}
