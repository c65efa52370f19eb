package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kbukum/flowbatch/perrors"
)

const manifestVersion = 1

const manifestFileName = "manifest.json"

// Manifest is the checkpoint directory's self-describing header, per §6.
type Manifest struct {
	Version        int    `json:"version"`
	ElementTypeTag string `json:"element_type_tag"`
	PartitionCount int    `json:"partition_count"`
	TotalElements  int64  `json:"total_elements"`
	SHA256         string `json:"sha256"`
}

func writeManifest(dir string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return perrors.IoError("checkpoint", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFileName), data, 0o644); err != nil {
		return perrors.IoError("checkpoint", dir, err)
	}
	return nil
}

func readManifest(dir string) (Manifest, error) {
	path := filepath.Join(dir, manifestFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, perrors.IoError("checkpoint", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, perrors.CheckpointCorrupt(path, err)
	}
	if m.Version != manifestVersion {
		return Manifest{}, perrors.CheckpointCorrupt(path, fmt.Errorf("unsupported manifest version %d", m.Version))
	}
	return m, nil
}
