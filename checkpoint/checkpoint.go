package checkpoint

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/kbukum/flowbatch/perrors"
	"github.com/kbukum/flowbatch/pipelinecore"
)

const partFileName = "part-00000.bin"

// Write serializes elements to dir, creating it if necessary, as a single
// part file plus manifest. elementTypeTag is a human-readable record of
// the checkpointed handle's static type (typically a reflect.Type's
// String()), carried for diagnostics only — recovery trusts the caller's
// T, not this tag.
func Write(dir, elementTypeTag string, elements []any) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return perrors.IoError("checkpoint", dir, err)
	}
	partBytes, err := encodePart(elements)
	if err != nil {
		return perrors.IoError("checkpoint", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, partFileName), partBytes, 0o644); err != nil {
		return perrors.IoError("checkpoint", dir, err)
	}
	sum := sha256.Sum256(partBytes)
	manifest := Manifest{
		Version:        manifestVersion,
		ElementTypeTag: elementTypeTag,
		PartitionCount: 1,
		TotalElements:  int64(len(elements)),
		SHA256:         fmt.Sprintf("%x", sum),
	}
	return writeManifest(dir, manifest)
}

// partFiles returns every part-*.bin file in dir in lexicographic order,
// per §6's "opens parts in lexicographic order" recovery rule.
func partFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, perrors.IoError("checkpoint", dir, err)
	}
	var names []string
	for _, e := range entries {
		if isPart, _ := filepath.Match("part-*.bin", e.Name()); !e.IsDir() && isPart {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Read recovers every element of a checkpoint directory as T, validating
// the manifest's digest before trusting any part file's contents.
func Read[T any](dir string) ([]T, error) {
	manifest, err := readManifest(dir)
	if err != nil {
		return nil, err
	}
	names, err := partFiles(dir)
	if err != nil {
		return nil, err
	}
	var all bytes.Buffer
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, perrors.IoError("checkpoint", path, err)
		}
		all.Write(data)
	}
	sum := sha256.Sum256(all.Bytes())
	if fmt.Sprintf("%x", sum) != manifest.SHA256 {
		return nil, perrors.CheckpointCorrupt(dir, fmt.Errorf("sha256 mismatch"))
	}

	out := make([]T, 0, manifest.TotalElements)
	err = decodePart(all.Bytes(), func(payload []byte) error {
		var v T
		if decErr := gob.NewDecoder(bytes.NewReader(payload)).Decode(&v); decErr != nil {
			return decErr
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, perrors.CheckpointCorrupt(dir, err)
	}
	if int64(len(out)) != manifest.TotalElements {
		return nil, perrors.CheckpointCorrupt(dir, fmt.Errorf("manifest declares %d elements, decoded %d", manifest.TotalElements, len(out)))
	}
	return out, nil
}

// RecoverSource adapts Read[T] into a pipelinecore.Source producer, so
// recover_checkpoint(path) is expressed as an ordinary Source call:
//
//	h, err := pipelinecore.Source[T](p, "recover", checkpoint.RecoverSource[T](path))
func RecoverSource[T any](dir string) func(ctx context.Context) (pipelinecore.Iterator, error) {
	return func(_ context.Context) (pipelinecore.Iterator, error) {
		items, err := Read[T](dir)
		if err != nil {
			return nil, err
		}
		return pipelinecore.NewSliceIterator(items), nil
	}
}
