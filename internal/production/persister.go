// Package production provides production integrations: persistence, a
// versioned snapshot registry, event publishing and visualization.
package production

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/comalice/sheetx/internal/core"
)

// JSONPersister is a file-based persister using JSON serialization,
// one file per machine instance.
type JSONPersister struct {
	dir string
}

// NewJSONPersister creates a JSONPersister, ensuring the directory exists.
func NewJSONPersister(dir string) (*JSONPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &JSONPersister{dir: dir}, nil
}

func (p *JSONPersister) Save(ctx context.Context, snapshot core.MachineSnapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	return writeSnapshot(p.dir, snapshot.MachineID, ".json", data)
}

func (p *JSONPersister) Load(ctx context.Context, machineID string) (core.MachineSnapshot, error) {
	data, err := readSnapshot(p.dir, machineID, ".json")
	if err != nil {
		return core.MachineSnapshot{}, err
	}
	var snapshot core.MachineSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return core.MachineSnapshot{}, fmt.Errorf("json unmarshal: %w", err)
	}
	return checkLoaded(snapshot, machineID)
}

// YAMLPersister is a file-based persister using YAML serialization for MachineSnapshot.
type YAMLPersister struct {
	dir string
}

// NewYAMLPersister creates a YAMLPersister, ensuring the directory exists.
func NewYAMLPersister(dir string) (*YAMLPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &YAMLPersister{dir: dir}, nil
}

func (p *YAMLPersister) Save(ctx context.Context, snapshot core.MachineSnapshot) error {
	data, err := yaml.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}
	return writeSnapshot(p.dir, snapshot.MachineID, ".yaml", data)
}

func (p *YAMLPersister) Load(ctx context.Context, machineID string) (core.MachineSnapshot, error) {
	data, err := readSnapshot(p.dir, machineID, ".yaml")
	if err != nil {
		return core.MachineSnapshot{}, err
	}
	var snapshot core.MachineSnapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return core.MachineSnapshot{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	return checkLoaded(snapshot, machineID)
}

func snapshotPath(dir, machineID, ext string) (string, error) {
	if machineID == "" || strings.ContainsAny(machineID, `/\`) || machineID == "." || machineID == ".." {
		return "", fmt.Errorf("invalid machine ID %q", machineID)
	}
	return filepath.Join(dir, machineID+ext), nil
}

// writeSnapshot replaces the snapshot file atomically so a reader never sees
// a partial write.
func writeSnapshot(dir, machineID, ext string, data []byte) error {
	fn, err := snapshotPath(dir, machineID, ext)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, machineID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), fn); err != nil {
		return fmt.Errorf("rename to %s: %w", fn, err)
	}
	return nil
}

func readSnapshot(dir, machineID, ext string) ([]byte, error) {
	fn, err := snapshotPath(dir, machineID, ext)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("machine %q: %w", machineID, core.ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", fn, err)
	}
	return data, nil
}

func checkLoaded(snapshot core.MachineSnapshot, machineID string) (core.MachineSnapshot, error) {
	snapshot.MachineID = machineID // Ensure ID
	if snapshot.Current == "" || snapshot.ChartID == "" {
		return core.MachineSnapshot{}, fmt.Errorf("machine %q: %w", machineID, core.ErrInvalidState)
	}
	return snapshot, nil
}
