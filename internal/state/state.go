package state

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/gridsim/gridbot/internal/engine"
)

// FileWriter persists the engine snapshot as a JSON file after every cycle.
// The file is the integration point for dashboards and shell tooling, so
// writes are atomic: readers never see a half-written document.
type FileWriter struct {
	path string
}

// NewFileWriter creates a writer targeting path. The parent directory must
// exist.
func NewFileWriter(path string) *FileWriter {
	return &FileWriter{path: path}
}

// Write serializes the snapshot and renames it into place.
func (w *FileWriter) Write(snap engine.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(w.path), ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close state file: %w", err)
	}

	if err := os.Rename(tmpName, w.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// Read loads a previously written snapshot, used by the status command.
func Read(path string) (engine.Snapshot, error) {
	var snap engine.Snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return snap, fmt.Errorf("read state file: %w", err)
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("parse state file: %w", err)
	}
	return snap, nil
}
