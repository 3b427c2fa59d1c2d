package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/nikbrunner/spotlight/internal/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// SnapshotStore persists the collection enrichment snapshot.
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context) (*model.SpaceSnapshot, error)
	SaveSnapshot(ctx context.Context, snap *model.SpaceSnapshot) error
	DeleteSnapshot(ctx context.Context) error
}

// JSONSnapshotStore implements SnapshotStore using a JSON file.
type JSONSnapshotStore struct {
	path string
}

// NewJSONSnapshotStore creates a new JSONSnapshotStore with the given file path.
func NewJSONSnapshotStore(path string) *JSONSnapshotStore {
	return &JSONSnapshotStore{path: path}
}

// Path returns the snapshot file path.
func (s *JSONSnapshotStore) Path() string {
	return s.path
}

// LoadSnapshot reads the snapshot from the JSON file.
// Returns nil and no error if the file doesn't exist.
func (s *JSONSnapshotStore) LoadSnapshot(_ context.Context) (*model.SpaceSnapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var snap model.SpaceSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}

	// Ensure map is not nil
	if snap.URLMap == nil {
		snap.URLMap = map[string]model.SpaceMeta{}
	}

	return &snap, nil
}

// SaveSnapshot writes the snapshot to the JSON file.
// Creates the directory if it doesn't exist.
func (s *JSONSnapshotStore) SaveSnapshot(_ context.Context, snap *model.SpaceSnapshot) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	// replace atomically
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// DeleteSnapshot removes the snapshot file. Missing files are not an error.
func (s *JSONSnapshotStore) DeleteSnapshot(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
