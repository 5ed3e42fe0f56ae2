package presets

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Venkmine/Proxx-sub001/internal/domain"
)

// Catalog is the persisted preset state: the full list plus the selection.
type Catalog struct {
	Presets    []domain.Preset `json:"presets"`
	SelectedID string          `json:"selectedId"`
}

// Persister abstracts catalog persistence so the store can be tested
// without touching the filesystem.
type Persister interface {
	Load() (Catalog, error)
	Save(Catalog) error
}

// FileStore persists the preset catalog as a single JSON document.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed catalog store at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the catalog from disk. A missing file yields an empty
// catalog, not an error, so first launch needs no setup step.
func (s *FileStore) Load() (Catalog, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Catalog{}, nil
		}
		return Catalog{}, fmt.Errorf("read presets file %s: %w", s.path, err)
	}

	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("parse presets file %s: %w", s.path, err)
	}
	return catalog, nil
}

// Save writes the catalog to disk, creating parent directories as needed.
func (s *FileStore) Save(catalog Catalog) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create presets directory: %w", err)
	}

	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return fmt.Errorf("encode presets: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write presets file %s: %w", s.path, err)
	}
	return nil
}
