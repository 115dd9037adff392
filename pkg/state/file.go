package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists the project state as a JSON document on disk. Writes go
// through a temporary file followed by a rename so a crash never leaves a
// torn state record.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a file-backed store at path, creating the parent
// directory when needed.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("state file path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating state directory: %w", err)
		}
	}
	return &FileStore{path: path}, nil
}

// Load reads the state file. A missing file yields Initial().
func (f *FileStore) Load() (ProjectState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Initial(), nil
	}
	if err != nil {
		return ProjectState{}, fmt.Errorf("reading state file: %w", err)
	}

	var s ProjectState
	if err := json.Unmarshal(data, &s); err != nil {
		return ProjectState{}, fmt.Errorf("decoding state file %s: %w", f.path, err)
	}
	if !s.Stage.Valid() {
		return ProjectState{}, fmt.Errorf("state file %s carries invalid stage %q", f.path, s.Stage)
	}
	return s, nil
}

// Save writes the state atomically via temp file and rename.
func (f *FileStore) Save(s ProjectState) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".state-*.json")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp state file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}
