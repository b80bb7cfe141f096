package state

import (
	"errors"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/danieljhkim/profswap/internal/fsops"
)

var (
	// ErrStoreCorrupt indicates persisted state that exists but cannot be used.
	ErrStoreCorrupt = errors.New("state file corrupt")

	// ErrStoreWriteError indicates the registry could not be persisted.
	ErrStoreWriteError = errors.New("state file write failed")
)

// StateStore provides an interface for persisting the registry.
type StateStore interface {
	// Load reads the registry. A missing state file yields an empty registry.
	Load() (*Registry, error)

	// Save writes the registry atomically; on failure the previous copy is intact.
	Save(reg *Registry) error

	// Location describes where the registry lives.
	Location() string
}

// FileStateStore implements StateStore using a TOML file on disk.
type FileStateStore struct {
	fs   fsops.FS
	path string
}

// NewFileStateStore creates a new FileStateStore.
func NewFileStateStore(fs fsops.FS, path string) *FileStateStore {
	return &FileStateStore{
		fs:   fs,
		path: path,
	}
}

// Location returns the state file path.
func (s *FileStateStore) Location() string {
	return s.path
}

// Load reads and validates the registry.
func (s *FileStateStore) Load() (*Registry, error) {
	info, err := s.fs.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewRegistry(), nil
		}
		return nil, fmt.Errorf("failed to stat state file %s: %w", s.path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrStoreCorrupt, s.path)
	}

	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read state file %s: %w", s.path, err)
	}

	reg := NewRegistry()
	if err := toml.Unmarshal(data, reg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreCorrupt, s.path, err)
	}
	reg.normalize()

	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreCorrupt, s.path, err)
	}

	return reg, nil
}

// Save writes the registry atomically.
func (s *FileStateStore) Save(reg *Registry) error {
	if err := reg.Validate(); err != nil {
		return fmt.Errorf("%w: refusing to save invalid registry: %v", ErrStoreWriteError, err)
	}

	data, err := toml.Marshal(reg)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal registry: %v", ErrStoreWriteError, err)
	}

	if err := s.fs.AtomicWrite(s.path, data, 0644); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrStoreWriteError, s.path, err)
	}

	return nil
}
