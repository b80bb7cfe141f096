// Package config manages profswap configuration and filesystem paths.
//
// The data root defaults to $XDG_DATA_HOME/profswap and can be moved with the
// PROFSWAP_ROOT environment variable or the --data-dir flag. It contains the
// registry file (profiles.toml) and the snapshots/ directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	// AppName names the XDG subdirectories.
	AppName = "profswap"

	// EnvRoot overrides the data root directory.
	EnvRoot = "PROFSWAP_ROOT"

	// EnvState overrides the registry file location.
	EnvState = "PROFSWAP_STATE"

	// StateFileName is the registry file inside the data root.
	StateFileName = "profiles.toml"

	// SnapshotsDirName is the snapshot storage directory inside the data root.
	SnapshotsDirName = "snapshots"
)

// Paths contains all the filesystem paths used by profswap.
type Paths struct {
	// Root is the base directory for all profswap data
	Root string

	// Snapshots is the directory holding original and variant snapshots
	Snapshots string

	// State is the path of the persisted registry
	State string
}

// DefaultPaths returns the default paths for profswap.
// Paths can be overridden with environment variables:
// - PROFSWAP_ROOT: Override the root directory
// - PROFSWAP_STATE: Override the registry file
func DefaultPaths() (*Paths, error) {
	root := os.Getenv(EnvRoot)
	if root == "" {
		if xdg.DataHome == "" {
			return nil, fmt.Errorf("failed to determine XDG data directory")
		}
		root = filepath.Join(xdg.DataHome, AppName)
	}

	p, err := NewPaths(root)
	if err != nil {
		return nil, err
	}

	if state := os.Getenv(EnvState); state != "" {
		if err := p.SetState(state); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// NewPaths lays out the standard paths below root.
func NewPaths(root string) (*Paths, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data root %q: %w", root, err)
	}

	return &Paths{
		Root:      absRoot,
		Snapshots: filepath.Join(absRoot, SnapshotsDirName),
		State:     filepath.Join(absRoot, StateFileName),
	}, nil
}

// SetState points the registry at an explicit file.
func (p *Paths) SetState(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve state file %q: %w", path, err)
	}
	p.State = abs
	return nil
}

// EnsureDirectories creates all necessary directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.Root,
		p.Snapshots,
		filepath.Dir(p.State),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// LogFile returns the path of the persistent log file.
func LogFile() string {
	return filepath.Join(xdg.StateHome, AppName, AppName+".log")
}
