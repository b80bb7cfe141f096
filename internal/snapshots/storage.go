// Package snapshots stores immutable copies of managed file content.
//
// Every snapshot is a blob named by a random UUID below the snapshots
// directory. Blobs are written once and never modified; a new capture always
// produces a new blob, so a variant still referenced by one profile can never
// be corrupted by work on another.
package snapshots

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/danieljhkim/profswap/internal/clock"
	"github.com/danieljhkim/profswap/internal/fsops"
	"github.com/danieljhkim/profswap/internal/hash"
	"github.com/danieljhkim/profswap/internal/logging"
	"github.com/danieljhkim/profswap/internal/state"
)

var (
	// ErrCopy indicates a failure capturing content into storage.
	ErrCopy = errors.New("snapshot copy failed")

	// ErrInstall indicates a failure copying a snapshot to a live path.
	ErrInstall = errors.New("snapshot install failed")

	// ErrDelete indicates a failure removing a snapshot.
	ErrDelete = errors.New("snapshot delete failed")

	// ErrSnapshotCorrupt indicates a missing blob or a checksum mismatch.
	ErrSnapshotCorrupt = errors.New("snapshot corrupt")
)

// Storage is the variant storage area.
type Storage interface {
	// Store captures the content of src as a new snapshot.
	Store(src string) (state.Snapshot, error)

	// Install copies a snapshot over dst.
	Install(snap state.Snapshot, dst string) error

	// Delete removes a snapshot. Deleting a missing snapshot succeeds.
	Delete(snap state.Snapshot) error

	// Verify checks that a snapshot exists and still matches its checksum.
	Verify(snap state.Snapshot) error

	// Path returns where a snapshot's content lives.
	Path(snap state.Snapshot) string
}

// FileStorage implements Storage as a flat directory of blobs.
type FileStorage struct {
	fs     fsops.FS
	hasher hash.Hasher
	clock  clock.Clock
	dir    string
	newRef func() string
	log    zerolog.Logger
}

// NewFileStorage creates a FileStorage rooted at dir.
func NewFileStorage(fs fsops.FS, hasher hash.Hasher, clk clock.Clock, dir string) *FileStorage {
	return &FileStorage{
		fs:     fs,
		hasher: hasher,
		clock:  clk,
		dir:    dir,
		newRef: func() string { return uuid.NewString() },
		log:    logging.GetLogger("snapshots"),
	}
}

// Path returns the blob path of snap.
func (s *FileStorage) Path(snap state.Snapshot) string {
	return filepath.Join(s.dir, snap.Ref)
}

// Store copies src into a fresh blob. A failed copy leaves no blob behind.
func (s *FileStorage) Store(src string) (state.Snapshot, error) {
	snap := state.Snapshot{
		Ref:        s.newRef(),
		CapturedAt: s.clock.Now(),
	}
	if err := s.fs.ValidateIdentifier(snap.Ref); err != nil {
		return state.Snapshot{}, fmt.Errorf("%w: generated bad snapshot name: %v", ErrCopy, err)
	}
	blob := s.Path(snap)

	if err := s.fs.CopyFile(src, blob); err != nil {
		_ = s.fs.Remove(blob)
		return state.Snapshot{}, fmt.Errorf("%w: %s: %v", ErrCopy, src, err)
	}

	sum, err := s.hasher.HashFile(blob)
	if err != nil {
		_ = s.fs.Remove(blob)
		return state.Snapshot{}, fmt.Errorf("%w: failed to checksum snapshot of %s: %v", ErrCopy, src, err)
	}
	snap.Checksum = sum

	s.log.Debug().Str("src", src).Str("ref", snap.Ref).Msg("Captured snapshot")
	return snap, nil
}

// Install replaces dst with the snapshot content.
func (s *FileStorage) Install(snap state.Snapshot, dst string) error {
	if snap.IsZero() {
		return fmt.Errorf("%w: %s: empty snapshot reference", ErrInstall, dst)
	}
	if err := s.fs.AtomicCopy(s.Path(snap), dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInstall, dst, err)
	}

	s.log.Debug().Str("dst", dst).Str("ref", snap.Ref).Msg("Installed snapshot")
	return nil
}

// Delete removes the snapshot blob.
func (s *FileStorage) Delete(snap state.Snapshot) error {
	if snap.IsZero() {
		return nil
	}
	if err := s.fs.Remove(s.Path(snap)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %s: %v", ErrDelete, snap.Ref, err)
	}

	s.log.Debug().Str("ref", snap.Ref).Msg("Deleted snapshot")
	return nil
}

// Verify checks the blob against its recorded checksum.
func (s *FileStorage) Verify(snap state.Snapshot) error {
	blob := s.Path(snap)
	exists, err := s.fs.Exists(blob)
	if err != nil {
		return fmt.Errorf("failed to check snapshot %s: %w", snap.Ref, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s is missing", ErrSnapshotCorrupt, snap.Ref)
	}

	ok, err := hash.Matches(s.hasher, blob, snap.Checksum)
	if err != nil {
		return fmt.Errorf("failed to checksum snapshot %s: %w", snap.Ref, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s checksum mismatch", ErrSnapshotCorrupt, snap.Ref)
	}
	return nil
}
