// Package engine provides the core business logic for profswap operations.
//
// The engine is the state machine that keeps every managed file's live content
// consistent with the set of active profiles: the live file holds the variant
// of the most recently activated active profile that manages it, or the
// original snapshot when no managing profile is active.
//
// Key components:
//   - Engine: Main orchestrator, called by the CLI
//   - Txn: one invocation's registry plus the snapshots it created or released
//   - Update/View: load the registry, run one operation, persist on success
//   - Operations: AddFile, AddToProfile, RemoveFromProfile, RemoveFile,
//     Activate, Deactivate, DeactivateAll, ActivateAll, Status, Verify
package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/profswap/internal/clock"
	"github.com/danieljhkim/profswap/internal/fsops"
	"github.com/danieljhkim/profswap/internal/hash"
	"github.com/danieljhkim/profswap/internal/logging"
	"github.com/danieljhkim/profswap/internal/snapshots"
	"github.com/danieljhkim/profswap/internal/state"
)

// Engine orchestrates all profswap operations.
// It is the main API surface called by the CLI.
type Engine struct {
	stateStore state.StateStore
	storage    snapshots.Storage
	fs         fsops.FS
	hasher     hash.Hasher
	clock      clock.Clock
	log        zerolog.Logger
}

// New creates a new Engine with the given dependencies.
func New(
	stateStore state.StateStore,
	storage snapshots.Storage,
	fs fsops.FS,
	hasher hash.Hasher,
	clk clock.Clock,
) *Engine {
	return &Engine{
		stateStore: stateStore,
		storage:    storage,
		fs:         fs,
		hasher:     hasher,
		clock:      clk,
		log:        logging.GetLogger("engine"),
	}
}

// Txn carries the registry of one invocation through an operation.
// Snapshots captured during the operation are remembered so they can be
// removed if the operation fails; snapshots the registry stops referencing
// are removed only after the registry has been saved.
type Txn struct {
	Registry *state.Registry

	created  []state.Snapshot
	released []state.Snapshot
}

// NewTxn wraps reg in a transaction.
func NewTxn(reg *state.Registry) *Txn {
	return &Txn{Registry: reg}
}

func (t *Txn) track(snap state.Snapshot) {
	t.created = append(t.created, snap)
}

func (t *Txn) release(snaps ...state.Snapshot) {
	t.released = append(t.released, snaps...)
}

// Released returns the snapshots scheduled for deletion.
func (t *Txn) Released() []state.Snapshot {
	return t.released
}

// Update loads the registry, runs fn, and persists the result.
//
// The registry is saved when fn succeeds or fails with a *PartialError.
// Any other error discards the in-memory changes and removes the snapshots
// fn captured. Snapshots released by fn are deleted after the save.
func (e *Engine) Update(ctx context.Context, fn func(txn *Txn) error) error {
	reg, err := e.stateStore.Load()
	if err != nil {
		return err
	}

	txn := NewTxn(reg)
	opErr := fn(txn)

	var partial *PartialError
	if opErr != nil && !errors.As(opErr, &partial) {
		e.discard(txn)
		return opErr
	}

	if err := e.stateStore.Save(reg); err != nil {
		e.discard(txn)
		return errors.Join(opErr, err)
	}

	if err := e.purge(txn); err != nil {
		return errors.Join(opErr, err)
	}

	return opErr
}

// View loads the registry and runs fn without saving.
func (e *Engine) View(ctx context.Context, fn func(reg *state.Registry) error) error {
	reg, err := e.stateStore.Load()
	if err != nil {
		return err
	}
	return fn(reg)
}

// discard removes snapshots captured by a transaction that will not be saved.
func (e *Engine) discard(txn *Txn) {
	for _, snap := range txn.created {
		if err := e.storage.Delete(snap); err != nil {
			e.log.Warn().Err(err).Str("ref", snap.Ref).Msg("Failed to remove unreferenced snapshot")
		}
	}
	txn.created = nil
}

// purge deletes snapshots the saved registry no longer references.
// Failures leave orphaned blobs, never dangling references.
func (e *Engine) purge(txn *Txn) error {
	var errs []error
	for _, snap := range txn.released {
		if err := e.storage.Delete(snap); err != nil {
			e.log.Warn().Err(err).Str("ref", snap.Ref).Msg("Failed to delete released snapshot")
			errs = append(errs, err)
		}
	}
	txn.released = nil
	return errors.Join(errs...)
}

// requireAbs rejects paths that were not resolved by the caller.
func requireAbs(path string) error {
	if path == "" || !filepath.IsAbs(path) || filepath.Clean(path) != path {
		return fmt.Errorf("%w: %q is not an absolute canonical path", ErrPath, path)
	}
	return nil
}

// install copies snap over path, logging which source it came from.
func (e *Engine) install(path, source string, snap state.Snapshot) error {
	if err := e.storage.Install(snap, path); err != nil {
		return err
	}
	e.log.Debug().Str("path", path).Str("source", sourceLabel(source)).Msg("Installed")
	return nil
}

// reconcile installs the desired snapshot at every path, best effort.
func (e *Engine) reconcile(ctx context.Context, reg *state.Registry, op, target string, paths []string) ([]string, error) {
	var installed []string
	var failures []FileFailure

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			for _, rest := range paths[i:] {
				failures = append(failures, FileFailure{Path: rest, Err: err})
			}
			break
		}

		source, snap, err := reg.Desired(path)
		if err != nil {
			failures = append(failures, FileFailure{Path: path, Err: err})
			continue
		}
		if err := e.install(path, source, snap); err != nil {
			e.log.Warn().Err(err).Str("path", path).Str("op", op).Msg("Install failed")
			failures = append(failures, FileFailure{Path: path, Profile: source, Err: err})
			continue
		}
		installed = append(installed, path)
	}

	if len(failures) > 0 {
		return installed, &PartialError{Op: op, Target: target, Total: len(paths), Failures: failures}
	}
	return installed, nil
}

func sourceLabel(profile string) string {
	if profile == "" {
		return OriginalSource
	}
	return profile
}
