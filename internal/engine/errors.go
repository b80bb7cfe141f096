package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/danieljhkim/profswap/internal/pathutil"
	"github.com/danieljhkim/profswap/internal/snapshots"
	"github.com/danieljhkim/profswap/internal/state"
)

var (
	// ErrPath indicates an input path that cannot be resolved.
	ErrPath = pathutil.ErrPath

	// ErrFileNotFound indicates a path that is missing or not a regular file.
	ErrFileNotFound = errors.New("file not found")

	// ErrFileNotManaged indicates a path that is not under management.
	ErrFileNotManaged = state.ErrFileNotManaged

	// ErrProfileNotFound indicates an unknown profile.
	ErrProfileNotFound = state.ErrProfileNotFound

	// ErrNotInProfile indicates a managed file with no variant for the profile.
	ErrNotInProfile = state.ErrNotInProfile

	// ErrInvalidProfile indicates a profile name that cannot be used.
	ErrInvalidProfile = state.ErrInvalidProfile

	// ErrCopy indicates a failure capturing a snapshot.
	ErrCopy = snapshots.ErrCopy

	// ErrInstall indicates a failure installing a snapshot to a live path.
	ErrInstall = snapshots.ErrInstall

	// ErrDelete indicates a failure deleting a snapshot.
	ErrDelete = snapshots.ErrDelete

	// ErrSnapshotCorrupt indicates a snapshot that is missing or altered.
	ErrSnapshotCorrupt = snapshots.ErrSnapshotCorrupt

	// ErrStoreCorrupt indicates unreadable persisted state.
	ErrStoreCorrupt = state.ErrStoreCorrupt

	// ErrStoreWriteError indicates persisted state could not be written.
	ErrStoreWriteError = state.ErrStoreWriteError

	// ErrPrecondition indicates the active profiles could not be re-applied
	// before a mutating operation.
	ErrPrecondition = errors.New("active profiles could not be re-applied")
)

// FileFailure records one file that a multi-file operation could not process.
type FileFailure struct {
	// Path is the live path that failed
	Path string `json:"path"`

	// Profile is the profile whose content was being installed ("" for the original)
	Profile string `json:"profile,omitempty"`

	// Err is the cause
	Err error `json:"-"`
}

// Error implements error.
func (f FileFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.Path, f.Err)
}

// Unwrap returns the cause.
func (f FileFailure) Unwrap() error {
	return f.Err
}

// MarshalJSON renders the cause as a message.
func (f FileFailure) MarshalJSON() ([]byte, error) {
	type alias FileFailure
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct {
		alias
		Error string `json:"error"`
	}{alias(f), msg})
}

// PartialError reports a multi-file operation that completed for some files
// but not others. The registry is still saved when an operation returns it.
type PartialError struct {
	// Op names the operation ("activate", "deactivate", ...)
	Op string

	// Target is the profile the operation was applied to, if any
	Target string

	// Total is the number of files the operation attempted
	Total int

	// Failures lists the files that failed, in processing order
	Failures []FileFailure
}

// Error implements error.
func (e *PartialError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Target != "" {
		fmt.Fprintf(&b, " %q", e.Target)
	}
	fmt.Fprintf(&b, ": %d of %d file(s) failed", len(e.Failures), e.Total)
	for _, f := range e.Failures {
		b.WriteString("\n  ")
		b.WriteString(f.Error())
	}
	return b.String()
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *PartialError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// FailedPaths returns the paths that failed, in processing order.
func (e *PartialError) FailedPaths() []string {
	paths := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		paths[i] = f.Path
	}
	return paths
}
