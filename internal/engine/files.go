package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/danieljhkim/profswap/internal/state"
)

// AddFile starts managing a file, capturing its current content as the
// original snapshot. Adding a managed file is a no-op.
func (e *Engine) AddFile(ctx context.Context, txn *Txn, req *AddFileRequest) (*AddFileResult, error) {
	if err := requireAbs(req.Path); err != nil {
		return nil, err
	}

	reg := txn.Registry
	if reg.IsManaged(req.Path) {
		e.log.Debug().Str("path", req.Path).Msg("Already managed")
		return &AddFileResult{Path: req.Path, Added: false}, nil
	}

	if err := e.requireRegularFile(req.Path); err != nil {
		return nil, err
	}

	original, err := e.storage.Store(req.Path)
	if err != nil {
		return nil, err
	}
	txn.track(original)

	if _, err := reg.AddFile(req.Path, original, e.clock.Now()); err != nil {
		return nil, err
	}

	e.log.Info().Str("path", req.Path).Msg("Managing file")
	return &AddFileResult{Path: req.Path, Added: true}, nil
}

// AddToProfile captures the current content of a managed file as the
// variant for a profile, replacing any earlier variant for that pair.
//
// The active profiles are re-applied first so the captured content comes
// from a known state.
func (e *Engine) AddToProfile(ctx context.Context, txn *Txn, req *AddToProfileRequest) (*AddToProfileResult, error) {
	if err := requireAbs(req.Path); err != nil {
		return nil, err
	}
	if err := state.ValidateProfileName(req.Profile); err != nil {
		return nil, err
	}

	reg := txn.Registry
	result := &AddToProfileResult{Path: req.Path, Profile: req.Profile}

	if !reg.IsManaged(req.Path) {
		if !req.AutoAdd {
			return nil, fmt.Errorf("%w: %s", ErrFileNotManaged, req.Path)
		}
		if _, err := e.AddFile(ctx, txn, &AddFileRequest{Path: req.Path}); err != nil {
			return nil, err
		}
		result.FileAdded = true
	}

	reapplied, err := e.establishDefinedState(ctx, txn)
	if err != nil {
		return nil, err
	}
	result.Reapplied = reapplied

	if err := e.requireRegularFile(req.Path); err != nil {
		return nil, err
	}

	_, created, err := reg.EnsureProfile(req.Profile)
	if err != nil {
		return nil, err
	}
	result.ProfileCreated = created

	variant, err := e.storage.Store(req.Path)
	if err != nil {
		return nil, err
	}
	txn.track(variant)

	displaced, err := reg.SetVariant(req.Path, req.Profile, variant)
	if err != nil {
		return nil, err
	}
	if displaced != nil {
		txn.release(*displaced)
		result.Replaced = true
	}

	e.log.Info().Str("path", req.Path).Str("profile", req.Profile).Bool("replaced", result.Replaced).Msg("Captured variant")
	return result, nil
}

// RemoveFromProfile drops a file's variant for a profile. When that variant
// was live, the next winning variant or the original is installed. A profile
// left without files is deleted.
func (e *Engine) RemoveFromProfile(ctx context.Context, txn *Txn, req *RemoveFromProfileRequest) (*RemoveFromProfileResult, error) {
	if err := requireAbs(req.Path); err != nil {
		return nil, err
	}

	reg := txn.Registry
	f, err := reg.File(req.Path)
	if err != nil {
		return nil, err
	}
	if _, err := reg.Profile(req.Profile); err != nil {
		return nil, err
	}
	if _, ok := f.Variants[req.Profile]; !ok {
		return nil, fmt.Errorf("%w: %s is not in profile %q", ErrNotInProfile, req.Path, req.Profile)
	}

	if _, err := e.establishDefinedState(ctx, txn); err != nil {
		return nil, err
	}

	result := &RemoveFromProfileResult{Path: req.Path, Profile: req.Profile}

	if winner, _, ok := reg.Winner(req.Path, ""); ok && winner == req.Profile {
		next, snap, found := reg.Winner(req.Path, req.Profile)
		if !found {
			snap = f.Original
		}
		if err := e.install(req.Path, next, snap); err != nil {
			return nil, err
		}
		result.Installed = sourceLabel(next)
	}

	removed, err := reg.RemoveVariant(req.Path, req.Profile)
	if err != nil {
		return nil, err
	}
	txn.release(removed)

	if len(reg.FilesInProfile(req.Profile)) == 0 {
		if err := reg.RemoveProfile(req.Profile); err != nil {
			return nil, err
		}
		result.ProfileRemoved = true
		e.log.Info().Str("profile", req.Profile).Msg("Profile is empty, removed it")
	}

	e.log.Info().Str("path", req.Path).Str("profile", req.Profile).Msg("Removed file from profile")
	return result, nil
}

// RemoveFile stops managing a file. The original content is restored to the
// live path and every snapshot the file owned is released.
func (e *Engine) RemoveFile(ctx context.Context, txn *Txn, req *RemoveFileRequest) (*RemoveFileResult, error) {
	if err := requireAbs(req.Path); err != nil {
		return nil, err
	}

	reg := txn.Registry
	f, err := reg.File(req.Path)
	if err != nil {
		return nil, err
	}

	if _, err := e.establishDefinedState(ctx, txn); err != nil {
		return nil, err
	}

	if err := e.install(req.Path, "", f.Original); err != nil {
		return nil, err
	}

	owned, err := reg.RemoveFile(req.Path)
	if err != nil {
		return nil, err
	}
	txn.release(owned...)

	e.log.Info().Str("path", req.Path).Int("snapshots", len(owned)).Msg("Stopped managing file")
	return &RemoveFileResult{Path: req.Path, Released: len(owned)}, nil
}

// establishDefinedState re-applies the active profiles before a mutating
// operation. Any failure aborts the caller. The per-file causes stay in the
// error chain, but the result is never a *PartialError so nothing is saved.
func (e *Engine) establishDefinedState(ctx context.Context, txn *Txn) ([]string, error) {
	res, err := e.ActivateAll(ctx, txn)
	if err == nil {
		return res.Installed, nil
	}
	errs := []error{ErrPrecondition}
	var partial *PartialError
	if errors.As(err, &partial) {
		for _, f := range partial.Failures {
			errs = append(errs, f)
		}
	} else {
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

// requireRegularFile checks that path exists and is a regular file.
func (e *Engine) requireRegularFile(path string) error {
	info, err := e.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrFileNotFound, path)
	}
	return nil
}
