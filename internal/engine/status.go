package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/danieljhkim/profswap/internal/state"
)

// Status describes every managed file and profile in reg.
// Live content is compared against the recorded snapshot checksums.
func (e *Engine) Status(ctx context.Context, reg *state.Registry) (*StatusResult, error) {
	result := &StatusResult{
		StateFile: e.stateStore.Location(),
		Files:     []FileStatus{},
		Profiles:  []ProfileStatus{},
	}

	for _, path := range reg.SortedPaths() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		f := reg.Files[path]
		source, expected, err := reg.Desired(path)
		if err != nil {
			return nil, err
		}

		fileStatus := FileStatus{
			Path:     path,
			Profiles: f.Profiles(),
			Expected: sourceLabel(source),
			AddedAt:  f.AddedAt,
		}

		sum, err := e.hasher.HashFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			fileStatus.Live = LiveMissing
		case err != nil:
			return nil, fmt.Errorf("failed to checksum %s: %w", path, err)
		case sum == expected.Checksum:
			fileStatus.Live = LiveOK
			fileStatus.Matches = fileStatus.Expected
		default:
			fileStatus.Live = LiveModified
			fileStatus.Matches = matchingSource(f, sum)
		}

		result.Files = append(result.Files, fileStatus)
	}

	for _, name := range reg.SortedProfiles() {
		p := reg.Profiles[name]
		ps := ProfileStatus{
			Name:   p.Name,
			Active: p.Active,
			Files:  len(reg.FilesInProfile(name)),
		}
		if !p.ActivatedAt.IsZero() {
			at := p.ActivatedAt
			ps.ActivatedAt = &at
		}
		result.Profiles = append(result.Profiles, ps)
	}

	return result, nil
}

// matchingSource names the snapshot of f whose checksum is sum, or "".
func matchingSource(f *state.ManagedFile, sum string) string {
	for _, name := range f.Profiles() {
		if f.Variants[name].Checksum == sum {
			return name
		}
	}
	if f.Original.Checksum == sum {
		return OriginalSource
	}
	return ""
}

// Verify checks that every snapshot referenced by reg exists and still
// matches its checksum.
func (e *Engine) Verify(ctx context.Context, reg *state.Registry) (*VerifyResult, error) {
	result := &VerifyResult{}

	for _, path := range reg.SortedPaths() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		f := reg.Files[path]
		check := func(profile string, snap state.Snapshot) {
			result.Checked++
			if err := e.storage.Verify(snap); err != nil {
				e.log.Warn().Err(err).Str("path", path).Str("source", sourceLabel(profile)).Msg("Snapshot failed verification")
				result.Failures = append(result.Failures, FileFailure{Path: path, Profile: profile, Err: err})
			}
		}

		check("", f.Original)
		for _, name := range f.Profiles() {
			check(name, f.Variants[name])
		}
	}

	e.log.Info().Int("checked", result.Checked).Int("failed", len(result.Failures)).Msg("Verified snapshots")
	return result, nil
}
