package engine

import (
	"context"
	"sort"
)

// Activate installs a profile's variants and marks it the most recently
// activated profile. With Exclusive set, every other active profile is
// deactivated first.
//
// Installation is best effort: the profile is marked active even when some
// files fail, and the failures are returned as a *PartialError.
func (e *Engine) Activate(ctx context.Context, txn *Txn, req *ActivateRequest) (*ActivateResult, error) {
	reg := txn.Registry
	if _, err := reg.Profile(req.Profile); err != nil {
		return nil, err
	}

	result := &ActivateResult{Profile: req.Profile}
	affected := make(map[string]struct{})

	if req.Exclusive {
		for _, p := range reg.ActiveProfiles() {
			if p.Name == req.Profile {
				continue
			}
			if err := reg.MarkInactive(p.Name); err != nil {
				return nil, err
			}
			result.Deactivated = append(result.Deactivated, p.Name)
			for _, path := range reg.FilesInProfile(p.Name) {
				affected[path] = struct{}{}
			}
		}
		sort.Strings(result.Deactivated)
	}

	if err := reg.MarkActive(req.Profile, e.clock.Now()); err != nil {
		return nil, err
	}
	for _, path := range reg.FilesInProfile(req.Profile) {
		affected[path] = struct{}{}
	}

	e.log.Info().Str("profile", req.Profile).Bool("exclusive", req.Exclusive).Int("files", len(affected)).Msg("Activating profile")

	installed, err := e.reconcile(ctx, reg, "activate", req.Profile, sortedKeys(affected))
	result.Installed = installed
	return result, err
}

// Deactivate marks a profile inactive and restores each of its files to the
// variant of the remaining most recently activated manager, or the original.
// Deactivating an inactive profile changes nothing.
func (e *Engine) Deactivate(ctx context.Context, txn *Txn, req *DeactivateRequest) (*DeactivateResult, error) {
	reg := txn.Registry
	p, err := reg.Profile(req.Profile)
	if err != nil {
		return nil, err
	}

	if !p.Active {
		e.log.Info().Str("profile", req.Profile).Msg("Profile already inactive")
		return &DeactivateResult{AlreadyInactive: true}, nil
	}

	if err := reg.MarkInactive(req.Profile); err != nil {
		return nil, err
	}

	e.log.Info().Str("profile", req.Profile).Msg("Deactivating profile")

	installed, err := e.reconcile(ctx, reg, "deactivate", req.Profile, reg.FilesInProfile(req.Profile))
	return &DeactivateResult{Profiles: []string{req.Profile}, Installed: installed}, err
}

// DeactivateAll marks every profile inactive and restores every managed file
// to its original content.
func (e *Engine) DeactivateAll(ctx context.Context, txn *Txn) (*DeactivateResult, error) {
	reg := txn.Registry
	result := &DeactivateResult{}

	for _, p := range reg.ActiveProfiles() {
		if err := reg.MarkInactive(p.Name); err != nil {
			return nil, err
		}
		result.Profiles = append(result.Profiles, p.Name)
	}
	sort.Strings(result.Profiles)
	result.AlreadyInactive = len(result.Profiles) == 0

	e.log.Info().Strs("profiles", result.Profiles).Msg("Deactivating all profiles")

	installed, err := e.reconcile(ctx, reg, "deactivate-all", "", reg.SortedPaths())
	result.Installed = installed
	return result, err
}

// ActivateAll re-installs the winning variant of every file managed by at
// least one active profile. Files no active profile manages are left alone.
func (e *Engine) ActivateAll(ctx context.Context, txn *Txn) (*ActivateAllResult, error) {
	reg := txn.Registry

	var paths []string
	for _, path := range reg.SortedPaths() {
		if len(reg.ActiveManagers(path)) > 0 {
			paths = append(paths, path)
		}
	}
	if len(paths) == 0 {
		return &ActivateAllResult{}, nil
	}

	e.log.Debug().Int("files", len(paths)).Msg("Re-applying active profiles")

	installed, err := e.reconcile(ctx, reg, "activate-all", "", paths)
	return &ActivateAllResult{Installed: installed}, err
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
