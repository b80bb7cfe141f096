package state

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/danieljhkim/profswap/internal/fsops"
)

var (
	// ErrFileNotManaged indicates a path that is not in the registry.
	ErrFileNotManaged = errors.New("file not managed")

	// ErrProfileNotFound indicates an unknown profile name.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrNotInProfile indicates a managed file that has no variant for a profile.
	ErrNotInProfile = errors.New("file not in profile")

	// ErrInvalidProfile indicates a profile name that cannot be used.
	ErrInvalidProfile = errors.New("invalid profile name")

	// ErrAlreadyManaged indicates an attempt to register a path twice.
	ErrAlreadyManaged = errors.New("file already managed")
)

// Snapshot references content held by the snapshot storage.
type Snapshot struct {
	// Ref is the opaque name of the snapshot blob
	Ref string `toml:"ref"`

	// Checksum is the SHA-256 of the content at capture time
	Checksum string `toml:"checksum"`

	// CapturedAt is when the snapshot was taken
	CapturedAt time.Time `toml:"captured_at"`
}

// IsZero reports whether s references nothing.
func (s Snapshot) IsZero() bool {
	return s.Ref == ""
}

// ManagedFile is a live path under profswap management.
type ManagedFile struct {
	// Path is the absolute canonical path of the live file
	Path string `toml:"path"`

	// Original is the content captured when the file was first added.
	// It never changes for the life of the entry.
	Original Snapshot `toml:"original"`

	// Variants maps profile names to that profile's copy of the file
	Variants map[string]Snapshot `toml:"variants"`

	// AddedAt is when the file was first managed
	AddedAt time.Time `toml:"added_at"`
}

// Profiles returns the names of the profiles that manage the file, sorted.
func (f *ManagedFile) Profiles() []string {
	names := make([]string, 0, len(f.Variants))
	for name := range f.Variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profile is a named set of variants that can be activated.
type Profile struct {
	// Name is the unique profile name
	Name string `toml:"name"`

	// Active is the requested activation state
	Active bool `toml:"active"`

	// ActivatedSeq is the registry sequence number of the last activation.
	// Higher means more recent; zero means never activated.
	ActivatedSeq uint64 `toml:"activated_seq"`

	// ActivatedAt is the wall-clock time of the last activation; zero if never
	ActivatedAt time.Time `toml:"activated_at"`
}

// Registry is the persisted description of everything profswap manages.
type Registry struct {
	// Sequence is the last activation sequence number handed out
	Sequence uint64 `toml:"sequence"`

	// Profiles maps profile names to profiles
	Profiles map[string]*Profile `toml:"profiles"`

	// Files maps absolute paths to managed files
	Files map[string]*ManagedFile `toml:"files"`
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		Profiles: make(map[string]*Profile),
		Files:    make(map[string]*ManagedFile),
	}
}

// ValidateProfileName checks that name can be used as a profile name.
func ValidateProfileName(name string) error {
	if err := fsops.ValidateIdentifier(name); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidProfile, name, err)
	}
	return nil
}

// File returns the managed file at path.
func (r *Registry) File(path string) (*ManagedFile, error) {
	f, ok := r.Files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotManaged, path)
	}
	return f, nil
}

// Profile returns the named profile.
func (r *Registry) Profile(name string) (*Profile, error) {
	p, ok := r.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return p, nil
}

// IsManaged reports whether path is registered.
func (r *Registry) IsManaged(path string) bool {
	_, ok := r.Files[path]
	return ok
}

// AddFile registers path with its original snapshot.
func (r *Registry) AddFile(path string, original Snapshot, now time.Time) (*ManagedFile, error) {
	if _, ok := r.Files[path]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyManaged, path)
	}
	if original.IsZero() {
		return nil, fmt.Errorf("cannot add %s without an original snapshot", path)
	}

	f := &ManagedFile{
		Path:     path,
		Original: original,
		Variants: make(map[string]Snapshot),
		AddedAt:  now,
	}
	r.Files[path] = f
	return f, nil
}

// RemoveFile deregisters path and returns every snapshot it owned.
// Profiles are left in place even when they no longer manage anything.
func (r *Registry) RemoveFile(path string) ([]Snapshot, error) {
	f, err := r.File(path)
	if err != nil {
		return nil, err
	}

	owned := make([]Snapshot, 0, len(f.Variants)+1)
	for _, name := range f.Profiles() {
		owned = append(owned, f.Variants[name])
	}
	owned = append(owned, f.Original)

	delete(r.Files, path)
	return owned, nil
}

// EnsureProfile returns the named profile, creating it inactive if needed.
func (r *Registry) EnsureProfile(name string) (*Profile, bool, error) {
	if p, ok := r.Profiles[name]; ok {
		return p, false, nil
	}
	if err := ValidateProfileName(name); err != nil {
		return nil, false, err
	}
	p := &Profile{Name: name}
	r.Profiles[name] = p
	return p, true, nil
}

// RemoveProfile deletes a profile that no longer manages any file.
func (r *Registry) RemoveProfile(name string) error {
	if _, err := r.Profile(name); err != nil {
		return err
	}
	if files := r.FilesInProfile(name); len(files) > 0 {
		return fmt.Errorf("profile %q still manages %d file(s)", name, len(files))
	}
	delete(r.Profiles, name)
	return nil
}

// SetVariant registers snap as the variant of path for profile, returning the
// snapshot it displaced, if any.
func (r *Registry) SetVariant(path, profile string, snap Snapshot) (*Snapshot, error) {
	f, err := r.File(path)
	if err != nil {
		return nil, err
	}
	if _, err := r.Profile(profile); err != nil {
		return nil, err
	}
	if snap.IsZero() {
		return nil, fmt.Errorf("cannot register an empty snapshot for %s in profile %q", path, profile)
	}

	var displaced *Snapshot
	if prev, ok := f.Variants[profile]; ok {
		displaced = &prev
	}
	f.Variants[profile] = snap
	return displaced, nil
}

// RemoveVariant drops the variant of path for profile and returns it.
func (r *Registry) RemoveVariant(path, profile string) (Snapshot, error) {
	f, err := r.File(path)
	if err != nil {
		return Snapshot{}, err
	}
	snap, ok := f.Variants[profile]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s is not in profile %q", ErrNotInProfile, path, profile)
	}
	delete(f.Variants, profile)
	return snap, nil
}

// MarkActive flags the profile active and makes it the most recently activated.
func (r *Registry) MarkActive(name string, now time.Time) error {
	p, err := r.Profile(name)
	if err != nil {
		return err
	}
	r.Sequence++
	p.Active = true
	p.ActivatedSeq = r.Sequence
	p.ActivatedAt = now
	return nil
}

// MarkInactive clears the profile's active flag.
func (r *Registry) MarkInactive(name string) error {
	p, err := r.Profile(name)
	if err != nil {
		return err
	}
	p.Active = false
	return nil
}

// Winner returns the active profile that should own the live content of path:
// the most recently activated active profile with a variant for it, ignoring
// exclude. ok is false when no such profile exists and the original applies.
func (r *Registry) Winner(path, exclude string) (profile string, snap Snapshot, ok bool) {
	f, found := r.Files[path]
	if !found {
		return "", Snapshot{}, false
	}

	var best *Profile
	for name := range f.Variants {
		if name == exclude {
			continue
		}
		p, exists := r.Profiles[name]
		if !exists || !p.Active {
			continue
		}
		if best == nil || p.ActivatedSeq > best.ActivatedSeq ||
			(p.ActivatedSeq == best.ActivatedSeq && p.Name < best.Name) {
			best = p
		}
	}
	if best == nil {
		return "", Snapshot{}, false
	}
	return best.Name, f.Variants[best.Name], true
}

// ActiveManagers returns the active profiles with a variant of path, in
// activation order, oldest first.
func (r *Registry) ActiveManagers(path string) []string {
	f, ok := r.Files[path]
	if !ok {
		return nil
	}
	var names []string
	for _, p := range r.ActiveProfiles() {
		if _, ok := f.Variants[p.Name]; ok {
			names = append(names, p.Name)
		}
	}
	return names
}

// Desired returns the snapshot that should be live at path, and the profile it
// belongs to ("" for the original).
func (r *Registry) Desired(path string) (string, Snapshot, error) {
	f, err := r.File(path)
	if err != nil {
		return "", Snapshot{}, err
	}
	if name, snap, ok := r.Winner(path, ""); ok {
		return name, snap, nil
	}
	return "", f.Original, nil
}

// SortedPaths returns all managed paths in lexicographic order.
func (r *Registry) SortedPaths() []string {
	paths := make([]string, 0, len(r.Files))
	for p := range r.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// SortedProfiles returns all profile names in lexicographic order.
func (r *Registry) SortedProfiles() []string {
	names := make([]string, 0, len(r.Profiles))
	for n := range r.Profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ActiveProfiles returns the active profiles in activation order, oldest first.
func (r *Registry) ActiveProfiles() []*Profile {
	var active []*Profile
	for _, p := range r.Profiles {
		if p.Active {
			active = append(active, p)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].ActivatedSeq != active[j].ActivatedSeq {
			return active[i].ActivatedSeq < active[j].ActivatedSeq
		}
		return active[i].Name < active[j].Name
	})
	return active
}

// FilesInProfile returns the sorted paths that have a variant for profile.
func (r *Registry) FilesInProfile(name string) []string {
	var paths []string
	for _, p := range r.SortedPaths() {
		if _, ok := r.Files[p].Variants[name]; ok {
			paths = append(paths, p)
		}
	}
	return paths
}

// Snapshots returns every snapshot the registry references, in path order.
func (r *Registry) Snapshots() []Snapshot {
	var snaps []Snapshot
	for _, p := range r.SortedPaths() {
		f := r.Files[p]
		snaps = append(snaps, f.Original)
		for _, name := range f.Profiles() {
			snaps = append(snaps, f.Variants[name])
		}
	}
	return snaps
}

// Validate checks the registry's referential invariants.
func (r *Registry) Validate() error {
	refs := make(map[string]string)
	claim := func(ref, owner string) error {
		if ref == "" {
			return fmt.Errorf("%s has an empty snapshot reference", owner)
		}
		if prev, ok := refs[ref]; ok {
			return fmt.Errorf("snapshot %s is shared by %s and %s", ref, prev, owner)
		}
		refs[ref] = owner
		return nil
	}

	for name, p := range r.Profiles {
		if p == nil {
			return fmt.Errorf("profile %q has no body", name)
		}
		if p.Name != name {
			return fmt.Errorf("profile key %q does not match name %q", name, p.Name)
		}
		if p.ActivatedSeq > r.Sequence {
			return fmt.Errorf("profile %q activation sequence %d exceeds registry sequence %d", name, p.ActivatedSeq, r.Sequence)
		}
	}

	for path, f := range r.Files {
		if f == nil {
			return fmt.Errorf("file %q has no body", path)
		}
		if f.Path != path {
			return fmt.Errorf("file key %q does not match path %q", path, f.Path)
		}
		if err := claim(f.Original.Ref, path+" (original)"); err != nil {
			return err
		}
		for name, snap := range f.Variants {
			if _, ok := r.Profiles[name]; !ok {
				return fmt.Errorf("%s has a variant for unknown profile %q", path, name)
			}
			if err := claim(snap.Ref, fmt.Sprintf("%s (%s)", path, name)); err != nil {
				return err
			}
		}
	}

	return nil
}

// normalize fills in maps a decoder may leave nil.
func (r *Registry) normalize() {
	if r.Profiles == nil {
		r.Profiles = make(map[string]*Profile)
	}
	if r.Files == nil {
		r.Files = make(map[string]*ManagedFile)
	}
	for _, f := range r.Files {
		if f != nil && f.Variants == nil {
			f.Variants = make(map[string]Snapshot)
		}
	}
}
