package engine

import "time"

// OriginalSource labels the original snapshot wherever a profile name is expected.
const OriginalSource = "(original)"

// AddFileRequest represents a request to start managing a file.
type AddFileRequest struct {
	// Path is the absolute canonical path of the live file
	Path string
}

// AddFileResult represents the result of AddFile.
type AddFileResult struct {
	// Path is the managed path
	Path string `json:"path"`

	// Added is false when the file was already managed
	Added bool `json:"added"`
}

// AddToProfileRequest represents a request to capture a file's current
// content as a profile's variant.
type AddToProfileRequest struct {
	// Path is the absolute canonical path of the live file
	Path string

	// Profile is the profile to add the file to; it is created if unknown
	Profile string

	// AutoAdd starts managing the file first when it is not yet managed
	AutoAdd bool
}

// AddToProfileResult represents the result of AddToProfile.
type AddToProfileResult struct {
	Path    string `json:"path"`
	Profile string `json:"profile"`

	// FileAdded is true when AutoAdd started managing the file
	FileAdded bool `json:"fileAdded"`

	// ProfileCreated is true when the profile did not exist before
	ProfileCreated bool `json:"profileCreated"`

	// Replaced is true when an earlier variant for the pair was displaced
	Replaced bool `json:"replaced"`

	// Reapplied lists the files re-installed to restore the defined state
	Reapplied []string `json:"reapplied,omitempty"`
}

// RemoveFromProfileRequest represents a request to drop a file from a profile.
type RemoveFromProfileRequest struct {
	Path    string
	Profile string
}

// RemoveFromProfileResult represents the result of RemoveFromProfile.
type RemoveFromProfileResult struct {
	Path    string `json:"path"`
	Profile string `json:"profile"`

	// Installed names the source now live at Path when the removed variant
	// had been live; empty when the live file was left alone
	Installed string `json:"installed,omitempty"`

	// ProfileRemoved is true when the profile became empty and was deleted
	ProfileRemoved bool `json:"profileRemoved"`
}

// RemoveFileRequest represents a request to stop managing a file.
type RemoveFileRequest struct {
	Path string
}

// RemoveFileResult represents the result of RemoveFile.
type RemoveFileResult struct {
	Path string `json:"path"`

	// Released is the number of snapshots scheduled for deletion
	Released int `json:"released"`
}

// ActivateRequest represents a request to activate a profile.
type ActivateRequest struct {
	Profile string

	// Exclusive deactivates every other active profile first
	Exclusive bool
}

// ActivateResult represents the result of Activate.
type ActivateResult struct {
	Profile string `json:"profile"`

	// Installed lists the paths whose content was installed successfully
	Installed []string `json:"installed"`

	// Deactivated lists other profiles switched off by an exclusive activation
	Deactivated []string `json:"deactivated,omitempty"`
}

// DeactivateRequest represents a request to deactivate a profile.
type DeactivateRequest struct {
	Profile string
}

// DeactivateResult represents the result of Deactivate and DeactivateAll.
type DeactivateResult struct {
	// Profiles lists the profiles that were switched off
	Profiles []string `json:"profiles"`

	// Installed lists the paths whose content was installed successfully
	Installed []string `json:"installed"`

	// AlreadyInactive is true when there was nothing to deactivate
	AlreadyInactive bool `json:"alreadyInactive"`
}

// ActivateAllResult represents the result of ActivateAll.
type ActivateAllResult struct {
	// Installed lists the paths re-installed from an active profile
	Installed []string `json:"installed"`
}

// LiveState classifies the content found at a managed path.
type LiveState string

const (
	// LiveOK means the live content equals the expected snapshot.
	LiveOK LiveState = "ok"

	// LiveModified means the live content differs from every known snapshot
	// or matches a snapshot other than the expected one.
	LiveModified LiveState = "modified"

	// LiveMissing means nothing exists at the live path.
	LiveMissing LiveState = "missing"
)

// StatusResult represents the state of every managed file and profile.
type StatusResult struct {
	// StateFile is where the registry lives
	StateFile string `json:"stateFile"`

	Files    []FileStatus    `json:"files"`
	Profiles []ProfileStatus `json:"profiles"`
}

// FileStatus describes one managed file.
type FileStatus struct {
	Path string `json:"path"`

	// Profiles lists the profiles with a variant of the file
	Profiles []string `json:"profiles"`

	// Expected names the source that should be live (a profile or OriginalSource)
	Expected string `json:"expected"`

	// Live classifies the content at Path
	Live LiveState `json:"live"`

	// Matches names the source the live content actually equals, if any
	Matches string `json:"matches,omitempty"`

	AddedAt time.Time `json:"addedAt"`
}

// ProfileStatus describes one profile.
type ProfileStatus struct {
	Name        string     `json:"name"`
	Active      bool       `json:"active"`
	ActivatedAt *time.Time `json:"activatedAt,omitempty"`

	// Files is the number of files with a variant for the profile
	Files int `json:"files"`
}

// VerifyResult represents the result of checking every snapshot.
type VerifyResult struct {
	// Checked is the number of snapshots examined
	Checked int `json:"checked"`

	// Failures lists the snapshots that failed verification
	Failures []FileFailure `json:"failures,omitempty"`
}
