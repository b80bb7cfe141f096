// Package fsops provides filesystem operations with safety guarantees.
//
// All filesystem mutations in profswap go through the FS interface so the
// engine and the snapshot storage can be exercised against fakes in tests.
//
// Key features:
//   - Atomic writes and atomic copies using temp file + rename
//   - Identifier validation for profile names
//   - Testable via the FS interface
package fsops

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// tempPattern is the name pattern of in-flight temp files. They live next to
// their target so the final rename never crosses a filesystem boundary.
const tempPattern = ".profswap-tmp-*"

// createTemp is swapped in tests to simulate an unwritable parent directory.
var createTemp = os.CreateTemp

// errNoTemp marks a write that failed before anything was written.
var errNoTemp = errors.New("temp file unavailable")

// FS provides an abstraction for filesystem operations.
// All filesystem mutations in profswap must go through this interface.
type FS interface {
	// Stat returns file info, following symlinks.
	Stat(path string) (os.FileInfo, error)

	// Lstat returns file info without following symlinks.
	Lstat(path string) (os.FileInfo, error)

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string, perm os.FileMode) error

	// Remove removes a file or empty directory.
	Remove(path string) error

	// CopyFile copies a regular file from src to dst, truncating dst.
	CopyFile(src, dst string) error

	// AtomicCopy replaces dst with the content of src using temp file + rename.
	AtomicCopy(src, dst string) error

	// AtomicWrite writes data to path atomically using temp file + rename.
	AtomicWrite(path string, data []byte, perm os.FileMode) error

	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// Exists checks if a path exists.
	Exists(path string) (bool, error)

	// ValidateIdentifier validates an identifier for safety.
	ValidateIdentifier(id string) error
}

// RealFS implements FS using actual OS operations.
type RealFS struct{}

// NewRealFS creates a new RealFS.
func NewRealFS() *RealFS {
	return &RealFS{}
}

// Stat returns file info, following symlinks.
func (fs *RealFS) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// Lstat returns file info without following symlinks.
func (fs *RealFS) Lstat(path string) (os.FileInfo, error) {
	return os.Lstat(path)
}

// MkdirAll creates a directory and all parent directories.
func (fs *RealFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Remove removes a file or empty directory.
func (fs *RealFS) Remove(path string) error {
	return os.Remove(path)
}

// CopyFile copies a single regular file from src to dst.
// The destination is created with the source's permission bits.
func (fs *RealFS) CopyFile(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}
	if !srcInfo.Mode().IsRegular() {
		return fmt.Errorf("source %q is not a regular file", src)
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer func() {
		_ = srcFile.Close()
	}()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}
	defer func() {
		_ = dstFile.Close()
	}()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}

	return dstFile.Sync()
}

// AtomicCopy copies src over dst without ever leaving dst half-written.
// The new file takes the source's permission bits.
//
// When no temp file can be created next to dst because the parent directory
// is not writable, an existing dst is overwritten in place instead. That
// write is not atomic but keeps dst's inode, so hard links stay intact.
func (fs *RealFS) AtomicCopy(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}
	if !srcInfo.Mode().IsRegular() {
		return fmt.Errorf("source %q is not a regular file", src)
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer func() {
		_ = srcFile.Close()
	}()

	err = writeViaTemp(dst, srcInfo.Mode().Perm(), func(w io.Writer) error {
		if _, err := io.Copy(w, srcFile); err != nil {
			return fmt.Errorf("failed to copy file contents: %w", err)
		}
		return nil
	})
	if errors.Is(err, errNoTemp) && errors.Is(err, os.ErrPermission) {
		if info, statErr := os.Lstat(dst); statErr == nil && info.Mode().IsRegular() {
			return fs.CopyFile(src, dst)
		}
	}
	return err
}

// AtomicWrite writes data to path atomically using temp file + rename.
func (fs *RealFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	return writeViaTemp(path, perm, func(w io.Writer) error {
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("failed to write to temp file: %w", err)
		}
		return nil
	})
}

// writeViaTemp fills a temp file next to path and renames it into place.
func writeViaTemp(path string, perm os.FileMode, fill func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	tmpFile, err := createTemp(dir, tempPattern)
	if err != nil {
		return fmt.Errorf("%w: %w", errNoTemp, err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on error
	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err := fill(tmpFile); err != nil {
		return err
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	// Success - don't clean up temp file
	tmpFile = nil
	return nil
}

// ReadFile reads the entire contents of a file.
func (fs *RealFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Exists checks if a path exists.
func (fs *RealFS) Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// ValidateIdentifier validates an identifier (e.g., a profile name) for safety.
// Returns an error if the identifier contains invalid characters or path traversal attempts.
func (fs *RealFS) ValidateIdentifier(id string) error {
	return ValidateIdentifier(id)
}

// ValidateIdentifier is the stateless form of RealFS.ValidateIdentifier, shared
// with fakes so tests enforce the same naming rules.
func ValidateIdentifier(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("invalid identifier: empty")
	}

	if strings.ContainsAny(id, "/\\") || strings.ContainsRune(id, filepath.Separator) {
		return fmt.Errorf("invalid identifier: must not contain path separators")
	}

	if strings.ContainsRune(id, 0) {
		return fmt.Errorf("invalid identifier: must not contain NUL")
	}

	if id == "." || id == ".." || strings.HasPrefix(id, "..") {
		return fmt.Errorf("invalid identifier: path traversal not allowed")
	}

	return nil
}
