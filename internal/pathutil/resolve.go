// Package pathutil turns user-supplied paths into the canonical absolute form
// used as registry keys.
package pathutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrPath indicates an input path that cannot be resolved.
var ErrPath = errors.New("unresolvable path")

// Resolve returns the canonical absolute form of input.
//
// Relative inputs are resolved against cwd. Symlinks are evaluated for the
// longest existing prefix of the path, so a managed file the user has deleted
// still resolves to the key it was registered under. ".." is applied after
// symlink evaluation for the existing prefix and lexically for the rest.
func Resolve(input, cwd string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", fmt.Errorf("%w: empty path", ErrPath)
	}
	if strings.ContainsRune(input, 0) {
		return "", fmt.Errorf("%w: %q contains a NUL byte", ErrPath, input)
	}

	abs := input
	if !filepath.IsAbs(abs) {
		if cwd == "" || !filepath.IsAbs(cwd) {
			return "", fmt.Errorf("%w: cannot resolve %q without an absolute working directory", ErrPath, input)
		}
		abs = cwd + string(filepath.Separator) + abs
	}
	if trimmed := strings.TrimRight(abs, string(filepath.Separator)); len(trimmed) > len(filepath.VolumeName(abs)) {
		abs = trimmed
	}

	canonical, err := evalExisting(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrPath, input, err)
	}
	return canonical, nil
}

// ResolveFromWD resolves input against the process working directory.
func ResolveFromWD(input string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("%w: failed to get current directory: %v", ErrPath, err)
	}
	return Resolve(input, cwd)
}

// evalExisting evaluates symlinks on the deepest existing ancestor of abs and
// re-attaches the missing tail. abs is split without cleaning so that
// "link/.." is never collapsed before link is evaluated.
func evalExisting(abs string) (string, error) {
	var tail []string
	cur := abs
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			for i := len(tail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, tail[i])
			}
			return resolved, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}

		parent, base := splitLast(cur)
		if parent == cur {
			// Nothing on the path exists, not even the volume root.
			return filepath.Clean(abs), nil
		}
		tail = append(tail, base)
		cur = parent
	}
}

// splitLast splits path at its final separator without cleaning either half.
func splitLast(path string) (parent, base string) {
	vol := len(filepath.VolumeName(path))
	i := strings.LastIndexByte(path, filepath.Separator)
	if i < vol {
		return path, ""
	}
	if i == vol {
		return path[:i+1], path[i+1:]
	}
	return path[:i], path[i+1:]
}
