package integration

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/profswap/internal/clock"
	"github.com/danieljhkim/profswap/internal/config"
	"github.com/danieljhkim/profswap/internal/engine"
	"github.com/danieljhkim/profswap/internal/fsops"
	"github.com/danieljhkim/profswap/internal/snapshots"
	"github.com/danieljhkim/profswap/internal/state"
)

// testFS is a filesystem implementation that keeps files in memory for testing
type testFS struct {
	files    map[string][]byte
	dirs     map[string]bool
	readOnly map[string]bool
}

func newTestFS() *testFS {
	return &testFS{
		files:    make(map[string][]byte),
		dirs:     make(map[string]bool),
		readOnly: make(map[string]bool),
	}
}

var _ fsops.FS = (*testFS)(nil)

func (fs *testFS) Stat(path string) (os.FileInfo, error) {
	return fs.Lstat(path)
}

func (fs *testFS) Lstat(path string) (os.FileInfo, error) {
	if content, ok := fs.files[path]; ok {
		return &mockFileInfo{name: filepath.Base(path), size: int64(len(content)), mode: 0644}, nil
	}
	if fs.dirs[path] {
		return &mockFileInfo{name: filepath.Base(path), mode: os.ModeDir | 0755, isDir: true}, nil
	}
	return nil, &os.PathError{Op: "lstat", Path: path, Err: os.ErrNotExist}
}

func (fs *testFS) MkdirAll(path string, perm os.FileMode) error {
	for p := path; p != filepath.Dir(p); p = filepath.Dir(p) {
		fs.dirs[p] = true
	}
	return nil
}

func (fs *testFS) Remove(path string) error {
	if _, ok := fs.files[path]; !ok && !fs.dirs[path] {
		return &os.PathError{Op: "remove", Path: path, Err: os.ErrNotExist}
	}
	delete(fs.files, path)
	delete(fs.dirs, path)
	return nil
}

func (fs *testFS) CopyFile(src, dst string) error {
	content, ok := fs.files[src]
	if !ok {
		return &os.PathError{Op: "open", Path: src, Err: os.ErrNotExist}
	}
	return fs.put(dst, content)
}

func (fs *testFS) AtomicCopy(src, dst string) error {
	return fs.CopyFile(src, dst)
}

func (fs *testFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	return fs.put(path, data)
}

func (fs *testFS) put(path string, data []byte) error {
	if fs.readOnly[path] {
		return &os.PathError{Op: "rename", Path: path, Err: errors.New("read-only file system")}
	}
	_ = fs.MkdirAll(filepath.Dir(path), 0755)
	fs.files[path] = append([]byte(nil), data...)
	return nil
}

func (fs *testFS) ReadFile(path string) ([]byte, error) {
	if content, ok := fs.files[path]; ok {
		return append([]byte(nil), content...), nil
	}
	return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
}

func (fs *testFS) Exists(path string) (bool, error) {
	_, hasFile := fs.files[path]
	return hasFile || fs.dirs[path], nil
}

func (fs *testFS) ValidateIdentifier(id string) error {
	return fsops.ValidateIdentifier(id)
}

// filesUnder lists the files directly below dir, sorted.
func (fs *testFS) filesUnder(dir string) []string {
	var names []string
	for p := range fs.files {
		if filepath.Dir(p) == dir {
			names = append(names, filepath.Base(p))
		}
	}
	sort.Strings(names)
	return names
}

// mockFileInfo implements os.FileInfo
type mockFileInfo struct {
	name  string
	size  int64
	mode  os.FileMode
	isDir bool
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() os.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return time.Time{} }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() interface{}   { return nil }

// testHasher hashes testFS content with SHA-256.
type testHasher struct {
	fs *testFS
}

func (h *testHasher) HashFile(path string) (string, error) {
	content, err := h.fs.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:]), nil
}

type testEnv struct {
	t     *testing.T
	fs    *testFS
	paths *config.Paths
	clock *clock.FakeClock
	eng   *engine.Engine
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	paths, err := config.NewPaths("/data/profswap")
	require.NoError(t, err)

	env := &testEnv{
		t:     t,
		fs:    newTestFS(),
		paths: paths,
		clock: clock.NewFakeClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)),
	}
	env.eng = env.newEngine()
	return env
}

// newEngine builds a fresh engine over the same filesystem, as a new
// invocation of the CLI would.
func (env *testEnv) newEngine() *engine.Engine {
	hasher := &testHasher{fs: env.fs}
	stateStore := state.NewFileStateStore(env.fs, env.paths.State)
	storage := snapshots.NewFileStorage(env.fs, hasher, env.clock, env.paths.Snapshots)
	return engine.New(stateStore, storage, env.fs, hasher, env.clock)
}

func (env *testEnv) write(path, content string) {
	env.t.Helper()
	require.NoError(env.t, env.fs.AtomicWrite(path, []byte(content), 0644))
}

func (env *testEnv) content(path string) string {
	env.t.Helper()
	data, err := env.fs.ReadFile(path)
	require.NoError(env.t, err)
	return string(data)
}

// run executes one CLI-like invocation: a fresh engine, one transaction.
func (env *testEnv) run(fn func(eng *engine.Engine, txn *engine.Txn) error) error {
	env.clock.Advance(time.Minute)
	eng := env.newEngine()
	return eng.Update(context.Background(), func(txn *engine.Txn) error {
		return fn(eng, txn)
	})
}

func (env *testEnv) track(path string) {
	env.t.Helper()
	require.NoError(env.t, env.run(func(eng *engine.Engine, txn *engine.Txn) error {
		_, err := eng.AddFile(context.Background(), txn, &engine.AddFileRequest{Path: path})
		return err
	}))
}

func (env *testEnv) add(profile, path string) {
	env.t.Helper()
	require.NoError(env.t, env.run(func(eng *engine.Engine, txn *engine.Txn) error {
		_, err := eng.AddToProfile(context.Background(), txn, &engine.AddToProfileRequest{Path: path, Profile: profile, AutoAdd: true})
		return err
	}))
}

func (env *testEnv) activate(profile string, exclusive bool) error {
	return env.run(func(eng *engine.Engine, txn *engine.Txn) error {
		_, err := eng.Activate(context.Background(), txn, &engine.ActivateRequest{Profile: profile, Exclusive: exclusive})
		return err
	})
}

func (env *testEnv) deactivate(profile string) error {
	return env.run(func(eng *engine.Engine, txn *engine.Txn) error {
		_, err := eng.Deactivate(context.Background(), txn, &engine.DeactivateRequest{Profile: profile})
		return err
	})
}

func (env *testEnv) registry() *state.Registry {
	env.t.Helper()
	reg, err := state.NewFileStateStore(env.fs, env.paths.State).Load()
	require.NoError(env.t, err)
	return reg
}

// assertNoOrphans checks that storage holds exactly the referenced snapshots.
func (env *testEnv) assertNoOrphans() {
	env.t.Helper()
	var refs []string
	for _, snap := range env.registry().Snapshots() {
		refs = append(refs, snap.Ref)
	}
	sort.Strings(refs)

	blobs := env.fs.filesUnder(env.paths.Snapshots)
	require.Equal(env.t, strings.Join(refs, ","), strings.Join(blobs, ","))
}
