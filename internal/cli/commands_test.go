package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/profswap/internal/engine"
)

// setupTestEnv creates a data directory and a home directory for one test.
func setupTestEnv(t *testing.T) (dataDir, home string) {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	home = filepath.Join(root, "home")
	require.NoError(t, os.MkdirAll(home, 0755))
	return filepath.Join(root, "data"), home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestCommands_ActivateDeactivate(t *testing.T) {
	data, home := setupTestEnv(t)
	conf := filepath.Join(home, "a.conf")
	writeFile(t, conf, "X")

	out, _, err := execute(t, "--data-dir", data, "track", conf)
	require.NoError(t, err)
	assert.Contains(t, out, "Now managing "+conf)

	writeFile(t, conf, "Y")
	out, _, err = execute(t, "--data-dir", data, "add", "work", conf)
	require.NoError(t, err)
	assert.Contains(t, out, `Created profile "work"`)
	assert.Contains(t, out, `Added `+conf+` in profile "work"`)

	writeFile(t, conf, "X")
	out, _, err = execute(t, "--data-dir", data, "activate", "work")
	require.NoError(t, err)
	assert.Contains(t, out, `Activated "work" (1 file installed)`)
	assert.Equal(t, "Y", readFile(t, conf))

	out, _, err = execute(t, "--data-dir", data, "deactivate", "work")
	require.NoError(t, err)
	assert.Contains(t, out, "Deactivated work")
	assert.Equal(t, "X", readFile(t, conf))

	out, _, err = execute(t, "--data-dir", data, "deactivate", "work")
	require.NoError(t, err)
	assert.Contains(t, out, `Profile "work" is not active`)
}

func TestCommands_AddImplicitlyManages(t *testing.T) {
	data, home := setupTestEnv(t)
	conf := filepath.Join(home, "a.conf")
	writeFile(t, conf, "X")

	out, _, err := execute(t, "--data-dir", data, "add", "work", conf)
	require.NoError(t, err)
	assert.Contains(t, out, "Now managing "+conf)

	out, _, err = execute(t, "--data-dir", data, "track", conf)
	require.NoError(t, err)
	assert.Contains(t, out, "Already managing "+conf)

	out, _, err = execute(t, "--data-dir", data, "add", "work", conf)
	require.NoError(t, err)
	assert.Contains(t, out, `Updated `+conf+` in profile "work"`)
}

func TestCommands_RelativePath(t *testing.T) {
	data, home := setupTestEnv(t)
	conf := filepath.Join(home, "a.conf")
	writeFile(t, conf, "X")

	oldDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(home))
	defer func() {
		_ = os.Chdir(oldDir)
	}()

	_, _, err = execute(t, "--data-dir", data, "track", "a.conf")
	require.NoError(t, err)

	out, _, err := execute(t, "--data-dir", data, "--json", "track", conf)
	require.NoError(t, err)

	var result engine.AddFileResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, conf, result.Path)
	assert.False(t, result.Added)
}

func TestCommands_StatusJSON(t *testing.T) {
	data, home := setupTestEnv(t)
	a := filepath.Join(home, "a.conf")
	b := filepath.Join(home, "b.conf")
	writeFile(t, a, "A")
	writeFile(t, b, "B")

	_, _, err := execute(t, "--data-dir", data, "add", "work", a)
	require.NoError(t, err)
	_, _, err = execute(t, "--data-dir", data, "track", b)
	require.NoError(t, err)
	_, _, err = execute(t, "--data-dir", data, "activate", "work")
	require.NoError(t, err)
	writeFile(t, b, "edited")

	out, _, err := execute(t, "--data-dir", data, "status", "--json")
	require.NoError(t, err)

	var result engine.StatusResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, filepath.Join(data, "profiles.toml"), result.StateFile)

	require.Len(t, result.Files, 2)
	assert.Equal(t, a, result.Files[0].Path)
	assert.Equal(t, "work", result.Files[0].Expected)
	assert.Equal(t, engine.LiveOK, result.Files[0].Live)
	assert.Equal(t, engine.OriginalSource, result.Files[1].Expected)
	assert.Equal(t, engine.LiveModified, result.Files[1].Live)

	require.Len(t, result.Profiles, 1)
	assert.True(t, result.Profiles[0].Active)

	out, _, err = execute(t, "--data-dir", data, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Profiles")
	assert.Contains(t, out, a)
}

func TestCommands_DeactivateArgs(t *testing.T) {
	data, _ := setupTestEnv(t)

	_, errOut, err := execute(t, "--data-dir", data, "deactivate")
	require.Error(t, err)
	assert.Contains(t, errOut, "specify either a profile or --all")

	_, _, err = execute(t, "--data-dir", data, "deactivate", "work", "--all")
	require.Error(t, err)
}

func TestCommands_DeactivateAll(t *testing.T) {
	data, home := setupTestEnv(t)
	a := filepath.Join(home, "a.conf")
	b := filepath.Join(home, "b.conf")
	writeFile(t, a, "A")
	writeFile(t, b, "B")

	for _, args := range [][]string{
		{"track", a},
		{"track", b},
	} {
		_, _, err := execute(t, append([]string{"--data-dir", data}, args...)...)
		require.NoError(t, err)
	}
	writeFile(t, a, "A-home")
	writeFile(t, b, "B-work")
	for _, args := range [][]string{
		{"add", "home", a},
		{"add", "work", b},
		{"activate", "home"},
		{"activate", "work"},
	} {
		_, _, err := execute(t, append([]string{"--data-dir", data}, args...)...)
		require.NoError(t, err)
	}

	out, _, err := execute(t, "--data-dir", data, "deactivate", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Deactivated home, work (2 files restored)")
	assert.Equal(t, "A", readFile(t, a))
	assert.Equal(t, "B", readFile(t, b))
}

func TestCommands_ActivateExclusive(t *testing.T) {
	data, home := setupTestEnv(t)
	a := filepath.Join(home, "a.conf")
	b := filepath.Join(home, "b.conf")
	writeFile(t, a, "A")
	writeFile(t, b, "B")

	for _, args := range [][]string{
		{"add", "home", a},
		{"add", "work", b},
		{"activate", "home"},
	} {
		_, _, err := execute(t, append([]string{"--data-dir", data}, args...)...)
		require.NoError(t, err)
	}

	out, _, err := execute(t, "--data-dir", data, "activate", "work", "--exclusive")
	require.NoError(t, err)
	assert.Contains(t, out, "Deactivated home")
}

func TestCommands_RemoveAndForget(t *testing.T) {
	data, home := setupTestEnv(t)
	conf := filepath.Join(home, "a.conf")
	writeFile(t, conf, "X")

	_, _, err := execute(t, "--data-dir", data, "track", conf)
	require.NoError(t, err)
	writeFile(t, conf, "W")
	_, _, err = execute(t, "--data-dir", data, "add", "work", conf)
	require.NoError(t, err)
	_, _, err = execute(t, "--data-dir", data, "activate", "work")
	require.NoError(t, err)

	out, _, err := execute(t, "--data-dir", data, "remove", "work", conf)
	require.NoError(t, err)
	assert.Contains(t, out, `Removed `+conf+` from profile "work"`)
	assert.Contains(t, out, `Profile "work" has no files left and was deleted`)
	assert.Equal(t, "X", readFile(t, conf))

	writeFile(t, conf, "edited")
	out, _, err = execute(t, "--data-dir", data, "forget", conf)
	require.NoError(t, err)
	assert.Contains(t, out, "Restored and stopped managing "+conf)
	assert.Equal(t, "X", readFile(t, conf))

	_, errOut, err := execute(t, "--data-dir", data, "forget", conf)
	require.ErrorIs(t, err, engine.ErrFileNotManaged)
	assert.Contains(t, errOut, "file not managed")
}

func TestCommands_Errors(t *testing.T) {
	data, home := setupTestEnv(t)

	_, _, err := execute(t, "--data-dir", data, "activate", "nope")
	assert.ErrorIs(t, err, engine.ErrProfileNotFound)

	_, _, err = execute(t, "--data-dir", data, "track", filepath.Join(home, "missing.conf"))
	assert.ErrorIs(t, err, engine.ErrFileNotFound)

	_, _, err = execute(t, "--data-dir", data, "track", "")
	assert.ErrorIs(t, err, engine.ErrPath)
}

func TestCommands_StateFlag(t *testing.T) {
	data, home := setupTestEnv(t)
	conf := filepath.Join(home, "a.conf")
	writeFile(t, conf, "X")
	state := filepath.Join(home, "elsewhere", "registry.toml")

	_, _, err := execute(t, "--data-dir", data, "--state", state, "track", conf)
	require.NoError(t, err)

	_, err = os.Stat(state)
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(data, "profiles.toml"))
	assert.True(t, os.IsNotExist(err))
}

func TestCommands_Verify(t *testing.T) {
	data, home := setupTestEnv(t)
	conf := filepath.Join(home, "a.conf")
	writeFile(t, conf, "X")

	_, _, err := execute(t, "--data-dir", data, "add", "work", conf)
	require.NoError(t, err)

	out, _, err := execute(t, "--data-dir", data, "verify")
	require.NoError(t, err)
	assert.Contains(t, out, "2 snapshots verified")

	entries, err := os.ReadDir(filepath.Join(data, "snapshots"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.NoError(t, os.Remove(filepath.Join(data, "snapshots", entries[0].Name())))

	_, errOut, err := execute(t, "--data-dir", data, "verify")
	require.Error(t, err)
	assert.Contains(t, errOut, "snapshot corrupt")
	assert.Contains(t, errOut, "1 of 2 snapshots failed verification")
}
