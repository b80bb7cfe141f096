package engine

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/profswap/internal/state"
)

func (h *harness) status() *StatusResult {
	h.t.Helper()
	var result *StatusResult
	require.NoError(h.t, h.eng.View(context.Background(), func(reg *state.Registry) error {
		var err error
		result, err = h.eng.Status(context.Background(), reg)
		return err
	}))
	return result
}

func TestStatus(t *testing.T) {
	h := newHarness(t)
	a := h.path("a.conf")
	b := h.path("b.conf")
	c := h.path("c.conf")
	for _, p := range []string{a, b, c} {
		h.write(p, "orig")
		h.addFile(p)
	}
	h.capture(a, "work", "W")
	h.capture(b, "work", "W-b")
	require.NoError(t, h.activate("work"))

	h.write(b, "orig")
	require.NoError(t, os.Remove(c))

	result := h.status()
	assert.Equal(t, h.stateStore.Location(), result.StateFile)
	require.Len(t, result.Files, 3)

	assert.Equal(t, a, result.Files[0].Path)
	assert.Equal(t, "work", result.Files[0].Expected)
	assert.Equal(t, LiveOK, result.Files[0].Live)
	assert.Equal(t, []string{"work"}, result.Files[0].Profiles)

	assert.Equal(t, LiveModified, result.Files[1].Live)
	assert.Equal(t, OriginalSource, result.Files[1].Matches)

	assert.Equal(t, OriginalSource, result.Files[2].Expected)
	assert.Equal(t, LiveMissing, result.Files[2].Live)

	require.Len(t, result.Profiles, 1)
	assert.Equal(t, "work", result.Profiles[0].Name)
	assert.True(t, result.Profiles[0].Active)
	assert.Equal(t, 2, result.Profiles[0].Files)
	require.NotNil(t, result.Profiles[0].ActivatedAt)
}

func TestStatus_Empty(t *testing.T) {
	h := newHarness(t)
	result := h.status()
	assert.Empty(t, result.Files)
	assert.Empty(t, result.Profiles)
}

func TestVerify(t *testing.T) {
	h := newHarness(t)
	a := h.path("a.conf")
	h.write(a, "X")
	h.addFile(a)
	h.capture(a, "work", "W")

	var result *VerifyResult
	verify := func() {
		require.NoError(t, h.eng.View(context.Background(), func(reg *state.Registry) error {
			var err error
			result, err = h.eng.Verify(context.Background(), reg)
			return err
		}))
	}

	verify()
	assert.Equal(t, 2, result.Checked)
	assert.Empty(t, result.Failures)

	f, err := h.registry().File(a)
	require.NoError(t, err)
	h.write(h.storage.Path(f.Variants["work"]), "tampered")

	verify()
	require.Len(t, result.Failures, 1)
	assert.Equal(t, a, result.Failures[0].Path)
	assert.Equal(t, "work", result.Failures[0].Profile)
	assert.ErrorIs(t, result.Failures[0].Err, ErrSnapshotCorrupt)
}
