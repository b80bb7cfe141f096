package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivate_RoundTrip(t *testing.T) {
	h := newHarness(t)
	a := h.path("a.conf")
	h.write(a, "original")
	h.addFile(a)
	h.capture(a, "P", "variant")

	require.NoError(t, h.activate("P"))
	assert.Equal(t, "variant", h.read(a))

	require.NoError(t, h.deactivate("P"))
	assert.Equal(t, "original", h.read(a))
}

func TestActivate_UnknownProfile(t *testing.T) {
	h := newHarness(t)
	err := h.activate("nope")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestActivate_NonDestructiveFailure(t *testing.T) {
	h := newHarness(t)
	paths := []string{h.path("a.conf"), h.path("b.conf"), h.path("c.conf")}
	for _, p := range paths {
		h.write(p, "orig")
		h.addFile(p)
		h.capture(p, "work", "work:"+p)
		h.write(p, "orig")
	}

	h.fs.failInstall[paths[1]] = true
	var result *ActivateResult
	err := h.update(func(txn *Txn) error {
		var err error
		result, err = h.eng.Activate(context.Background(), txn, &ActivateRequest{Profile: "work"})
		return err
	})

	var partial *PartialError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, "activate", partial.Op)
	assert.Equal(t, 3, partial.Total)
	assert.Equal(t, []string{paths[1]}, partial.FailedPaths())
	assert.Equal(t, []string{paths[0], paths[2]}, result.Installed)

	assert.Equal(t, "work:"+paths[0], h.read(paths[0]))
	assert.Equal(t, "orig", h.read(paths[1]))
	assert.Equal(t, "work:"+paths[2], h.read(paths[2]))
}

func TestActivate_LastActivatedWins(t *testing.T) {
	h := newHarness(t)
	a := h.path("a.conf")
	h.write(a, "X")
	h.addFile(a)
	h.capture(a, "P1", "one")
	h.capture(a, "P2", "two")

	require.NoError(t, h.activate("P1"))
	require.NoError(t, h.activate("P2"))
	assert.Equal(t, "two", h.read(a))

	require.NoError(t, h.deactivate("P2"))
	assert.Equal(t, "one", h.read(a))

	// Re-activating an active profile makes it the most recent again.
	require.NoError(t, h.activate("P2"))
	require.NoError(t, h.activate("P1"))
	assert.Equal(t, "one", h.read(a))
	require.NoError(t, h.deactivate("P1"))
	assert.Equal(t, "two", h.read(a))
}

func TestActivate_Exclusive(t *testing.T) {
	h := newHarness(t)
	a := h.path("a.conf")
	b := h.path("b.conf")
	h.write(a, "A")
	h.write(b, "B")
	h.addFile(a)
	h.addFile(b)
	h.capture(a, "home", "A-home")
	h.capture(b, "work", "B-work")
	require.NoError(t, h.activate("home"))

	var result *ActivateResult
	require.NoError(t, h.update(func(txn *Txn) error {
		var err error
		result, err = h.eng.Activate(context.Background(), txn, &ActivateRequest{Profile: "work", Exclusive: true})
		return err
	}))
	assert.Equal(t, []string{"home"}, result.Deactivated)
	assert.Equal(t, []string{a, b}, result.Installed)

	assert.Equal(t, "A", h.read(a))
	assert.Equal(t, "B-work", h.read(b))

	reg := h.registry()
	assert.False(t, reg.Profiles["home"].Active)
	assert.True(t, reg.Profiles["work"].Active)
}

func TestActivate_EmptyProfile(t *testing.T) {
	h := newHarness(t)
	a := h.path("a.conf")
	h.write(a, "X")
	h.addFile(a)
	h.capture(a, "work", "W")
	require.NoError(t, h.update(func(txn *Txn) error {
		_, err := h.eng.RemoveFile(context.Background(), txn, &RemoveFileRequest{Path: a})
		return err
	}))

	var result *ActivateResult
	require.NoError(t, h.update(func(txn *Txn) error {
		var err error
		result, err = h.eng.Activate(context.Background(), txn, &ActivateRequest{Profile: "work"})
		return err
	}))
	assert.Empty(t, result.Installed)
	assert.True(t, h.registry().Profiles["work"].Active)
}

func TestActivate_Cancelled(t *testing.T) {
	h := newHarness(t)
	a := h.path("a.conf")
	h.write(a, "X")
	h.addFile(a)
	h.capture(a, "work", "W")
	h.write(a, "X")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.eng.Update(ctx, func(txn *Txn) error {
		_, err := h.eng.Activate(ctx, txn, &ActivateRequest{Profile: "work"})
		return err
	})
	var partial *PartialError
	require.ErrorAs(t, err, &partial)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, "X", h.read(a))
}

func TestDeactivate_AlreadyInactive(t *testing.T) {
	h := newHarness(t)
	a := h.path("a.conf")
	h.write(a, "X")
	h.addFile(a)
	h.capture(a, "work", "W")

	var result *DeactivateResult
	require.NoError(t, h.update(func(txn *Txn) error {
		var err error
		result, err = h.eng.Deactivate(context.Background(), txn, &DeactivateRequest{Profile: "work"})
		return err
	}))
	assert.True(t, result.AlreadyInactive)
	assert.Equal(t, "W", h.read(a))
}

func TestDeactivate_UnknownProfile(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.deactivate("nope"), ErrProfileNotFound)
}

func TestDeactivateAll_RestoresOriginals(t *testing.T) {
	h := newHarness(t)
	a := h.path("a.conf")
	b := h.path("b.conf")
	h.write(a, "A")
	h.write(b, "B")
	h.addFile(a)
	h.addFile(b)
	h.capture(a, "home", "A-home")
	h.capture(b, "work", "B-work")
	require.NoError(t, h.activate("home"))
	require.NoError(t, h.activate("work"))

	var result *DeactivateResult
	require.NoError(t, h.update(func(txn *Txn) error {
		var err error
		result, err = h.eng.DeactivateAll(context.Background(), txn)
		return err
	}))
	assert.Equal(t, []string{"home", "work"}, result.Profiles)
	assert.False(t, result.AlreadyInactive)
	assert.Equal(t, "A", h.read(a))
	assert.Equal(t, "B", h.read(b))

	for _, p := range h.registry().Profiles {
		assert.False(t, p.Active, p.Name)
	}
}

func TestActivateAll_DefinedState(t *testing.T) {
	h := newHarness(t)
	a := h.path("a.conf")
	b := h.path("b.conf")
	c := h.path("c.conf")
	for _, p := range []string{a, b, c} {
		h.write(p, "orig")
		h.addFile(p)
	}
	h.capture(a, "P1", "a1")
	h.capture(a, "P2", "a2")
	h.capture(b, "P1", "b1")
	h.capture(c, "idle", "c-idle")
	require.NoError(t, h.activate("P1"))
	require.NoError(t, h.activate("P2"))

	h.write(a, "drift")
	h.write(b, "drift")
	h.write(c, "user edit")

	var result *ActivateAllResult
	require.NoError(t, h.update(func(txn *Txn) error {
		var err error
		result, err = h.eng.ActivateAll(context.Background(), txn)
		return err
	}))
	assert.Equal(t, []string{a, b}, result.Installed)

	assert.Equal(t, "a2", h.read(a))
	assert.Equal(t, "b1", h.read(b))
	assert.Equal(t, "user edit", h.read(c))
}
