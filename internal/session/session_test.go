package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/timeline/internal/sqlite"
	"github.com/mesh-intelligence/timeline/pkg/types"
)

func open(t *testing.T, dir string) *Session {
	t.Helper()
	store := sqlite.NewBackend()
	require.NoError(t, store.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	s, err := Open(store, types.AnimationConfig{DefaultLength: 4})
	require.NoError(t, err)
	return s
}

func TestOpen_RequiresAttachedStore(t *testing.T) {
	_, err := Open(sqlite.NewBackend(), types.AnimationConfig{})
	assert.ErrorIs(t, err, types.ErrStoreDetached)
}

func TestNewClip_DefaultLength(t *testing.T) {
	s := open(t, t.TempDir())
	defer s.Close()

	c, err := s.NewClip("walk", "base", 0)
	require.NoError(t, err)
	assert.Equal(t, 4.0, c.Length())

	got, ok := s.Clip(c.ID())
	require.True(t, ok)
	assert.Same(t, c, got)

	_, err = s.NewClip("", "base", 1)
	assert.ErrorIs(t, err, types.ErrInvalidName)
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	s := open(t, dir)

	c, err := s.NewClip("walk", "base", 2)
	require.NoError(t, err)
	reg := s.Registry()
	morph := reg.GetOrCreateParam("atom", "geometry", "morph")
	hand := reg.GetOrCreateController("hand")
	fx := reg.GetOrCreateTrigger("base", "fx")

	c.AddParam(morph).SetKeyframe(1, 0.5, types.CurveTypeLinear)
	c.AddController(hand).SetKeyframe(0, types.Vec3{Y: 2}, types.IdentityQuat, types.CurveTypeSmooth)
	c.AddTrigger(fx).SetKeyframe(0.25, json.RawMessage(`"step"`))
	morph.SetCollapsed(true)
	hand.SetPositionSelected(true)
	want := c.Record()

	require.NoError(t, s.SaveClip(c))
	require.NoError(t, s.Close())

	s2 := open(t, dir)
	defer s2.Close()
	recs, err := s2.List(nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "walk", recs[0].Name)

	loaded, err := s2.LoadClip(c.ID())
	require.NoError(t, err)
	got := loaded.Record()
	assert.Equal(t, want.Targets[0], got.Targets[0])
	assert.Equal(t, want.Targets[1], got.Targets[1])
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.False(t, loaded.Dirty())

	ref, ok := s2.Registry().Lookup(morph.Key())
	require.True(t, ok)
	assert.True(t, ref.Collapsed())
	ctrl := s2.Registry().Controllers()
	require.Len(t, ctrl, 1)
	assert.True(t, ctrl[0].PositionSelected())
	assert.False(t, ctrl[0].RotationSelected())

	again, err := s2.LoadClip(c.ID())
	require.NoError(t, err)
	assert.Same(t, loaded, again)
}

func TestLoadClip_NotFound(t *testing.T) {
	s := open(t, t.TempDir())
	defer s.Close()
	_, err := s.LoadClip("missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDeleteClip_PrunesRefs(t *testing.T) {
	s := open(t, t.TempDir())
	defer s.Close()

	a, err := s.NewClip("a", "base", 1)
	require.NoError(t, err)
	b, err := s.NewClip("b", "base", 1)
	require.NoError(t, err)
	shared := s.Registry().GetOrCreateController("hand")
	only := s.Registry().GetOrCreateParam("x", "y", "z")
	a.AddController(shared)
	a.AddParam(only)
	b.AddController(shared)
	require.NoError(t, s.SaveClip(a))

	require.NoError(t, s.DeleteClip(a.ID()))
	_, ok := s.Clip(a.ID())
	assert.False(t, ok)
	assert.Equal(t, 1, s.Registry().Len())
	assert.Equal(t, 1, shared.Users())

	_, err = s.LoadClip(a.ID())
	assert.ErrorIs(t, err, types.ErrNotFound)

	require.NoError(t, s.DeleteClip(b.ID()), "unsaved open clip")
	assert.ErrorIs(t, s.DeleteClip("missing"), types.ErrNotFound)
	assert.Equal(t, 0, s.Registry().Len())
}

func TestClipboardAcrossClips(t *testing.T) {
	s := open(t, t.TempDir())
	defer s.Close()

	src, err := s.NewClip("src", "base", 2)
	require.NoError(t, err)
	dst, err := s.NewClip("dst", "base", 2)
	require.NoError(t, err)
	p := s.Registry().GetOrCreateParam("atom", "geometry", "morph")
	src.AddParam(p).SetKeyframe(1, 7, types.CurveTypeFlat)
	d := dst.AddParam(p)

	assert.Equal(t, 1, s.Clipboard().Copy(src.Targets(), 1))
	n, err := s.Clipboard().Paste(dst, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 7.0, d.Evaluate(0.5))
}

func TestValidateUsesConfiguredMinimum(t *testing.T) {
	s := open(t, t.TempDir())
	defer s.Close()
	c, err := s.NewClip("walk", "base", 2)
	require.NoError(t, err)
	c.AddParam(s.Registry().GetOrCreateParam("a", "b", "c")).SetKeyframe(0, 1, types.CurveTypeLinear)

	errs := s.Validate(c)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], types.ErrNotEnoughKeyframes)
}

func TestCloseDetachesStore(t *testing.T) {
	s := open(t, t.TempDir())
	c, err := s.NewClip("walk", "base", 1)
	require.NoError(t, err)
	p := s.Registry().GetOrCreateParam("a", "b", "c")
	c.AddParam(p)

	require.NoError(t, s.Close())
	assert.Equal(t, 0, p.Users())
	_, err = s.List(nil)
	assert.ErrorIs(t, err, types.ErrStoreDetached)
}
