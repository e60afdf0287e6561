package clip

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/timeline/internal/refs"
	"github.com/mesh-intelligence/timeline/internal/target"
	"github.com/mesh-intelligence/timeline/pkg/types"
)

func setup(t *testing.T) (*Clip, *refs.Registry) {
	t.Helper()
	c, err := New("walk", "base", 2)
	require.NoError(t, err)
	return c, refs.NewRegistry()
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		clip    string
		length  float64
		wantErr error
	}{
		{"valid", "walk", 2, nil},
		{"empty name", "", 2, types.ErrInvalidName},
		{"zero length", "walk", 0, types.ErrInvalidLength},
		{"negative length", "walk", -1, types.ErrInvalidLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.clip, "base", tt.length)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			id, err := uuid.Parse(c.ID())
			require.NoError(t, err)
			assert.Equal(t, uuid.Version(7), id.Version())
			assert.Equal(t, tt.length, c.Length())
		})
	}
}

func TestClip_AddIsIdempotent(t *testing.T) {
	c, reg := setup(t)
	ref := reg.GetOrCreateParam("atom", "geometry", "morph")
	added := 0
	c.TargetsChanged().Subscribe(func(ev TargetsChanged) {
		if ev.Added {
			added++
		}
	})

	a := c.AddParam(ref)
	b := c.AddParam(ref)
	assert.Same(t, a, b)
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, ref.Users())
	assert.Equal(t, c.ID(), a.ClipID())
}

func TestClip_DirtyFansIn(t *testing.T) {
	c, reg := setup(t)
	s := c.AddParam(reg.GetOrCreateParam("a", "b", "c"))
	tr := c.AddController(reg.GetOrCreateController("hand"))

	var got []target.Target
	c.KeyframesDirty().Subscribe(func(ev target.KeyframesDirty) { got = append(got, ev.Target) })

	s.SetKeyframe(0, 1, types.CurveTypeLinear)
	tr.SetKeyframe(0, types.Vec3{}, types.IdentityQuat, types.CurveTypeLinear)

	require.Len(t, got, 2)
	assert.Same(t, s, got[0])
	assert.Same(t, tr, got[1])
	assert.True(t, c.Dirty())

	assert.Equal(t, 2, c.Rebuild())
	assert.False(t, c.Dirty())
}

func TestClip_RemoveTarget(t *testing.T) {
	c, reg := setup(t)
	ref := reg.GetOrCreateTrigger("main", "fx")
	tg := c.AddTrigger(ref)
	fired := 0
	c.KeyframesDirty().Subscribe(func(target.KeyframesDirty) { fired++ })

	require.NoError(t, c.RemoveTarget(ref.Key()))
	assert.Equal(t, 0, ref.Users())
	assert.True(t, tg.Disposed())
	assert.Equal(t, 0, c.Len())

	tg.SetKeyframe(1, json.RawMessage(`1`))
	assert.Equal(t, 0, fired)

	err := c.RemoveTarget(ref.Key())
	assert.ErrorIs(t, err, types.ErrTargetNotFound)
}

func TestClip_SelectedFallsBackToAll(t *testing.T) {
	c, reg := setup(t)
	p := reg.GetOrCreateParam("a", "b", "c")
	h := reg.GetOrCreateController("hand")
	c.AddParam(p)
	c.AddController(h)

	assert.Len(t, c.Selected(), 2)

	h.SetRotationSelected(true)
	sel := c.Selected()
	require.Len(t, sel, 1)
	assert.Same(t, h, sel[0].Ref())
}

func TestClip_TimesEdgesAndValidate(t *testing.T) {
	c, reg := setup(t)
	s := c.AddParam(reg.GetOrCreateParam("a", "b", "c"))
	tr := c.AddTrigger(reg.GetOrCreateTrigger("main", "fx"))
	s.SetKeyframe(1, 3, types.CurveTypeLinear)
	tr.SetKeyframe(0.5, json.RawMessage(`{}`))

	assert.Equal(t, []float64{0.5, 1}, c.GetAllKeyframeTimes())

	errs := c.Validate(2)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], types.ErrNotEnoughKeyframes)

	c.AddEdgeFramesIfMissing()
	assert.Equal(t, []float64{0, 0.5, 1, 2}, c.GetAllKeyframeTimes())
	assert.Empty(t, c.Validate(2))
}

func TestClip_RecordRoundTrip(t *testing.T) {
	c, reg := setup(t)
	s := c.AddParam(reg.GetOrCreateParam("atom", "geometry", "morph"))
	s.SetKeyframe(0, 0, types.CurveTypeLinear)
	s.SetKeyframe(2, 10, types.CurveTypeSmooth)
	tr := c.AddController(reg.GetOrCreateController("hand"))
	tr.SetKeyframe(0, types.Vec3{X: 1}, types.IdentityQuat, types.CurveTypeSmooth)
	tr.SetKeyframe(2, types.Vec3{X: 2}, types.Quat{Y: 1}, types.CurveTypeSmooth)
	tg := c.AddTrigger(reg.GetOrCreateTrigger("base", "fx"))
	tg.SetKeyframe(1, json.RawMessage(`{"sound":"step"}`))

	rec := c.Record()
	loaded, err := FromRecord(rec, reg)
	require.NoError(t, err)

	assert.Equal(t, rec, loaded.Record())
	assert.False(t, loaded.Dirty())
	assert.Equal(t, 2, reg.Params()[0].Users(), "both clips share the registry ref")
	assert.Equal(t, 3, reg.Len())
}

func TestFromRecord_Errors(t *testing.T) {
	reg := refs.NewRegistry()

	_, err := FromRecord(nil, reg)
	assert.ErrorIs(t, err, types.ErrInvalidData)

	rec := &types.ClipRecord{Name: "x", Length: 1, Targets: []types.TargetRecord{
		{Ref: types.RefIdentity{Kind: "bogus", Name: "y"}},
	}}
	_, err = FromRecord(rec, reg)
	assert.ErrorIs(t, err, types.ErrInvalidRefKind)

	rec.Targets = []types.TargetRecord{{Ref: refs.ControllerKey("hand")}}
	_, err = FromRecord(rec, reg)
	assert.ErrorIs(t, err, types.ErrInvalidData)
	assert.Equal(t, 0, reg.Controllers()[0].Users(), "failed load releases refs")
}

func TestClip_Dispose(t *testing.T) {
	c, reg := setup(t)
	p := reg.GetOrCreateParam("a", "b", "c")
	h := reg.GetOrCreateController("hand")
	c.AddParam(p)
	c.AddController(h)

	c.Dispose()
	assert.Equal(t, 0, p.Users())
	assert.Equal(t, 0, h.Users())
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 2, reg.RemoveUnused())
}

func TestYAMLRoundTrip(t *testing.T) {
	c, reg := setup(t)
	s := c.AddParam(reg.GetOrCreateParam("atom", "geometry", "morph"))
	s.SetKeyframe(0, 0, types.CurveTypeLinear)
	s.SetKeyframe(2, 10, types.CurveTypeFlat)
	tg := c.AddTrigger(reg.GetOrCreateTrigger("base", "fx"))
	tg.SetKeyframe(1, json.RawMessage(`{"sound":"step","gain":0.5}`))
	rec := c.Record()

	path := filepath.Join(t.TempDir(), "walk.yaml")
	require.NoError(t, WriteYAMLFile(path, rec))
	got, err := ReadYAMLFile(path)
	require.NoError(t, err)

	assert.Equal(t, rec.ClipID, got.ClipID)
	assert.Equal(t, rec.Name, got.Name)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
	require.Len(t, got.Targets, 2)
	assert.Equal(t, rec.Targets[0], got.Targets[0])
	require.Len(t, got.Targets[1].Entries, 1)
	assert.Equal(t, int64(1000), got.Targets[1].Entries[0].TimeMs)
	assert.JSONEq(t, `{"sound":"step","gain":0.5}`, string(got.Targets[1].Entries[0].Payload))
}

func TestUnmarshalYAML_RejectsUnknownKind(t *testing.T) {
	doc := []byte("name: x\nlength: 1\ntargets:\n  - refIdentity: {kind: bogus, name: y}\n")
	_, err := UnmarshalYAML(doc)
	assert.ErrorIs(t, err, types.ErrInvalidRefKind)
}

func TestFromRecord_DerivesMissingControlPoints(t *testing.T) {
	doc := []byte(`name: hand-written
length: 2
targets:
  - refIdentity: {kind: param, owner: atom, component: geometry, name: morph}
    keyframes:
      - {time: 0, value: 0, curveType: linear}
      - {time: 2, value: 10, curveType: linear}
`)
	rec, err := UnmarshalYAML(doc)
	require.NoError(t, err)

	c, err := FromRecord(rec, refs.NewRegistry())
	require.NoError(t, err)
	require.Len(t, c.Scalars(), 1)

	s := c.Scalars()[0]
	assert.InDelta(t, 5, s.Evaluate(1), 1e-9)
	assert.InDelta(t, 10.0/3, s.Keyframes()[0].ControlPointOut, 1e-9)
}
