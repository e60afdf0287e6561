package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/timeline/internal/refs"
	"github.com/mesh-intelligence/timeline/pkg/types"
)

type hostParam struct{ v float64 }

func (h *hostParam) Value() float64     { return h.v }
func (h *hostParam) SetValue(v float64) { h.v = v }

func TestScalar_EndToEnd(t *testing.T) {
	for _, ct := range []types.CurveType{types.CurveTypeLinear, types.CurveTypeSmooth} {
		t.Run(string(ct), func(t *testing.T) {
			tg, _ := newScalar(t)
			tg.SetKeyframe(0, 0, ct)
			tg.SetKeyframe(2, 10, ct)
			before := tg.Keyframes()

			tg.AddEdgeFramesIfMissing(2)
			assert.Equal(t, before, tg.Keyframes())
			assert.InDelta(t, 5, tg.Evaluate(1), 1e-9)
		})
	}
}

func TestScalar_AddEdgeFramesIsIdempotent(t *testing.T) {
	tg, _ := newScalar(t)
	tg.SetKeyframe(0.5, 5, types.CurveTypeSmooth)
	tg.SetKeyframe(1.5, 7, types.CurveTypeFlat)

	tg.AddEdgeFramesIfMissing(2)
	first := tg.Keyframes()
	assert.Equal(t, []float64{0, 0.5, 1.5, 2}, tg.GetAllKeyframeTimes())
	assert.Equal(t, 5.0, first[0].Value)
	assert.Equal(t, 7.0, first[3].Value)
	assert.Equal(t, types.CurveTypeFlat, first[2].CurveType, "existing keys keep their type")

	fired := countDirty(tg)
	tg.AddEdgeFramesIfMissing(2)
	assert.Equal(t, first, tg.Keyframes())
	assert.Equal(t, 0, *fired)
}

func TestScalar_AddEdgeFramesOnEmpty(t *testing.T) {
	tg, ref := newScalar(t)
	tg.AddEdgeFramesIfMissing(2)
	assert.Empty(t, tg.GetAllKeyframeTimes(), "unbound empty target stays empty")

	ref.Bind(&hostParam{v: 3})
	tg.AddEdgeFramesIfMissing(2)
	assert.Equal(t, []float64{0, 2}, tg.GetAllKeyframeTimes())
	assert.Equal(t, 3.0, tg.Evaluate(1))
}

func TestScalar_SampleBlendsTowardCurve(t *testing.T) {
	tg, ref := newScalar(t)
	host := &hostParam{}
	ref.Bind(host)
	tg.SetKeyframe(0, 0, types.CurveTypeLinear)
	tg.SetKeyframe(2, 10, types.CurveTypeLinear)

	tg.Sample(1, 0.5)
	assert.InDelta(t, 2.5, host.v, 1e-9)
	tg.Sample(1, 1)
	assert.InDelta(t, 5, host.v, 1e-9)
}

func TestScalar_ClampsToBounds(t *testing.T) {
	reg := refs.NewRegistry()
	ref := reg.GetOrCreateParam("a", "b", "c", refs.WithBounds(0, 1))
	tg := NewScalar(ref, "clip")

	tg.SetKeyframe(0, 5, types.CurveTypeLinear)
	assert.Equal(t, 1.0, tg.Keyframes()[0].Value)
}

func TestScalar_ChangeCurveType(t *testing.T) {
	tg, _ := newScalar(t)
	tg.SetKeyframe(0, 0, types.CurveTypeLinear)
	tg.SetKeyframe(2, 10, types.CurveTypeLinear)

	require.NoError(t, tg.ChangeCurveType(2, types.CurveTypeFlat))
	assert.Equal(t, types.CurveTypeFlat, tg.Keyframes()[1].CurveType)

	require.NoError(t, tg.ChangeCurveType(5, types.CurveTypeFlat))
	assert.ErrorIs(t, tg.ChangeCurveType(0, "wobbly"), types.ErrInvalidCurveType)
}

func TestScalar_DeleteFrame(t *testing.T) {
	tg, _ := newScalar(t)
	tg.SetKeyframe(1, 1, types.CurveTypeLinear)
	fired := countDirty(tg)

	tg.DeleteFrame(3)
	assert.Equal(t, 0, *fired)
	assert.True(t, tg.HasKeyframe(1))

	tg.DeleteFrame(1)
	assert.Equal(t, 1, *fired)
	assert.False(t, tg.HasKeyframe(1))
}

func TestScalar_Validate(t *testing.T) {
	tg, _ := newScalar(t)
	tg.SetKeyframe(0, 0, types.CurveTypeLinear)
	assert.ErrorIs(t, tg.Validate(2), types.ErrNotEnoughKeyframes)
	tg.SetKeyframe(1, 0, types.CurveTypeLinear)
	assert.NoError(t, tg.Validate(2))
}

func TestScalar_RecordLoad(t *testing.T) {
	tg, _ := newScalar(t)
	tg.SetKeyframe(0, 0, types.CurveTypeLinear)
	tg.SetKeyframe(1, 3, types.CurveTypeSmooth)
	rec := tg.Record()
	assert.Equal(t, refs.ParamKey("atom", "geometry", "morph"), rec.Ref)

	other, _ := newScalar(t)
	require.NoError(t, other.Load(rec))
	assert.Equal(t, rec, other.Record())

	err := other.Load(types.TargetRecord{Ref: refs.ControllerKey("hand")})
	assert.ErrorIs(t, err, types.ErrInvalidData)
}
