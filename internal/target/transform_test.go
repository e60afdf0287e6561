package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/timeline/internal/refs"
	"github.com/mesh-intelligence/timeline/pkg/types"
)

type hostController struct {
	p types.Vec3
	q types.Quat
}

func (h *hostController) Position() types.Vec3     { return h.p }
func (h *hostController) Rotation() types.Quat     { return h.q }
func (h *hostController) SetPosition(p types.Vec3) { h.p = p }
func (h *hostController) SetRotation(q types.Quat) { h.q = q }

func newTransform(t *testing.T) (*TransformTarget, *refs.ControllerRef) {
	t.Helper()
	ref := refs.NewRegistry().GetOrCreateController("hand")
	return NewTransform(ref, "clip-1"), ref
}

func TestTransform_ContinuityAfterBulk(t *testing.T) {
	tg, _ := newTransform(t)

	err := tg.BulkUpdates(func() error {
		tg.SetKeyframe(0, types.Vec3{}, types.IdentityQuat, types.CurveTypeLinear)
		tg.SetKeyframe(1, types.Vec3{}, types.Quat{X: 0.01, W: -1}, types.CurveTypeLinear)
		tg.SetKeyframe(2, types.Vec3{}, types.Quat{Y: 0.7071, W: 0.7071}, types.CurveTypeLinear)
		assert.Equal(t, -1.0, tg.rot[3].GetKeyframe(1).Value, "no pass inside the scope")
		return nil
	})
	require.NoError(t, err)

	ch := tg.Record().Channels
	for i := 1; i < len(ch.RotW); i++ {
		dot := ch.RotX[i-1].Value*ch.RotX[i].Value +
			ch.RotY[i-1].Value*ch.RotY[i].Value +
			ch.RotZ[i-1].Value*ch.RotZ[i].Value +
			ch.RotW[i-1].Value*ch.RotW[i].Value
		assert.GreaterOrEqual(t, dot, 0.0)
	}
}

func TestTransform_SingleEditRunsContinuity(t *testing.T) {
	tg, _ := newTransform(t)
	fired := countDirty(tg)

	tg.SetKeyframe(0, types.Vec3{}, types.IdentityQuat, types.CurveTypeLinear)
	tg.SetKeyframe(1, types.Vec3{}, types.Quat{W: -1}, types.CurveTypeLinear)

	assert.Equal(t, 1.0, tg.rot[3].GetKeyframe(1).Value)
	assert.Equal(t, 2, *fired)
}

func TestTransform_Evaluate(t *testing.T) {
	tg, _ := newTransform(t)
	assert.Equal(t, types.IdentityQuat, tg.EvaluateRotation(0))

	tg.SetKeyframe(0, types.Vec3{X: 0}, types.IdentityQuat, types.CurveTypeLinear)
	tg.SetKeyframe(2, types.Vec3{X: 10}, types.IdentityQuat, types.CurveTypeLinear)

	assert.InDelta(t, 5, tg.EvaluatePosition(1).X, 1e-9)
	assert.InDelta(t, 1, tg.EvaluateRotation(1).Length(), 1e-9)
}

func TestTransform_Sample(t *testing.T) {
	tg, ref := newTransform(t)
	host := &hostController{q: types.IdentityQuat}
	ref.Bind(host)

	tg.SetKeyframe(0, types.Vec3{X: 4}, types.IdentityQuat, types.CurveTypeLinear)
	tg.Sample(0, 0.5)
	assert.InDelta(t, 2, host.p.X, 1e-9)
	assert.InDelta(t, 1, host.q.W, 1e-9)
}

func TestTransform_EdgeFramesAndDelete(t *testing.T) {
	tg, ref := newTransform(t)
	tg.AddEdgeFramesIfMissing(3)
	assert.Empty(t, tg.GetAllKeyframeTimes())

	ref.Bind(&hostController{p: types.Vec3{Y: 1}, q: types.IdentityQuat})
	tg.AddEdgeFramesIfMissing(3)
	assert.Equal(t, []float64{0, 3}, tg.GetAllKeyframeTimes())

	before := tg.Record()
	tg.AddEdgeFramesIfMissing(3)
	assert.Equal(t, before, tg.Record())

	tg.DeleteFrame(3)
	assert.False(t, tg.HasKeyframe(3))
	assert.Equal(t, []float64{0}, tg.GetAllKeyframeTimes())
}

func TestTransform_ValidateReportsChannels(t *testing.T) {
	tg, _ := newTransform(t)
	tg.SetKeyframe(0, types.Vec3{}, types.IdentityQuat, types.CurveTypeLinear)

	err := tg.Validate(2)
	assert.ErrorIs(t, err, types.ErrNotEnoughKeyframes)
	assert.Contains(t, err.Error(), "rotW")
}

func TestTransform_ChangeCurveType(t *testing.T) {
	tg, _ := newTransform(t)
	tg.SetKeyframe(0, types.Vec3{}, types.IdentityQuat, types.CurveTypeLinear)

	require.NoError(t, tg.ChangeCurveType(0, types.CurveTypeFlat))
	for _, kf := range tg.Record().Channels.X {
		assert.Equal(t, types.CurveTypeFlat, kf.CurveType)
	}
	assert.ErrorIs(t, tg.ChangeCurveType(0, ""), types.ErrInvalidCurveType)
}

func TestTransform_RecordLoad(t *testing.T) {
	tg, _ := newTransform(t)
	tg.SetKeyframe(0, types.Vec3{X: 1}, types.IdentityQuat, types.CurveTypeSmooth)
	tg.SetKeyframe(1, types.Vec3{X: 2}, types.Quat{Z: 1}, types.CurveTypeSmooth)
	rec := tg.Record()

	other, _ := newTransform(t)
	require.NoError(t, other.Load(rec))
	assert.Equal(t, rec, other.Record())

	err := other.Load(types.TargetRecord{Ref: refs.ControllerKey("hand")})
	assert.ErrorIs(t, err, types.ErrInvalidData)
}
