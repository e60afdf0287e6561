package target

import (
	"fmt"

	"github.com/mesh-intelligence/timeline/internal/curve"
	"github.com/mesh-intelligence/timeline/internal/refs"
	"github.com/mesh-intelligence/timeline/pkg/types"
)

// ScalarTarget animates one float parameter with one curve.
type ScalarTarget struct {
	core[*refs.ParamRef]
	curve *curve.Curve
}

// NewScalar returns an empty target for ref in the clip clipID.
func NewScalar(ref *refs.ParamRef, clipID string) *ScalarTarget {
	t := &ScalarTarget{curve: curve.New()}
	t.init(t, ref, clipID)
	return t
}

// Param returns the animated parameter ref.
func (t *ScalarTarget) Param() *refs.ParamRef { return t.ref }

// Keyframes returns a copy of the keyframes in time order.
func (t *ScalarTarget) Keyframes() []types.Keyframe {
	t.curve.EnsureComputed()
	return t.curve.Keyframes()
}

// SetKeyframe inserts or overwrites the keyframe at time. The value is
// clamped to the parameter bounds.
func (t *ScalarTarget) SetKeyframe(time, value float64, ct types.CurveType) {
	t.curve.SetKeyframe(time, t.ref.Clamp(value), ct)
	t.SetDirty()
}

// SetKeyframeToCurrent keys the parameter's live value at time.
func (t *ScalarTarget) SetKeyframeToCurrent(time float64, ct types.CurveType) {
	t.SetKeyframe(time, t.ref.Value(), ct)
}

// ChangeCurveType sets the curve type of the keyframe at time. A time with
// no keyframe is ignored.
func (t *ScalarTarget) ChangeCurveType(time float64, ct types.CurveType) error {
	if !types.IsValidCurveType(ct) {
		return fmt.Errorf("%w: %q", types.ErrInvalidCurveType, ct)
	}
	i := t.curve.KeyframeBinarySearch(time)
	if i == -1 {
		return nil
	}
	t.curve.SetCurveType(i, ct)
	t.SetDirty()
	return nil
}

// Evaluate returns the clamped curve value at time.
func (t *ScalarTarget) Evaluate(time float64) float64 {
	return t.ref.Clamp(t.curve.Evaluate(time))
}

// Sample moves the live value weight of the way toward Evaluate(time).
// An empty curve leaves the value alone.
func (t *ScalarTarget) Sample(time, weight float64) {
	if t.curve.Len() == 0 {
		return
	}
	cur := t.ref.Value()
	t.ref.SetValue(cur + (t.Evaluate(time)-cur)*weight)
}

func (t *ScalarTarget) GetAllKeyframeTimes() []float64 {
	return t.curve.GetAllKeyframeTimes()
}

func (t *ScalarTarget) HasKeyframe(time float64) bool {
	return t.curve.KeyframeBinarySearch(time) != -1
}

// DeleteFrame removes the keyframe at time, if any.
func (t *ScalarTarget) DeleteFrame(time float64) {
	if t.curve.RemoveKeyframeAt(time) {
		t.SetDirty()
	}
}

// AddEdgeFramesIfMissing keys 0 and length when they hold no keyframe,
// using the curve value there so the shape inside the range is kept. An
// empty curve is keyed from the bound host, or left empty when unbound.
func (t *ScalarTarget) AddEdgeFramesIfMissing(length float64) {
	if t.curve.Len() == 0 {
		if !t.ref.Bound() {
			return
		}
		t.edit(func() {
			t.SetKeyframeToCurrent(0, types.CurveTypeLinear)
			t.SetKeyframeToCurrent(length, types.CurveTypeLinear)
		})
		return
	}
	if addEdges(t.curve, length) {
		t.SetDirty()
	}
}

func (t *ScalarTarget) GetSnapshot(time float64) (types.Snapshot, bool) {
	t.curve.EnsureComputed()
	k := t.curve.GetKeyframeAt(time)
	if k.IsNull() {
		return nil, false
	}
	return types.ScalarSnapshot{Keyframe: k}, true
}

// SetSnapshot writes the captured keyframe, tangents included, at time.
func (t *ScalarTarget) SetSnapshot(time float64, s types.Snapshot) error {
	if err := t.checkSnapshot(s); err != nil {
		return err
	}
	k := s.(types.ScalarSnapshot).Keyframe
	if k.IsNull() {
		return nil
	}
	t.curve.SetKeyframeFull(k.At(time))
	t.SetDirty()
	return nil
}

func (t *ScalarTarget) Validate(minKeyframes int) error {
	if err := t.curve.Validate(minKeyframes); err != nil {
		return fmt.Errorf("%s: %w", t.ref.Key(), err)
	}
	return nil
}

// Rebuild recomputes control points, clears the dirty flag and fires
// KeyframesRebuilt.
func (t *ScalarTarget) Rebuild() {
	t.curve.ComputeCurves()
	t.rebuilt()
}

func (t *ScalarTarget) Record() types.TargetRecord {
	return types.TargetRecord{Ref: t.ref.Key(), Keyframes: t.Keyframes()}
}

// Load replaces the keyframes with those of rec.
func (t *ScalarTarget) Load(rec types.TargetRecord) error {
	if rec.Ref.Kind != types.RefKindParam {
		return fmt.Errorf("%w: %s is not a param record", types.ErrInvalidData, rec.Ref)
	}
	t.curve = curve.FromKeyframes(rec.Keyframes)
	t.SetDirty()
	return nil
}
