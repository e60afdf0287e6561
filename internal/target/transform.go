package target

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/timeline/internal/curve"
	"github.com/mesh-intelligence/timeline/internal/refs"
	"github.com/mesh-intelligence/timeline/pkg/types"
)

// Channel names, in the order of position then rotation curves.
var channelNames = [7]string{"x", "y", "z", "rotX", "rotY", "rotZ", "rotW"}

// TransformTarget animates a controller with three position curves and four
// rotation (quaternion) curves. Each edit is a bulk scope of its own; when
// the outermost scope closes the rotation curves get the quaternion
// continuity pass.
type TransformTarget struct {
	core[*refs.ControllerRef]
	pos [3]*curve.Curve
	rot [4]*curve.Curve
}

// NewTransform returns an empty target for ref in the clip clipID.
func NewTransform(ref *refs.ControllerRef, clipID string) *TransformTarget {
	t := &TransformTarget{}
	t.reset()
	t.init(t, ref, clipID)
	t.closing = t.ensureContinuity
	return t
}

func (t *TransformTarget) reset() {
	for i := range t.pos {
		t.pos[i] = curve.New()
	}
	for i := range t.rot {
		t.rot[i] = curve.New()
	}
}

func (t *TransformTarget) curves() []*curve.Curve {
	return []*curve.Curve{t.pos[0], t.pos[1], t.pos[2], t.rot[0], t.rot[1], t.rot[2], t.rot[3]}
}

// Controller returns the animated controller ref.
func (t *TransformTarget) Controller() *refs.ControllerRef { return t.ref }

func (t *TransformTarget) ensureContinuity() {
	flips, err := curve.EnsureQuaternionContinuity(t.rot[0], t.rot[1], t.rot[2], t.rot[3])
	if err != nil {
		t.logger.Warn("rotation continuity skipped", slog.String("error", err.Error()))
		return
	}
	if flips > 0 {
		t.logger.Debug("rotation keys flipped", slog.Int("flips", flips))
		t.dirty = true
	}
}

// SetKeyframe keys position p and rotation q at time on all seven channels.
func (t *TransformTarget) SetKeyframe(time float64, p types.Vec3, q types.Quat, ct types.CurveType) {
	t.edit(func() {
		values := [7]float64{p.X, p.Y, p.Z, q.X, q.Y, q.Z, q.W}
		for i, c := range t.curves() {
			c.SetKeyframe(time, values[i], ct)
		}
		t.SetDirty()
	})
}

// SetKeyframeToCurrent keys the controller's live transform at time.
func (t *TransformTarget) SetKeyframeToCurrent(time float64, ct types.CurveType) {
	t.SetKeyframe(time, t.ref.Position(), t.ref.Rotation(), ct)
}

// ChangeCurveType sets the curve type at time on every channel keyed there.
func (t *TransformTarget) ChangeCurveType(time float64, ct types.CurveType) error {
	if !types.IsValidCurveType(ct) {
		return fmt.Errorf("%w: %q", types.ErrInvalidCurveType, ct)
	}
	t.edit(func() {
		for _, c := range t.curves() {
			if i := c.KeyframeBinarySearch(time); i != -1 {
				c.SetCurveType(i, ct)
				t.SetDirty()
			}
		}
	})
	return nil
}

// EvaluatePosition returns the position at time.
func (t *TransformTarget) EvaluatePosition(time float64) types.Vec3 {
	return types.Vec3{
		X: t.pos[0].Evaluate(time),
		Y: t.pos[1].Evaluate(time),
		Z: t.pos[2].Evaluate(time),
	}
}

// EvaluateRotation returns the normalized rotation at time.
func (t *TransformTarget) EvaluateRotation(time float64) types.Quat {
	if t.rot[3].Len() == 0 {
		return types.IdentityQuat
	}
	return types.Quat{
		X: t.rot[0].Evaluate(time),
		Y: t.rot[1].Evaluate(time),
		Z: t.rot[2].Evaluate(time),
		W: t.rot[3].Evaluate(time),
	}.Normalized()
}

// Sample moves the live transform weight of the way toward the evaluated
// one: position by linear interpolation, rotation by normalized lerp.
func (t *TransformTarget) Sample(time, weight float64) {
	if len(t.GetAllKeyframeTimes()) == 0 {
		return
	}
	p := t.ref.Position().Lerp(t.EvaluatePosition(time), weight)
	q := t.ref.Rotation().Nlerp(t.EvaluateRotation(time), weight)
	t.ref.SetTransform(p, q)
}

func (t *TransformTarget) GetAllKeyframeTimes() []float64 {
	return unionTimes(t.curves()...)
}

func (t *TransformTarget) HasKeyframe(time float64) bool {
	for _, c := range t.curves() {
		if c.KeyframeBinarySearch(time) != -1 {
			return true
		}
	}
	return false
}

// DeleteFrame removes the keyframes at time from every channel.
func (t *TransformTarget) DeleteFrame(time float64) {
	t.edit(func() {
		for _, c := range t.curves() {
			if c.RemoveKeyframeAt(time) {
				t.SetDirty()
			}
		}
	})
}

// AddEdgeFramesIfMissing keys 0 and length on every channel that holds no
// keyframe there. With no keyframes at all the bound controller's live
// transform is keyed; an unbound, empty target is left alone.
func (t *TransformTarget) AddEdgeFramesIfMissing(length float64) {
	if len(t.GetAllKeyframeTimes()) == 0 {
		if !t.ref.Bound() {
			return
		}
		t.edit(func() {
			t.SetKeyframeToCurrent(0, types.CurveTypeLinear)
			t.SetKeyframeToCurrent(length, types.CurveTypeLinear)
		})
		return
	}
	t.edit(func() {
		for _, c := range t.curves() {
			if addEdges(c, length) {
				t.SetDirty()
			}
		}
	})
}

func (t *TransformTarget) GetSnapshot(time float64) (types.Snapshot, bool) {
	var s types.TransformSnapshot
	found := false
	for i, c := range t.pos {
		c.EnsureComputed()
		s.Position[i] = c.GetKeyframeAt(time)
		found = found || s.Position[i].HasValue()
	}
	for i, c := range t.rot {
		c.EnsureComputed()
		s.Rotation[i] = c.GetKeyframeAt(time)
		found = found || s.Rotation[i].HasValue()
	}
	if !found {
		return nil, false
	}
	return s, true
}

// SetSnapshot writes every non-null captured keyframe at time.
func (t *TransformTarget) SetSnapshot(time float64, s types.Snapshot) error {
	if err := t.checkSnapshot(s); err != nil {
		return err
	}
	ts := s.(types.TransformSnapshot)
	keys := append(ts.Position[:], ts.Rotation[:]...)
	t.edit(func() {
		for i, c := range t.curves() {
			if keys[i].IsNull() {
				continue
			}
			c.SetKeyframeFull(keys[i].At(time))
			t.SetDirty()
		}
	})
	return nil
}

// Validate checks every channel and joins the failures.
func (t *TransformTarget) Validate(minKeyframes int) error {
	var errs []error
	for i, c := range t.curves() {
		if err := c.Validate(minKeyframes); err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", t.ref.Key(), channelNames[i], err))
		}
	}
	return errors.Join(errs...)
}

// Rebuild recomputes every channel, clears the dirty flag and fires
// KeyframesRebuilt.
func (t *TransformTarget) Rebuild() {
	for _, c := range t.curves() {
		c.ComputeCurves()
	}
	t.rebuilt()
}

func (t *TransformTarget) Record() types.TargetRecord {
	keys := make([][]types.Keyframe, 7)
	for i, c := range t.curves() {
		c.EnsureComputed()
		keys[i] = c.Keyframes()
	}
	return types.TargetRecord{
		Ref: t.ref.Key(),
		Channels: &types.TransformChannels{
			X: keys[0], Y: keys[1], Z: keys[2],
			RotX: keys[3], RotY: keys[4], RotZ: keys[5], RotW: keys[6],
		},
	}
}

// Load replaces every channel with those of rec.
func (t *TransformTarget) Load(rec types.TargetRecord) error {
	if rec.Ref.Kind != types.RefKindController || rec.Channels == nil {
		return fmt.Errorf("%w: %s is not a controller record", types.ErrInvalidData, rec.Ref)
	}
	ch := rec.Channels
	t.edit(func() {
		t.pos = [3]*curve.Curve{curve.FromKeyframes(ch.X), curve.FromKeyframes(ch.Y), curve.FromKeyframes(ch.Z)}
		t.rot = [4]*curve.Curve{
			curve.FromKeyframes(ch.RotX), curve.FromKeyframes(ch.RotY),
			curve.FromKeyframes(ch.RotZ), curve.FromKeyframes(ch.RotW),
		}
		t.SetDirty()
	})
	return nil
}
