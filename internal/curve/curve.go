// Package curve implements the Bezier keyframe curve: an ordered sequence of
// keyframes with strictly increasing, unique times, evaluated segment by
// segment as a cubic Bezier in value space.
package curve

import (
	"fmt"
	"sort"

	"github.com/mesh-intelligence/timeline/pkg/types"
)

// Curve is an ordered keyframe sequence. Control points are derived from
// each keyframe's curve type and are recomputed lazily after edits.
// The zero value is an empty curve ready to use.
type Curve struct {
	keys  []types.Keyframe
	stale bool
}

// New returns an empty curve.
func New() *Curve {
	return &Curve{}
}

// FromKeyframes builds a curve from persisted keyframes. Keyframes are sorted
// by time; when two share a time the later one wins. Control points are
// recomputed from the curve types, so only leave_as_is keyframes keep the
// stored ones.
func FromKeyframes(keys []types.Keyframe) *Curve {
	c := &Curve{}
	for _, k := range keys {
		c.SetKeyframeFull(k)
	}
	c.ComputeCurves()
	return c
}

// Len returns the number of keyframes.
func (c *Curve) Len() int {
	return len(c.keys)
}

// Keyframes returns a copy of the keyframes in time order.
func (c *Curve) Keyframes() []types.Keyframe {
	out := make([]types.Keyframe, len(c.keys))
	copy(out, c.keys)
	return out
}

// GetKeyframe returns the keyframe at index i, or the null keyframe when i is
// out of range.
func (c *Curve) GetKeyframe(i int) types.Keyframe {
	if i < 0 || i >= len(c.keys) {
		return types.NullKeyframe
	}
	return c.keys[i]
}

// GetKeyframeAt returns the keyframe stored at exactly time t, or the null
// keyframe.
func (c *Curve) GetKeyframeAt(t float64) types.Keyframe {
	return c.GetKeyframe(c.KeyframeBinarySearch(t))
}

// First returns the first keyframe, or the null keyframe on an empty curve.
func (c *Curve) First() types.Keyframe {
	return c.GetKeyframe(0)
}

// Last returns the last keyframe, or the null keyframe on an empty curve.
func (c *Curve) Last() types.Keyframe {
	return c.GetKeyframe(len(c.keys) - 1)
}

// KeyframeBinarySearch returns the index of the keyframe stored at exactly
// time t, or -1. Equality is exact on the stored float.
func (c *Curve) KeyframeBinarySearch(t float64) int {
	i := c.searchFrom(t)
	if i < len(c.keys) && c.keys[i].Time == t {
		return i
	}
	return -1
}

// searchFrom returns the index of the first keyframe with Time >= t.
func (c *Curve) searchFrom(t float64) int {
	return sort.Search(len(c.keys), func(i int) bool { return c.keys[i].Time >= t })
}

// GetAllKeyframeTimes returns the keyframe times in increasing order.
func (c *Curve) GetAllKeyframeTimes() []float64 {
	times := make([]float64, len(c.keys))
	for i, k := range c.keys {
		times[i] = k.Time
	}
	return times
}

// SetKeyframe inserts a keyframe at t or overwrites the value and curve type
// of the keyframe already there. An invalid curve type keeps the existing
// type, or uses smooth for a new keyframe. Returns the keyframe index.
func (c *Curve) SetKeyframe(t, value float64, ct types.CurveType) int {
	i := c.searchFrom(t)
	if i < len(c.keys) && c.keys[i].Time == t {
		c.keys[i].Value = value
		if ct != types.CurveTypeInvalid {
			c.keys[i].CurveType = ct
		}
		c.stale = true
		return i
	}
	if ct == types.CurveTypeInvalid {
		ct = types.DefaultCurveType
	}
	c.insert(i, types.Keyframe{
		Time:            t,
		Value:           value,
		ControlPointIn:  value,
		ControlPointOut: value,
		CurveType:       ct,
	})
	return i
}

// SetKeyframeFull inserts k or replaces the keyframe at k.Time, including
// its control points. Writing an identical keyframe leaves the curve
// untouched. A null keyframe is ignored and returns -1.
func (c *Curve) SetKeyframeFull(k types.Keyframe) int {
	if k.IsNull() {
		return -1
	}
	i := c.searchFrom(k.Time)
	if i < len(c.keys) && c.keys[i].Time == k.Time {
		if c.keys[i] != k {
			c.keys[i] = k
			c.stale = true
		}
		return i
	}
	c.insert(i, k)
	return i
}

func (c *Curve) insert(i int, k types.Keyframe) {
	c.keys = append(c.keys, types.Keyframe{})
	copy(c.keys[i+1:], c.keys[i:])
	c.keys[i] = k
	c.stale = true
}

// SetCurveType changes the curve type of the keyframe at index i.
func (c *Curve) SetCurveType(i int, ct types.CurveType) {
	if i < 0 || i >= len(c.keys) || !types.IsValidCurveType(ct) {
		return
	}
	c.keys[i].CurveType = ct
	c.stale = true
}

// RemoveKeyframe deletes the keyframe at index i. Out-of-range indexes are
// ignored.
func (c *Curve) RemoveKeyframe(i int) {
	if i < 0 || i >= len(c.keys) {
		return
	}
	c.keys = append(c.keys[:i], c.keys[i+1:]...)
	c.stale = true
}

// RemoveKeyframeAt deletes the keyframe at exactly time t and reports whether
// one existed.
func (c *Curve) RemoveKeyframeAt(t float64) bool {
	i := c.KeyframeBinarySearch(t)
	if i == -1 {
		return false
	}
	c.RemoveKeyframe(i)
	return true
}

// Clear removes every keyframe.
func (c *Curve) Clear() {
	c.keys = nil
	c.stale = false
}

// Clone returns an independent copy of c.
func (c *Curve) Clone() *Curve {
	return &Curve{keys: c.Keyframes(), stale: c.stale}
}

// Stale reports whether control points need recomputing.
func (c *Curve) Stale() bool {
	return c.stale
}

// Validate returns ErrNotEnoughKeyframes when the curve holds fewer than min
// keyframes.
func (c *Curve) Validate(min int) error {
	if len(c.keys) < min {
		return fmt.Errorf("%w: have %d, need %d", types.ErrNotEnoughKeyframes, len(c.keys), min)
	}
	return nil
}

// Evaluate returns the curve value at time t. Times before the first or
// after the last keyframe clamp to that keyframe's value. An empty curve
// evaluates to 0.
func (c *Curve) Evaluate(t float64) float64 {
	if len(c.keys) == 0 {
		return 0
	}
	c.EnsureComputed()

	first, last := c.keys[0], c.keys[len(c.keys)-1]
	if t <= first.Time {
		return first.Value
	}
	if t >= last.Time {
		return last.Value
	}

	i := c.searchFrom(t)
	k1 := c.keys[i]
	if k1.Time == t {
		return k1.Value
	}
	k0 := c.keys[i-1]
	u := (t - k0.Time) / (k1.Time - k0.Time)
	return bezier(k0.Value, k0.ControlPointOut, k1.ControlPointIn, k1.Value, u)
}

// bezier evaluates the cubic Bezier (p0, p1, p2, p3) at u in [0, 1].
func bezier(p0, p1, p2, p3, u float64) float64 {
	inv := 1 - u
	return inv*inv*inv*p0 +
		3*inv*inv*u*p1 +
		3*inv*u*u*p2 +
		u*u*u*p3
}
