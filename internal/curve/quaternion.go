package curve

import (
	"github.com/mesh-intelligence/timeline/pkg/types"
)

// EnsureQuaternionContinuity walks the rotation keyframes in index order and
// negates a whole quaternion (all four channels) whenever its dot product
// with the previous quaternion is negative, so interpolation takes the short
// path. A zero-length quaternion is never flipped and is not used as the
// reference for the next comparison. Returns the number of flipped keys.
// Flipping leaves the channels stale, since neighbouring control points
// were derived from the old values.
//
// The four channels must share keyframe times; ErrChannelMismatch is
// returned otherwise and nothing is changed.
func EnsureQuaternionContinuity(x, y, z, w *Curve) (int, error) {
	n := w.Len()
	if x.Len() != n || y.Len() != n || z.Len() != n {
		return 0, types.ErrChannelMismatch
	}
	for i := 0; i < n; i++ {
		t := w.keys[i].Time
		if x.keys[i].Time != t || y.keys[i].Time != t || z.keys[i].Time != t {
			return 0, types.ErrChannelMismatch
		}
	}

	flips := 0
	var ref types.Quat
	hasRef := false
	for i := 0; i < n; i++ {
		q := types.Quat{X: x.keys[i].Value, Y: y.keys[i].Value, Z: z.keys[i].Value, W: w.keys[i].Value}
		if q.Length() == 0 {
			continue
		}
		if hasRef && ref.Dot(q) < 0 {
			for _, c := range []*Curve{x, y, z, w} {
				c.keys[i] = c.keys[i].Negate()
			}
			q = types.Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: -q.W}
			flips++
		}
		ref = q
		hasRef = true
	}
	if flips > 0 {
		for _, c := range []*Curve{x, y, z, w} {
			c.stale = true
		}
	}
	return flips, nil
}
