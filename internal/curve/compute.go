package curve

import "github.com/mesh-intelligence/timeline/pkg/types"

// bounceOvershoot is the fraction of the incoming delta by which a bounce
// keyframe's in-tangent passes its value.
const bounceOvershoot = 0.5

// EnsureComputed recomputes control points if the curve changed since the
// last computation.
func (c *Curve) EnsureComputed() {
	if c.stale {
		c.ComputeCurves()
	}
}

// ComputeCurves derives every keyframe's control points from its curve type
// and its neighbours. copy_previous keyframes take the previous keyframe's
// value first, so chained holds resolve front to back, and the keyframe
// before a hold gets a flat out-tangent. leave_as_is keyframes keep their
// stored control points.
func (c *Curve) ComputeCurves() {
	n := len(c.keys)
	for i := 0; i < n; i++ {
		k := &c.keys[i]
		if k.CurveType == types.CurveTypeCopyPrevious && i > 0 {
			k.Value = c.keys[i-1].Value
		}

		hasPrev, hasNext := i > 0, i < n-1
		var prev, next types.Keyframe
		if hasPrev {
			prev = c.keys[i-1]
		}
		if hasNext {
			next = c.keys[i+1]
			if next.CurveType == types.CurveTypeCopyPrevious {
				next.Value = k.Value
			}
		}

		linearIn := k.Value
		if hasPrev {
			linearIn = k.Value - (k.Value-prev.Value)/3
		}
		linearOut := k.Value
		if hasNext {
			linearOut = k.Value + (next.Value-k.Value)/3
		}

		switch k.CurveType {
		case types.CurveTypeLinear:
			k.ControlPointIn, k.ControlPointOut = linearIn, linearOut
		case types.CurveTypeFlat, types.CurveTypeCopyPrevious:
			k.ControlPointIn, k.ControlPointOut = k.Value, k.Value
		case types.CurveTypeFlatLinear:
			k.ControlPointIn, k.ControlPointOut = k.Value, linearOut
		case types.CurveTypeLinearFlat:
			k.ControlPointIn, k.ControlPointOut = linearIn, k.Value
		case types.CurveTypeSmooth:
			m := slope(*k, prev, next, hasPrev, hasNext)
			k.ControlPointIn, k.ControlPointOut = k.Value, k.Value
			if hasPrev {
				k.ControlPointIn = k.Value - m*(k.Time-prev.Time)/3
			}
			if hasNext {
				k.ControlPointOut = k.Value + m*(next.Time-k.Time)/3
			}
		case types.CurveTypeBounce:
			k.ControlPointIn = k.Value
			if hasPrev {
				k.ControlPointIn = k.Value + (k.Value-prev.Value)*bounceOvershoot
			}
			k.ControlPointOut = linearOut
		case types.CurveTypeLeaveAsIs:
			continue
		}
		if hasNext && next.CurveType == types.CurveTypeCopyPrevious {
			k.ControlPointOut = k.Value
		}
	}
	c.stale = false
}

// slope returns the tangent slope used by smooth keyframes: the central
// difference between neighbours, one-sided at the ends.
func slope(k, prev, next types.Keyframe, hasPrev, hasNext bool) float64 {
	switch {
	case hasPrev && hasNext:
		return (next.Value - prev.Value) / (next.Time - prev.Time)
	case hasNext:
		return (next.Value - k.Value) / (next.Time - k.Time)
	case hasPrev:
		return (k.Value - prev.Value) / (k.Time - prev.Time)
	default:
		return 0
	}
}
