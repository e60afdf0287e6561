package types

import "math"

// Vec3 is a position in controller space.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Lerp returns the point a fraction t of the way from v to o.
func (v Vec3) Lerp(o Vec3, t float64) Vec3 {
	return Vec3{
		X: v.X + (o.X-v.X)*t,
		Y: v.Y + (o.Y-v.Y)*t,
		Z: v.Z + (o.Z-v.Z)*t,
	}
}

// Quat is a rotation quaternion.
type Quat struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
	W float64 `json:"w" yaml:"w"`
}

// IdentityQuat is the rotation that does nothing.
var IdentityQuat = Quat{W: 1}

// Dot returns the four-dimensional dot product of q and o.
func (q Quat) Dot(o Quat) float64 {
	return q.X*o.X + q.Y*o.Y + q.Z*o.Z + q.W*o.W
}

// Length returns the norm of q.
func (q Quat) Length() float64 {
	return math.Sqrt(q.Dot(q))
}

// Normalized returns q scaled to unit length. A zero quaternion is returned
// as the identity.
func (q Quat) Normalized() Quat {
	l := q.Length()
	if l == 0 {
		return IdentityQuat
	}
	return Quat{X: q.X / l, Y: q.Y / l, Z: q.Z / l, W: q.W / l}
}

// Nlerp blends q toward o by t along the shorter arc and normalizes.
func (q Quat) Nlerp(o Quat, t float64) Quat {
	if q.Dot(o) < 0 {
		o = Quat{X: -o.X, Y: -o.Y, Z: -o.Z, W: -o.W}
	}
	return Quat{
		X: q.X + (o.X-q.X)*t,
		Y: q.Y + (o.Y-q.Y)*t,
		Z: q.Z + (o.Z-q.Z)*t,
		W: q.W + (o.W-q.W)*t,
	}.Normalized()
}
