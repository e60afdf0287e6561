package types

// CurveType is the interpolation policy applied around a keyframe.
type CurveType string

// Curve types. CurveTypeInvalid marks the null keyframe.
const (
	CurveTypeInvalid      CurveType = ""
	CurveTypeLinear       CurveType = "linear"
	CurveTypeSmooth       CurveType = "smooth"
	CurveTypeFlat         CurveType = "flat"
	CurveTypeFlatLinear   CurveType = "flat_linear"
	CurveTypeLinearFlat   CurveType = "linear_flat"
	CurveTypeBounce       CurveType = "bounce"
	CurveTypeCopyPrevious CurveType = "copy_previous"
	CurveTypeLeaveAsIs    CurveType = "leave_as_is"
)

// validCurveTypes is the set of curve types a stored keyframe may carry.
var validCurveTypes = map[CurveType]bool{
	CurveTypeLinear:       true,
	CurveTypeSmooth:       true,
	CurveTypeFlat:         true,
	CurveTypeFlatLinear:   true,
	CurveTypeLinearFlat:   true,
	CurveTypeBounce:       true,
	CurveTypeCopyPrevious: true,
	CurveTypeLeaveAsIs:    true,
}

// CurveTypes lists the valid curve types in display order.
var CurveTypes = []CurveType{
	CurveTypeLinear,
	CurveTypeSmooth,
	CurveTypeFlat,
	CurveTypeFlatLinear,
	CurveTypeLinearFlat,
	CurveTypeBounce,
	CurveTypeCopyPrevious,
	CurveTypeLeaveAsIs,
}

// IsValidCurveType reports whether ct is a recognized, non-null curve type.
func IsValidCurveType(ct CurveType) bool {
	return validCurveTypes[ct]
}

// ParseCurveType returns the curve type named s or ErrInvalidCurveType.
func ParseCurveType(s string) (CurveType, error) {
	ct := CurveType(s)
	if !IsValidCurveType(ct) {
		return CurveTypeInvalid, ErrInvalidCurveType
	}
	return ct, nil
}

// Keyframe is one time-stamped control point of a Bezier curve. Control
// points are expressed in value space: the segment leaving this keyframe uses
// ControlPointOut, the segment arriving uses ControlPointIn.
type Keyframe struct {
	Time            float64   `json:"time" yaml:"time"`
	Value           float64   `json:"value" yaml:"value"`
	ControlPointIn  float64   `json:"controlPointIn" yaml:"controlPointIn"`
	ControlPointOut float64   `json:"controlPointOut" yaml:"controlPointOut"`
	CurveType       CurveType `json:"curveType" yaml:"curveType"`
}

// NullKeyframe represents "no value at this slot".
var NullKeyframe = Keyframe{CurveType: CurveTypeInvalid}

// IsNull reports whether k is the null keyframe.
func (k Keyframe) IsNull() bool {
	return k.CurveType == CurveTypeInvalid
}

// HasValue reports whether k holds a value that can be interpolated.
func (k Keyframe) HasValue() bool {
	return !k.IsNull()
}

// At returns a copy of k moved to time t.
func (k Keyframe) At(t float64) Keyframe {
	k.Time = t
	return k
}

// Negate returns k with value and both control points sign-flipped.
func (k Keyframe) Negate() Keyframe {
	k.Value = -k.Value
	k.ControlPointIn = -k.ControlPointIn
	k.ControlPointOut = -k.ControlPointOut
	return k
}
