package refs

import (
	"fmt"
	"math"

	"github.com/mesh-intelligence/timeline/pkg/types"
)

// FloatParam is the host side of a float parameter.
type FloatParam interface {
	Value() float64
	SetValue(v float64)
}

// ParamRef identifies one float parameter of a host entity.
type ParamRef struct {
	base
	owned    bool
	min, max *float64
	host     FloatParam
	value    float64
}

// ParamOption configures a ParamRef on creation.
type ParamOption func(*ParamRef)

// WithOwned marks the parameter as declared by the animation system rather
// than by the host.
func WithOwned() ParamOption {
	return func(p *ParamRef) { p.owned = true }
}

// WithBounds sets the clamp range applied when values are written.
func WithBounds(min, max float64) ParamOption {
	return func(p *ParamRef) {
		p.min = &min
		p.max = &max
	}
}

// WithMin sets only the lower clamp bound.
func WithMin(min float64) ParamOption {
	return func(p *ParamRef) { p.min = &min }
}

// WithMax sets only the upper clamp bound.
func WithMax(max float64) ParamOption {
	return func(p *ParamRef) { p.max = &max }
}

func newParamRef(key Key, opts ...ParamOption) *ParamRef {
	p := &ParamRef{base: base{key: key}}
	p.self = p
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Owner returns the owning entity id.
func (p *ParamRef) Owner() string { return p.key.Owner }

// Component returns the sub-component id.
func (p *ParamRef) Component() string { return p.key.Component }

// Name returns the parameter name.
func (p *ParamRef) Name() string { return p.key.Name }

func (p *ParamRef) ShortName() string { return p.key.Name }

func (p *ParamRef) LongName() string {
	return fmt.Sprintf("%s %s.%s", p.key.Owner, p.key.Component, p.key.Name)
}

// Owned reports whether the parameter was declared by the animation system.
func (p *ParamRef) Owned() bool { return p.owned }

// Bounds returns the clamp bounds. A nil bound is open.
func (p *ParamRef) Bounds() (min, max *float64) { return p.min, p.max }

// Clamp limits v to the configured bounds.
func (p *ParamRef) Clamp(v float64) float64 {
	if p.min != nil {
		v = math.Max(v, *p.min)
	}
	if p.max != nil {
		v = math.Min(v, *p.max)
	}
	return v
}

// Bind attaches the host parameter. A nil host detaches it; the last value
// read from the host is kept.
func (p *ParamRef) Bind(host FloatParam) {
	if p.host != nil && host == nil {
		p.value = p.host.Value()
	}
	p.host = host
}

// Bound reports whether a host parameter is attached.
func (p *ParamRef) Bound() bool { return p.host != nil }

// Value returns the live value, from the host when bound.
func (p *ParamRef) Value() float64 {
	if p.host != nil {
		return p.host.Value()
	}
	return p.value
}

// SetValue writes v, clamped, to the host when bound.
func (p *ParamRef) SetValue(v float64) {
	v = p.Clamp(v)
	if p.host != nil {
		p.host.SetValue(v)
		return
	}
	p.value = v
}

func (p *ParamRef) Record() types.RefRecord {
	rec := p.record()
	rec.Owned = p.owned
	rec.Min, rec.Max = p.min, p.max
	return rec
}

func (p *ParamRef) Restore(rec types.RefRecord) {
	p.restore(rec)
	if rec.Min != nil {
		p.min = rec.Min
	}
	if rec.Max != nil {
		p.max = rec.Max
	}
	p.owned = p.owned || rec.Owned
}
