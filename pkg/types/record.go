package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// RefKind identifies one of the three animatable ref variants.
type RefKind string

// Ref kinds.
const (
	RefKindParam      RefKind = "param"
	RefKindController RefKind = "controller"
	RefKindTrigger    RefKind = "trigger"
)

// IsValidRefKind reports whether k is a known ref kind.
func IsValidRefKind(k RefKind) bool {
	switch k {
	case RefKindParam, RefKindController, RefKindTrigger:
		return true
	}
	return false
}

// RefIdentity is the persisted identity of a ref. Owner and Component are
// the entity and sub-component ids of a param ref, the layer id of a trigger
// ref, and empty for a controller ref (whose id is Name).
type RefIdentity struct {
	Kind      RefKind `json:"kind" yaml:"kind"`
	Owner     string  `json:"owner,omitempty" yaml:"owner,omitempty"`
	Component string  `json:"component,omitempty" yaml:"component,omitempty"`
	Name      string  `json:"name" yaml:"name"`
}

// String renders the identity as a stable key, e.g. "param:atom/geometry/morph".
func (r RefIdentity) String() string {
	switch r.Kind {
	case RefKindParam:
		return fmt.Sprintf("%s:%s/%s/%s", r.Kind, r.Owner, r.Component, r.Name)
	case RefKindTrigger:
		return fmt.Sprintf("%s:%s/%s", r.Kind, r.Owner, r.Name)
	default:
		return fmt.Sprintf("%s:%s", r.Kind, r.Name)
	}
}

// TransformChannels holds the seven curves of a controller target.
type TransformChannels struct {
	X    []Keyframe `json:"x" yaml:"x"`
	Y    []Keyframe `json:"y" yaml:"y"`
	Z    []Keyframe `json:"z" yaml:"z"`
	RotX []Keyframe `json:"rotX" yaml:"rotX"`
	RotY []Keyframe `json:"rotY" yaml:"rotY"`
	RotZ []Keyframe `json:"rotZ" yaml:"rotZ"`
	RotW []Keyframe `json:"rotW" yaml:"rotW"`
}

// TriggerEntry is one persisted trigger keyframe.
type TriggerEntry struct {
	TimeMs  int64           `json:"timeMs" yaml:"timeMs"`
	Payload json.RawMessage `json:"payload" yaml:"-"`
}

// TargetRecord is the persisted shape of one target. Exactly one of
// Keyframes (param), Channels (controller) or Entries (trigger) is set,
// according to Ref.Kind.
type TargetRecord struct {
	Ref       RefIdentity        `json:"refIdentity" yaml:"refIdentity"`
	Keyframes []Keyframe         `json:"keyframes,omitempty" yaml:"keyframes,omitempty"`
	Channels  *TransformChannels `json:"channels,omitempty" yaml:"channels,omitempty"`
	Entries   []TriggerEntry     `json:"entries,omitempty" yaml:"entries,omitempty"`
}

// ClipRecord is the persisted shape of a clip and its targets.
type ClipRecord struct {
	ClipID    string         `json:"clip_id" yaml:"clip_id"`
	Name      string         `json:"name" yaml:"name"`
	Layer     string         `json:"layer" yaml:"layer"`
	Length    float64        `json:"length" yaml:"length"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" yaml:"updated_at"`
	Targets   []TargetRecord `json:"targets" yaml:"targets"`
}

// RefRecord is the persisted shape of a registered ref: its identity, the
// param clamp bounds, and the per-ref UI state shared across clips.
type RefRecord struct {
	RefIdentity      `yaml:",inline"`
	Owned            bool     `json:"owned,omitempty" yaml:"owned,omitempty"`
	Min              *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max              *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Selected         bool     `json:"selected" yaml:"selected"`
	Collapsed        bool     `json:"collapsed" yaml:"collapsed"`
	PositionSelected bool     `json:"position_selected,omitempty" yaml:"position_selected,omitempty"`
	RotationSelected bool     `json:"rotation_selected,omitempty" yaml:"rotation_selected,omitempty"`
}

// Key returns the table id of the record.
func (r *RefRecord) Key() string {
	return r.RefIdentity.String()
}
