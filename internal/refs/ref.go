// Package refs holds the animatable ref variants and the Registry that owns
// them.
//
// A ref is the clip-independent identity of one editable property: a float
// parameter, a transform controller, or a trigger track. Refs carry the
// selected and collapsed flags, which are shared by every clip that animates
// the same property. Only the Registry creates or removes refs; targets hold
// them without owning them and register as users with Acquire/Release.
package refs

import (
	"github.com/mesh-intelligence/timeline/internal/events"
	"github.com/mesh-intelligence/timeline/pkg/types"
)

// Kind is the ref variant.
type Kind = types.RefKind

// Ref kinds.
const (
	KindParam      = types.RefKindParam
	KindController = types.RefKindController
	KindTrigger    = types.RefKindTrigger
)

// Key is the comparable identity of a ref. Two refs with equal keys are the
// same property.
type Key = types.RefIdentity

// ParamKey returns the key of a float parameter owned by entity owner and
// sub-component component.
func ParamKey(owner, component, name string) Key {
	return Key{Kind: KindParam, Owner: owner, Component: component, Name: name}
}

// ControllerKey returns the key of a transform controller.
func ControllerKey(id string) Key {
	return Key{Kind: KindController, Name: id}
}

// TriggerKey returns the key of a trigger track on a layer.
func TriggerKey(layer, name string) Key {
	return Key{Kind: KindTrigger, Owner: layer, Name: name}
}

// SelectionChanged is emitted when a ref's selection state changes.
type SelectionChanged struct {
	Ref      Ref
	Selected bool
}

// Ref is the capability surface shared by every ref variant.
type Ref interface {
	Kind() Kind
	Key() Key
	// ShortName is the label shown in a track list.
	ShortName() string
	// LongName includes the owning entity, for tooltips and logs.
	LongName() string

	Selected() bool
	SetSelected(selected bool)
	Collapsed() bool
	SetCollapsed(collapsed bool)
	SelectionChanged() *events.Signal[SelectionChanged]

	// Users is the number of live targets bound to the ref.
	Users() int
	Acquire()
	Release()

	// Record captures the persisted identity and UI state of the ref.
	Record() types.RefRecord
	// Restore applies the UI state of rec. Identity fields are ignored.
	Restore(rec types.RefRecord)
}

// base carries the state every variant shares. self is the outer ref so
// emitted messages name the variant, not the embedded struct.
type base struct {
	self      Ref
	key       Key
	selected  bool
	collapsed bool
	users     int
	selection events.Signal[SelectionChanged]
}

func (b *base) Kind() Kind { return b.key.Kind }
func (b *base) Key() Key   { return b.key }

func (b *base) Selected() bool { return b.selected }

func (b *base) SetSelected(selected bool) {
	if b.selected == selected {
		return
	}
	b.selected = selected
	b.selection.Emit(SelectionChanged{Ref: b.self, Selected: selected})
}

func (b *base) Collapsed() bool { return b.collapsed }

func (b *base) SetCollapsed(collapsed bool) { b.collapsed = collapsed }

func (b *base) SelectionChanged() *events.Signal[SelectionChanged] { return &b.selection }

func (b *base) Users() int { return b.users }

func (b *base) Acquire() { b.users++ }

func (b *base) Release() {
	if b.users > 0 {
		b.users--
	}
}

func (b *base) record() types.RefRecord {
	return types.RefRecord{
		RefIdentity: b.key,
		Selected:    b.selected,
		Collapsed:   b.collapsed,
	}
}

func (b *base) restore(rec types.RefRecord) {
	b.self.SetSelected(rec.Selected)
	b.collapsed = rec.Collapsed
}
