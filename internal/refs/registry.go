package refs

import (
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/timeline/internal/events"
	"github.com/mesh-intelligence/timeline/pkg/types"
)

// StructureChanged is emitted when a ref that appears in a visible list is
// added to or removed from the registry. Only controller refs produce it.
type StructureChanged struct {
	Ref   Ref
	Added bool
}

// Registry deduplicates refs by key and owns them for the session.
// Every ref it creates forwards selection changes to AnySelectionChanged.
// A Registry is not safe for concurrent use.
type Registry struct {
	refs    []Ref
	byKey   map[Key]Ref
	fanIn   map[Key]*events.Subscription
	changed events.Signal[StructureChanged]
	anySel  events.Signal[SelectionChanged]
	logger  *slog.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byKey:  make(map[Key]Ref),
		fanIn:  make(map[Key]*events.Subscription),
		logger: slog.Default().With(slog.String("component", "refs")),
	}
}

// Changed returns the structural-change signal.
func (r *Registry) Changed() *events.Signal[StructureChanged] { return &r.changed }

// AnySelectionChanged returns the signal that fires whenever any registered
// ref's selection changes.
func (r *Registry) AnySelectionChanged() *events.Signal[SelectionChanged] { return &r.anySel }

// GetOrCreateParam returns the param ref for (owner, component, name),
// creating it with opts on first use. Options are ignored for an existing ref.
func (r *Registry) GetOrCreateParam(owner, component, name string, opts ...ParamOption) *ParamRef {
	key := ParamKey(owner, component, name)
	if ref, ok := r.byKey[key]; ok {
		return ref.(*ParamRef)
	}
	p := newParamRef(key, opts...)
	r.register(p)
	return p
}

// GetOrCreateController returns the controller ref for id.
func (r *Registry) GetOrCreateController(id string) *ControllerRef {
	key := ControllerKey(id)
	if ref, ok := r.byKey[key]; ok {
		return ref.(*ControllerRef)
	}
	c := newControllerRef(key)
	r.register(c)
	return c
}

// GetOrCreateTrigger returns the trigger ref for the track name on layer.
func (r *Registry) GetOrCreateTrigger(layer, name string) *TriggerRef {
	key := TriggerKey(layer, name)
	if ref, ok := r.byKey[key]; ok {
		return ref.(*TriggerRef)
	}
	t := newTriggerRef(key)
	r.register(t)
	return t
}

// GetOrCreate returns the ref for key, dispatching on its kind.
func (r *Registry) GetOrCreate(key Key) (Ref, error) {
	switch key.Kind {
	case KindParam:
		return r.GetOrCreateParam(key.Owner, key.Component, key.Name), nil
	case KindController:
		return r.GetOrCreateController(key.Name), nil
	case KindTrigger:
		return r.GetOrCreateTrigger(key.Owner, key.Name), nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidRefKind, key.Kind)
	}
}

func (r *Registry) register(ref Ref) {
	key := ref.Key()
	r.refs = append(r.refs, ref)
	r.byKey[key] = ref
	r.fanIn[key] = ref.SelectionChanged().Subscribe(r.anySel.Emit)
	r.logger.Debug("ref registered", slog.String("ref", key.String()))
	if key.Kind == KindController {
		r.changed.Emit(StructureChanged{Ref: ref, Added: true})
	}
}

// Lookup returns the ref registered under key.
func (r *Registry) Lookup(key Key) (Ref, bool) {
	ref, ok := r.byKey[key]
	return ref, ok
}

// Len returns the number of registered refs.
func (r *Registry) Len() int { return len(r.refs) }

// Refs returns every registered ref in creation order.
func (r *Registry) Refs() []Ref {
	out := make([]Ref, len(r.refs))
	copy(out, r.refs)
	return out
}

// Params returns the param refs in creation order.
func (r *Registry) Params() []*ParamRef { return collect[*ParamRef](r.refs) }

// Controllers returns the controller refs in creation order.
func (r *Registry) Controllers() []*ControllerRef { return collect[*ControllerRef](r.refs) }

// Triggers returns the trigger refs in creation order.
func (r *Registry) Triggers() []*TriggerRef { return collect[*TriggerRef](r.refs) }

func collect[T Ref](refs []Ref) []T {
	var out []T
	for _, ref := range refs {
		if v, ok := ref.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// Remove unregisters ref. It returns ErrRefNotFound when ref is not the
// instance registered under its key, and ErrRefInUse while targets still
// hold it; the owning clips must release their targets first.
func (r *Registry) Remove(ref Ref) error {
	key := ref.Key()
	if got, ok := r.byKey[key]; !ok || got != ref {
		return fmt.Errorf("%w: %s", types.ErrRefNotFound, key)
	}
	if n := ref.Users(); n > 0 {
		return fmt.Errorf("%w: %s has %d", types.ErrRefInUse, key, n)
	}
	r.unregister(ref)
	return nil
}

// RemoveUnused unregisters every ref with no live targets and returns how
// many were removed.
func (r *Registry) RemoveUnused() int {
	var unused []Ref
	for _, ref := range r.refs {
		if ref.Users() == 0 {
			unused = append(unused, ref)
		}
	}
	for _, ref := range unused {
		r.unregister(ref)
	}
	return len(unused)
}

func (r *Registry) unregister(ref Ref) {
	key := ref.Key()
	r.fanIn[key].Unsubscribe()
	delete(r.fanIn, key)
	delete(r.byKey, key)
	for i, v := range r.refs {
		if v == ref {
			r.refs = append(r.refs[:i], r.refs[i+1:]...)
			break
		}
	}
	r.logger.Debug("ref removed", slog.String("ref", key.String()))
	if key.Kind == KindController {
		r.changed.Emit(StructureChanged{Ref: ref, Added: false})
	}
}

// ClearSelection deselects every ref.
func (r *Registry) ClearSelection() {
	for _, ref := range r.refs {
		ref.SetSelected(false)
	}
}

// Selected returns the selected refs in creation order.
func (r *Registry) Selected() []Ref {
	var out []Ref
	for _, ref := range r.refs {
		if ref.Selected() {
			out = append(out, ref)
		}
	}
	return out
}

// Record returns the persisted state of every ref in creation order.
func (r *Registry) Record() []types.RefRecord {
	out := make([]types.RefRecord, 0, len(r.refs))
	for _, ref := range r.refs {
		out = append(out, ref.Record())
	}
	return out
}

// Restore gets or creates the ref named by rec and applies its UI state.
func (r *Registry) Restore(rec types.RefRecord) (Ref, error) {
	var ref Ref
	if rec.Kind == KindParam {
		var opts []ParamOption
		if rec.Owned {
			opts = append(opts, WithOwned())
		}
		ref = r.GetOrCreateParam(rec.Owner, rec.Component, rec.Name, opts...)
	} else {
		var err error
		if ref, err = r.GetOrCreate(rec.RefIdentity); err != nil {
			return nil, err
		}
	}
	ref.Restore(rec)
	return ref, nil
}

// Dispose detaches the selection fan-in from every ref. Ref flags are left
// as they are.
func (r *Registry) Dispose() {
	for key, sub := range r.fanIn {
		sub.Unsubscribe()
		delete(r.fanIn, key)
	}
}
