// Package target binds refs to the curves a clip animates them with.
//
// A target is the unit of keyframe editing. It owns its curves, holds its
// ref without owning it, and tracks a dirty flag whose change notification
// is coalesced across bulk-update scopes: edits made while a scope is open
// produce a single KeyframesDirty when the outermost scope closes.
package target

import (
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/timeline/internal/events"
	"github.com/mesh-intelligence/timeline/internal/refs"
	"github.com/mesh-intelligence/timeline/pkg/types"
)

// KeyframesDirty is emitted when a target's keyframes changed.
type KeyframesDirty struct {
	Target Target
}

// KeyframesRebuilt is emitted after a full control point recompute.
type KeyframesRebuilt struct {
	Target Target
}

// Target is the surface shared by scalar, transform and trigger targets.
type Target interface {
	Ref() refs.Ref
	ClipID() string

	GetAllKeyframeTimes() []float64
	HasKeyframe(t float64) bool
	DeleteFrame(t float64)
	AddEdgeFramesIfMissing(length float64)
	GetSnapshot(t float64) (types.Snapshot, bool)
	SetSnapshot(t float64, s types.Snapshot) error
	Validate(minKeyframes int) error

	Dirty() bool
	SetDirty()
	ClearDirty()
	StartBulkUpdates()
	EndBulkUpdates() error
	BulkUpdates(fn func() error) error
	Rebuild()
	KeyframesDirty() *events.Signal[KeyframesDirty]
	KeyframesRebuilt() *events.Signal[KeyframesRebuilt]

	Record() types.TargetRecord
	Load(rec types.TargetRecord) error
	Dispose()
	Disposed() bool
}

// core is the ref-typed state embedded by every target variant.
type core[R refs.Ref] struct {
	self     Target
	ref      R
	clipID   string
	dirty    bool
	bulk     int
	disposed bool
	logger   *slog.Logger

	dirtySig   events.Signal[KeyframesDirty]
	rebuiltSig events.Signal[KeyframesRebuilt]

	// closing runs when the outermost bulk scope ends, before the dirty
	// notification.
	closing func()
}

func (c *core[R]) init(self Target, ref R, clipID string) {
	c.self = self
	c.ref = ref
	c.clipID = clipID
	c.logger = slog.Default().With(
		slog.String("component", "target"),
		slog.String("ref", ref.Key().String()),
	)
	ref.Acquire()
}

// Ref returns the animated ref.
func (c *core[R]) Ref() refs.Ref { return c.ref }

// ClipID returns the id of the owning clip.
func (c *core[R]) ClipID() string { return c.clipID }

// Dirty reports whether keyframes changed since the last ClearDirty or
// Rebuild.
func (c *core[R]) Dirty() bool { return c.dirty }

// SetDirty marks the target dirty. Outside a bulk scope KeyframesDirty fires
// immediately; inside one it fires when the outermost scope closes.
func (c *core[R]) SetDirty() {
	c.dirty = true
	if c.bulk == 0 {
		c.dirtySig.Emit(KeyframesDirty{Target: c.self})
	}
}

// ClearDirty resets the dirty flag without notifying.
func (c *core[R]) ClearDirty() { c.dirty = false }

// InBulk reports whether a bulk scope is open.
func (c *core[R]) InBulk() bool { return c.bulk > 0 }

// StartBulkUpdates opens a bulk scope. Scopes nest.
func (c *core[R]) StartBulkUpdates() { c.bulk++ }

// EndBulkUpdates closes a bulk scope. Closing the outermost scope fires one
// KeyframesDirty if the target is dirty. Calling it with no open scope
// returns ErrUnbalancedBulkUpdates.
func (c *core[R]) EndBulkUpdates() error {
	if c.bulk == 0 {
		return fmt.Errorf("%w: %s", types.ErrUnbalancedBulkUpdates, c.ref.Key())
	}
	c.bulk--
	if c.bulk > 0 {
		return nil
	}
	if c.closing != nil {
		c.closing()
	}
	if c.dirty {
		c.dirtySig.Emit(KeyframesDirty{Target: c.self})
	}
	return nil
}

// BulkUpdates runs fn inside a bulk scope that is closed on every exit path,
// including a panic in fn.
func (c *core[R]) BulkUpdates(fn func() error) (err error) {
	c.StartBulkUpdates()
	defer func() {
		if endErr := c.EndBulkUpdates(); err == nil {
			err = endErr
		}
	}()
	return fn()
}

// edit runs fn as a one-edit bulk scope.
func (c *core[R]) edit(fn func()) {
	c.StartBulkUpdates()
	fn()
	_ = c.EndBulkUpdates()
}

// KeyframesDirty returns the coalesced change signal.
func (c *core[R]) KeyframesDirty() *events.Signal[KeyframesDirty] { return &c.dirtySig }

// KeyframesRebuilt returns the rebuild signal.
func (c *core[R]) KeyframesRebuilt() *events.Signal[KeyframesRebuilt] { return &c.rebuiltSig }

// rebuilt clears the dirty flag and fires KeyframesRebuilt.
func (c *core[R]) rebuilt() {
	c.dirty = false
	c.rebuiltSig.Emit(KeyframesRebuilt{Target: c.self})
}

// Dispose releases the ref and drops every listener. It is idempotent.
func (c *core[R]) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	c.dirtySig.Clear()
	c.rebuiltSig.Clear()
	c.ref.Release()
}

// Disposed reports whether Dispose was called.
func (c *core[R]) Disposed() bool { return c.disposed }

func (c *core[R]) checkSnapshot(s types.Snapshot) error {
	if c.disposed {
		return types.ErrTargetDisposed
	}
	if s == nil || s.Kind() != c.ref.Kind() {
		return fmt.Errorf("%w: %s", types.ErrSnapshotMismatch, c.ref.Key())
	}
	return nil
}

// New returns an empty target of the variant matching ref.
func New(ref refs.Ref, clipID string) (Target, error) {
	switch r := ref.(type) {
	case *refs.ParamRef:
		return NewScalar(r, clipID), nil
	case *refs.ControllerRef:
		return NewTransform(r, clipID), nil
	case *refs.TriggerRef:
		return NewTrigger(r, clipID), nil
	default:
		return nil, fmt.Errorf("%w: %T", types.ErrInvalidRefKind, ref)
	}
}
