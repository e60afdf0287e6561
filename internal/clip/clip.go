// Package clip implements the clip: a named animation unit holding the
// targets a layer animates over a bounded time range.
package clip

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/timeline/internal/events"
	"github.com/mesh-intelligence/timeline/internal/refs"
	"github.com/mesh-intelligence/timeline/internal/target"
	"github.com/mesh-intelligence/timeline/pkg/types"
)

// TargetsChanged is emitted when a target is added to or removed from a
// clip.
type TargetsChanged struct {
	Clip   *Clip
	Target target.Target
	Added  bool
}

// Clip owns one target per animated ref, in insertion order.
type Clip struct {
	id        string
	name      string
	layer     string
	length    float64
	createdAt time.Time
	updatedAt time.Time

	targets []target.Target
	byKey   map[refs.Key]target.Target
	fanIn   map[refs.Key]*events.Subscription

	dirtySig   events.Signal[target.KeyframesDirty]
	changedSig events.Signal[TargetsChanged]
	logger     *slog.Logger
}

// generateID returns a UUID v7, falling back to v4.
func generateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// New returns an empty clip with a fresh id.
func New(name, layer string, length float64) (*Clip, error) {
	return newClip(generateID(), name, layer, length, time.Now().UTC())
}

func newClip(id, name, layer string, length float64, created time.Time) (*Clip, error) {
	if name == "" {
		return nil, types.ErrInvalidName
	}
	if length <= 0 {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidLength, length)
	}
	return &Clip{
		id:        id,
		name:      name,
		layer:     layer,
		length:    length,
		createdAt: created,
		updatedAt: created,
		byKey:     make(map[refs.Key]target.Target),
		fanIn:     make(map[refs.Key]*events.Subscription),
		logger: slog.Default().With(
			slog.String("component", "clip"),
			slog.String("clip_id", id),
		),
	}, nil
}

func (c *Clip) ID() string           { return c.id }
func (c *Clip) Name() string         { return c.name }
func (c *Clip) Layer() string        { return c.layer }
func (c *Clip) Length() float64      { return c.length }
func (c *Clip) CreatedAt() time.Time { return c.createdAt }
func (c *Clip) UpdatedAt() time.Time { return c.updatedAt }

// Rename changes the display name.
func (c *Clip) Rename(name string) error {
	if name == "" {
		return types.ErrInvalidName
	}
	c.name = name
	c.touch()
	return nil
}

// SetLength changes the declared length. Keyframes past the new length are
// kept.
func (c *Clip) SetLength(length float64) error {
	if length <= 0 {
		return fmt.Errorf("%w: %v", types.ErrInvalidLength, length)
	}
	c.length = length
	c.touch()
	return nil
}

func (c *Clip) touch() {
	c.updatedAt = time.Now().UTC()
}

// KeyframesDirty forwards the dirty notifications of every target.
func (c *Clip) KeyframesDirty() *events.Signal[target.KeyframesDirty] { return &c.dirtySig }

// TargetsChanged fires when targets are added or removed.
func (c *Clip) TargetsChanged() *events.Signal[TargetsChanged] { return &c.changedSig }

// Add returns the clip's target for ref, creating it on first use.
func (c *Clip) Add(ref refs.Ref) (target.Target, error) {
	if tg, ok := c.byKey[ref.Key()]; ok {
		return tg, nil
	}
	tg, err := target.New(ref, c.id)
	if err != nil {
		return nil, err
	}
	c.attach(tg)
	return tg, nil
}

// AddParam returns the scalar target for ref, creating it on first use.
func (c *Clip) AddParam(ref *refs.ParamRef) *target.ScalarTarget {
	tg, _ := c.Add(ref)
	return tg.(*target.ScalarTarget)
}

// AddController returns the transform target for ref, creating it on first
// use.
func (c *Clip) AddController(ref *refs.ControllerRef) *target.TransformTarget {
	tg, _ := c.Add(ref)
	return tg.(*target.TransformTarget)
}

// AddTrigger returns the trigger target for ref, creating it on first use.
func (c *Clip) AddTrigger(ref *refs.TriggerRef) *target.TriggerTarget {
	tg, _ := c.Add(ref)
	return tg.(*target.TriggerTarget)
}

func (c *Clip) attach(tg target.Target) {
	key := tg.Ref().Key()
	c.targets = append(c.targets, tg)
	c.byKey[key] = tg
	c.fanIn[key] = tg.KeyframesDirty().Subscribe(func(ev target.KeyframesDirty) {
		c.touch()
		c.dirtySig.Emit(ev)
	})
	c.changedSig.Emit(TargetsChanged{Clip: c, Target: tg, Added: true})
}

// RemoveTarget disposes the target for key and releases its ref.
func (c *Clip) RemoveTarget(key refs.Key) error {
	tg, ok := c.byKey[key]
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrTargetNotFound, key)
	}
	c.detach(key)
	for i, v := range c.targets {
		if v == tg {
			c.targets = append(c.targets[:i], c.targets[i+1:]...)
			break
		}
	}
	tg.Dispose()
	c.touch()
	c.changedSig.Emit(TargetsChanged{Clip: c, Target: tg, Added: false})
	return nil
}

func (c *Clip) detach(key refs.Key) {
	c.fanIn[key].Unsubscribe()
	delete(c.fanIn, key)
	delete(c.byKey, key)
}

// FindTarget returns the target bound to key.
func (c *Clip) FindTarget(key refs.Key) (target.Target, bool) {
	tg, ok := c.byKey[key]
	return tg, ok
}

// Targets returns every target in insertion order.
func (c *Clip) Targets() []target.Target {
	out := make([]target.Target, len(c.targets))
	copy(out, c.targets)
	return out
}

// Len returns the number of targets.
func (c *Clip) Len() int { return len(c.targets) }

// Selected returns the targets whose ref is selected, or every target when
// none is.
func (c *Clip) Selected() []target.Target {
	var out []target.Target
	for _, tg := range c.targets {
		if tg.Ref().Selected() {
			out = append(out, tg)
		}
	}
	if len(out) == 0 {
		return c.Targets()
	}
	return out
}

// Scalars returns the scalar targets in insertion order.
func (c *Clip) Scalars() []*target.ScalarTarget { return collect[*target.ScalarTarget](c.targets) }

// Transforms returns the transform targets in insertion order.
func (c *Clip) Transforms() []*target.TransformTarget {
	return collect[*target.TransformTarget](c.targets)
}

// Triggers returns the trigger targets in insertion order.
func (c *Clip) Triggers() []*target.TriggerTarget { return collect[*target.TriggerTarget](c.targets) }

func collect[T target.Target](targets []target.Target) []T {
	var out []T
	for _, tg := range targets {
		if v, ok := tg.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// GetAllKeyframeTimes returns the union of every target's keyframe times.
func (c *Clip) GetAllKeyframeTimes() []float64 {
	seen := make(map[float64]struct{})
	var times []float64
	for _, tg := range c.targets {
		for _, t := range tg.GetAllKeyframeTimes() {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				times = append(times, t)
			}
		}
	}
	sort.Float64s(times)
	return times
}

// AddEdgeFramesIfMissing keys 0 and the clip length on every target.
func (c *Clip) AddEdgeFramesIfMissing() {
	for _, tg := range c.targets {
		tg.AddEdgeFramesIfMissing(c.length)
	}
}

// Validate checks every curve-backed target for at least minKeyframes
// keyframes. Failures are logged and returned; the clip stays usable.
func (c *Clip) Validate(minKeyframes int) []error {
	var errs []error
	for _, tg := range c.targets {
		if err := tg.Validate(minKeyframes); err != nil {
			c.logger.Warn("target not playable",
				slog.String("ref", tg.Ref().Key().String()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, err)
		}
	}
	return errs
}

// Dirty reports whether any target is dirty.
func (c *Clip) Dirty() bool {
	for _, tg := range c.targets {
		if tg.Dirty() {
			return true
		}
	}
	return false
}

// Rebuild recomputes every dirty target.
func (c *Clip) Rebuild() int {
	n := 0
	for _, tg := range c.targets {
		if tg.Dirty() {
			tg.Rebuild()
			n++
		}
	}
	return n
}

// Dispose disposes every target, releasing their refs, and drops the
// clip's listeners.
func (c *Clip) Dispose() {
	for _, tg := range c.targets {
		c.detach(tg.Ref().Key())
		tg.Dispose()
	}
	c.targets = nil
	c.dirtySig.Clear()
	c.changedSig.Clear()
}
