// Package clipboard implements cut, copy and paste of keyframes across
// targets. A copy captures value-only snapshots paired with the ref they
// came from; paste resolves each ref to a target in the destination by
// identity and writes the snapshots back, shifted in time as a rigid block.
package clipboard

import (
	"errors"
	"log/slog"
	"sort"

	"github.com/mesh-intelligence/timeline/internal/refs"
	"github.com/mesh-intelligence/timeline/internal/target"
	"github.com/mesh-intelligence/timeline/pkg/types"
)

// Entry pairs a ref with the snapshot captured from its target.
type Entry struct {
	Ref      refs.Ref
	Snapshot types.Snapshot
}

// Frame holds the entries captured at one time, grouped by ref kind.
type Frame struct {
	Time        float64
	Controllers []Entry
	Params      []Entry
	Triggers    []Entry
}

// Empty reports whether the frame holds no entries of any kind.
func (f *Frame) Empty() bool {
	return len(f.Controllers) == 0 && len(f.Params) == 0 && len(f.Triggers) == 0
}

// Len returns the number of entries.
func (f *Frame) Len() int {
	return len(f.Controllers) + len(f.Params) + len(f.Triggers)
}

// Entries returns controllers, then params, then triggers.
func (f *Frame) Entries() []Entry {
	out := make([]Entry, 0, f.Len())
	out = append(out, f.Controllers...)
	out = append(out, f.Params...)
	return append(out, f.Triggers...)
}

func (f *Frame) add(e Entry) {
	switch e.Ref.Kind() {
	case refs.KindController:
		f.Controllers = append(f.Controllers, e)
	case refs.KindParam:
		f.Params = append(f.Params, e)
	case refs.KindTrigger:
		f.Triggers = append(f.Triggers, e)
	}
}

// Resolver finds the destination target for a ref key. *clip.Clip
// satisfies it.
type Resolver interface {
	FindTarget(key refs.Key) (target.Target, bool)
}

// Clipboard holds the result of the last cut or copy. Each cut or copy
// replaces the contents; paste leaves them in place.
type Clipboard struct {
	time   float64
	frames []Frame
	logger *slog.Logger
}

// New returns an empty clipboard.
func New() *Clipboard {
	return &Clipboard{logger: slog.Default().With(slog.String("component", "clipboard"))}
}

// Time returns the time the contents were captured at.
func (c *Clipboard) Time() float64 { return c.time }

// Frames returns the captured frames in time order.
func (c *Clipboard) Frames() []Frame {
	out := make([]Frame, len(c.frames))
	copy(out, c.frames)
	return out
}

// Len returns the number of captured entries.
func (c *Clipboard) Len() int {
	n := 0
	for i := range c.frames {
		n += c.frames[i].Len()
	}
	return n
}

// Empty reports whether there is nothing to paste.
func (c *Clipboard) Empty() bool { return c.Len() == 0 }

// Clear drops the contents.
func (c *Clipboard) Clear() {
	c.time = 0
	c.frames = nil
}

func capture(targets []target.Target, t float64) Frame {
	f := Frame{Time: t}
	for _, tg := range targets {
		if s, ok := tg.GetSnapshot(t); ok {
			f.add(Entry{Ref: tg.Ref(), Snapshot: types.CloneSnapshot(s)})
		}
	}
	return f
}

// Copy replaces the contents with the snapshots of targets at t. Targets
// with no keyframe at t are left out. Returns the number of entries.
func (c *Clipboard) Copy(targets []target.Target, t float64) int {
	f := capture(targets, t)
	c.time = t
	c.frames = []Frame{f}
	c.logger.Debug("copied", slog.Float64("time", t), slog.Int("entries", f.Len()))
	return f.Len()
}

// CopyRange replaces the contents with one frame per keyframe time in
// [from, to] across targets. The clipboard time is the first captured time.
func (c *Clipboard) CopyRange(targets []target.Target, from, to float64) int {
	seen := make(map[float64]struct{})
	var times []float64
	for _, tg := range targets {
		for _, t := range tg.GetAllKeyframeTimes() {
			if t < from || t > to {
				continue
			}
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				times = append(times, t)
			}
		}
	}
	sort.Float64s(times)

	c.Clear()
	for _, t := range times {
		if f := capture(targets, t); !f.Empty() {
			c.frames = append(c.frames, f)
		}
	}
	if len(c.frames) > 0 {
		c.time = c.frames[0].Time
	} else {
		c.time = from
	}
	n := c.Len()
	c.logger.Debug("copied range",
		slog.Float64("from", from), slog.Float64("to", to),
		slog.Int("frames", len(c.frames)), slog.Int("entries", n))
	return n
}

// Cut copies targets at t, then deletes the copied keyframes. Each affected
// target is edited in one bulk scope.
func (c *Clipboard) Cut(targets []target.Target, t float64) (int, error) {
	n := c.Copy(targets, t)
	var errs []error
	for _, tg := range targets {
		if !tg.HasKeyframe(t) {
			continue
		}
		err := tg.BulkUpdates(func() error {
			tg.DeleteFrame(t)
			return nil
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	return n, errors.Join(errs...)
}

type pending struct {
	time     float64
	snapshot types.Snapshot
}

// Paste writes the contents into dest with every frame moved by
// atTime - Time(). Entries whose ref has no target in dest are skipped.
// Each destination target is edited in one bulk scope, so it notifies once.
// Returns the number of snapshots applied; snapshots that do not fit their
// target are reported in the joined error and not counted.
func (c *Clipboard) Paste(dest Resolver, atTime float64) (int, error) {
	if c.Empty() {
		return 0, nil
	}

	var order []target.Target
	byTarget := make(map[target.Target][]pending)
	skipped := 0
	for i := range c.frames {
		f := &c.frames[i]
		at := atTime + (f.Time - c.time)
		for _, e := range f.Entries() {
			tg, ok := dest.FindTarget(e.Ref.Key())
			if !ok {
				skipped++
				continue
			}
			if _, seen := byTarget[tg]; !seen {
				order = append(order, tg)
			}
			byTarget[tg] = append(byTarget[tg], pending{time: at, snapshot: types.CloneSnapshot(e.Snapshot)})
		}
	}

	applied := 0
	var errs []error
	for _, tg := range order {
		err := tg.BulkUpdates(func() error {
			var errs []error
			for _, p := range byTarget[tg] {
				if err := tg.SetSnapshot(p.time, p.snapshot); err != nil {
					errs = append(errs, err)
					continue
				}
				applied++
			}
			return errors.Join(errs...)
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	c.logger.Debug("pasted",
		slog.Float64("at", atTime), slog.Int("applied", applied), slog.Int("skipped", skipped))
	return applied, errors.Join(errs...)
}
