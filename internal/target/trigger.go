package target

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/mesh-intelligence/timeline/internal/refs"
	"github.com/mesh-intelligence/timeline/pkg/types"
)

// emptyPayload is stored by edge frames.
var emptyPayload = json.RawMessage("null")

// Trigger is one keyed trigger payload.
type Trigger struct {
	Time    float64
	Payload json.RawMessage
}

// TriggerTarget stores opaque payloads keyed by whole milliseconds. There is
// no interpolation: only exact-time lookup is meaningful.
type TriggerTarget struct {
	core[*refs.TriggerRef]
	entries map[int64]json.RawMessage
}

// NewTrigger returns an empty target for ref in the clip clipID.
func NewTrigger(ref *refs.TriggerRef, clipID string) *TriggerTarget {
	t := &TriggerTarget{entries: make(map[int64]json.RawMessage)}
	t.init(t, ref, clipID)
	return t
}

// Track returns the trigger track ref.
func (t *TriggerTarget) Track() *refs.TriggerRef { return t.ref }

func toMs(time float64) int64 {
	return int64(math.Round(time * 1000))
}

func fromMs(ms int64) float64 {
	return float64(ms) / 1000
}

func clonePayload(p json.RawMessage) json.RawMessage {
	if p == nil {
		return nil
	}
	return append(json.RawMessage(nil), p...)
}

func (t *TriggerTarget) sortedMs() []int64 {
	keys := make([]int64, 0, len(t.entries))
	for ms := range t.entries {
		keys = append(keys, ms)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// SetKeyframe stores payload at time, replacing any payload already there.
func (t *TriggerTarget) SetKeyframe(time float64, payload json.RawMessage) {
	t.entries[toMs(time)] = clonePayload(payload)
	t.SetDirty()
}

// Lookup returns the payload stored at exactly time.
func (t *TriggerTarget) Lookup(time float64) (json.RawMessage, bool) {
	p, ok := t.entries[toMs(time)]
	if !ok {
		return nil, false
	}
	return clonePayload(p), true
}

// TriggersBetween returns the triggers with from < time <= to in time order,
// the set crossed when playback advances from from to to.
func (t *TriggerTarget) TriggersBetween(from, to float64) []Trigger {
	lo, hi := toMs(from), toMs(to)
	var out []Trigger
	for _, ms := range t.sortedMs() {
		if ms > lo && ms <= hi {
			out = append(out, Trigger{Time: fromMs(ms), Payload: clonePayload(t.entries[ms])})
		}
	}
	return out
}

func (t *TriggerTarget) GetAllKeyframeTimes() []float64 {
	keys := t.sortedMs()
	times := make([]float64, len(keys))
	for i, ms := range keys {
		times[i] = fromMs(ms)
	}
	return times
}

func (t *TriggerTarget) HasKeyframe(time float64) bool {
	_, ok := t.entries[toMs(time)]
	return ok
}

// DeleteFrame removes the payload at time, if any.
func (t *TriggerTarget) DeleteFrame(time float64) {
	ms := toMs(time)
	if _, ok := t.entries[ms]; !ok {
		return
	}
	delete(t.entries, ms)
	t.SetDirty()
}

// AddEdgeFramesIfMissing stores empty payloads at 0 and length on a track
// that has entries but none at the edges.
func (t *TriggerTarget) AddEdgeFramesIfMissing(length float64) {
	if len(t.entries) == 0 {
		return
	}
	t.edit(func() {
		for _, edge := range []float64{0, length} {
			if !t.HasKeyframe(edge) {
				t.entries[toMs(edge)] = emptyPayload
				t.SetDirty()
			}
		}
	})
}

func (t *TriggerTarget) GetSnapshot(time float64) (types.Snapshot, bool) {
	p, ok := t.Lookup(time)
	if !ok {
		return nil, false
	}
	return types.TriggerSnapshot{Payload: p}, true
}

func (t *TriggerTarget) SetSnapshot(time float64, s types.Snapshot) error {
	if err := t.checkSnapshot(s); err != nil {
		return err
	}
	t.SetKeyframe(time, s.(types.TriggerSnapshot).Payload)
	return nil
}

// Validate always succeeds: a trigger track may hold any number of entries.
func (t *TriggerTarget) Validate(int) error { return nil }

// Rebuild clears the dirty flag and fires KeyframesRebuilt. Trigger tracks
// have no control points to recompute.
func (t *TriggerTarget) Rebuild() { t.rebuilt() }

func (t *TriggerTarget) Record() types.TargetRecord {
	keys := t.sortedMs()
	entries := make([]types.TriggerEntry, len(keys))
	for i, ms := range keys {
		entries[i] = types.TriggerEntry{TimeMs: ms, Payload: clonePayload(t.entries[ms])}
	}
	return types.TargetRecord{Ref: t.ref.Key(), Entries: entries}
}

// Load replaces the entries with those of rec.
func (t *TriggerTarget) Load(rec types.TargetRecord) error {
	if rec.Ref.Kind != types.RefKindTrigger {
		return fmt.Errorf("%w: %s is not a trigger record", types.ErrInvalidData, rec.Ref)
	}
	t.entries = make(map[int64]json.RawMessage, len(rec.Entries))
	for _, e := range rec.Entries {
		if len(e.Payload) == 0 {
			t.entries[e.TimeMs] = emptyPayload
			continue
		}
		t.entries[e.TimeMs] = clonePayload(e.Payload)
	}
	t.SetDirty()
	return nil
}
