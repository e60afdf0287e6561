package clip

import (
	"fmt"
	"time"

	"github.com/mesh-intelligence/timeline/internal/refs"
	"github.com/mesh-intelligence/timeline/pkg/types"
)

// Record returns the persisted shape of the clip. Control points are
// computed before they are captured.
func (c *Clip) Record() *types.ClipRecord {
	rec := &types.ClipRecord{
		ClipID:    c.id,
		Name:      c.name,
		Layer:     c.layer,
		Length:    c.length,
		CreatedAt: c.createdAt,
		UpdatedAt: c.updatedAt,
		Targets:   make([]types.TargetRecord, 0, len(c.targets)),
	}
	for _, tg := range c.targets {
		rec.Targets = append(rec.Targets, tg.Record())
	}
	return rec
}

// Refs returns the refs animated by the clip in target order.
func (c *Clip) Refs() []refs.Ref {
	out := make([]refs.Ref, 0, len(c.targets))
	for _, tg := range c.targets {
		out = append(out, tg.Ref())
	}
	return out
}

// FromRecord rebuilds a clip from rec, resolving every target's ref through
// reg. The returned clip is clean: no target is dirty.
func FromRecord(rec *types.ClipRecord, reg *refs.Registry) (*Clip, error) {
	if rec == nil {
		return nil, types.ErrInvalidData
	}
	id := rec.ClipID
	if id == "" {
		id = generateID()
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	c, err := newClip(id, rec.Name, rec.Layer, rec.Length, created)
	if err != nil {
		return nil, err
	}

	for _, trec := range rec.Targets {
		ref, err := reg.GetOrCreate(trec.Ref)
		if err != nil {
			c.Dispose()
			return nil, fmt.Errorf("clip %s: %w", id, err)
		}
		tg, err := c.Add(ref)
		if err != nil {
			c.Dispose()
			return nil, fmt.Errorf("clip %s: %w", id, err)
		}
		if err := tg.Load(trec); err != nil {
			c.Dispose()
			return nil, fmt.Errorf("clip %s: %w", id, err)
		}
		tg.ClearDirty()
	}

	c.updatedAt = rec.UpdatedAt
	if c.updatedAt.IsZero() {
		c.updatedAt = created
	}
	return c, nil
}
