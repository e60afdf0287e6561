// Package session ties the animation model to a store: one registry and one
// clipboard shared by every open clip, with clips and ref state loaded from
// and saved to the clips and refs tables.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mesh-intelligence/timeline/internal/clip"
	"github.com/mesh-intelligence/timeline/internal/clipboard"
	"github.com/mesh-intelligence/timeline/internal/refs"
	"github.com/mesh-intelligence/timeline/pkg/types"
)

// Session owns the open clips of one attached store.
type Session struct {
	store     types.Store
	clips     types.Table
	refTable  types.Table
	registry  *refs.Registry
	clipboard *clipboard.Clipboard
	anim      types.AnimationConfig
	open      map[string]*clip.Clip
	logger    *slog.Logger
}

// Open starts a session on an attached store.
func Open(store types.Store, anim types.AnimationConfig) (*Session, error) {
	clips, err := store.GetTable(types.TableClips)
	if err != nil {
		return nil, fmt.Errorf("opening clips table: %w", err)
	}
	refTable, err := store.GetTable(types.TableRefs)
	if err != nil {
		return nil, fmt.Errorf("opening refs table: %w", err)
	}
	return &Session{
		store:     store,
		clips:     clips,
		refTable:  refTable,
		registry:  refs.NewRegistry(),
		clipboard: clipboard.New(),
		anim:      anim,
		open:      make(map[string]*clip.Clip),
		logger:    slog.Default().With(slog.String("component", "session")),
	}, nil
}

// Registry returns the ref registry shared by all open clips.
func (s *Session) Registry() *refs.Registry { return s.registry }

// Clipboard returns the session clipboard.
func (s *Session) Clipboard() *clipboard.Clipboard { return s.clipboard }

// Animation returns the authoring defaults the session was opened with.
func (s *Session) Animation() types.AnimationConfig { return s.anim }

// NewClip creates and opens an unsaved clip. A non-positive length uses the
// configured default.
func (s *Session) NewClip(name, layer string, length float64) (*clip.Clip, error) {
	if length <= 0 {
		length = s.anim.LengthOrDefault()
	}
	c, err := clip.New(name, layer, length)
	if err != nil {
		return nil, err
	}
	s.open[c.ID()] = c
	s.logger.Debug("clip created", slog.String("clip", c.ID()), slog.String("name", name))
	return c, nil
}

// Clip returns an open clip by id.
func (s *Session) Clip(id string) (*clip.Clip, bool) {
	c, ok := s.open[id]
	return c, ok
}

// Clips returns the open clips ordered by creation time.
func (s *Session) Clips() []*clip.Clip {
	out := make([]*clip.Clip, 0, len(s.open))
	for _, c := range s.open {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].ID() < out[j].ID()
		}
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out
}

// List returns the stored clip records matching filter (see the clips
// table for keys).
func (s *Session) List(filter map[string]any) ([]*types.ClipRecord, error) {
	rows, err := s.clips.Fetch(filter)
	if err != nil {
		return nil, err
	}
	out := make([]*types.ClipRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.(*types.ClipRecord))
	}
	return out, nil
}

// LoadClip opens a stored clip. Ref state saved with the clip is restored
// into the registry before the targets are built. An already open clip is
// returned as is.
func (s *Session) LoadClip(id string) (*clip.Clip, error) {
	if c, ok := s.open[id]; ok {
		return c, nil
	}
	row, err := s.clips.Get(id)
	if err != nil {
		return nil, fmt.Errorf("loading clip %s: %w", id, err)
	}
	return s.Import(row.(*types.ClipRecord))
}

// Import opens a clip from a record that may not be stored yet, such as
// one read from a YAML file.
func (s *Session) Import(rec *types.ClipRecord) (*clip.Clip, error) {
	if rec == nil {
		return nil, types.ErrInvalidData
	}
	if err := s.restoreRefs(rec); err != nil {
		return nil, err
	}
	c, err := clip.FromRecord(rec, s.registry)
	if err != nil {
		return nil, err
	}
	if prev, ok := s.open[c.ID()]; ok {
		prev.Dispose()
	}
	s.open[c.ID()] = c
	s.logger.Debug("clip opened", slog.String("clip", c.ID()), slog.Int("targets", c.Len()))
	return c, nil
}

func (s *Session) restoreRefs(rec *types.ClipRecord) error {
	for _, t := range rec.Targets {
		if _, ok := s.registry.Lookup(t.Ref); ok {
			continue
		}
		row, err := s.refTable.Get(t.Ref.String())
		if errors.Is(err, types.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("loading ref %s: %w", t.Ref, err)
		}
		if _, err := s.registry.Restore(*row.(*types.RefRecord)); err != nil {
			return err
		}
	}
	return nil
}

// SaveClip stores the clip and the state of every ref it animates.
func (s *Session) SaveClip(c *clip.Clip) error {
	if _, err := s.clips.Set(c.ID(), c.Record()); err != nil {
		return fmt.Errorf("saving clip %s: %w", c.ID(), err)
	}
	for _, ref := range c.Refs() {
		rec := ref.Record()
		if _, err := s.refTable.Set("", &rec); err != nil {
			return fmt.Errorf("saving ref %s: %w", ref.Key(), err)
		}
	}
	s.open[c.ID()] = c
	s.logger.Debug("clip saved", slog.String("clip", c.ID()), slog.Int("targets", c.Len()))
	return nil
}

// CloseClip disposes an open clip without touching the store.
func (s *Session) CloseClip(id string) {
	if c, ok := s.open[id]; ok {
		c.Dispose()
		delete(s.open, id)
		s.registry.RemoveUnused()
	}
}

// DeleteClip disposes the clip if open, removes it from the store and
// drops refs no open clip uses any more. Deleting an unsaved open clip is
// not an error.
func (s *Session) DeleteClip(id string) error {
	c, wasOpen := s.open[id]
	if wasOpen {
		c.Dispose()
		delete(s.open, id)
	}
	err := s.clips.Delete(id)
	if errors.Is(err, types.ErrNotFound) && wasOpen {
		err = nil
	}
	pruned := s.registry.RemoveUnused()
	s.logger.Debug("clip deleted", slog.String("clip", id), slog.Int("pruned_refs", pruned))
	return err
}

// Validate checks every target of c against the configured minimum
// keyframe count.
func (s *Session) Validate(c *clip.Clip) []error {
	return c.Validate(s.anim.MinKeyframesOrDefault())
}

// Close disposes every open clip and the registry, then detaches the store.
func (s *Session) Close() error {
	for id, c := range s.open {
		c.Dispose()
		delete(s.open, id)
	}
	s.registry.Dispose()
	s.clipboard.Clear()
	return s.store.Detach()
}
