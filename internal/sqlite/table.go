package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mesh-intelligence/timeline/pkg/types"
)

// table implements types.Table for one record type. Every call dispatches on
// the table name and holds the backend lock for its duration.
type table struct {
	name    string
	backend *Backend
}

var _ types.Table = (*table)(nil)

func newTable(b *Backend, name string) *table {
	return &table{name: name, backend: b}
}

// Get retrieves a record by id.
// Returns ErrInvalidID if id is empty, ErrNotFound if not found.
func (t *table) Get(id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	if !t.backend.attached {
		return nil, types.ErrStoreDetached
	}

	switch t.name {
	case types.TableClips:
		return t.getClip(id)
	case types.TableRefs:
		return t.getRef(id)
	default:
		return nil, types.ErrTableNotFound
	}
}

// Set creates or updates a record and returns the id it is stored under.
func (t *table) Set(id string, data any) (string, error) {
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return "", types.ErrStoreDetached
	}

	switch t.name {
	case types.TableClips:
		return t.setClip(id, data)
	case types.TableRefs:
		return t.setRef(id, data)
	default:
		return "", types.ErrTableNotFound
	}
}

// Delete removes a record by id.
// Returns ErrInvalidID if id is empty, ErrNotFound if not found.
func (t *table) Delete(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return types.ErrStoreDetached
	}

	switch t.name {
	case types.TableClips:
		return t.deleteRow("clips", "clip_id", id)
	case types.TableRefs:
		return t.deleteRow("refs", "ref_id", id)
	default:
		return types.ErrTableNotFound
	}
}

// Fetch returns the records matching filter. An empty filter matches all.
func (t *table) Fetch(filter map[string]any) ([]any, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	if !t.backend.attached {
		return nil, types.ErrStoreDetached
	}

	switch t.name {
	case types.TableClips:
		return t.fetchClips(filter)
	case types.TableRefs:
		return t.fetchRefs(filter)
	default:
		return nil, types.ErrTableNotFound
	}
}

// Clip records.

func (t *table) getClip(id string) (any, error) {
	row := t.backend.db.QueryRow("SELECT "+clipColumns+" FROM clips WHERE clip_id = ?", id)
	rec, err := hydrateClip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting clip %s: %w", id, err)
	}
	return rec, nil
}

// setClip upserts a *types.ClipRecord. An empty id with an empty ClipID
// creates the clip under a new UUID v7.
func (t *table) setClip(id string, data any) (string, error) {
	rec, ok := data.(*types.ClipRecord)
	if !ok || rec == nil {
		return "", types.ErrInvalidData
	}
	if rec.Name == "" {
		return "", types.ErrInvalidName
	}
	if rec.Length <= 0 {
		return "", types.ErrInvalidLength
	}

	now := time.Now().UTC()
	if id != "" {
		rec.ClipID = id
	}
	if rec.ClipID == "" {
		rec.ClipID = generateUUID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}

	args, err := clipArgs(rec)
	if err != nil {
		return "", err
	}
	_, err = t.backend.db.Exec(`
		INSERT INTO clips (`+clipColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(clip_id) DO UPDATE SET
			name = excluded.name,
			layer = excluded.layer,
			length = excluded.length,
			updated_at = excluded.updated_at,
			targets = excluded.targets`, args...)
	if err != nil {
		return "", fmt.Errorf("upserting clip: %w", err)
	}

	if err := t.backend.persist(types.TableClips, "save"); err != nil {
		return "", err
	}
	return rec.ClipID, nil
}

func (t *table) fetchClips(filter map[string]any) ([]any, error) {
	query := "SELECT " + clipColumns + " FROM clips"
	conditions, args, err := stringConditions(filter, "name", "layer")
	if err != nil {
		return nil, err
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at, clip_id"
	if query, err = withPaging(query, filter); err != nil {
		return nil, err
	}

	rows, err := t.backend.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching clips: %w", err)
	}
	defer rows.Close()

	results := []any{}
	for rows.Next() {
		rec, err := hydrateClip(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning clip: %w", err)
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

// Ref records.

func (t *table) getRef(id string) (any, error) {
	row := t.backend.db.QueryRow("SELECT record FROM refs WHERE ref_id = ?", id)
	rec, err := hydrateRef(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting ref %s: %w", id, err)
	}
	return rec, nil
}

// setRef upserts a *types.RefRecord. The id is always the record key; a
// non-empty id that disagrees with it is rejected.
func (t *table) setRef(id string, data any) (string, error) {
	rec, ok := data.(*types.RefRecord)
	if !ok || rec == nil {
		return "", types.ErrInvalidData
	}
	if !types.IsValidRefKind(rec.Kind) {
		return "", types.ErrInvalidRefKind
	}
	if rec.Name == "" {
		return "", types.ErrInvalidName
	}
	key := rec.Key()
	if id != "" && id != key {
		return "", fmt.Errorf("%w: id %q does not match ref %q", types.ErrInvalidID, id, key)
	}

	args, err := refArgs(rec)
	if err != nil {
		return "", err
	}
	_, err = t.backend.db.Exec(`
		INSERT INTO refs (`+refColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(ref_id) DO UPDATE SET record = excluded.record`, args...)
	if err != nil {
		return "", fmt.Errorf("upserting ref: %w", err)
	}

	if err := t.backend.persist(types.TableRefs, "save"); err != nil {
		return "", err
	}
	return key, nil
}

func (t *table) fetchRefs(filter map[string]any) ([]any, error) {
	query := "SELECT record FROM refs"
	conditions, args, err := stringConditions(filter, "kind", "owner")
	if err != nil {
		return nil, err
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY ref_id"
	if query, err = withPaging(query, filter); err != nil {
		return nil, err
	}

	rows, err := t.backend.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching refs: %w", err)
	}
	defer rows.Close()

	results := []any{}
	for rows.Next() {
		rec, err := hydrateRef(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning ref: %w", err)
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

func (t *table) deleteRow(tableName, idColumn, id string) error {
	res, err := t.backend.db.Exec(
		fmt.Sprintf("DELETE FROM %s WHERE %s = ?", tableName, idColumn), id)
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", tableName, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("deleting from %s: %w", tableName, err)
	} else if n == 0 {
		return types.ErrNotFound
	}
	return t.backend.persist(t.name, "delete")
}

// Filter helpers.

// stringConditions builds equality conditions for the listed filter keys.
// Each value must be a string or a []string; a slice matches any element.
func stringConditions(filter map[string]any, keys ...string) ([]string, []any, error) {
	var conditions []string
	var args []any
	for _, key := range keys {
		v, ok := filter[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case string:
			conditions = append(conditions, key+" = ?")
			args = append(args, val)
		case []string:
			if len(val) == 0 {
				continue
			}
			conditions = append(conditions, key+" IN ("+strings.TrimSuffix(strings.Repeat("?,", len(val)), ",")+")")
			for _, s := range val {
				args = append(args, s)
			}
		default:
			return nil, nil, fmt.Errorf("%w: %s", types.ErrInvalidFilter, key)
		}
	}
	return conditions, args, nil
}

// withPaging appends LIMIT and OFFSET clauses from the filter.
func withPaging(query string, filter map[string]any) (string, error) {
	limit, hasLimit := filter["limit"]
	offset, hasOffset := filter["offset"]
	l, o := -1, 0
	if hasLimit {
		v, ok := toInt(limit)
		if !ok {
			return "", fmt.Errorf("%w: limit", types.ErrInvalidFilter)
		}
		if v > 0 {
			l = v
		}
	}
	if hasOffset {
		v, ok := toInt(offset)
		if !ok {
			return "", fmt.Errorf("%w: offset", types.ErrInvalidFilter)
		}
		o = v
	}
	if l < 0 && o <= 0 {
		return query, nil
	}
	query += fmt.Sprintf(" LIMIT %d", l)
	if o > 0 {
		query += fmt.Sprintf(" OFFSET %d", o)
	}
	return query, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// persistClipsJSONL rewrites clips.jsonl from the clips table.
func (b *Backend) persistClipsJSONL() error {
	lines, err := dumpClips(b.db)
	if err != nil {
		return err
	}
	return writeJSONL(filepath.Join(b.dataDir, clipsJSONL), lines)
}

// persistRefsJSONL rewrites refs.jsonl from the refs table.
func (b *Backend) persistRefsJSONL() error {
	lines, err := dumpRefs(b.db)
	if err != nil {
		return err
	}
	return writeJSONL(filepath.Join(b.dataDir, refsJSONL), lines)
}
