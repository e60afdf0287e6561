package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/mesh-intelligence/timeline/pkg/types"
)

// timeLayout is used for every timestamp column. The fixed-width fraction
// keeps ORDER BY on the text column chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const clipColumns = "clip_id, name, layer, length, created_at, updated_at, targets"

// hydrateClip scans one clips row into a record.
func hydrateClip(row rowScanner) (*types.ClipRecord, error) {
	var (
		rec              types.ClipRecord
		created, updated string
		targets          string
	)
	if err := row.Scan(&rec.ClipID, &rec.Name, &rec.Layer, &rec.Length, &created, &updated, &targets); err != nil {
		return nil, err
	}
	rec.CreatedAt = parseTime(created)
	rec.UpdatedAt = parseTime(updated)
	if err := sonic.Unmarshal([]byte(targets), &rec.Targets); err != nil {
		return nil, fmt.Errorf("decoding targets of clip %s: %w", rec.ClipID, err)
	}
	if rec.Targets == nil {
		rec.Targets = []types.TargetRecord{}
	}
	return &rec, nil
}

// clipArgs returns the column values of rec in clipColumns order.
func clipArgs(rec *types.ClipRecord) ([]any, error) {
	targets := rec.Targets
	if targets == nil {
		targets = []types.TargetRecord{}
	}
	data, err := sonic.Marshal(targets)
	if err != nil {
		return nil, fmt.Errorf("encoding targets of clip %s: %w", rec.ClipID, err)
	}
	return []any{
		rec.ClipID, rec.Name, rec.Layer, rec.Length,
		formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt), string(data),
	}, nil
}

// decodeClipLine parses one clips.jsonl line into column values.
func decodeClipLine(line []byte) ([]any, error) {
	var rec types.ClipRecord
	if err := sonic.Unmarshal(line, &rec); err != nil {
		return nil, err
	}
	if rec.ClipID == "" || rec.Name == "" {
		return nil, types.ErrInvalidData
	}
	return clipArgs(&rec)
}

const refColumns = "ref_id, kind, owner, component, name, record"

// hydrateRef scans the record column of a refs row.
func hydrateRef(row rowScanner) (*types.RefRecord, error) {
	var data string
	if err := row.Scan(&data); err != nil {
		return nil, err
	}
	var rec types.RefRecord
	if err := sonic.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("decoding ref record: %w", err)
	}
	return &rec, nil
}

// refArgs returns the column values of rec in refColumns order.
func refArgs(rec *types.RefRecord) ([]any, error) {
	data, err := sonic.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encoding ref %s: %w", rec.Key(), err)
	}
	return []any{rec.Key(), string(rec.Kind), rec.Owner, rec.Component, rec.Name, string(data)}, nil
}

// decodeRefLine parses one refs.jsonl line into column values.
func decodeRefLine(line []byte) ([]any, error) {
	var rec types.RefRecord
	if err := sonic.Unmarshal(line, &rec); err != nil {
		return nil, err
	}
	if !types.IsValidRefKind(rec.Kind) || rec.Name == "" {
		return nil, types.ErrInvalidData
	}
	return refArgs(&rec)
}

// dumpClips renders every clips row as a JSONL line, oldest first.
func dumpClips(db *sql.DB) ([][]byte, error) {
	rows, err := db.Query("SELECT " + clipColumns + " FROM clips ORDER BY created_at, clip_id")
	if err != nil {
		return nil, fmt.Errorf("reading clips for JSONL: %w", err)
	}
	defer rows.Close()

	var lines [][]byte
	for rows.Next() {
		rec, err := hydrateClip(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning clip for JSONL: %w", err)
		}
		line, err := sonic.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encoding clip %s: %w", rec.ClipID, err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// dumpRefs renders every refs row as a JSONL line in key order. The record
// column already holds the encoded line.
func dumpRefs(db *sql.DB) ([][]byte, error) {
	rows, err := db.Query("SELECT record FROM refs ORDER BY ref_id")
	if err != nil {
		return nil, fmt.Errorf("reading refs for JSONL: %w", err)
	}
	defer rows.Close()

	var lines [][]byte
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning ref for JSONL: %w", err)
		}
		lines = append(lines, []byte(data))
	}
	return lines, rows.Err()
}
