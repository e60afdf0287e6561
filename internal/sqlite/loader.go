package sqlite

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
)

// jsonlTableMapping maps JSONL files to their SQLite tables. decode turns
// one line into column values in columns order.
var jsonlTableMapping = []struct {
	file    string
	table   string
	columns string
	decode  func([]byte) ([]any, error)
}{
	{clipsJSONL, "clips", clipColumns, decodeClipLine},
	{refsJSONL, "refs", refColumns, decodeRefLine},
}

// loadAllJSONL reads every JSONL file under dataDir into SQLite inside one
// transaction: all tables load or none do. Lines that fail to decode, or
// that repeat an id already loaded, are skipped. Unknown fields are ignored.
func loadAllJSONL(db *sql.DB, dataDir string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range jsonlTableMapping {
		records, err := readJSONL(filepath.Join(dataDir, m.file))
		if err != nil {
			return fmt.Errorf("reading %s: %w", m.file, err)
		}
		if len(records) == 0 {
			continue
		}
		if err := insertRecords(tx, m.table, m.columns, m.decode, records); err != nil {
			return fmt.Errorf("loading %s into %s: %w", m.file, m.table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}

// insertRecords decodes and inserts records into table.
func insertRecords(tx *sql.Tx, table, columns string, decode func([]byte) ([]any, error), records [][]byte) error {
	n := len(strings.Split(columns, ","))
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT OR IGNORE INTO %s (%s) VALUES (%s)", table, columns, placeholders))
	if err != nil {
		return fmt.Errorf("preparing insert for %s: %w", table, err)
	}
	defer stmt.Close()

	for _, rec := range records {
		args, err := decode(rec)
		if err != nil {
			continue
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("inserting into %s: %w", table, err)
		}
	}
	return nil
}
