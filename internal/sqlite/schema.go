package sqlite

// Schema DDL. Targets and ref records are stored as JSON text; the other
// columns exist so Fetch can filter in SQL.
const (
	createClips = `CREATE TABLE clips (
    clip_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    layer TEXT NOT NULL DEFAULT '',
    length REAL NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    targets TEXT NOT NULL DEFAULT '[]'
);`

	createRefs = `CREATE TABLE refs (
    ref_id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    owner TEXT NOT NULL DEFAULT '',
    component TEXT NOT NULL DEFAULT '',
    name TEXT NOT NULL,
    record TEXT NOT NULL
);`

	createIndexes = `
CREATE INDEX idx_clips_name ON clips(name);
CREATE INDEX idx_clips_layer ON clips(layer);
CREATE INDEX idx_refs_kind ON refs(kind);
CREATE INDEX idx_refs_owner ON refs(owner);`
)

// schemaSQL is executed on every Attach against a fresh database file.
var schemaSQL = createClips + "\n" + createRefs + "\n" + createIndexes
