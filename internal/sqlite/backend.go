// Package sqlite implements the clip and ref store. JSONL files under the
// data directory are the source of truth; SQLite is the query engine and is
// rebuilt from them on every Attach.
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/timeline/pkg/types"
)

// dbFile is the SQLite file created under the data directory.
const dbFile = "timeline.db"

// Backend implements types.Store using SQLite as the query engine and JSONL
// files as the source of truth.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	dataDir  string
	db       *sql.DB
	tables   map[string]*table
	logger   *slog.Logger

	syncStrategy  string
	batchSize     int
	batchInterval time.Duration
	pendingWrites []pendingWrite
	batchTimer    *time.Timer
	batchMu       sync.Mutex // guards pendingWrites and batchTimer
}

var _ types.Store = (*Backend)(nil)

// pendingWrite is a deferred JSONL rewrite, queued by the on_close and
// batch strategies.
type pendingWrite struct {
	tableName string
	operation string
}

// NewBackend creates a detached backend. Call Attach to use it.
func NewBackend() *Backend {
	return &Backend{
		tables: make(map[string]*table),
		logger: slog.Default().With(slog.String("component", "store")),
	}
}

// GetTable returns the table with the given name.
// Returns ErrStoreDetached if the backend is not attached and
// ErrTableNotFound for an unknown name.
func (b *Backend) GetTable(name string) (types.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	t, ok := b.tables[name]
	if !ok {
		return nil, types.ErrTableNotFound
	}
	return t, nil
}

// Attach creates DataDir if needed, builds a fresh SQLite database from the
// JSONL files and creates the table accessors.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	if err := initJSONLFiles(dataDir); err != nil {
		return err
	}

	// The database is a cache of the JSONL files.
	dbPath := filepath.Join(dataDir, dbFile)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dbPath, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return fmt.Errorf("creating schema: %w", err)
	}
	if err := loadAllJSONL(db, dataDir); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	b.db = db
	b.config = config
	b.dataDir = dataDir
	b.syncStrategy = config.SQLiteConfig.GetSyncStrategy()
	b.batchSize = config.SQLiteConfig.GetBatchSize()
	b.batchInterval = time.Duration(config.SQLiteConfig.GetBatchInterval()) * time.Second
	b.pendingWrites = nil

	for _, name := range types.StandardTableNames {
		b.tables[name] = newTable(b, name)
	}
	b.attached = true

	if b.syncStrategy == types.SyncBatch && b.batchInterval > 0 {
		b.startBatchTimer()
	}
	b.logger.Debug("attached",
		slog.String("data_dir", dataDir),
		slog.String("sync", b.syncStrategy))
	return nil
}

// Detach flushes pending writes and closes the database. Idempotent. After
// Detach, table operations return ErrStoreDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	b.stopBatchTimer()
	if err := b.flushPendingWritesLocked(); err != nil {
		return fmt.Errorf("flush pending writes: %w", err)
	}

	if err := b.db.Close(); err != nil {
		return err
	}
	b.db = nil
	b.attached = false
	b.tables = make(map[string]*table)
	b.logger.Debug("detached", slog.String("data_dir", b.dataDir))
	return nil
}

// DataDir returns the directory the backend is attached to.
func (b *Backend) DataDir() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dataDir
}

// generateUUID returns a UUID v7, falling back to v4.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// persist writes the JSONL file of tableName now or queues it, depending on
// the sync strategy. The caller holds b.mu.
func (b *Backend) persist(tableName, operation string) error {
	if b.shouldPersistImmediately() {
		return b.persistTable(tableName)
	}
	return b.queueWrite(tableName, operation)
}

func (b *Backend) persistTable(tableName string) error {
	switch tableName {
	case types.TableClips:
		return b.persistClipsJSONL()
	case types.TableRefs:
		return b.persistRefsJSONL()
	default:
		return types.ErrTableNotFound
	}
}

func (b *Backend) shouldPersistImmediately() bool {
	return b.syncStrategy == types.SyncImmediate || b.syncStrategy == ""
}

// queueWrite adds a write to the pending queue. With the batch strategy the
// queue is flushed once it reaches the batch size.
func (b *Backend) queueWrite(tableName, operation string) error {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	b.pendingWrites = append(b.pendingWrites, pendingWrite{tableName: tableName, operation: operation})
	if b.syncStrategy == types.SyncBatch && b.batchSize > 0 && len(b.pendingWrites) >= b.batchSize {
		return b.flushPendingWritesBatchLocked()
	}
	return nil
}

// flushPendingWritesLocked flushes the queue. The caller holds b.mu.
func (b *Backend) flushPendingWritesLocked() error {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()
	return b.flushPendingWritesBatchLocked()
}

// flushPendingWritesBatchLocked rewrites each table with queued writes once.
// The caller holds b.batchMu.
func (b *Backend) flushPendingWritesBatchLocked() error {
	if len(b.pendingWrites) == 0 {
		return nil
	}
	done := make(map[string]bool, len(types.StandardTableNames))
	for _, pw := range b.pendingWrites {
		if done[pw.tableName] {
			continue
		}
		if err := b.persistTable(pw.tableName); err != nil {
			return fmt.Errorf("flush %s %s: %w", pw.tableName, pw.operation, err)
		}
		done[pw.tableName] = true
	}
	b.logger.Debug("flushed pending writes", slog.Int("writes", len(b.pendingWrites)))
	b.pendingWrites = nil
	return nil
}

// startBatchTimer starts the periodic flush for the batch strategy.
func (b *Backend) startBatchTimer() {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	if b.batchTimer != nil {
		return
	}
	b.batchTimer = time.AfterFunc(b.batchInterval, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if !b.attached {
			return
		}
		if err := b.flushPendingWritesLocked(); err != nil {
			b.logger.Warn("batch flush failed", slog.Any("error", err))
		}

		b.batchMu.Lock()
		if b.batchTimer != nil {
			b.batchTimer.Reset(b.batchInterval)
		}
		b.batchMu.Unlock()
	})
}

func (b *Backend) stopBatchTimer() {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	if b.batchTimer != nil {
		b.batchTimer.Stop()
		b.batchTimer = nil
	}
}
