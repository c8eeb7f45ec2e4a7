// Package sqlite implements the SQLite persistence medium for prefstore.
//
// The database file is the durable copy; an in-memory mirror loaded on
// Attach serves reads, so every write is visible to the next read even when
// the sync strategy defers the database write.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/prefstore/internal/logfields"
	"github.com/mesh-intelligence/prefstore/pkg/types"
)

// DatabaseFile is the file name created inside Config.DataDir.
const DatabaseFile = "prefs.db"

var _ types.Backend = (*Backend)(nil)

// Backend implements types.Backend on SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	mirror   map[string]types.Entries
	logger   *slog.Logger

	// Sync strategy state
	syncStrategy  string         // effective sync strategy: immediate, on_close, batch
	batchSize     int            // number of writes before batch flush
	batchInterval time.Duration  // time between batch flushes
	pendingWrites []pendingWrite // queue of writes not yet in the database
	batchTimer    *time.Timer    // timer for interval-based batch flush
	batchMu       sync.Mutex     // protects pendingWrites and batchTimer
}

// pendingWrite is a deferred database mutation. Used by the on_close and
// batch sync strategies; applied in queue order.
type pendingWrite struct {
	namespace string
	operation string // "put", "remove" or "clear"
	apply     func(ctx context.Context, tx *sql.Tx) error
}

// Option customizes a Backend.
type Option func(*Backend)

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach opens (or creates) DataDir/prefs.db, applies the schema and loads
// every stored entry into the read mirror.
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

	dbPath := filepath.Join(dataDir, DatabaseFile)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dbPath, err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return fmt.Errorf("applying schema: %w", err)
	}

	mirror, err := b.loadMirror(db)
	if err != nil {
		db.Close()
		return fmt.Errorf("loading entries: %w", err)
	}

	b.db = db
	b.config = config
	b.mirror = mirror

	b.syncStrategy = config.GetSyncStrategy()
	b.batchSize = config.GetBatchSize()
	b.batchInterval = config.GetBatchInterval()
	b.pendingWrites = nil

	b.attached = true

	if b.syncStrategy == types.SyncBatch && b.batchInterval > 0 {
		b.startBatchTimer()
	}

	b.logger.Debug("sqlite backend attached",
		logfields.Path(dbPath),
		slog.String("sync_strategy", b.syncStrategy))
	return nil
}

// Detach releases all resources held by the backend.
// Flushes pending writes, then closes the SQLite connection. After Detach,
// all operations return ErrDetached. Detach is idempotent.
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

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}

	b.attached = false
	b.mirror = nil

	return nil
}

// Flush writes every queued mutation to the database now.
func (b *Backend) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrDetached
	}
	return b.flushPendingWritesLocked()
}

// loadMirror reads every row into memory. Rows with an unknown kind or an
// unreadable payload are skipped and logged.
func (b *Backend) loadMirror(db *sql.DB) (map[string]types.Entries, error) {
	rows, err := db.Query(selectEntries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mirror := make(map[string]types.Entries)
	for rows.Next() {
		var namespace, key, kind, payload string
		if err := rows.Scan(&namespace, &key, &kind, &payload); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		v, err := types.UnmarshalPayload(types.Kind(kind), []byte(payload))
		if err != nil {
			b.logger.Warn("skipping unreadable entry",
				logfields.Namespace(namespace),
				logfields.Key(key),
				logfields.Kind(kind),
				logfields.Error(err))
			continue
		}
		ns, ok := mirror[namespace]
		if !ok {
			ns = make(types.Entries)
			mirror[namespace] = ns
		}
		ns[key] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}
	return mirror, nil
}

// generateUUID generates a UUID v7 used to correlate flush log lines.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// shouldPersistImmediately returns true if database writes happen inline.
func (b *Backend) shouldPersistImmediately() bool {
	return b.syncStrategy == types.SyncImmediate || b.syncStrategy == ""
}

// persist runs apply in its own transaction for the immediate strategy and
// returns its error. Otherwise apply is queued and persist returns nil: the
// write is accepted and a failing flush surfaces from Flush or Detach.
// The caller must hold b.mu write lock.
func (b *Backend) persist(ctx context.Context, namespace, operation string, apply func(ctx context.Context, tx *sql.Tx) error) error {
	if b.shouldPersistImmediately() {
		return b.inTx(ctx, apply)
	}
	b.queueWrite(namespace, operation, apply)
	return nil
}

func (b *Backend) inTx(ctx context.Context, apply func(ctx context.Context, tx *sql.Tx) error) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()
	if err := apply(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// queueWrite adds a write operation to the pending queue. For the batch
// strategy the queue is flushed synchronously once it reaches batchSize; a
// failed flush is logged and the queue kept for the next Flush or Detach.
// The caller must hold b.mu write lock.
func (b *Backend) queueWrite(namespace, operation string, apply func(ctx context.Context, tx *sql.Tx) error) {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	b.pendingWrites = append(b.pendingWrites, pendingWrite{
		namespace: namespace,
		operation: operation,
		apply:     apply,
	})

	if b.syncStrategy == types.SyncBatch && b.batchSize > 0 && len(b.pendingWrites) >= b.batchSize {
		_ = b.flushPendingWritesBatchLocked()
	}
}

// flushPendingWritesLocked flushes all pending writes to the database.
// The caller must hold b.mu write lock.
func (b *Backend) flushPendingWritesLocked() error {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	return b.flushPendingWritesBatchLocked()
}

// flushPendingWritesBatchLocked applies all pending writes in one
// transaction. Queued writes outlive the request that made them, so the
// flush runs on a background context. The queue is kept on failure so a
// later flush can retry.
// The caller must hold b.batchMu lock.
func (b *Backend) flushPendingWritesBatchLocked() error {
	if len(b.pendingWrites) == 0 {
		return nil
	}

	flushID := generateUUID()
	start := time.Now()
	err := b.inTx(context.Background(), func(ctx context.Context, tx *sql.Tx) error {
		for _, pw := range b.pendingWrites {
			if err := pw.apply(ctx, tx); err != nil {
				return fmt.Errorf("flush %s %s: %w", pw.namespace, pw.operation, err)
			}
		}
		return nil
	})
	if err != nil {
		b.logger.Error("flush failed",
			slog.String("flush_id", flushID),
			logfields.Count(len(b.pendingWrites)),
			logfields.Error(err))
		return err
	}

	b.logger.Debug("flushed pending writes",
		slog.String("flush_id", flushID),
		logfields.Count(len(b.pendingWrites)),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	b.pendingWrites = nil
	return nil
}

// startBatchTimer starts the batch interval timer for periodic flushes.
// The caller must hold b.mu write lock.
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

		_ = b.flushPendingWritesLocked()

		b.batchMu.Lock()
		if b.batchTimer != nil && b.attached {
			b.batchTimer.Reset(b.batchInterval)
		}
		b.batchMu.Unlock()
	})
}

// stopBatchTimer stops the batch interval timer if running.
func (b *Backend) stopBatchTimer() {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	if b.batchTimer != nil {
		b.batchTimer.Stop()
		b.batchTimer = nil
	}
}
