package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/yourorg/stockroom/internal/observability/metrics"
	"github.com/yourorg/stockroom/internal/reliability/retry"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrInit marks failures to open the database file or create the schema.
	// Fatal to the session; not retried automatically.
	ErrInit = errors.New("storage initialization failed")

	// ErrConstraint marks statements rejected by a storage-level constraint
	// (unique email, quantity check).
	ErrConstraint = errors.New("storage constraint violated")
)

var tracer = otel.Tracer("github.com/yourorg/stockroom/pkg/storage")

// Engine owns the single database connection and is the only component that
// touches it. Repositories go through Execute and Query; the handle itself
// is never handed out.
type Engine struct {
	path     string
	logger   *slog.Logger
	retryCfg *retry.Config

	mu       sync.Mutex
	db       *sql.DB
	ready    bool
	inflight chan struct{} // non-nil while an Init attempt is running
	initErr  error         // outcome of the last finished Init attempt
}

// New creates an engine for the given database file path. No disk access
// happens until Init or the first Execute/Query.
func New(path string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		path:     path,
		logger:   logger,
		retryCfg: retry.DefaultConfig(),
	}
}

// Init opens (or creates) the database file and applies the schema,
// idempotently. Safe to call concurrently: callers arriving while an attempt
// is in flight await that attempt instead of opening a second connection.
// After Close, Init reopens.
func (e *Engine) Init(ctx context.Context) error {
	e.mu.Lock()
	if e.ready {
		e.mu.Unlock()
		return nil
	}
	if e.inflight != nil {
		done := e.inflight
		e.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.ready {
			return nil
		}
		return e.initErr
	}

	done := make(chan struct{})
	e.inflight = done
	e.mu.Unlock()

	db, err := e.open(ctx)

	e.mu.Lock()
	if err == nil {
		e.db = db
		e.ready = true
		e.initErr = nil
	} else {
		e.initErr = err
	}
	e.inflight = nil
	close(done)
	e.mu.Unlock()

	return err
}

// open establishes the connection and bootstraps the schema. Runs at most
// once at a time, guarded by the inflight channel.
func (e *Engine) open(ctx context.Context) (*sql.DB, error) {
	dsn := e.path + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrInit, e.path, err)
	}

	// One shared connection: sqlite serializes writers anyway, and a single
	// handle keeps statement ordering identical to submission order.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", ErrInit, e.path, err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create schema: %v", ErrInit, err)
	}

	e.logger.Info("database initialized",
		slog.String("path", e.path),
	)
	return db, nil
}

// Ready reports whether initialization has completed.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

// handle lazily initializes the engine and returns the shared connection.
func (e *Engine) handle(ctx context.Context) (*sql.DB, error) {
	e.mu.Lock()
	if e.ready {
		db := e.db
		e.mu.Unlock()
		return db, nil
	}
	e.mu.Unlock()

	if err := e.Init(ctx); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready {
		return nil, fmt.Errorf("%w: engine closed during initialization", ErrInit)
	}
	return e.db, nil
}

// Execute runs a mutating statement and returns the inserted row id (when
// applicable) and the count of affected rows. Initialization is triggered
// lazily if it never ran. Busy-handle contention is retried with backoff.
func (e *Engine) Execute(ctx context.Context, query string, args ...any) (insertID int64, rowsAffected int64, err error) {
	db, err := e.handle(ctx)
	if err != nil {
		return 0, 0, err
	}

	ctx, span := tracer.Start(ctx, "storage.execute")
	defer span.End()

	start := time.Now()
	res, err := retry.Do(ctx, e.retryCfg, e.logger, "storage.execute", isBusyError,
		func(ctx context.Context) (sql.Result, error) {
			return db.ExecContext(ctx, query, args...)
		})
	if err != nil {
		span.RecordError(err)
		if isConstraintError(err) {
			metrics.ObserveStatement("execute", "constraint", time.Since(start))
			return 0, 0, fmt.Errorf("%w: %s", ErrConstraint, err.Error())
		}
		metrics.ObserveStatement("execute", "error", time.Since(start))
		return 0, 0, fmt.Errorf("execute statement: %w", err)
	}
	metrics.ObserveStatement("execute", "ok", time.Since(start))

	insertID, _ = res.LastInsertId()
	rowsAffected, _ = res.RowsAffected()
	return insertID, rowsAffected, nil
}

// Query runs a read statement. Callers own the returned rows and must close
// them. Same lazy-init guarantee as Execute.
func (e *Engine) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	db, err := e.handle(ctx)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "storage.query")
	defer span.End()

	start := time.Now()
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		metrics.ObserveStatement("query", "error", time.Since(start))
		return nil, fmt.Errorf("query statement: %w", err)
	}
	metrics.ObserveStatement("query", "ok", time.Since(start))
	return rows, nil
}

// Close releases the connection and resets initialization state so a
// subsequent Init can reopen the file.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ready = false
	if e.db == nil {
		return nil
	}
	db := e.db
	e.db = nil
	if err := db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT ||
		code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		code == sqlite3.SQLITE_CONSTRAINT_CHECK ||
		code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
		code == sqlite3.SQLITE_CONSTRAINT_NOTNULL
}

func isBusyError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
}
