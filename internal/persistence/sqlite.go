package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	_ "modernc.org/sqlite"
)

var (
	ErrUnknownStatement = errors.New("unknown statement")
	ErrClosed           = errors.New("repository closed")
)

type completedQuery struct {
	callback func(error)
	err      error
}

// SQLiteRepository is a Repository backed by a single SQLite database.
type SQLiteRepository struct {
	db *sql.DB

	mu       sync.Mutex
	prepared map[StatementID]*sql.Stmt

	cbMu      sync.Mutex
	completed []completedQuery

	inflight sync.WaitGroup
	closed   atomic.Bool
}

// OpenSQLite opens (creating if needed) the database at path and bootstraps
// the schema.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying pragmas: %w", err)
	}
	for _, s := range schema {
		if _, err := db.Exec(s); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrapping schema: %w", err)
		}
	}

	return &SQLiteRepository{
		db:       db,
		prepared: make(map[StatementID]*sql.Stmt),
	}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) stmt(ctx context.Context, id StatementID) (*sql.Stmt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.prepared[id]; ok {
		return s, nil
	}
	text, ok := statements[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatement, id)
	}
	s, err := r.db.PrepareContext(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("preparing statement %d: %w", id, err)
	}
	r.prepared[id] = s
	return s, nil
}

// Query runs stmt and calls scan for each row. scan must not issue further
// queries on the same repository.
func (r *SQLiteRepository) Query(ctx context.Context, stmt Statement, scan ScanFunc) error {
	if r.closed.Load() {
		return ErrClosed
	}
	s, err := r.stmt(ctx, stmt.ID)
	if err != nil {
		return err
	}
	rows, err := s.QueryContext(ctx, stmt.Args...)
	if err != nil {
		return fmt.Errorf("querying statement %d: %w", stmt.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Execute runs stmt, discarding any result.
func (r *SQLiteRepository) Execute(ctx context.Context, stmt Statement) error {
	if r.closed.Load() {
		return ErrClosed
	}
	s, err := r.stmt(ctx, stmt.ID)
	if err != nil {
		return err
	}
	if _, err := s.ExecContext(ctx, stmt.Args...); err != nil {
		return fmt.Errorf("executing statement %d: %w", stmt.ID, err)
	}
	return nil
}

// Begin starts collecting statements for a transaction.
func (r *SQLiteRepository) Begin() *Transaction {
	return &Transaction{commit: r.commit}
}

func (r *SQLiteRepository) commit(ctx context.Context, stmts []Statement) error {
	if r.closed.Load() {
		return ErrClosed
	}
	// The pool holds a single connection, so everything is prepared before
	// the transaction claims it.
	prepared := make([]*sql.Stmt, len(stmts))
	for i, st := range stmts {
		s, err := r.stmt(ctx, st.ID)
		if err != nil {
			return err
		}
		prepared[i] = s
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	for i, st := range stmts {
		if _, err := tx.StmtContext(ctx, prepared[i]).ExecContext(ctx, st.Args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing statement %d in transaction: %w", st.ID, err)
		}
	}
	return tx.Commit()
}

// AsyncQuery runs stmt on a background goroutine. scan runs on that
// goroutine; callback is held until the next ProcessQueryCallbacks.
func (r *SQLiteRepository) AsyncQuery(stmt Statement, scan ScanFunc, callback func(error)) {
	if r.closed.Load() {
		r.complete(callback, ErrClosed)
		return
	}
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		err := r.Query(context.Background(), stmt, scan)
		r.complete(callback, err)
	}()
}

func (r *SQLiteRepository) complete(callback func(error), err error) {
	if callback == nil {
		if err != nil {
			slog.Error("async query failed", "error", err)
		}
		return
	}
	r.cbMu.Lock()
	r.completed = append(r.completed, completedQuery{callback: callback, err: err})
	r.cbMu.Unlock()
}

// ProcessQueryCallbacks invokes the callbacks of completed async queries on
// the calling goroutine.
func (r *SQLiteRepository) ProcessQueryCallbacks() {
	r.cbMu.Lock()
	done := r.completed
	r.completed = nil
	r.cbMu.Unlock()

	for _, c := range done {
		c.callback(c.err)
	}
}

// Ping checks the connection is alive.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.Query(ctx, Prepare(Ping), func(Scanner) error { return nil })
}

// Wait blocks until every outstanding async query has completed.
func (r *SQLiteRepository) Wait() {
	r.inflight.Wait()
}

// Close waits for outstanding async queries then releases the database.
func (r *SQLiteRepository) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	r.inflight.Wait()

	r.mu.Lock()
	for _, s := range r.prepared {
		_ = s.Close()
	}
	r.prepared = nil
	r.mu.Unlock()

	return r.db.Close()
}
