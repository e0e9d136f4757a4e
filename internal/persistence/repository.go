package persistence

import (
	"context"
)

// Scanner reads one row of a result set.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanFunc is called once per result row.
type ScanFunc func(Scanner) error

// Repository is the storage collaborator used by the world.
type Repository interface {
	Query(ctx context.Context, stmt Statement, scan ScanFunc) error
	Execute(ctx context.Context, stmt Statement) error
	Begin() *Transaction
	AsyncQuery(stmt Statement, scan ScanFunc, callback func(error))
	ProcessQueryCallbacks()
	Ping(ctx context.Context) error
	Close() error
}

// Transaction collects statements that are committed together.
type Transaction struct {
	stmts  []Statement
	commit func(context.Context, []Statement) error
}

// Append adds a statement to the transaction.
func (t *Transaction) Append(stmt Statement) {
	t.stmts = append(t.stmts, stmt)
}

// Len returns the number of appended statements.
func (t *Transaction) Len() int {
	return len(t.stmts)
}

// Commit executes every appended statement atomically. An empty transaction
// is a no-op.
func (t *Transaction) Commit(ctx context.Context) error {
	if len(t.stmts) == 0 {
		return nil
	}
	return t.commit(ctx, t.stmts)
}
