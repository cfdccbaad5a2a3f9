package txn

import "context"

// Connection is the engine's view of one pooled database session. The
// executor negotiates isolation and autocommit on it, issues the final
// commit or rollback, and restores both session properties to their
// pre-transaction values before Close returns the session to its provider.
//
// Implementations are owned by a single call chain for the duration of a
// transaction and need no internal locking.
type Connection interface {
	Isolation(ctx context.Context) (IsolationLevel, error)
	SetIsolation(ctx context.Context, level IsolationLevel) error

	Autocommit(ctx context.Context) (bool, error)
	SetAutocommit(ctx context.Context, enabled bool) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	Close() error
}

// Provider supplies connections to the executor. Pooling, retry and timeout
// policy live behind this interface, not in the engine.
type Provider interface {
	Acquire(ctx context.Context) (Connection, error)
}
