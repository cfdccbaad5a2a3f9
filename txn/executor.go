package txn

import (
	"context"

	"github.com/gaborage/go-txkit/logger"
)

// UnitOfWork is the caller-supplied body of a transaction. It receives a
// context carrying the chain's scope (nested Execute calls must use it) and
// the live Transaction handle.
type UnitOfWork func(ctx context.Context, tx *Transaction) (any, error)

// BeforeCommitHook runs after the unit of work returns and before the
// physical commit, once per nesting layer with that layer's own result.
// It may call tx.Rollback to overturn the commit.
type BeforeCommitHook func(tx *Transaction, result any)

// RollbackDecider is the optional capability a result value may implement to
// decide the transaction's fate. Results that don't implement it are simply
// not consulted.
type RollbackDecider interface {
	ShouldRollback() bool
}

// DefaultBeforeCommit preserves the legacy convention that a plain boolean
// false result rolls the transaction back. Any other policy belongs in a
// custom hook, never in the executor itself.
func DefaultBeforeCommit(tx *Transaction, result any) {
	if b, ok := result.(bool); ok && !b {
		tx.Rollback()
	}
}

// Options carries the process-wide configuration surface of an Executor.
// It is read once at construction; mutating it afterwards has no effect.
type Options struct {
	// DefaultIsolation is used by Execute. Must belong to the closed level set.
	DefaultIsolation IsolationLevel
	// OnException is the fallback recovery handler consulted when a failed
	// transaction has no transaction-local handler.
	OnException Handler
	// OnBeforeCommit defaults to DefaultBeforeCommit. Set a no-op hook to
	// disable the boolean-result convention.
	OnBeforeCommit BeforeCommitHook
}

// Executor orchestrates connection acquisition, isolation negotiation,
// commit/rollback decisions and nested-call merging. It is safe for
// concurrent use: each call chain works on its own connection and scope.
type Executor struct {
	provider         Provider
	log              logger.Logger
	defaultIsolation IsolationLevel
	onException      Handler
	onBeforeCommit   BeforeCommitHook
}

// NewExecutor validates opts and builds an Executor backed by provider.
func NewExecutor(provider Provider, log logger.Logger, opts Options) (*Executor, error) {
	if err := opts.DefaultIsolation.Validate(); err != nil {
		return nil, err
	}

	hook := opts.OnBeforeCommit
	if hook == nil {
		hook = DefaultBeforeCommit
	}

	return &Executor{
		provider:         provider,
		log:              log,
		defaultIsolation: opts.DefaultIsolation,
		onException:      opts.OnException,
		onBeforeCommit:   hook,
	}, nil
}

// Execute runs fn at the executor's default isolation level.
func (e *Executor) Execute(ctx context.Context, fn UnitOfWork) (any, error) {
	return e.ExecuteIsolated(ctx, e.defaultIsolation, fn)
}

// ExecuteIsolated runs fn inside a transaction at the requested isolation
// level. When ctx already carries a connection for this call chain the call
// merges into the enclosing transaction: the connection and Transaction are
// reused, isolation is widened if needed, and commit/rollback stay with the
// outermost call. Otherwise a fresh connection is acquired and this call owns
// the full lifecycle.
//
// Nesting inside a legacy Tx scope fails with ErrLegacyNesting before fn runs.
func (e *Executor) ExecuteIsolated(ctx context.Context, isolation IsolationLevel, fn UnitOfWork) (any, error) {
	if err := isolation.Validate(); err != nil {
		return nil, err
	}

	if sc := scopeFrom(ctx); sc != nil && sc.conn != nil {
		if sc.tx == nil {
			return nil, ErrLegacyNesting
		}
		return e.executeNested(ctx, sc, isolation, fn)
	}

	return e.executeTopLevel(ctx, isolation, fn)
}

// session tracks the connection state the top-level teardown must undo.
// active means commit/rollback has not been decided yet; the deferred
// teardown rolls back in that case, which is how a panicking unit of work
// still releases a clean connection.
type session struct {
	active         bool
	origIsolation  *IsolationLevel
	origAutocommit *bool
}

func (e *Executor) executeTopLevel(ctx context.Context, isolation IsolationLevel, fn UnitOfWork) (any, error) {
	conn, err := e.provider.Acquire(ctx)
	if err != nil {
		return nil, &ConnectionError{Op: "acquire", Err: err}
	}

	sc := &scope{}
	sc.bind(conn)
	ctx = withScope(ctx, sc)

	st := &session{active: true}
	defer e.teardown(ctx, conn, sc, st)

	var tx *Transaction
	result, err := e.runTopLevel(ctx, conn, sc, st, &tx, isolation, fn)
	if err == nil {
		return result, nil
	}

	if st.active {
		st.active = false
		if rbErr := conn.Rollback(ctx); rbErr != nil {
			e.log.Error().Err(rbErr).Msg("transaction rollback failed")
		}
	}

	return e.recoverError(tx, err)
}

// runTopLevel performs steps 2-7 of the top-level path: session negotiation,
// unit of work, rollback decision, pre-commit hook, physical commit/rollback
// and after-commit callbacks. Any error falls through to the caller's
// rollback-and-recover path.
func (e *Executor) runTopLevel(ctx context.Context, conn Connection, sc *scope, st *session, txOut **Transaction, isolation IsolationLevel, fn UnitOfWork) (any, error) {
	orig, err := conn.Isolation(ctx)
	if err != nil {
		return nil, &ConnectionError{Op: "get isolation", Err: err}
	}
	st.origIsolation = &orig
	if orig != isolation {
		if err := conn.SetIsolation(ctx, isolation); err != nil {
			return nil, &ConnectionError{Op: "set isolation", Err: err}
		}
	}

	auto, err := conn.Autocommit(ctx)
	if err != nil {
		return nil, &ConnectionError{Op: "get autocommit", Err: err}
	}
	st.origAutocommit = &auto
	if err := conn.SetAutocommit(ctx, false); err != nil {
		return nil, &ConnectionError{Op: "set autocommit", Err: err}
	}

	tx := newTransaction()
	*txOut = tx
	sc.bindTransaction(tx)

	ret, err := fn(ctx, tx)
	if err != nil {
		return nil, err
	}

	if d, ok := ret.(RollbackDecider); ok && d.ShouldRollback() {
		tx.Rollback()
	}
	if e.onBeforeCommit != nil && !tx.shouldRollback() {
		e.onBeforeCommit(tx, ret)
	}

	if tx.shouldRollback() {
		// clear active first so a failing rollback is not retried
		st.active = false
		if err := conn.Rollback(ctx); err != nil {
			return nil, &ConnectionError{Op: "rollback", Err: err}
		}
	} else {
		if err := conn.Commit(ctx); err != nil {
			// still active: a failed commit must roll back
			return nil, &ConnectionError{Op: "commit", Err: err}
		}
		st.active = false
		tx.runAfterCommit(e.log)
	}

	return ret, nil
}

func (e *Executor) executeNested(ctx context.Context, sc *scope, isolation IsolationLevel, fn UnitOfWork) (any, error) {
	conn, tx := sc.conn, sc.tx

	// The enclosing scope's handler must not fire for an inner failure.
	outer := tx.detachHandler()
	defer tx.OnException(outer)

	result, err := e.runNested(ctx, conn, tx, isolation, fn)
	if err == nil {
		return result, nil
	}

	tx.Rollback()
	if h := tx.handler(); h != nil {
		// Installed by the inner unit of work itself: invoked for its side
		// effect only. The outer scope still decides final recovery.
		h(err)
	}
	return nil, wrapPersistence(err)
}

func (e *Executor) runNested(ctx context.Context, conn Connection, tx *Transaction, isolation IsolationLevel, fn UnitOfWork) (any, error) {
	cur, err := conn.Isolation(ctx)
	if err != nil {
		return nil, &ConnectionError{Op: "get isolation", Err: err}
	}
	// widen only; the level never narrows within the nesting
	if cur < isolation {
		if err := conn.SetIsolation(ctx, isolation); err != nil {
			return nil, &ConnectionError{Op: "set isolation", Err: err}
		}
	}

	ret, err := fn(ctx, tx)
	if err != nil {
		return nil, err
	}

	if d, ok := ret.(RollbackDecider); ok && d.ShouldRollback() {
		tx.Rollback()
	}
	if e.onBeforeCommit != nil && !tx.shouldRollback() {
		e.onBeforeCommit(tx, ret)
	}

	return ret, nil
}

// recoverError resolves the effective recovery handler for a failed
// top-level transaction: transaction-local first, then the executor-wide
// default, otherwise the error propagates wrapped as a persistence error.
// Recovered errors are logged because they never reach the caller.
func (e *Executor) recoverError(tx *Transaction, err error) (any, error) {
	if tx != nil {
		if h := tx.handler(); h != nil {
			e.log.Error().Err(err).Str("transaction_id", tx.ID()).Msg("transaction failed, recovered by transaction handler")
			return h(err), nil
		}
	}
	if e.onException != nil {
		e.log.Error().Err(err).Msg("transaction failed, recovered by default handler")
		return e.onException(err), nil
	}
	return nil, wrapPersistence(err)
}

// teardown restores the connection's session properties, closes it and
// clears the chain's scope. It runs on every exit path, including panics;
// restore and close failures are logged and never overturn the outcome.
func (e *Executor) teardown(ctx context.Context, conn Connection, sc *scope, st *session) {
	defer func() {
		sc.unbindTransaction()
		sc.unbind()
	}()

	if st.active {
		// reached only when the unit of work panicked
		st.active = false
		if err := conn.Rollback(ctx); err != nil {
			e.log.Error().Err(err).Msg("rollback failed during teardown")
		}
	}

	if st.origAutocommit != nil {
		if err := conn.SetAutocommit(ctx, *st.origAutocommit); err != nil {
			e.log.Error().Err(err).Msg("failed to restore autocommit")
		}
	}

	if st.origIsolation != nil {
		cur, err := conn.Isolation(ctx)
		switch {
		case err != nil:
			e.log.Error().Err(err).Msg("failed to read isolation level during teardown")
		case cur != *st.origIsolation:
			if err := conn.SetIsolation(ctx, *st.origIsolation); err != nil {
				e.log.Error().Err(err).Msg("failed to restore isolation level")
			}
		}
	}

	if err := conn.Close(); err != nil {
		e.log.Error().Err(err).Msg("failed to close connection")
	}
}
