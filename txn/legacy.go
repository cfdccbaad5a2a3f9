package txn

import (
	"context"
)

// BoolAtom is the legacy unit-of-work shape: it votes with a boolean rather
// than a Transaction handle. true commits, false rolls back.
type BoolAtom func(ctx context.Context) (bool, error)

// Tx is the legacy, non-merging transaction entry point, kept for callers
// that predate the Execute style. At top level it owns a fresh connection:
// a true vote commits, a false vote or an error rolls back and Tx returns
// ErrRolledBack or the atom's error respectively.
//
// Called while the chain already holds a connection, Tx joins the enclosing
// transaction: it widens isolation if needed, runs the atom against the
// bound connection and never commits. A failing or dissenting atom marks the
// enclosing merged transaction rollback-only (when the outer scope is the
// Execute style) and reports the failure to the caller, which must propagate
// it outward so the owner rolls back.
//
// The reverse composition is rejected: Execute inside a Tx scope fails with
// ErrLegacyNesting.
func (e *Executor) Tx(ctx context.Context, isolation IsolationLevel, atom BoolAtom) error {
	if err := isolation.Validate(); err != nil {
		return err
	}

	if sc := scopeFrom(ctx); sc != nil && sc.conn != nil {
		return e.txNested(ctx, sc, isolation, atom)
	}

	return e.txTopLevel(ctx, isolation, atom)
}

func (e *Executor) txNested(ctx context.Context, sc *scope, isolation IsolationLevel, atom BoolAtom) error {
	conn := sc.conn

	cur, err := conn.Isolation(ctx)
	if err != nil {
		return &ConnectionError{Op: "get isolation", Err: err}
	}
	if cur < isolation {
		if err := conn.SetIsolation(ctx, isolation); err != nil {
			return &ConnectionError{Op: "set isolation", Err: err}
		}
	}

	ok, err := atom(ctx)
	if err == nil && ok {
		return nil
	}

	// tell the enclosing merged transaction to roll back
	if sc.tx != nil {
		sc.tx.Rollback()
	}
	if err != nil {
		return wrapPersistence(err)
	}
	return ErrRolledBack
}

func (e *Executor) txTopLevel(ctx context.Context, isolation IsolationLevel, atom BoolAtom) error {
	conn, err := e.provider.Acquire(ctx)
	if err != nil {
		return &ConnectionError{Op: "acquire", Err: err}
	}

	sc := &scope{}
	sc.bind(conn)
	ctx = withScope(ctx, sc)

	active := true
	var origAutocommit *bool

	defer func() {
		if active {
			// the atom panicked; release a clean connection and re-panic
			if rbErr := conn.Rollback(ctx); rbErr != nil {
				e.log.Error().Err(rbErr).Msg("rollback failed during teardown")
			}
		}
		if origAutocommit != nil {
			if rErr := conn.SetAutocommit(ctx, *origAutocommit); rErr != nil {
				e.log.Error().Err(rErr).Msg("failed to restore autocommit")
			}
		}
		if cErr := conn.Close(); cErr != nil {
			e.log.Error().Err(cErr).Msg("failed to close connection")
		}
		sc.unbind()
	}()

	err = func() error {
		auto, err := conn.Autocommit(ctx)
		if err != nil {
			return &ConnectionError{Op: "get autocommit", Err: err}
		}
		origAutocommit = &auto

		if err := conn.SetIsolation(ctx, isolation); err != nil {
			return &ConnectionError{Op: "set isolation", Err: err}
		}
		if err := conn.SetAutocommit(ctx, false); err != nil {
			return &ConnectionError{Op: "set autocommit", Err: err}
		}

		ok, err := atom(ctx)
		if err != nil {
			return wrapPersistence(err)
		}
		if !ok {
			active = false
			if err := conn.Rollback(ctx); err != nil {
				return &ConnectionError{Op: "rollback", Err: err}
			}
			return ErrRolledBack
		}
		if err := conn.Commit(ctx); err != nil {
			return &ConnectionError{Op: "commit", Err: err}
		}
		active = false
		return nil
	}()

	if err != nil && active {
		active = false
		if rbErr := conn.Rollback(ctx); rbErr != nil {
			e.log.Error().Err(rbErr).Msg("transaction rollback failed")
		}
	}
	return err
}
