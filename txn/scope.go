package txn

import "context"

// scope is the per-call-chain slot pair holding the active connection and
// transaction. The outermost transactional entry point allocates one and
// stores it in the context handed to the unit of work; nested calls on that
// context find it and merge. Each chain owns its scope exclusively, so the
// fields need no synchronization.
type scope struct {
	conn Connection
	tx   *Transaction
}

type scopeKey struct{}

func withScope(ctx context.Context, sc *scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, sc)
}

func scopeFrom(ctx context.Context) *scope {
	sc, _ := ctx.Value(scopeKey{}).(*scope)
	return sc
}

func (s *scope) bind(conn Connection) {
	s.conn = conn
}

func (s *scope) unbind() {
	s.conn = nil
}

func (s *scope) bindTransaction(tx *Transaction) {
	s.tx = tx
}

func (s *scope) unbindTransaction() {
	s.tx = nil
}

// CurrentTransaction returns the transaction bound to the call chain of ctx,
// if any. It lets code deep inside a unit of work register after-commit
// callbacks or vote for rollback without receiving the handle explicitly.
func CurrentTransaction(ctx context.Context) (*Transaction, bool) {
	sc := scopeFrom(ctx)
	if sc == nil || sc.tx == nil {
		return nil, false
	}
	return sc.tx, true
}
