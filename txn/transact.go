package txn

import "context"

// Transact runs fn at the executor's default isolation level and returns a
// typed result. A value substituted by a recovery handler must be assignable
// to R, otherwise the zero value is returned.
func Transact[R any](ctx context.Context, e *Executor, fn func(ctx context.Context, tx *Transaction) (R, error)) (R, error) {
	return TransactIsolated(ctx, e, e.defaultIsolation, fn)
}

// TransactIsolated is the typed counterpart of ExecuteIsolated.
func TransactIsolated[R any](ctx context.Context, e *Executor, isolation IsolationLevel, fn func(ctx context.Context, tx *Transaction) (R, error)) (R, error) {
	result, err := e.ExecuteIsolated(ctx, isolation, func(ctx context.Context, tx *Transaction) (any, error) {
		return fn(ctx, tx)
	})
	if err != nil {
		var zero R
		return zero, err
	}
	r, _ := result.(R)
	return r, nil
}
