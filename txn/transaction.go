package txn

import (
	"github.com/google/uuid"

	"github.com/gaborage/go-txkit/logger"
)

// Handler recovers a failed transaction. Its return value becomes the result
// of the enclosing Execute call; the original error is logged and swallowed.
type Handler func(err error) any

// Transaction is the mutable state of one logical (possibly merged)
// transaction. The outermost Execute call creates it; nested calls borrow
// the same instance. It is owned by a single call chain and must not be
// shared across goroutines.
type Transaction struct {
	id           string
	rollbackOnly bool
	afterCommit  []func() error
	onException  Handler
}

func newTransaction() *Transaction {
	return &Transaction{id: uuid.NewString()}
}

// ID returns the identifier used to correlate this transaction in logs.
func (t *Transaction) ID() string {
	return t.id
}

// Rollback marks the transaction rollback-only. The flag is monotonic: once
// set it stays set for the lifetime of the (merged) transaction.
func (t *Transaction) Rollback() {
	t.rollbackOnly = true
}

// RollbackIf marks the transaction rollback-only when condition is true.
func (t *Transaction) RollbackIf(condition bool) {
	if condition {
		t.rollbackOnly = true
	}
}

// CanCommit reports whether the transaction is still on course to commit.
// Units of work typically use it to pick their result value:
//
//	tx.RollbackIf(insufficientFunds)
//	return transferReceipt, nil // still returned even when rolling back
func (t *Transaction) CanCommit() bool {
	return !t.rollbackOnly
}

func (t *Transaction) shouldRollback() bool {
	return t.rollbackOnly
}

// OnException installs the transaction-local recovery handler. It takes
// priority over the executor-wide handler and may be replaced at any point
// during the unit of work.
func (t *Transaction) OnException(h Handler) {
	t.onException = h
}

func (t *Transaction) handler() Handler {
	return t.onException
}

// detachHandler removes and returns the current handler. The nested path
// detaches the enclosing scope's handler on entry so an inner failure cannot
// trigger recovery at the wrong nesting level, and restores it on exit.
func (t *Transaction) detachHandler() Handler {
	h := t.onException
	t.onException = nil
	return h
}

// OnAfterCommit registers a callback to run after the physical commit
// succeeds. Callbacks run in reverse registration order; a failing callback
// is logged and neither stops the remaining callbacks nor reaches the caller.
// They never run when the transaction rolls back.
func (t *Transaction) OnAfterCommit(fn func() error) {
	if fn != nil {
		t.afterCommit = append(t.afterCommit, fn)
	}
}

func (t *Transaction) runAfterCommit(log logger.Logger) {
	for i := len(t.afterCommit) - 1; i >= 0; i-- {
		t.runCallback(t.afterCommit[i], log)
	}
}

func (t *Transaction) runCallback(fn func() error, log logger.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("transaction_id", t.id).Interface("panic", r).Msg("after-commit callback panicked")
		}
	}()

	if err := fn(); err != nil {
		log.Error().Err(err).Str("transaction_id", t.id).Msg("after-commit callback failed")
	}
}
