// Package sqlconn implements the engine's Connection contract on top of a
// raw *sql.Conn. Transactions are driven with explicit BEGIN/COMMIT/ROLLBACK
// statements so that one session can span several logical transactions,
// which database/sql's Tx type does not allow.
package sqlconn

import (
	"fmt"

	"github.com/gaborage/go-txkit/txn"
)

// Dialect supplies the vendor-specific statements the session layer needs.
type Dialect interface {
	// Name identifies the vendor in logs and errors.
	Name() string

	// BeginStmt returns the statement that opens an explicit transaction.
	// ok is false for vendors that open transactions implicitly on the
	// first DML statement (Oracle).
	BeginStmt() (stmt string, ok bool)

	// IsolationStmt returns the statement that moves the session to the
	// given isolation level. Levels the vendor cannot express return an
	// error wrapping txn.ErrInvalidIsolation.
	//
	// The statements are session-scoped: issued while a transaction is
	// already open (nested widening), PostgreSQL and MySQL apply them to
	// subsequent transactions on the session, not the one in flight. This
	// matches the classic driver contract the engine is built against.
	IsolationStmt(level txn.IsolationLevel) (string, error)
}

// IsolationSQL spells a level the way SQL standards vendors expect.
func IsolationSQL(level txn.IsolationLevel) (string, error) {
	switch level {
	case txn.LevelReadUncommitted:
		return "READ UNCOMMITTED", nil
	case txn.LevelReadCommitted:
		return "READ COMMITTED", nil
	case txn.LevelRepeatableRead:
		return "REPEATABLE READ", nil
	case txn.LevelSerializable:
		return "SERIALIZABLE", nil
	default:
		return "", fmt.Errorf("%w: level %s has no session statement", txn.ErrInvalidIsolation, level)
	}
}
