package txn

import (
	"errors"
	"fmt"
)

// Sentinel errors for configuration failures. These are raised before any
// connection work begins and can be matched with errors.Is().
var (
	// ErrInvalidIsolation is returned when an isolation level outside the
	// closed set {0, 1, 2, 4, 8} is supplied.
	ErrInvalidIsolation = errors.New("isolation level must be one of 0, 1, 2, 4 or 8")

	// ErrLegacyNesting is returned when a merging Execute call is made while
	// a legacy Tx call owns the chain's connection. Merging into a legacy
	// scope is not supported; the reverse direction is.
	ErrLegacyNesting = errors.New("cannot nest a merging transaction inside a legacy transaction")

	// ErrRolledBack is returned by the legacy Tx entry point when the unit
	// of work voted against committing.
	ErrRolledBack = errors.New("transaction rolled back")
)

// ConnectionError wraps a failure reported by the connection provider or by
// one of the connection's own operations (acquire, commit, rollback, session
// property access).
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// PersistenceError wraps an error raised by a unit of work that no exception
// handler recovered. Errors already carrying an engine kind (ConnectionError,
// PersistenceError, configuration sentinels) are propagated as-is.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("transaction failed: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// wrapPersistence normalizes an error escaping the executor into a single
// well-typed kind while preserving already-recognized kinds.
func wrapPersistence(err error) error {
	var pe *PersistenceError
	var ce *ConnectionError
	switch {
	case errors.As(err, &pe), errors.As(err, &ce):
		return err
	case errors.Is(err, ErrInvalidIsolation), errors.Is(err, ErrLegacyNesting), errors.Is(err, ErrRolledBack):
		return err
	default:
		return &PersistenceError{Err: err}
	}
}
