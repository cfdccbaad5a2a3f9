package txn

import (
	"fmt"
	"strings"
)

// IsolationLevel identifies a transaction isolation level. The numeric values
// match the classic JDBC constants so that levels order correctly: widening a
// nested transaction means moving to a strictly greater value.
type IsolationLevel int

const (
	// LevelNone disables transaction support on the session.
	LevelNone IsolationLevel = 0
	// LevelReadUncommitted allows dirty reads.
	LevelReadUncommitted IsolationLevel = 1
	// LevelReadCommitted prevents dirty reads.
	LevelReadCommitted IsolationLevel = 2
	// LevelRepeatableRead prevents dirty and non-repeatable reads.
	LevelRepeatableRead IsolationLevel = 4
	// LevelSerializable provides full transaction isolation.
	LevelSerializable IsolationLevel = 8
)

// Validate returns ErrInvalidIsolation unless l belongs to the closed level set.
func (l IsolationLevel) Validate() error {
	switch l {
	case LevelNone, LevelReadUncommitted, LevelReadCommitted, LevelRepeatableRead, LevelSerializable:
		return nil
	default:
		return fmt.Errorf("%w: got %d", ErrInvalidIsolation, int(l))
	}
}

func (l IsolationLevel) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelReadUncommitted:
		return "read_uncommitted"
	case LevelReadCommitted:
		return "read_committed"
	case LevelRepeatableRead:
		return "repeatable_read"
	case LevelSerializable:
		return "serializable"
	default:
		return fmt.Sprintf("isolation(%d)", int(l))
	}
}

// ParseIsolation converts a configuration string into an IsolationLevel.
// Matching is case-insensitive and accepts both "read_committed" and
// "read committed" spellings.
func ParseIsolation(s string) (IsolationLevel, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_") {
	case "none":
		return LevelNone, nil
	case "read_uncommitted":
		return LevelReadUncommitted, nil
	case "read_committed":
		return LevelReadCommitted, nil
	case "repeatable_read":
		return LevelRepeatableRead, nil
	case "serializable":
		return LevelSerializable, nil
	default:
		return 0, fmt.Errorf("%w: unknown level %q", ErrInvalidIsolation, s)
	}
}
