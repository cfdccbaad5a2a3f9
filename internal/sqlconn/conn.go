package sqlconn

import (
	"context"
	"database/sql"

	"github.com/gaborage/go-txkit/logger"
	"github.com/gaborage/go-txkit/txn"
)

// Conn adapts one pooled *sql.Conn to the txn.Connection contract.
//
// Isolation and autocommit are tracked locally: the session starts at the
// provider's configured default level with autocommit on, and every change
// goes through this type, so the cached values stay authoritative without
// round trips. A Conn belongs to a single call chain and is not safe for
// concurrent use.
type Conn struct {
	conn    *sql.Conn
	dialect Dialect
	log     logger.Logger

	isolation  txn.IsolationLevel
	autocommit bool
	inTx       bool
}

var _ txn.Connection = (*Conn)(nil)

// New wraps conn. level must be the session's current isolation level.
func New(conn *sql.Conn, dialect Dialect, level txn.IsolationLevel, log logger.Logger) *Conn {
	return &Conn{
		conn:       conn,
		dialect:    dialect,
		log:        log,
		isolation:  level,
		autocommit: true,
	}
}

// Isolation returns the session's current isolation level.
func (c *Conn) Isolation(_ context.Context) (txn.IsolationLevel, error) {
	return c.isolation, nil
}

// SetIsolation moves the session to the given level.
func (c *Conn) SetIsolation(ctx context.Context, level txn.IsolationLevel) error {
	stmt, err := c.dialect.IsolationStmt(level)
	if err != nil {
		return err
	}
	if _, err := c.conn.ExecContext(ctx, stmt); err != nil {
		return err
	}
	c.isolation = level
	return nil
}

// Autocommit reports whether the session commits each statement on its own.
func (c *Conn) Autocommit(_ context.Context) (bool, error) {
	return c.autocommit, nil
}

// SetAutocommit toggles statement-level commits. Turning autocommit off
// opens an explicit transaction; turning it back on commits any transaction
// still open, matching the classic driver contract.
func (c *Conn) SetAutocommit(ctx context.Context, enabled bool) error {
	if enabled == c.autocommit {
		return nil
	}

	if enabled {
		if c.inTx {
			if err := c.Commit(ctx); err != nil {
				return err
			}
		}
		c.autocommit = true
		return nil
	}

	if stmt, ok := c.dialect.BeginStmt(); ok {
		if _, err := c.conn.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	c.inTx = true
	c.autocommit = false
	return nil
}

// Commit ends the open transaction, keeping the session usable afterwards.
func (c *Conn) Commit(ctx context.Context) error {
	if _, err := c.conn.ExecContext(ctx, "COMMIT"); err != nil {
		return err
	}
	c.inTx = false
	return nil
}

// Rollback discards the open transaction, keeping the session usable afterwards.
func (c *Conn) Rollback(ctx context.Context) error {
	if _, err := c.conn.ExecContext(ctx, "ROLLBACK"); err != nil {
		return err
	}
	c.inTx = false
	return nil
}

// Close returns the session to the pool.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// Provider hands out Conn sessions from a *sql.DB pool.
type Provider struct {
	db      *sql.DB
	dialect Dialect
	level   txn.IsolationLevel
	log     logger.Logger
}

var _ txn.Provider = (*Provider)(nil)

// NewProvider builds a Provider. level is the isolation level new sessions
// are assumed to start at; it must match the pool's session defaults.
func NewProvider(db *sql.DB, dialect Dialect, level txn.IsolationLevel, log logger.Logger) *Provider {
	return &Provider{db: db, dialect: dialect, level: level, log: log}
}

// Acquire checks a session out of the pool.
func (p *Provider) Acquire(ctx context.Context) (txn.Connection, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return New(conn, p.dialect, p.level, p.log), nil
}

// DB exposes the underlying pool for diagnostics.
func (p *Provider) DB() *sql.DB {
	return p.db
}
