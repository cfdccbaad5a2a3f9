// Package oracle provides a go-ora-backed connection provider.
package oracle

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	go_ora "github.com/sijms/go-ora/v2"

	"github.com/gaborage/go-txkit/config"
	"github.com/gaborage/go-txkit/internal/sqlconn"
	"github.com/gaborage/go-txkit/logger"
	"github.com/gaborage/go-txkit/txn"
)

var (
	openOracleDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("oracle", dsn)
	}
	pingOracleDB = func(ctx context.Context, db *sql.DB) error {
		return db.PingContext(ctx)
	}
)

// Dialect implements sqlconn.Dialect for Oracle.
type Dialect struct{}

func (Dialect) Name() string {
	return "oracle"
}

// BeginStmt reports no explicit begin: Oracle opens a transaction implicitly
// on the first DML statement.
func (Dialect) BeginStmt() (string, bool) {
	return "", false
}

// IsolationStmt supports the two levels Oracle can express. Requests for
// other levels fail rather than silently degrading.
func (Dialect) IsolationStmt(level txn.IsolationLevel) (string, error) {
	switch level {
	case txn.LevelReadCommitted:
		return "ALTER SESSION SET ISOLATION_LEVEL = READ COMMITTED", nil
	case txn.LevelSerializable:
		return "ALTER SESSION SET ISOLATION_LEVEL = SERIALIZABLE", nil
	default:
		return "", fmt.Errorf("%w: oracle supports read_committed and serializable, got %s", txn.ErrInvalidIsolation, level)
	}
}

// NewProvider opens an Oracle pool for cfg and returns a provider that hands
// out sessions at the engine's default isolation level.
func NewProvider(cfg *config.DatabaseConfig, level txn.IsolationLevel, log logger.Logger) (txn.Provider, error) {
	var dsn string
	if cfg.ConnectionString != "" {
		dsn = cfg.ConnectionString
	} else {
		// Build Oracle DSN
		if cfg.ServiceName != "" {
			dsn = go_ora.BuildUrl(cfg.Host, cfg.Port, cfg.ServiceName, cfg.Username, cfg.Password, nil)
		} else if cfg.SID != "" {
			urlOpts := map[string]string{"SID": cfg.SID}
			dsn = go_ora.BuildUrl(cfg.Host, cfg.Port, "", cfg.Username, cfg.Password, urlOpts)
		} else {
			dsn = go_ora.BuildUrl(cfg.Host, cfg.Port, cfg.Database, cfg.Username, cfg.Password, nil)
		}
	}

	db, err := openOracleDB(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open Oracle connection: %w", err)
	}

	db.SetMaxOpenConns(int(cfg.MaxConns))
	db.SetMaxIdleConns(int(cfg.MaxIdleConns))
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := pingOracleDB(ctx, db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("Failed to close Oracle database connection after ping failure")
		}
		return nil, fmt.Errorf("failed to ping Oracle database: %w", err)
	}

	ev := log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port)
	if cfg.ServiceName != "" {
		ev = ev.Str("service_name", cfg.ServiceName)
	} else if cfg.SID != "" {
		ev = ev.Str("sid", cfg.SID)
	} else {
		ev = ev.Str("database", cfg.Database)
	}
	ev.Msg("Connected to Oracle database")

	return sqlconn.NewProvider(db, Dialect{}, level, log), nil
}
