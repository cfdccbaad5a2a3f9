// Package postgres provides a pgx-backed connection provider.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/gaborage/go-txkit/config"
	"github.com/gaborage/go-txkit/internal/sqlconn"
	"github.com/gaborage/go-txkit/logger"
	"github.com/gaborage/go-txkit/txn"
)

var (
	openPostgresDB = func(cfg *pgx.ConnConfig) *sql.DB {
		return stdlib.OpenDB(*cfg)
	}
	pingPostgresDB = func(ctx context.Context, db *sql.DB) error {
		return db.PingContext(ctx)
	}
)

// Dialect implements sqlconn.Dialect for PostgreSQL.
type Dialect struct{}

func (Dialect) Name() string {
	return "postgresql"
}

func (Dialect) BeginStmt() (string, bool) {
	return "BEGIN", true
}

func (Dialect) IsolationStmt(level txn.IsolationLevel) (string, error) {
	name, err := sqlconn.IsolationSQL(level)
	if err != nil {
		return "", err
	}
	return "SET SESSION CHARACTERISTICS AS TRANSACTION ISOLATION LEVEL " + name, nil
}

// quoteDSN quotes a DSN value according to libpq rules:
// - Returns double single quotes for empty strings (empty value)
// - Escapes backslashes and single quotes
// - Wraps in single quotes when value contains non-alphanumeric/._- characters
func quoteDSN(value string) string {
	if value == "" {
		return "''"
	}

	needsQuoting := false
	for _, r := range value {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') &&
			(r < '0' || r > '9') && r != '.' && r != '_' && r != '-' {
			needsQuoting = true
			break
		}
	}

	if !needsQuoting {
		return value
	}

	escaped := strings.ReplaceAll(value, "\\", "\\\\")
	escaped = strings.ReplaceAll(escaped, "'", "\\'")

	return "'" + escaped + "'"
}

// NewProvider opens a PostgreSQL pool for cfg and returns a provider that
// hands out sessions at the engine's default isolation level.
func NewProvider(cfg *config.DatabaseConfig, level txn.IsolationLevel, log logger.Logger) (txn.Provider, error) {
	var dsn string
	if cfg.ConnectionString != "" {
		dsn = cfg.ConnectionString
	} else {
		parts := []string{
			fmt.Sprintf("host=%s", quoteDSN(cfg.Host)),
			fmt.Sprintf("port=%d", cfg.Port),
			fmt.Sprintf("user=%s", quoteDSN(cfg.Username)),
			fmt.Sprintf("password=%s", quoteDSN(cfg.Password)),
			fmt.Sprintf("dbname=%s", quoteDSN(cfg.Database)),
		}

		if cfg.SSLMode != "" {
			parts = append(parts, fmt.Sprintf("sslmode=%s", cfg.SSLMode))
		}

		dsn = strings.Join(parts, " ")
	}

	pgxConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PostgreSQL config: %w", err)
	}

	db := openPostgresDB(pgxConfig)

	db.SetMaxOpenConns(int(cfg.MaxConns))
	db.SetMaxIdleConns(int(cfg.MaxIdleConns))
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := pingPostgresDB(ctx, db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("Failed to close PostgreSQL database connection after ping failure")
		}
		return nil, fmt.Errorf("failed to ping PostgreSQL database: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("Connected to PostgreSQL database")

	return sqlconn.NewProvider(db, Dialect{}, level, log), nil
}
