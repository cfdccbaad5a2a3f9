// Package mysql provides a go-sql-driver-backed connection provider.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/gaborage/go-txkit/config"
	"github.com/gaborage/go-txkit/internal/sqlconn"
	"github.com/gaborage/go-txkit/logger"
	"github.com/gaborage/go-txkit/txn"
)

var (
	openMySQLDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("mysql", dsn)
	}
	pingMySQLDB = func(ctx context.Context, db *sql.DB) error {
		return db.PingContext(ctx)
	}
)

// Dialect implements sqlconn.Dialect for MySQL.
type Dialect struct{}

func (Dialect) Name() string {
	return "mysql"
}

func (Dialect) BeginStmt() (string, bool) {
	return "START TRANSACTION", true
}

func (Dialect) IsolationStmt(level txn.IsolationLevel) (string, error) {
	name, err := sqlconn.IsolationSQL(level)
	if err != nil {
		return "", err
	}
	return "SET SESSION TRANSACTION ISOLATION LEVEL " + name, nil
}

// NewProvider opens a MySQL pool for cfg and returns a provider that hands
// out sessions at the engine's default isolation level.
func NewProvider(cfg *config.DatabaseConfig, level txn.IsolationLevel, log logger.Logger) (txn.Provider, error) {
	dsn := cfg.ConnectionString
	if dsn == "" {
		mc := gomysql.NewConfig()
		mc.Net = "tcp"
		mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		mc.User = cfg.Username
		mc.Passwd = cfg.Password
		mc.DBName = cfg.Database
		mc.ParseTime = true
		dsn = mc.FormatDSN()
	}

	db, err := openMySQLDB(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(int(cfg.MaxConns))
	db.SetMaxIdleConns(int(cfg.MaxIdleConns))
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := pingMySQLDB(ctx, db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("Failed to close MySQL database connection after ping failure")
		}
		return nil, fmt.Errorf("failed to ping MySQL database: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("Connected to MySQL database")

	return sqlconn.NewProvider(db, Dialect{}, level, log), nil
}
