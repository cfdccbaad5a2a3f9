package mysql

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-txkit/config"
	"github.com/gaborage/go-txkit/logger"
	"github.com/gaborage/go-txkit/txn"
)

func TestDialectStatements(t *testing.T) {
	d := Dialect{}

	assert.Equal(t, "mysql", d.Name())

	stmt, ok := d.BeginStmt()
	assert.True(t, ok)
	assert.Equal(t, "START TRANSACTION", stmt)

	iso, err := d.IsolationStmt(txn.LevelReadUncommitted)
	require.NoError(t, err)
	assert.Equal(t, "SET SESSION TRANSACTION ISOLATION LEVEL READ UNCOMMITTED", iso)

	_, err = d.IsolationStmt(txn.LevelNone)
	assert.ErrorIs(t, err, txn.ErrInvalidIsolation)
}

func testDatabaseConfig() *config.DatabaseConfig {
	return &config.DatabaseConfig{
		Vendor:       config.MySQL,
		Host:         "localhost",
		Port:         3306,
		Database:     "app",
		Username:     "app",
		Password:     "secret",
		MaxConns:     5,
		MaxIdleConns: 2,
	}
}

func TestNewProviderBuildsDSNFromConfig(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	origOpen, origPing := openMySQLDB, pingMySQLDB
	defer func() { openMySQLDB, pingMySQLDB = origOpen, origPing }()

	var dsn string
	openMySQLDB = func(d string) (*sql.DB, error) {
		dsn = d
		return db, nil
	}
	pingMySQLDB = func(ctx context.Context, db *sql.DB) error {
		return db.PingContext(ctx)
	}

	mock.ExpectPing()

	provider, err := NewProvider(testDatabaseConfig(), txn.LevelRepeatableRead, logger.New("disabled", true))
	require.NoError(t, err)
	assert.Contains(t, dsn, "tcp(localhost:3306)")
	assert.Contains(t, dsn, "/app")
	assert.Contains(t, dsn, "parseTime=true")

	conn, err := provider.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, conn.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewProviderPrefersConnectionString(t *testing.T) {
	db, _, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	origOpen, origPing := openMySQLDB, pingMySQLDB
	defer func() { openMySQLDB, pingMySQLDB = origOpen, origPing }()

	var dsn string
	openMySQLDB = func(d string) (*sql.DB, error) {
		dsn = d
		return db, nil
	}
	pingMySQLDB = func(context.Context, *sql.DB) error { return nil }

	cfg := testDatabaseConfig()
	cfg.ConnectionString = "app:secret@tcp(db.internal:3307)/orders"

	_, err = NewProvider(cfg, txn.LevelRepeatableRead, logger.New("disabled", true))
	require.NoError(t, err)
	assert.Equal(t, "app:secret@tcp(db.internal:3307)/orders", dsn)
}

func TestNewProviderClosesPoolOnPingFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	origOpen, origPing := openMySQLDB, pingMySQLDB
	defer func() { openMySQLDB, pingMySQLDB = origOpen, origPing }()

	openMySQLDB = func(string) (*sql.DB, error) { return db, nil }
	pingMySQLDB = func(context.Context, *sql.DB) error { return errors.New("access denied") }

	mock.ExpectClose()

	_, err = NewProvider(testDatabaseConfig(), txn.LevelRepeatableRead, logger.New("disabled", true))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping MySQL database")
	require.NoError(t, mock.ExpectationsWereMet())
}
