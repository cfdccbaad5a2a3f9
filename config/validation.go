package config

import (
	"fmt"
	"slices"

	"github.com/gaborage/go-txkit/txn"
)

// Database vendor constants
const (
	PostgreSQL = "postgresql"
	MySQL      = "mysql"
	Oracle     = "oracle"
)

// SupportedVendors returns the database vendors a provider exists for.
func SupportedVendors() []string {
	return []string{PostgreSQL, MySQL, Oracle}
}

// Validate checks cfg for consistency. It is called by Load but exported so
// hand-built configurations can be checked too.
func Validate(cfg *Config) error {
	if err := validateDatabase(&cfg.Database); err != nil {
		return fmt.Errorf("database config: %w", err)
	}

	if err := validateTxn(&cfg.Txn); err != nil {
		return fmt.Errorf("txn config: %w", err)
	}

	if err := validateLog(&cfg.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}

	return nil
}

func validateDatabase(cfg *DatabaseConfig) error {
	if cfg.Vendor == "" {
		return fmt.Errorf("database vendor is required")
	}

	if !slices.Contains(SupportedVendors(), cfg.Vendor) {
		return fmt.Errorf("unsupported database vendor: %s (supported: %v)", cfg.Vendor, SupportedVendors())
	}

	if cfg.ConnectionString == "" && cfg.Host == "" {
		return fmt.Errorf("database host or connection string is required")
	}

	if cfg.MaxConns <= 0 {
		return fmt.Errorf("database max_conns must be positive")
	}

	if cfg.MaxIdleConns < 0 {
		return fmt.Errorf("database max_idle_conns must not be negative")
	}

	return nil
}

// validateTxn rejects unknown isolation names before any connection work.
func validateTxn(cfg *TxnConfig) error {
	if cfg.Isolation == "" {
		return fmt.Errorf("txn isolation is required")
	}

	if _, err := txn.ParseIsolation(cfg.Isolation); err != nil {
		return err
	}

	return nil
}

func validateLog(cfg *LogConfig) error {
	validLevels := []string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"}
	if !slices.Contains(validLevels, cfg.Level) {
		return fmt.Errorf("invalid log level: %s (valid: %v)", cfg.Level, validLevels)
	}

	return nil
}

// DefaultIsolation returns the parsed engine-wide default isolation level.
// Validate has already established the value parses.
func (c *Config) DefaultIsolation() txn.IsolationLevel {
	level, err := txn.ParseIsolation(c.Txn.Isolation)
	if err != nil {
		return txn.LevelRepeatableRead
	}
	return level
}
