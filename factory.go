// Package txkit wires configuration, logging, vendor providers and the
// transaction engine together.
package txkit

import (
	"fmt"

	"github.com/gaborage/go-txkit/config"
	"github.com/gaborage/go-txkit/logger"
	"github.com/gaborage/go-txkit/mysql"
	"github.com/gaborage/go-txkit/oracle"
	"github.com/gaborage/go-txkit/postgres"
	"github.com/gaborage/go-txkit/txn"
)

// NewProvider creates a connection provider according to cfg. The concrete
// driver is selected by cfg.Vendor (supported: "postgresql", "mysql",
// "oracle"). If cfg.Vendor is unsupported an error is returned; if the
// chosen driver fails to initialize, that underlying error is returned.
func NewProvider(cfg *config.DatabaseConfig, level txn.IsolationLevel, log logger.Logger) (txn.Provider, error) {
	switch cfg.Vendor {
	case config.PostgreSQL:
		return postgres.NewProvider(cfg, level, log)
	case config.MySQL:
		return mysql.NewProvider(cfg, level, log)
	case config.Oracle:
		return oracle.NewProvider(cfg, level, log)
	default:
		return nil, fmt.Errorf("unsupported database vendor: %s (supported: %v)", cfg.Vendor, config.SupportedVendors())
	}
}

// NewExecutor builds the complete stack from a loaded configuration: vendor
// provider plus a transaction executor. The executor's default isolation
// level always comes from cfg (the txn.isolation key, "none" included);
// opts.DefaultIsolation is ignored here. Callers that want a default the
// configuration does not express construct txn.NewExecutor directly.
func NewExecutor(cfg *config.Config, log logger.Logger, opts txn.Options) (*txn.Executor, error) {
	level := cfg.DefaultIsolation()
	opts.DefaultIsolation = level

	provider, err := NewProvider(&cfg.Database, level, log)
	if err != nil {
		return nil, err
	}

	return txn.NewExecutor(provider, log, opts)
}
