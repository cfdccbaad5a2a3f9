package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// Config is the root configuration structure.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Txn      TxnConfig      `koanf:"txn"`
	Log      LogConfig      `koanf:"log"`

	k *koanf.Koanf
}

// DatabaseConfig holds connection settings for the configured vendor.
type DatabaseConfig struct {
	Vendor          string        `koanf:"vendor"` // "postgresql", "mysql" or "oracle"
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Database        string        `koanf:"database"`
	Username        string        `koanf:"username"`
	Password        string        `koanf:"password"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxConns        int32         `koanf:"max_conns"`
	MaxIdleConns    int32         `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`

	// Oracle-specific settings
	ServiceName string `koanf:"service_name"` // Oracle service name
	SID         string `koanf:"sid"`          // Oracle SID

	// Direct connection string (overrides individual settings)
	ConnectionString string `koanf:"connection_string"`
}

// TxnConfig holds the transaction engine settings.
type TxnConfig struct {
	// Isolation is the default isolation level used when a unit of work
	// does not request one explicitly. One of "none", "read_uncommitted",
	// "read_committed", "repeatable_read", "serializable".
	Isolation string `koanf:"isolation"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

// Koanf exposes the underlying koanf instance for flexible key access.
func (c *Config) Koanf() *koanf.Koanf {
	return c.k
}
