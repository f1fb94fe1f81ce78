package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-persistence-bun"
)

// Config holds all configuration for the audit console.
type Config struct {
	Persistence PersistenceConfig `json:"persistence"`
	Stats       StatsConfig       `json:"stats"`
}

// PersistenceConfig implements persistence.Config interface
type PersistenceConfig struct {
	Debug          bool          `json:"debug" env:"AUDIT_DB_DEBUG" default:"false"`
	Driver         string        `json:"driver" env:"AUDIT_DB_DRIVER" default:"sqlite"`
	Server         string        `json:"server" env:"AUDIT_DB_SERVER" default:"file:audit.db?cache=shared&_fk=1"`
	PingTimeout    time.Duration `json:"ping_timeout" default:"5s"`
	OtelIdentifier string        `json:"otel_identifier" default:"go-audit-console"`
}

func (c PersistenceConfig) GetDebug() bool                { return c.Debug }
func (c PersistenceConfig) GetDriver() string             { return c.Driver }
func (c PersistenceConfig) GetServer() string             { return c.Server }
func (c PersistenceConfig) GetPingTimeout() time.Duration { return c.PingTimeout }
func (c PersistenceConfig) GetOtelIdentifier() string     { return c.OtelIdentifier }

// StatsConfig controls the calendar used by the stats rollup.
type StatsConfig struct {
	Timezone string `json:"timezone" env:"AUDIT_TIMEZONE" default:"UTC"`
}

// Location resolves the configured timezone.
func (c StatsConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

// GetPersistence returns persistence config
func (c *Config) GetPersistence() persistence.Config {
	return c.Persistence
}

// Validate implements config.Validable interface
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Persistence.Driver)) {
	case "sqlite", "sqlite3", "postgres", "postgresql", "pgx":
	default:
		return fmt.Errorf("unsupported persistence driver %q", c.Persistence.Driver)
	}
	if _, err := c.Stats.Location(); err != nil {
		return fmt.Errorf("invalid stats timezone: %w", err)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Persistence: PersistenceConfig{
			Driver:         "sqlite",
			Server:         "file:audit.db?cache=shared&_fk=1",
			PingTimeout:    5 * time.Second,
			OtelIdentifier: "go-audit-console",
		},
		Stats: StatsConfig{Timezone: "UTC"},
	}
}
