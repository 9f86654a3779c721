package database

import (
	"fmt"
	"strings"
	"time"
)

// Config holds database connection configuration.
type Config struct {
	Driver   string            `mapstructure:"driver" yaml:"driver"`
	DSN      string            `mapstructure:"dsn" yaml:"dsn"`
	Host     string            `mapstructure:"host" yaml:"host"`
	Port     int               `mapstructure:"port" yaml:"port"`
	User     string            `mapstructure:"user" yaml:"user"`
	Password string            `mapstructure:"password" yaml:"password"`
	Database string            `mapstructure:"database" yaml:"database"`
	Path     string            `mapstructure:"path" yaml:"path"` // sqlite file
	Params   map[string]string `mapstructure:"params" yaml:"params"`

	MaxConnections int `mapstructure:"max_connections" yaml:"max_connections"`
	MaxIdleTime    int `mapstructure:"max_idle_time" yaml:"max_idle_time"`     // seconds
	ConnectTimeout int `mapstructure:"connect_timeout" yaml:"connect_timeout"` // seconds
}

// DefaultConfig returns a configuration with pool defaults applied.
func DefaultConfig() Config {
	return Config{
		MaxConnections: 10,
		MaxIdleTime:    300,
		ConnectTimeout: 10,
	}
}

// withDefaults fills zero pool settings.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxConnections <= 0 {
		c.MaxConnections = def.MaxConnections
	}
	if c.MaxIdleTime <= 0 {
		c.MaxIdleTime = def.MaxIdleTime
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	return c
}

// Validate checks that the configuration names a known driver and carries
// enough information to connect.
func (c Config) Validate() error {
	if _, ok := connectors[strings.ToLower(c.Driver)]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Driver)
	}
	if c.DSN == "" && c.Database == "" && c.Path == "" {
		return fmt.Errorf("database: connection needs a dsn, a database name or a path")
	}
	return nil
}

func (c Config) timeout() time.Duration {
	return time.Duration(c.ConnectTimeout) * time.Second
}

func (c Config) host(def string) string {
	if c.Host == "" {
		return def
	}
	return c.Host
}

func (c Config) port(def int) int {
	if c.Port == 0 {
		return def
	}
	return c.Port
}
