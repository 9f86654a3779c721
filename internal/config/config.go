// Package config loads the sqlkit CLI configuration from .sqlkit.yaml,
// SQLKIT_* environment variables, .env files and DATABASE_URL.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/satishbabariya/sqlkit/database"
)

// FileName is the configuration file looked up in ., $HOME and
// $HOME/.config/sqlkit.
const FileName = ".sqlkit"

// DefaultConnection names the connection created from DATABASE_URL when
// none is configured.
const DefaultConnection = "default"

// Config is the CLI configuration.
type Config struct {
	Default     string                     `mapstructure:"default"`
	Debug       bool                       `mapstructure:"debug"`
	LogFormat   string                     `mapstructure:"log_format"`
	Connections map[string]database.Config `mapstructure:"connections"`
	Migrations  Migrations                 `mapstructure:"migrations"`

	// File is the configuration file that was read, if any.
	File string `mapstructure:"-"`
}

// Migrations locates the migration files.
type Migrations struct {
	Dir string `mapstructure:"dir"`
}

// Options controls Load.
type Options struct {
	// Fs defaults to the OS file system.
	Fs afero.Fs
	// File is an explicit configuration file, e.g. from --config.
	File string
	// Env overrides the process environment lookup, for tests.
	Env func(key string) (string, bool)
}

// Load reads the configuration. A missing configuration file is not an
// error.
func Load(opts Options) (*Config, error) {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	lookup := opts.Env
	if lookup == nil {
		lookup = os.LookupEnv
	}

	env, err := loadDotEnv(fs, lookup)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetFs(fs)
	v.SetConfigType("yaml")
	if opts.File != "" {
		path, err := homedir.Expand(opts.File)
		if err != nil {
			return nil, err
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
			v.AddConfigPath(filepath.Join(home, ".config", "sqlkit"))
		}
	}

	for _, key := range []string{"default", "debug", "log_format", "migrations.dir"} {
		name := "SQLKIT_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if value, ok := env(name); ok {
			v.Set(key, value)
		}
	}

	v.SetDefault("log_format", "text")
	v.SetDefault("migrations.dir", "./migrations")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{File: v.ConfigFileUsed()}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Connections == nil {
		cfg.Connections = make(map[string]database.Config)
	}

	if raw, ok := env("DATABASE_URL"); ok && raw != "" {
		conn, err := FromURL(raw)
		if err != nil {
			return nil, fmt.Errorf("DATABASE_URL: %w", err)
		}
		name := cfg.Default
		if name == "" {
			name = DefaultConnection
		}
		cfg.Connections[name] = conn
		cfg.Default = name
	}

	for name, conn := range cfg.Connections {
		if conn.Path != "" {
			if conn.Path, err = homedir.Expand(conn.Path); err != nil {
				return nil, err
			}
			cfg.Connections[name] = conn
		}
	}
	if cfg.Migrations.Dir, err = homedir.Expand(cfg.Migrations.Dir); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Registry registers every connection and marks the default one.
func (c *Config) Registry(logger *slog.Logger) (*database.Registry, error) {
	reg := database.NewRegistry(logger)

	names := make([]string, 0, len(c.Connections))
	for name := range c.Connections {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := reg.Add(name, c.Connections[name]); err != nil {
			return nil, err
		}
	}
	if c.Default != "" {
		if err := reg.SetDefault(c.Default); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// FromURL converts a database URL into a connection configuration.
// PostgreSQL and SQL Server URLs are passed to their drivers unchanged.
func FromURL(raw string) (database.Config, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return database.Config{}, err
	}

	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		return database.Config{Driver: "postgres", DSN: raw}, nil
	case "sqlserver", "mssql":
		return database.Config{Driver: "sqlserver", DSN: raw}, nil
	case "sqlite", "sqlite3", "file":
		return database.Config{Driver: "sqlite", Path: u.Host + u.Path}, nil
	case "mysql", "mariadb":
		cfg := database.Config{
			Driver:   "mysql",
			Host:     u.Hostname(),
			Database: strings.TrimPrefix(u.Path, "/"),
		}
		if port := u.Port(); port != "" {
			if cfg.Port, err = strconv.Atoi(port); err != nil {
				return database.Config{}, fmt.Errorf("invalid port %q", port)
			}
		}
		if u.User != nil {
			cfg.User = u.User.Username()
			cfg.Password, _ = u.User.Password()
		}
		if q := u.Query(); len(q) > 0 {
			cfg.Params = make(map[string]string, len(q))
			for k := range q {
				cfg.Params[k] = q.Get(k)
			}
		}
		return cfg, nil
	default:
		return database.Config{}, fmt.Errorf("%w: %q", database.ErrUnknownDriver, u.Scheme)
	}
}

// loadDotEnv layers .env.local over the process environment over .env.
func loadDotEnv(fs afero.Fs, lookup func(string) (string, bool)) (func(string) (string, bool), error) {
	base, err := readDotEnv(fs, ".env")
	if err != nil {
		return nil, err
	}
	local, err := readDotEnv(fs, ".env.local")
	if err != nil {
		return nil, err
	}

	return func(key string) (string, bool) {
		if v, ok := local[key]; ok {
			return v, true
		}
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := base[key]
		return v, ok
	}, nil
}

func readDotEnv(fs afero.Fs, name string) (map[string]string, error) {
	data, err := afero.ReadFile(fs, name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	values, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return values, nil
}
