package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	internal "github.com/ZanzyTHEbar/payload-cache/pcache"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig stores HTTP listener settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`  // per-request context deadline
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"` // graceful drain budget
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

// DatabaseConfig stores database connection details.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // "libsql", "sqlite", "memory"
	DSN    string `mapstructure:"dsn"`

	// Pooling
	MaxOpenConns   int `mapstructure:"max_open_conns"`
	MaxIdleConns   int `mapstructure:"max_idle_conns"`
	ConnMaxIdleSec int `mapstructure:"conn_max_idle_sec"`
	ConnMaxLifeSec int `mapstructure:"conn_max_life_sec"`

	// PRAGMA settings
	JournalMode   string `mapstructure:"journal_mode"` // WAL, DELETE, TRUNCATE, PERSIST, MEMORY, OFF
	SyncMode      string `mapstructure:"sync_mode"`    // NORMAL, FULL, OFF
	BusyTimeoutMS int    `mapstructure:"busy_timeout_ms"`
}

// CacheConfig stores transformation cache settings.
type CacheConfig struct {
	TransformConcurrency int `mapstructure:"transform_concurrency"` // max goroutines per Build
}

// LogConfig stores logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // zerolog level name
	Format string `mapstructure:"format"` // "json", "console"
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	if err := read(v, configPath); err != nil {
		return nil, err
	}
	return decode(v)
}

// WatchConfig reloads the config file whenever it changes and passes the
// result to fn. It does nothing when no config file is found.
func WatchConfig(configPath string, fn func(*Config)) (bool, error) {
	v := viper.New()
	if err := read(v, configPath); err != nil {
		return false, err
	}
	if v.ConfigFileUsed() == "" {
		return false, nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			return
		}
		fn(cfg)
	})
	v.WatchConfig()
	return true, nil
}

func read(v *viper.Viper, configPath string) error {
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("..")
		v.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix(internal.DefaultAppName)
	v.AutomaticEnv()
	// Replace dots with underscores in env var names e.g. database.dsn becomes PCACHE_DATABASE_DSN
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; defaults and environment apply.
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.addr", internal.DefaultServerAddr)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.request_timeout", "5s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_body_bytes", 1<<20) // 1MB

	// Database defaults
	v.SetDefault("database.driver", internal.DefaultDatabaseDriver)
	v.SetDefault("database.dsn", internal.DefaultDatabaseDSN)
	v.SetDefault("database.max_open_conns", 0) // 0 picks the manager default
	v.SetDefault("database.max_idle_conns", 0)
	v.SetDefault("database.conn_max_idle_sec", 0)
	v.SetDefault("database.conn_max_life_sec", 0)
	v.SetDefault("database.journal_mode", "WAL")
	v.SetDefault("database.sync_mode", "NORMAL")
	v.SetDefault("database.busy_timeout_ms", 5000)

	// Cache defaults
	v.SetDefault("cache.transform_concurrency", 4)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the rest of the program cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "libsql", "sqlite", "memory":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.Driver != "memory" && strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database dsn is required for driver %s", c.Database.Driver)
	}
	if c.Cache.TransformConcurrency < 1 {
		return fmt.Errorf("cache.transform_concurrency must be at least 1: %d", c.Cache.TransformConcurrency)
	}
	return nil
}
