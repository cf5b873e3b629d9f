package database

import (
	"github.com/ZanzyTHEbar/payload-cache/pcache/config"
)

// Config holds the database configuration
type Config struct {
	Driver         string
	DSN            string
	MaxOpenConns   int
	MaxIdleConns   int
	ConnMaxIdleSec int
	ConnMaxLifeSec int
	// PRAGMA settings
	SyncMode      string // NORMAL, FULL, OFF
	JournalMode   string // WAL, DELETE, TRUNCATE, PERSIST, MEMORY, OFF
	BusyTimeoutMS int
}

// NewConfig creates a database Config from the application config.
func NewConfig(cfg config.DatabaseConfig) *Config {
	c := &Config{
		Driver:         cfg.Driver,
		DSN:            cfg.DSN,
		MaxOpenConns:   cfg.MaxOpenConns,
		MaxIdleConns:   cfg.MaxIdleConns,
		ConnMaxIdleSec: cfg.ConnMaxIdleSec,
		ConnMaxLifeSec: cfg.ConnMaxLifeSec,
		SyncMode:       cfg.SyncMode,
		JournalMode:    cfg.JournalMode,
		BusyTimeoutMS:  cfg.BusyTimeoutMS,
	}
	if c.SyncMode == "" {
		c.SyncMode = "NORMAL"
	}
	if c.JournalMode == "" {
		c.JournalMode = "WAL"
	}
	if c.BusyTimeoutMS <= 0 {
		c.BusyTimeoutMS = 5000
	}
	return c
}
