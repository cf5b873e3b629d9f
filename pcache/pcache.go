// Package pcache holds the process-wide defaults shared by the payload cache
// packages.
package pcache

import (
	"os"
	"path/filepath"
)

const (
	DefaultAppName        = "pcache"
	DefaultDatabaseDriver = "libsql"
	DefaultDatabaseDSN    = "file:./cache.db"
	DefaultServerAddr     = ":8000"
)

// DefaultConfigPath is the per-user configuration directory.
var DefaultConfigPath = filepath.Join(userHome(), ".config", DefaultAppName)

// Build metadata, overridden with -ldflags at release time.
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// FullVersion returns "Version+Commit".
func FullVersion() string {
	return Version + "+" + Commit
}

func userHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
