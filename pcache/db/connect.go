package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	_ "github.com/tursodatabase/go-libsql"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverLibSQL = "libsql"
	DriverSQLite = "sqlite"
)

// EmbeddedConfig holds configuration for embedded (file backed) connections.
type EmbeddedConfig struct {
	Driver        string // DriverLibSQL or DriverSQLite
	DSN           string // file:<path>[?query]
	BusyTimeoutMS int
}

// ConnectToDB opens an embedded database with the libsql driver.
func ConnectToDB(path string) (*sql.DB, error) {
	cfg := &EmbeddedConfig{Driver: DriverLibSQL, DSN: "file:" + path}
	return ConnectToDBWithConfig(context.Background(), cfg, zerolog.Nop())
}

// ConnectToDBWithConfig opens the database described by config, creating the
// backing file and its directory when missing, and verifies connectivity.
func ConnectToDBWithConfig(ctx context.Context, config *EmbeddedConfig, logger zerolog.Logger) (*sql.DB, error) {
	switch config.Driver {
	case DriverLibSQL, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported driver %q", config.Driver)
	}

	path := FilePath(config.DSN)
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if !isMemoryPath(path) {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("could not create database directory %s: %w", dir, err)
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			logger.Info().Str("path", path).Msg("Database not found, creating a new one")
			file, err := os.Create(path)
			if err != nil {
				return nil, fmt.Errorf("could not create db at path %s: %w", path, err)
			}
			file.Close()
		}
	}

	dsn := config.DSN
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	if config.Driver == DriverSQLite && config.BusyTimeoutMS > 0 {
		// modernc applies _pragma parameters on every pooled connection
		dsn = appendQuery(dsn, fmt.Sprintf("_pragma=busy_timeout(%d)", config.BusyTimeoutMS))
	}

	logger.Info().Str("driver", config.Driver).Str("dsn", dsn).Msg("Connecting to embedded database")

	db, err := sql.Open(config.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", config.Driver, err)
	}

	if isMemoryPath(path) {
		// Every new connection to :memory: opens a fresh, unmigrated database
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxIdleTime(0)
		db.SetConnMaxLifetime(0)
	}

	if err := verifyConnection(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// FilePath extracts the filesystem path from a file: DSN.
func FilePath(dsn string) string {
	path := strings.TrimPrefix(strings.TrimSpace(dsn), "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}

// IsMemoryDSN reports whether dsn names a private in-memory database.
func IsMemoryDSN(dsn string) bool {
	return isMemoryPath(FilePath(dsn))
}

func isMemoryPath(path string) bool {
	return path == ":memory:" || strings.HasPrefix(path, ":memory:")
}

func appendQuery(dsn, param string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + param
	}
	return dsn + "?" + param
}

// verifyConnection checks basic connectivity and that the linked SQLite
// understands the upsert syntax the stores rely on.
func verifyConnection(ctx context.Context, db *sql.DB) error {
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("basic connectivity test failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("basic connectivity test failed: unexpected result %d", result)
	}

	// ON CONFLICT upserts need SQLite >= 3.24
	var version string
	if err := db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&version); err != nil {
		return fmt.Errorf("sqlite version probe failed: %w", err)
	}
	if !supportsUpsert(version) {
		return fmt.Errorf("sqlite %s does not support ON CONFLICT clauses", version)
	}

	return nil
}

func supportsUpsert(version string) bool {
	var major, minor int
	if _, err := fmt.Sscanf(version, "%d.%d", &major, &minor); err != nil {
		return false
	}
	return major > 3 || (major == 3 && minor >= 24)
}
