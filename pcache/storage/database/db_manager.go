// Package database owns the embedded SQL store: connection lifecycle, goose
// migrations, PRAGMA tuning and the cache queries.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/payload-cache/pcache/db"
	"github.com/ZanzyTHEbar/payload-cache/pcache/storage/migrations"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

// DBManager handles all database operations for one embedded store.
type DBManager struct {
	config  *Config
	db      *sql.DB
	queries *Queries
	logger  zerolog.Logger
}

// NewDBManager opens the store, applies migrations and PRAGMAs and tunes the
// connection pool. Close must be called to release the handle.
func NewDBManager(ctx context.Context, config *Config, logger zerolog.Logger) (*DBManager, error) {
	if config == nil {
		return nil, fmt.Errorf("database config is required")
	}

	conn, err := db.ConnectToDBWithConfig(ctx, &db.EmbeddedConfig{
		Driver:        config.Driver,
		DSN:           config.DSN,
		BusyTimeoutMS: config.BusyTimeoutMS,
	}, logger)
	if err != nil {
		return nil, err
	}

	dm := &DBManager{
		config: config,
		db:     conn,
		logger: logger.With().Str("component", "database").Logger(),
	}

	if err := dm.initialize(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	dm.configureConnectionPooling()
	dm.queries = New(conn)

	return dm, nil
}

// Close closes the database connection.
func (dm *DBManager) Close() error {
	if dm == nil || dm.db == nil {
		return nil
	}
	return dm.db.Close()
}

// DB exposes the underlying handle.
func (dm *DBManager) DB() *sql.DB {
	return dm.db
}

// Queries returns the querier bound to the pool.
func (dm *DBManager) Queries() *Queries {
	return dm.queries
}

// Ping verifies the store is reachable.
func (dm *DBManager) Ping(ctx context.Context) error {
	return dm.db.PingContext(ctx)
}

// initialize runs goose migrations and applies PRAGMA settings
func (dm *DBManager) initialize(ctx context.Context) error {
	if err := dm.configurePragmaSettings(ctx); err != nil {
		return fmt.Errorf("failed to configure PRAGMA settings: %w", err)
	}

	if err := dm.runGooseMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run goose migrations: %w", err)
	}

	return nil
}

// runGooseMigrations applies the embedded migrations with the dialect that
// matches the driver.
func (dm *DBManager) runGooseMigrations(ctx context.Context) error {
	dialect := goose.DialectSQLite3
	if dm.config.Driver == db.DriverLibSQL {
		dialect = goose.DialectTurso
	}

	provider, err := goose.NewProvider(dialect, dm.db, migrations.FS)
	if err != nil {
		return fmt.Errorf("failed to create goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, r := range results {
		dm.logger.Info().
			Str("migration", r.Source.Path).
			Dur("duration", r.Duration).
			Msg("Applied migration")
	}
	return nil
}

// configurePragmaSettings applies PRAGMA settings to the database
func (dm *DBManager) configurePragmaSettings(ctx context.Context) error {
	if db.IsMemoryDSN(dm.config.DSN) {
		// WAL is meaningless for in-memory databases
		return nil
	}

	pragmaSettings := []struct {
		name  string
		value string
	}{
		{"journal_mode", dm.config.JournalMode},
		{"synchronous", dm.config.SyncMode},
		{"busy_timeout", fmt.Sprintf("%d", dm.config.BusyTimeoutMS)},
		{"temp_store", "MEMORY"},
	}

	for _, setting := range pragmaSettings {
		if setting.value == "" {
			continue
		}
		// Some PRAGMA statements return values, so we need to handle them differently
		query := fmt.Sprintf("PRAGMA %s = %s", setting.name, setting.value)
		if _, err := dm.db.ExecContext(ctx, query); err != nil {
			if !strings.Contains(err.Error(), "returned rows") {
				return fmt.Errorf("failed to set %s: %w", setting.name, err)
			}
			rows, err := dm.db.QueryContext(ctx, query)
			if err != nil {
				return fmt.Errorf("failed to set %s: %w", setting.name, err)
			}
			rows.Close()
		}
	}

	return nil
}

// configureConnectionPooling sets up connection pooling parameters
func (dm *DBManager) configureConnectionPooling() {
	if db.IsMemoryDSN(dm.config.DSN) {
		// Pinned to a single connection at open time
		dm.logger.Debug().Msg("In-memory database, keeping single connection pool")
		return
	}

	maxOpen := dm.config.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	dm.db.SetMaxOpenConns(maxOpen)

	maxIdle := dm.config.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 25
	}
	dm.db.SetMaxIdleConns(maxIdle)

	idleTime := time.Duration(dm.config.ConnMaxIdleSec) * time.Second
	if idleTime <= 0 {
		idleTime = 5 * time.Minute
	}
	dm.db.SetConnMaxIdleTime(idleTime)

	lifeTime := time.Duration(dm.config.ConnMaxLifeSec) * time.Second
	if lifeTime <= 0 {
		lifeTime = time.Hour
	}
	dm.db.SetConnMaxLifetime(lifeTime)

	dm.logger.Debug().
		Int("max_open", maxOpen).
		Int("max_idle", maxIdle).
		Dur("max_idle_time", idleTime).
		Dur("max_lifetime", lifeTime).
		Msg("Connection pool configured")
}

// WithTx executes fn within a database transaction, committing on success and
// rolling back on any error.
func (dm *DBManager) WithTx(ctx context.Context, fn func(*Queries) error) error {
	tx, err := dm.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(dm.queries.WithTx(tx)); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("transaction failed and rollback failed: %v (original error: %w)", rollbackErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
