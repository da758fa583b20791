// Package database persists quest saves and the reward ledger in SQLite or PostgreSQL.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Database wraps the SQL connection and provides persistence operations.
type Database struct {
	db      *sql.DB
	dialect Dialect
	q       queries
}

// Open opens or creates the SQLite database at the given path.
func Open(path string) (*Database, error) {
	return OpenWithConfig(DefaultConfig(path))
}

// OpenWithConfig opens the database selected by cfg.Driver and runs migrations.
func OpenWithConfig(cfg Config) (*Database, error) {
	dialect, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dsn := cfg.Postgres.DSN()
	if dialect.Type() == DialectSQLite {
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite path is required")
		}
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = cfg.SQLitePath
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := dialect.Setup(db, cfg); err != nil {
		db.Close()
		return nil, err
	}

	d := &Database{db: db, dialect: dialect, q: newQueries(dialect)}

	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return d, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// migrate creates the database schema if it doesn't exist.
func (d *Database) migrate() error {
	migrations := []string{
		// One blob per save key, replaced wholesale on every save
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS quest_saves (
			save_key TEXT PRIMARY KEY,
			blob %s NOT NULL,
			updated_at BIGINT NOT NULL
		)`, d.dialect.BlobType()),

		// Reward ledger
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS reward_grants (
			id %s,
			player_id TEXT NOT NULL,
			quest_code TEXT NOT NULL,
			kind TEXT NOT NULL,
			reward_id TEXT NOT NULL DEFAULT '',
			amount INTEGER NOT NULL DEFAULT 0,
			granted_at BIGINT NOT NULL
		)`, d.dialect.SerialPrimaryKey()),

		`CREATE INDEX IF NOT EXISTS idx_reward_grants_player ON reward_grants(player_id, kind, reward_id)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// DB returns the underlying sql.DB for advanced operations.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Dialect returns the SQL dialect in use.
func (d *Database) Dialect() Dialect {
	return d.dialect
}
