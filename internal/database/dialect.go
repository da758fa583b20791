package database

import (
	"context"
	"database/sql"
	"fmt"
)

// DialectType names a supported SQL backend.
type DialectType string

const (
	DialectSQLite   DialectType = "sqlite"
	DialectPostgres DialectType = "postgres"
)

// Dialect covers the SQL differences the save store and reward ledger run into.
type Dialect interface {
	Type() DialectType

	// DriverName is the database/sql driver registered for this dialect.
	DriverName() string

	// Placeholder returns the bind parameter for a 1-indexed position.
	Placeholder(position int) string

	// Setup tunes the pool of a freshly opened handle and runs any
	// per-connection statements.
	Setup(db *sql.DB, cfg Config) error

	// BlobType is the column type for opaque save blobs.
	BlobType() string

	// SerialPrimaryKey is the column definition for an auto-incrementing id.
	SerialPrimaryKey() string

	// InsertID runs an INSERT and returns the id of the new row.
	InsertID(ctx context.Context, db *sql.DB, query, idColumn string, args ...any) (int64, error)
}

// dialectFor resolves a configured driver name. Empty means SQLite.
func dialectFor(driver string) (Dialect, error) {
	switch DialectType(driver) {
	case DialectSQLite, "":
		return sqliteDialect{}, nil
	case DialectPostgres:
		return postgresDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
