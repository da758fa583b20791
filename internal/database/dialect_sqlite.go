package database

import (
	"context"
	"database/sql"
	"fmt"
)

// sqliteDialect targets the modernc.org/sqlite driver.
type sqliteDialect struct{}

func (sqliteDialect) Type() DialectType  { return DialectSQLite }
func (sqliteDialect) DriverName() string { return "sqlite" }

func (sqliteDialect) Placeholder(int) string { return "?" }

// Setup pins the pool to one connection so the PRAGMAs hold for every query.
func (sqliteDialect) Setup(db *sql.DB, _ Config) error {
	db.SetMaxOpenConns(1)
	for _, stmt := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run %q: %w", stmt, err)
		}
	}
	return nil
}

func (sqliteDialect) BlobType() string         { return "BLOB" }
func (sqliteDialect) SerialPrimaryKey() string { return "INTEGER PRIMARY KEY AUTOINCREMENT" }

func (sqliteDialect) InsertID(ctx context.Context, db *sql.DB, query, _ string, args ...any) (int64, error) {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
