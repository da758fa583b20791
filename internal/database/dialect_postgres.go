package database

import (
	"context"
	"database/sql"
	"fmt"
)

// postgresDialect targets the lib/pq driver.
type postgresDialect struct{}

func (postgresDialect) Type() DialectType  { return DialectPostgres }
func (postgresDialect) DriverName() string { return "postgres" }

func (postgresDialect) Placeholder(position int) string {
	return fmt.Sprintf("$%d", position)
}

// Setup applies the configured pool limits and checks the server is reachable.
func (postgresDialect) Setup(db *sql.DB, cfg Config) error {
	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return nil
}

func (postgresDialect) BlobType() string         { return "BYTEA" }
func (postgresDialect) SerialPrimaryKey() string { return "BIGSERIAL PRIMARY KEY" }

// InsertID appends a RETURNING clause; lib/pq has no LastInsertId.
func (postgresDialect) InsertID(ctx context.Context, db *sql.DB, query, idColumn string, args ...any) (int64, error) {
	var id int64
	err := db.QueryRowContext(ctx, query+" RETURNING "+idColumn, args...).Scan(&id)
	return id, err
}
