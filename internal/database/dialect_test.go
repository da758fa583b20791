package database

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestDialectFor(t *testing.T) {
	tests := []struct {
		driver  string
		want    DialectType
		wantErr bool
	}{
		{"", DialectSQLite, false},
		{"sqlite", DialectSQLite, false},
		{"postgres", DialectPostgres, false},
		{"oracle", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			d, err := dialectFor(tt.driver)
			if tt.wantErr {
				if err == nil {
					t.Errorf("dialectFor(%q) should fail", tt.driver)
				}
				return
			}
			if err != nil {
				t.Fatalf("dialectFor(%q) returned error: %v", tt.driver, err)
			}
			if d.Type() != tt.want {
				t.Errorf("Type() = %q, want %q", d.Type(), tt.want)
			}
		})
	}
}

func TestDialect_Details(t *testing.T) {
	tests := []struct {
		d           Dialect
		driver      string
		placeholder string
		blob        string
		serial      string
	}{
		{sqliteDialect{}, "sqlite", "?", "BLOB", "INTEGER PRIMARY KEY AUTOINCREMENT"},
		{postgresDialect{}, "postgres", "$3", "BYTEA", "BIGSERIAL PRIMARY KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			if got := tt.d.DriverName(); got != tt.driver {
				t.Errorf("DriverName() = %q, want %q", got, tt.driver)
			}
			if got := tt.d.Placeholder(3); got != tt.placeholder {
				t.Errorf("Placeholder(3) = %q, want %q", got, tt.placeholder)
			}
			if got := tt.d.BlobType(); got != tt.blob {
				t.Errorf("BlobType() = %q, want %q", got, tt.blob)
			}
			if got := tt.d.SerialPrimaryKey(); got != tt.serial {
				t.Errorf("SerialPrimaryKey() = %q, want %q", got, tt.serial)
			}
		})
	}
}

func TestRebind(t *testing.T) {
	tests := []struct {
		name  string
		d     Dialect
		query string
		want  string
	}{
		{
			name:  "sqlite unchanged",
			d:     sqliteDialect{},
			query: "SELECT blob FROM quest_saves WHERE save_key = ?",
			want:  "SELECT blob FROM quest_saves WHERE save_key = ?",
		},
		{
			name:  "postgres numbered",
			d:     postgresDialect{},
			query: "SELECT 1 FROM reward_grants WHERE player_id = ? AND kind = ? AND reward_id = ?",
			want:  "SELECT 1 FROM reward_grants WHERE player_id = $1 AND kind = $2 AND reward_id = $3",
		},
		{
			name:  "quoted question mark",
			d:     postgresDialect{},
			query: "SELECT '?' FROM quest_saves WHERE save_key = ?",
			want:  "SELECT '?' FROM quest_saves WHERE save_key = $1",
		},
		{
			name:  "escape literal",
			d:     postgresDialect{},
			query: `WHERE save_key LIKE ? ESCAPE '\' ORDER BY ?`,
			want:  `WHERE save_key LIKE $1 ESCAPE '\' ORDER BY $2`,
		},
		{
			name:  "no placeholders",
			d:     postgresDialect{},
			query: "SELECT COUNT(*) FROM quest_saves",
			want:  "SELECT COUNT(*) FROM quest_saves",
		},
		{
			name:  "empty",
			d:     postgresDialect{},
			query: "",
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rebind(tt.d, tt.query); got != tt.want {
				t.Errorf("rebind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewQueries_Postgres(t *testing.T) {
	q := newQueries(postgresDialect{})
	for name, stmt := range map[string]string{
		"loadSave":     q.loadSave,
		"upsertSave":   q.upsertSave,
		"deleteSave":   q.deleteSave,
		"listSaves":    q.listSaves,
		"insertGrant":  q.insertGrant,
		"sumGrants":    q.sumGrants,
		"playerGrants": q.playerGrants,
	} {
		if strings.Contains(stmt, "?") {
			t.Errorf("%s still has ? placeholders: %s", name, stmt)
		}
		if !strings.Contains(stmt, "$1") {
			t.Errorf("%s has no $1 placeholder: %s", name, stmt)
		}
	}
	if !strings.Contains(q.insertGrant, "$6") {
		t.Errorf("insertGrant = %s, want six parameters", q.insertGrant)
	}
}

func TestSQLiteDialect_InsertID(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first, err := sqliteDialect{}.InsertID(ctx, db.db, db.q.insertGrant, "id", "alice", "q", "gold", "", 5, time.Now().Unix())
	if err != nil {
		t.Fatalf("InsertID returned error: %v", err)
	}
	second, err := sqliteDialect{}.InsertID(ctx, db.db, db.q.insertGrant, "id", "alice", "q", "gold", "", 5, time.Now().Unix())
	if err != nil {
		t.Fatalf("InsertID returned error: %v", err)
	}
	if second != first+1 {
		t.Errorf("ids = %d, %d, want consecutive", first, second)
	}
}

func TestDialect_InterfaceCompliance(t *testing.T) {
	var _ Dialect = sqliteDialect{}
	var _ Dialect = postgresDialect{}
}

// =============================================================================
// Config Tests
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	path := "/path/to/test.db"
	cfg := DefaultConfig(path)

	if cfg.Driver != "sqlite" {
		t.Errorf("Driver = %q, want %q", cfg.Driver, "sqlite")
	}
	if cfg.SQLitePath != path {
		t.Errorf("SQLitePath = %q, want %q", cfg.SQLitePath, path)
	}
}

func TestDefaultPostgresConfig(t *testing.T) {
	cfg := DefaultPostgresConfig()

	if cfg.Host != "localhost" {
		t.Errorf("Host = %q, want %q", cfg.Host, "localhost")
	}
	if cfg.Port != 5432 {
		t.Errorf("Port = %d, want %d", cfg.Port, 5432)
	}
	if cfg.SSLMode != "disable" {
		t.Errorf("SSLMode = %q, want %q", cfg.SSLMode, "disable")
	}
	if cfg.MaxOpenConns != 25 {
		t.Errorf("MaxOpenConns = %d, want %d", cfg.MaxOpenConns, 25)
	}
	if cfg.MaxIdleConns != 5 {
		t.Errorf("MaxIdleConns = %d, want %d", cfg.MaxIdleConns, 5)
	}
	if cfg.ConnMaxLifetime != 5*time.Minute {
		t.Errorf("ConnMaxLifetime = %v, want %v", cfg.ConnMaxLifetime, 5*time.Minute)
	}
}

func TestPostgresConfig_DSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  PostgresConfig
		want string
	}{
		{
			name: "fields",
			cfg: PostgresConfig{
				Host:     "db.example.com",
				Port:     5433,
				User:     "questd",
				Password: "secret",
				Database: "quests",
				SSLMode:  "require",
			},
			want: "host=db.example.com port=5433 user=questd password=secret dbname=quests sslmode=require",
		},
		{
			name: "quoted password",
			cfg:  PostgresConfig{Host: "localhost", Password: "it's a pass"},
			want: `host=localhost password='it\'s a pass'`,
		},
		{
			name: "url wins",
			cfg:  PostgresConfig{URL: "postgres://u:p@h/db", Host: "ignored"},
			want: "postgres://u:p@h/db",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.DSN(); got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}
