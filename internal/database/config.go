package database

import (
	"fmt"
	"strings"
	"time"
)

// Config holds database connection configuration.
type Config struct {
	// Driver specifies which database to use: "sqlite" or "postgres"
	Driver string `yaml:"driver"`

	// SQLite configuration
	SQLitePath string `yaml:"sqlite_path"`

	// PostgreSQL configuration
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific configuration.
type PostgresConfig struct {
	// URL, when set, is passed to the driver as-is and the fields below are ignored.
	URL string `yaml:"url" env:"URL"`

	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	Database string `yaml:"database" env:"DB"`
	SSLMode  string `yaml:"sslmode" env:"SSLMODE"`

	// Connection pool settings
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DefaultConfig returns a Config with sensible defaults for SQLite.
func DefaultConfig(sqlitePath string) Config {
	return Config{
		Driver:     "sqlite",
		SQLitePath: sqlitePath,
		Postgres:   DefaultPostgresConfig(),
	}
}

// DefaultPostgresConfig returns PostgresConfig with recommended pool settings.
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Host:            "localhost",
		Port:            5432,
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// DSN builds a lib/pq key=value connection string.
func (c PostgresConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}

	parts := []string{}
	add := func(key, value string) {
		if value == "" {
			return
		}
		parts = append(parts, key+"="+quoteDSNValue(value))
	}
	add("host", c.Host)
	if c.Port > 0 {
		add("port", fmt.Sprintf("%d", c.Port))
	}
	add("user", c.User)
	add("password", c.Password)
	add("dbname", c.Database)
	add("sslmode", c.SSLMode)
	return strings.Join(parts, " ")
}

func quoteDSNValue(value string) string {
	if !strings.ContainsAny(value, ` '\`) {
		return value
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(value)
	return "'" + escaped + "'"
}
