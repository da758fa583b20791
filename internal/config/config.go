// Package config loads the quest service configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/jglee22/OpenHorizons-sub001/internal/antispam"
	"github.com/jglee22/OpenHorizons-sub001/internal/database"
	"github.com/jglee22/OpenHorizons-sub001/internal/namefilter"
)

// EnvPrefix prefixes every environment override, e.g. QUESTD_STORAGE_DRIVER.
const EnvPrefix = "QUESTD_"

// Storage drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverBolt     = "bolt"
	DriverMemory   = "memory"
)

// ServiceConfig holds service-wide configuration settings.
type ServiceConfig struct {
	Listen      ListenConfig      `yaml:"listen" envPrefix:"LISTEN_"`
	WebSocket   WebSocketConfig   `yaml:"websocket" envPrefix:"WS_"`
	Connections ConnectionsConfig `yaml:"connections" envPrefix:"CONN_"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit" envPrefix:"RATE_"`
	Auth        AuthConfig        `yaml:"auth" envPrefix:"AUTH_"`
	Content     ContentConfig     `yaml:"content" envPrefix:"CONTENT_"`
	Storage     StorageConfig     `yaml:"storage" envPrefix:"STORAGE_"`
	Session     SessionConfig     `yaml:"session" envPrefix:"SESSION_"`
	Survival    SurvivalConfig    `yaml:"survival" envPrefix:"SURVIVAL_"`
	Players     namefilter.Config `yaml:"players" envPrefix:"PLAYERS_"`
	Throttle    antispam.Config   `yaml:"throttle" envPrefix:"THROTTLE_"`

	// LogConfig is the path of the logging YAML file.
	LogConfig string `yaml:"log_config" env:"LOG_CONFIG"`
}

// ListenConfig holds the listener addresses. An empty address disables that listener.
type ListenConfig struct {
	Telnet    string `yaml:"telnet" env:"TELNET"`
	WebSocket string `yaml:"websocket" env:"WEBSOCKET"`
}

// RateLimitConfig holds rate limiting settings for failed key attempts.
type RateLimitConfig struct {
	// MaxAttempts is the maximum failed attempts before lockout.
	MaxAttempts int `yaml:"max_attempts" env:"MAX_ATTEMPTS"`

	// LockoutSeconds is the initial lockout duration in seconds.
	LockoutSeconds int `yaml:"lockout_seconds" env:"LOCKOUT_SECONDS"`

	// MaxLockoutSeconds is the maximum lockout duration (for exponential backoff).
	MaxLockoutSeconds int `yaml:"max_lockout_seconds" env:"MAX_LOCKOUT_SECONDS"`
}

// ConnectionsConfig holds connection limit settings.
type ConnectionsConfig struct {
	// MaxPerIP is the maximum concurrent connections allowed from a single IP address.
	// 0 means unlimited (not recommended).
	MaxPerIP int `yaml:"max_per_ip" env:"MAX_PER_IP"`

	// MaxTotal is the maximum total concurrent connections to the server.
	// 0 means unlimited.
	MaxTotal int `yaml:"max_total" env:"MAX_TOTAL"`
}

// AuthConfig holds the gateway key settings.
type AuthConfig struct {
	// KeyHash is the bcrypt hash of the gateway key clients pass to hello.
	// Empty disables key checks.
	KeyHash string `yaml:"key_hash" env:"KEY_HASH"`

	// MinKeyLength is the minimum key length accepted by -hash-key (default: 12)
	MinKeyLength int `yaml:"min_key_length" env:"MIN_KEY_LENGTH"`

	// RequireDigit requires at least one digit in a new key
	RequireDigit bool `yaml:"require_digit" env:"REQUIRE_DIGIT"`

	// RequireSpecial requires at least one special character in a new key
	RequireSpecial bool `yaml:"require_special" env:"REQUIRE_SPECIAL"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// Path is the HTTP path the upgrade handler is mounted on.
	Path string `yaml:"path" env:"PATH"`

	// AllowedOrigins is a list of origins allowed to connect via WebSocket.
	// Empty list enforces same-origin policy.
	// Use "*" to allow all origins (not recommended for production).
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`

	// MaxMessageSize is the maximum WebSocket message size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size" env:"MAX_MESSAGE_SIZE"`
}

// ContentConfig points at the quest content.
type ContentConfig struct {
	// Path is a YAML file or a directory of YAML files.
	Path string `yaml:"path" env:"PATH"`
}

// StorageConfig selects where quest saves and the reward ledger live.
type StorageConfig struct {
	// Driver is one of sqlite, postgres, bolt or memory.
	Driver     string                  `yaml:"driver" env:"DRIVER"`
	SQLitePath string                  `yaml:"sqlite_path" env:"SQLITE_PATH"`
	BoltPath   string                  `yaml:"bolt_path" env:"BOLT_PATH"`
	Postgres   database.PostgresConfig `yaml:"postgres" envPrefix:"POSTGRES_"`
}

// SessionConfig holds per-player session settings.
type SessionConfig struct {
	// AutoSaveInterval saves every attached player this often. 0 disables auto-save.
	AutoSaveInterval time.Duration `yaml:"auto_save_interval" env:"AUTO_SAVE_INTERVAL"`

	// SaveRoot is the save key prefix; a player's key is <root>/<player>.
	SaveRoot string `yaml:"save_root" env:"SAVE_ROOT"`
}

// SurvivalConfig drives the elapsed time reports.
type SurvivalConfig struct {
	// TickSeconds reports this many seconds of survival to every attached player
	// every TickSeconds. 0 disables the ticker.
	TickSeconds int `yaml:"tick_seconds" env:"TICK_SECONDS"`
}

// DefaultConfig returns a ServiceConfig with secure defaults.
func DefaultConfig() *ServiceConfig {
	return &ServiceConfig{
		Listen: ListenConfig{
			Telnet:    ":4000",
			WebSocket: ":8080",
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			AllowedOrigins: []string{}, // Same-origin only by default
			MaxMessageSize: 4096,
		},
		Connections: ConnectionsConfig{
			MaxPerIP: 3,
			MaxTotal: 100,
		},
		RateLimit: RateLimitConfig{
			MaxAttempts:       5,
			LockoutSeconds:    30,
			MaxLockoutSeconds: 300,
		},
		Auth: AuthConfig{
			MinKeyLength: 12,
			RequireDigit: true,
		},
		Content: ContentConfig{
			Path: "data/quests",
		},
		Storage: StorageConfig{
			Driver:     DriverSQLite,
			SQLitePath: "data/questd.db",
			BoltPath:   "data/questd.bolt",
			Postgres:   database.DefaultPostgresConfig(),
		},
		Session: SessionConfig{
			AutoSaveInterval: 5 * time.Minute,
			SaveRoot:         "quest_system",
		},
		Survival: SurvivalConfig{
			TickSeconds: 60,
		},
		Players: namefilter.Config{
			Enabled:          true,
			BannedNames:      []string{"admin", "root", "server", "system"},
			ReservedPrefixes: []string{"npc_"},
		},
		Throttle:  antispam.DefaultConfig(),
		LogConfig: "data/logging.yaml",
	}
}

// LoadConfig loads service configuration from a YAML file and then applies
// QUESTD_* environment overrides. A missing file yields the defaults.
func LoadConfig(path string) (*ServiceConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return DefaultConfig(), err
		}
	case !os.IsNotExist(err):
		return config, err
	}

	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		return config, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// Validate reports settings that cannot work together.
func (c *ServiceConfig) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite driver")
		}
	case DriverBolt:
		if c.Storage.BoltPath == "" {
			return fmt.Errorf("storage.bolt_path is required for the bolt driver")
		}
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Listen.Telnet == "" && c.Listen.WebSocket == "" {
		return fmt.Errorf("at least one listener must be configured")
	}
	if c.Session.AutoSaveInterval < 0 {
		return fmt.Errorf("session.auto_save_interval must not be negative")
	}
	if c.Survival.TickSeconds < 0 {
		return fmt.Errorf("survival.tick_seconds must not be negative")
	}
	return nil
}

// DatabaseConfig returns the SQL database settings for the sqlite and postgres drivers.
func (s StorageConfig) DatabaseConfig() database.Config {
	return database.Config{
		Driver:     s.Driver,
		SQLitePath: s.SQLitePath,
		Postgres:   s.Postgres,
	}
}

// IsOriginAllowed checks if the given origin is allowed based on the config.
// Returns true if:
// - AllowedOrigins contains "*" (allow all)
// - AllowedOrigins contains the exact origin
// - AllowedOrigins is empty and origin matches the request host (same-origin)
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	return false
}

// isSameOrigin checks if the origin matches the request host (same-origin policy).
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // No origin header means same-origin (e.g., non-browser client)
	}

	// Extract host from origin URL (e.g., "http://localhost:3000" -> "localhost:3000")
	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}

// ValidateKey checks if a new gateway key meets the configured requirements.
// Returns an error message describing what's wrong, or empty string if valid.
func (c *AuthConfig) ValidateKey(key string) string {
	minLen := c.MinKeyLength
	if minLen == 0 {
		minLen = 12
	}
	if len(key) < minLen {
		return "Key must be at least " + strconv.Itoa(minLen) + " characters."
	}

	var hasDigit, hasSpecial bool
	for _, r := range key {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		case unicode.IsSpace(r):
			return "Key must not contain whitespace."
		}
	}

	if c.RequireDigit && !hasDigit {
		return "Key must contain at least one digit."
	}
	if c.RequireSpecial && !hasSpecial {
		return "Key must contain at least one special character."
	}

	return ""
}

// RequirementsText returns a human-readable description of key requirements.
func (c *AuthConfig) RequirementsText() string {
	minLen := c.MinKeyLength
	if minLen == 0 {
		minLen = 12
	}

	parts := []string{"min " + strconv.Itoa(minLen) + " chars", "no spaces"}
	if c.RequireDigit {
		parts = append(parts, "digit")
	}
	if c.RequireSpecial {
		parts = append(parts, "special char")
	}

	return strings.Join(parts, ", ")
}
