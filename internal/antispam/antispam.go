// Package antispam throttles commands on a single connection.
package antispam

import (
	"sync"
	"time"
)

// Config holds command throttling settings
type Config struct {
	Enabled     bool          `yaml:"enabled" env:"ENABLED"`
	MaxCommands int           `yaml:"max_commands" env:"MAX_COMMANDS"` // Commands allowed per window
	Window      time.Duration `yaml:"window" env:"WINDOW"`

	// MaxStrikes is how many rejected commands in a row end the connection. 0 never disconnects.
	MaxStrikes int `yaml:"max_strikes" env:"MAX_STRIKES"`
}

// DefaultConfig returns sensible defaults for a report gateway
func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		MaxCommands: 20,
		Window:      time.Second,
		MaxStrikes:  50,
	}
}

// Tracker tracks command activity for one connection
type Tracker struct {
	mu      sync.Mutex
	config  Config
	times   []time.Time // Accepted commands inside the window
	strikes int         // Rejections since the last accepted command
	now     func() time.Time
}

// NewTracker creates a tracker with the given config
func NewTracker(config Config) *Tracker {
	if config.MaxCommands <= 0 {
		config.MaxCommands = DefaultConfig().MaxCommands
	}
	if config.Window <= 0 {
		config.Window = DefaultConfig().Window
	}
	return &Tracker{
		config: config,
		times:  make([]time.Time, 0, config.MaxCommands),
		now:    time.Now,
	}
}

// CheckResult contains the result of a throttle check
type CheckResult struct {
	Allowed    bool
	Reason     string
	Wait       time.Duration // How long until a command is accepted again
	Disconnect bool          // The connection exceeded MaxStrikes
}

// Check records a command and reports whether it may run
func (t *Tracker) Check() CheckResult {
	if !t.config.Enabled {
		return CheckResult{Allowed: true}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.expire(now)

	if len(t.times) >= t.config.MaxCommands {
		t.strikes++
		return CheckResult{
			Allowed:    false,
			Reason:     "You're sending commands too quickly. Please slow down.",
			Wait:       t.times[0].Add(t.config.Window).Sub(now),
			Disconnect: t.config.MaxStrikes > 0 && t.strikes >= t.config.MaxStrikes,
		}
	}

	t.times = append(t.times, now)
	t.strikes = 0
	return CheckResult{Allowed: true}
}

// expire drops command times outside the window
func (t *Tracker) expire(now time.Time) {
	cutoff := now.Add(-t.config.Window)
	kept := t.times[:0]
	for _, at := range t.times {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	t.times = kept
}

// Reset clears all tracking data
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.times = t.times[:0]
	t.strikes = 0
}
