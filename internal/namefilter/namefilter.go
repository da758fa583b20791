// Package namefilter rejects player ids that impersonate staff or services.
package namefilter

import (
	"strings"
)

// Config holds the player id filter settings
type Config struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// BannedWords reject any id containing them once '-' and '_' are removed.
	BannedWords []string `yaml:"banned_words" env:"BANNED_WORDS"`

	// BannedNames reject exact ids.
	BannedNames []string `yaml:"banned_names" env:"BANNED_NAMES"`

	// ReservedPrefixes reject ids starting with them, e.g. "npc_".
	ReservedPrefixes []string `yaml:"reserved_prefixes" env:"RESERVED_PREFIXES"`
}

// Result contains the outcome of checking an id
type Result struct {
	Allowed bool   // Whether the id is allowed
	Reason  string // Reason for rejection (if not allowed)
}

// NameFilter checks player ids against banned words, names and prefixes
type NameFilter struct {
	enabled          bool
	bannedWords      []string // Lowercase, separators removed (partial match)
	bannedNames      []string // Lowercase banned names (exact match)
	reservedPrefixes []string // Lowercase
}

// New creates a NameFilter from a Config
func New(cfg Config) *NameFilter {
	nf := &NameFilter{enabled: cfg.Enabled}

	for _, word := range cfg.BannedWords {
		if w := squash(word); w != "" {
			nf.bannedWords = append(nf.bannedWords, w)
		}
	}
	for _, name := range cfg.BannedNames {
		if name != "" {
			nf.bannedNames = append(nf.bannedNames, strings.ToLower(name))
		}
	}
	for _, prefix := range cfg.ReservedPrefixes {
		if prefix != "" {
			nf.reservedPrefixes = append(nf.reservedPrefixes, strings.ToLower(prefix))
		}
	}

	return nf
}

// squash lowercases s and drops the separators allowed in player ids
func squash(s string) string {
	return strings.NewReplacer("-", "", "_", "").Replace(strings.ToLower(s))
}

// Check validates a player id against the filter rules
func (nf *NameFilter) Check(playerID string) Result {
	if nf == nil || !nf.enabled {
		return Result{Allowed: true}
	}

	lower := strings.ToLower(playerID)

	for _, banned := range nf.bannedNames {
		if lower == banned {
			return Result{Allowed: false, Reason: "That player name is reserved."}
		}
	}

	for _, prefix := range nf.reservedPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return Result{Allowed: false, Reason: "That player name uses a reserved prefix."}
		}
	}

	squashed := squash(playerID)
	for _, word := range nf.bannedWords {
		if strings.Contains(squashed, word) {
			return Result{Allowed: false, Reason: "That player name contains a word that is not allowed."}
		}
	}

	return Result{Allowed: true}
}

// IsEnabled returns whether the filter is enabled
func (nf *NameFilter) IsEnabled() bool {
	return nf != nil && nf.enabled
}
