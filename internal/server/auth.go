package server

import (
	"errors"
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/jglee22/OpenHorizons-sub001/internal/command"
	"github.com/jglee22/OpenHorizons-sub001/internal/logger"
)

// MaxPlayerIDLength caps player names accepted by the handshake.
const MaxPlayerIDLength = 32

// maxHandshakeLines is how many non-hello lines a client may send before
// being disconnected.
const maxHandshakeLines = 5

var (
	errHandshakeClosed  = errors.New("connection closed during handshake")
	errHandshakeQuit    = errors.New("client quit during handshake")
	errHandshakeLimit   = errors.New("too many lines without hello")
	errHandshakeRefused = errors.New("handshake refused")
)

// isValidPlayerID checks if a player name contains only allowed characters.
// Allowed: letters, digits, hyphens and underscores.
// Names must start with a letter or digit and cannot contain consecutive special characters.
func isValidPlayerID(name string) bool {
	if name == "" || len(name) > MaxPlayerIDLength {
		return false
	}

	runes := []rune(name)
	if !unicode.IsLetter(runes[0]) && !unicode.IsDigit(runes[0]) {
		return false
	}

	prevWasSpecial := false
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			prevWasSpecial = false
			continue
		}
		if r == '-' || r == '_' {
			if prevWasSpecial {
				return false
			}
			prevWasSpecial = true
			continue
		}
		return false
	}

	return true
}

// handleHello runs the "hello <player> [key]" handshake and returns the
// player the connection speaks for.
func (s *Server) handleHello(client Client) (string, error) {
	ipAddress := extractIP(client.RemoteAddr())

	client.WriteLine("questd ready. Say 'hello <player> [key]' to begin.")

	for attempt := 0; attempt < maxHandshakeLines; attempt++ {
		line, err := client.ReadLine()
		if err != nil {
			return "", errHandshakeClosed
		}

		cmd := command.ParseCommand(line)
		switch cmd.Name {
		case "":
			attempt--
			continue
		case "quit", "exit":
			client.WriteLine("Goodbye!")
			return "", errHandshakeQuit
		case "hello":
		default:
			client.WriteLine("Say 'hello <player> [key]' first.")
			continue
		}

		if len(cmd.Args) < 1 || len(cmd.Args) > 2 {
			client.WriteLine("Usage: hello <player> [key]")
			continue
		}
		playerID := cmd.Args[0]
		if !isValidPlayerID(playerID) {
			client.WriteLine(fmt.Sprintf("Invalid player name. Use up to %d letters, digits, '-' or '_'.", MaxPlayerIDLength))
			continue
		}
		if result := s.nameFilter.Check(playerID); !result.Allowed {
			logger.Info("Player name rejected",
				"player", playerID,
				"ip", ipAddress,
				"event", "hello_name_filtered")
			client.WriteLine(result.Reason)
			continue
		}

		key := ""
		if len(cmd.Args) == 2 {
			key = cmd.Args[1]
		}
		if err := s.checkKey(client, ipAddress, playerID, key); err != nil {
			return "", err
		}
		return playerID, nil
	}

	client.WriteLine("Too many lines without hello. Disconnecting.")
	return "", errHandshakeLimit
}

// checkKey verifies key against the configured bcrypt hash. Without a hash
// every player is let in.
func (s *Server) checkKey(client Client, ipAddress, playerID, key string) error {
	hash := s.cfg.Auth.KeyHash
	if hash == "" {
		return nil
	}

	if s.rateLimiter != nil {
		if locked, remaining := s.rateLimiter.IsLocked(ipAddress); locked {
			client.WriteLine(fmt.Sprintf("Too many failed attempts. Please wait %d seconds.",
				int(remaining.Seconds())))
			return errHandshakeRefused
		}
	}

	if key != "" && bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil {
		if s.rateLimiter != nil {
			s.rateLimiter.RecordSuccess(ipAddress)
		}
		logger.Info("Handshake accepted",
			"player", playerID,
			"ip", ipAddress,
			"event", "hello_success")
		return nil
	}

	logger.Info("Handshake rejected",
		"player", playerID,
		"ip", ipAddress,
		"event", "hello_failed")
	if s.rateLimiter != nil {
		if locked, duration := s.rateLimiter.RecordFailure(ipAddress); locked {
			logger.Warning("IP rate limited after failed handshakes",
				"ip", ipAddress,
				"lockout_seconds", int(duration.Seconds()),
				"event", "hello_ratelimit")
			client.WriteLine(fmt.Sprintf("Invalid key. Too many attempts - locked out for %d seconds.",
				int(duration.Seconds())))
			return errHandshakeRefused
		}
	}
	client.WriteLine("Invalid key.")
	return errHandshakeRefused
}

// HashKey returns the bcrypt hash of key for the auth.key_hash setting.
func HashKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
