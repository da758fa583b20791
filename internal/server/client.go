package server

import "time"

const (
	// writeTimeout bounds every write. Events are pushed from whichever
	// goroutine reported progress, so a stalled peer must not hold it.
	writeTimeout = 5 * time.Second

	// maxLineLength caps a single telnet command line.
	maxLineLength = 4096
)

// Client is one connection speaking the questd line protocol, over telnet
// or WebSocket. WriteLine may be called from several goroutines at once
// (command replies and pushed quest events).
type Client interface {
	// ReadLine blocks until a complete line is received (without newline).
	ReadLine() (string, error)

	// WriteLine sends one reply or event. Multi-line replies keep their line breaks.
	WriteLine(message string) error

	Close() error

	// RemoteAddr returns the peer address for logging and rate limiting.
	RemoteAddr() string
}
