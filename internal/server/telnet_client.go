package server

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// Telnet protocol bytes
const (
	telnetIAC  = 255
	telnetSB   = 250
	telnetSE   = 240
	telnetWILL = 251
	telnetDONT = 254
)

// TelnetClient speaks the line protocol over a raw TCP connection.
type TelnetClient struct {
	conn    net.Conn
	scanner *bufio.Scanner

	mu     sync.Mutex // Protects writer
	writer *bufio.Writer
}

// NewTelnetClient creates a new TelnetClient from a TCP connection.
func NewTelnetClient(conn net.Conn) *TelnetClient {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 256), maxLineLength)
	return &TelnetClient{
		conn:    conn,
		scanner: scanner,
		writer:  bufio.NewWriter(conn),
	}
}

// ReadLine returns the next line with CR and telnet negotiation removed.
func (c *TelnetClient) ReadLine() (string, error) {
	if c.scanner.Scan() {
		return stripTelnetCommands(strings.TrimRight(c.scanner.Text(), "\r")), nil
	}
	if err := c.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return "", fmt.Errorf("line exceeds %d bytes: %w", maxLineLength, err)
		}
		return "", err
	}
	return "", net.ErrClosed
}

// WriteLine writes message with CRLF line endings.
func (c *TelnetClient) WriteLine(message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	message = strings.ReplaceAll(strings.TrimRight(message, "\n"), "\n", "\r\n")
	if _, err := c.writer.WriteString(message + "\r\n"); err != nil {
		return err
	}
	return c.writer.Flush()
}

func (c *TelnetClient) Close() error {
	return c.conn.Close()
}

func (c *TelnetClient) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// stripTelnetCommands drops IAC sequences that telnet clients send while
// negotiating options. IAC IAC is an escaped 0xFF data byte.
func stripTelnetCommands(line string) string {
	if strings.IndexByte(line, telnetIAC) < 0 {
		return line
	}

	out := make([]byte, 0, len(line))
	for i := 0; i < len(line); i++ {
		if line[i] != telnetIAC {
			out = append(out, line[i])
			continue
		}
		if i+1 >= len(line) {
			break
		}
		switch cmd := line[i+1]; {
		case cmd == telnetIAC:
			out = append(out, telnetIAC)
			i++
		case cmd >= telnetWILL && cmd <= telnetDONT:
			i += 2
		case cmd == telnetSB:
			end := strings.Index(line[i:], string([]byte{telnetIAC, telnetSE}))
			if end < 0 {
				return string(out)
			}
			i += end + 1
		default:
			i++
		}
	}
	return string(out)
}
