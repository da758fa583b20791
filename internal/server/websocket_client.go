package server

import (
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketClient speaks the line protocol over WebSocket text frames.
type WebSocketClient struct {
	conn    *websocket.Conn
	readBuf []string // Lines left over from a multi-line message

	writeMu sync.Mutex // gorilla allows one concurrent writer
}

// NewWebSocketClient creates a new WebSocketClient from a WebSocket connection.
func NewWebSocketClient(conn *websocket.Conn) *WebSocketClient {
	return &WebSocketClient{conn: conn}
}

// ReadLine reads a line from the WebSocket connection (blocking).
// If a message contains multiple lines, they are buffered and returned one at a time.
// Only the session goroutine reads, so readBuf needs no lock.
func (c *WebSocketClient) ReadLine() (string, error) {
	for len(c.readBuf) == 0 {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		for _, line := range strings.Split(string(message), "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				c.readBuf = append(c.readBuf, trimmed)
			}
		}
	}

	line := c.readBuf[0]
	c.readBuf = c.readBuf[1:]
	return line, nil
}

// WriteLine sends message as one text frame, so a multi-line reply
// arrives as a single message.
func (c *WebSocketClient) WriteLine(message string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, []byte(strings.TrimRight(message, "\n")))
}

func (c *WebSocketClient) Close() error {
	return c.conn.Close()
}

func (c *WebSocketClient) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
