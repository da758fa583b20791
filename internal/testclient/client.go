package testclient

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// TestClient is a telnet connection to a running questd
type TestClient struct {
	Name     string
	conn     net.Conn
	reader   *bufio.Reader
	writer   *bufio.Writer
	messages []string
	mu       sync.Mutex
	done     chan struct{}
	once     sync.Once
}

// newClientConnection dials address and starts collecting server lines
func newClientConnection(address string) (*TestClient, error) {
	conn, err := net.DialTimeout("tcp", address, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	client := &TestClient{
		conn:     conn,
		reader:   bufio.NewReader(conn),
		writer:   bufio.NewWriter(conn),
		messages: make([]string, 0),
		done:     make(chan struct{}),
	}

	go client.readMessages()

	return client, nil
}

// NewTestClient connects and speaks for player. key may be empty when the
// server does not require one.
func NewTestClient(player, key, address string) (*TestClient, error) {
	client, err := newClientConnection(address)
	if err != nil {
		return nil, err
	}
	client.Name = player

	if !client.WaitForMessage("questd ready", 2*time.Second) {
		messages := client.GetMessages()
		client.Close()
		return nil, fmt.Errorf("no greeting, messages: %v", messages)
	}

	hello := "hello " + player
	if key != "" {
		hello += " " + key
	}
	if err := client.SendCommand(hello); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to send hello: %w", err)
	}

	if !client.WaitForMessage("Welcome, "+player, 2*time.Second) {
		messages := client.GetMessages()
		client.Close()
		return nil, fmt.Errorf("handshake failed, messages: %v", messages)
	}
	client.ClearMessages()

	return client, nil
}

// NewTestClientRaw connects without saying hello.
// Use this for testing the handshake itself.
func NewTestClientRaw(address string) (*TestClient, error) {
	client, err := newClientConnection(address)
	if err != nil {
		return nil, err
	}
	client.Name = "RawClient"

	client.WaitForMessage("questd ready", 2*time.Second)

	return client, nil
}

// readMessages continuously reads messages from the server
func (c *TestClient) readMessages() {
	for {
		select {
		case <-c.done:
			return
		default:
			line, err := c.reader.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimRight(line, "\r\n")
			if line != "" {
				c.mu.Lock()
				c.messages = append(c.messages, line)
				c.mu.Unlock()
			}
		}
	}
}

// SendCommand sends a command to the server
func (c *TestClient) SendCommand(cmd string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.writer.WriteString(cmd + "\r\n")
	if err != nil {
		return err
	}
	return c.writer.Flush()
}

// Run clears the buffer, sends cmd and waits for a line containing want
func (c *TestClient) Run(cmd, want string) bool {
	c.ClearMessages()
	if err := c.SendCommand(cmd); err != nil {
		return false
	}
	return c.WaitForMessage(want, 2*time.Second)
}

// GetMessages returns all messages received so far
func (c *TestClient) GetMessages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]string, len(c.messages))
	copy(result, c.messages)
	return result
}

// ClearMessages clears the message buffer
func (c *TestClient) ClearMessages() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = make([]string, 0)
}

// WaitForMessage waits for a message containing the specified text (with timeout)
func (c *TestClient) WaitForMessage(text string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if c.HasMessage(text) {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}

	return false
}

// HasMessage checks if any message contains the specified text
func (c *TestClient) HasMessage(text string) bool {
	for _, msg := range c.GetMessages() {
		if strings.Contains(msg, text) {
			return true
		}
	}
	return false
}

// Close closes the client connection
func (c *TestClient) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}
