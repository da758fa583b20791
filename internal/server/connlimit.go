package server

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/jglee22/OpenHorizons-sub001/internal/config"
)

var (
	errIPLimit    = errors.New("too many connections from this address")
	errServerFull = errors.New("server connection limit reached")
)

// ConnLimiter caps concurrent connections per IP and in total.
type ConnLimiter struct {
	mu       sync.Mutex
	perIP    map[string]int
	total    int
	maxPerIP int
	maxTotal int
}

// ConnSlot is one connection counted against the limits.
type ConnSlot struct {
	limiter *ConnLimiter
	ip      string
	once    sync.Once
}

// Release returns the slot. Calls after the first do nothing.
func (s *ConnSlot) Release() {
	s.once.Do(func() { s.limiter.release(s.ip) })
}

// NewConnLimiter creates a connection limiter. Zero limits are unlimited.
func NewConnLimiter(cfg config.ConnectionsConfig) *ConnLimiter {
	return &ConnLimiter{
		perIP:    make(map[string]int),
		maxPerIP: cfg.MaxPerIP,
		maxTotal: cfg.MaxTotal,
	}
}

// Acquire takes a slot for ip, or reports which limit refused it.
func (c *ConnLimiter) Acquire(ip string) (*ConnSlot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxTotal > 0 && c.total >= c.maxTotal {
		return nil, errServerFull
	}
	if c.maxPerIP > 0 && c.perIP[ip] >= c.maxPerIP {
		return nil, errIPLimit
	}

	c.perIP[ip]++
	c.total++
	return &ConnSlot{limiter: c, ip: ip}, nil
}

func (c *ConnLimiter) release(ip string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.perIP[ip] > 0 {
		c.perIP[ip]--
		if c.perIP[ip] == 0 {
			delete(c.perIP, ip)
		}
	}
	if c.total > 0 {
		c.total--
	}
}

// Stats returns the open connection count and the number of distinct IPs.
func (c *ConnLimiter) Stats() (total int, ips int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total, len(c.perIP)
}

// IPCount returns the open connection count for ip.
func (c *ConnLimiter) IPCount(ip string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.perIP[ip]
}

// limitMessage is the line sent to a refused connection.
func limitMessage(err error) string {
	if errors.Is(err, errServerFull) {
		return "Too many connections on the server. Please try again later."
	}
	return "Too many connections from your address. Please try again later."
}

// extractIP extracts the IP address from an ip:port remote address.
func extractIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// getRealIP returns the address to count a WebSocket request against.
// Forwarding headers are honored only when the direct peer is a loopback or
// private address, i.e. a reverse proxy in front of questd.
func getRealIP(r *http.Request) string {
	peer := extractIP(r.RemoteAddr)
	if ip := net.ParseIP(peer); ip == nil || !(ip.IsLoopback() || ip.IsPrivate()) {
		return peer
	}

	// X-Forwarded-For can contain multiple IPs: "client, proxy1, proxy2"
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return peer
}
