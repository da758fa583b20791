package server

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jglee22/OpenHorizons-sub001/internal/config"
)

func mustAcquire(t *testing.T, limiter *ConnLimiter, ip string) *ConnSlot {
	t.Helper()
	slot, err := limiter.Acquire(ip)
	if err != nil {
		t.Fatalf("Acquire(%q) returned error: %v", ip, err)
	}
	return slot
}

func TestConnLimiter_PerIPLimit(t *testing.T) {
	limiter := NewConnLimiter(config.ConnectionsConfig{MaxPerIP: 2, MaxTotal: 100})

	first := mustAcquire(t, limiter, "192.168.1.1")
	mustAcquire(t, limiter, "192.168.1.1")

	if _, err := limiter.Acquire("192.168.1.1"); !errors.Is(err, errIPLimit) {
		t.Errorf("third Acquire error = %v, want errIPLimit", err)
	}
	mustAcquire(t, limiter, "192.168.1.2")

	first.Release()
	mustAcquire(t, limiter, "192.168.1.1")
}

func TestConnLimiter_TotalLimit(t *testing.T) {
	limiter := NewConnLimiter(config.ConnectionsConfig{MaxPerIP: 10, MaxTotal: 3})

	slots := []*ConnSlot{
		mustAcquire(t, limiter, "192.168.1.1"),
		mustAcquire(t, limiter, "192.168.1.2"),
		mustAcquire(t, limiter, "192.168.1.3"),
	}

	if _, err := limiter.Acquire("192.168.1.4"); !errors.Is(err, errServerFull) {
		t.Errorf("fourth Acquire error = %v, want errServerFull", err)
	}

	slots[1].Release()
	mustAcquire(t, limiter, "192.168.1.4")
}

func TestConnLimiter_Unlimited(t *testing.T) {
	limiter := NewConnLimiter(config.ConnectionsConfig{})
	for i := 0; i < 100; i++ {
		mustAcquire(t, limiter, "192.168.1.1")
	}
	if got := limiter.IPCount("192.168.1.1"); got != 100 {
		t.Errorf("IPCount = %d, want 100", got)
	}
}

func TestConnSlot_ReleaseIsIdempotent(t *testing.T) {
	limiter := NewConnLimiter(config.ConnectionsConfig{MaxPerIP: 5})
	a := mustAcquire(t, limiter, "10.0.0.1")
	mustAcquire(t, limiter, "10.0.0.1")

	a.Release()
	a.Release()
	a.Release()

	if got := limiter.IPCount("10.0.0.1"); got != 1 {
		t.Errorf("IPCount = %d after repeated release, want 1", got)
	}
	if total, ips := limiter.Stats(); total != 1 || ips != 1 {
		t.Errorf("Stats = %d, %d, want 1, 1", total, ips)
	}
}

func TestConnLimiter_Stats(t *testing.T) {
	limiter := NewConnLimiter(config.ConnectionsConfig{MaxPerIP: 10, MaxTotal: 100})

	mustAcquire(t, limiter, "192.168.1.1")
	mustAcquire(t, limiter, "192.168.1.1")
	last := mustAcquire(t, limiter, "192.168.1.2")

	if total, ips := limiter.Stats(); total != 3 || ips != 2 {
		t.Errorf("Stats = %d, %d, want 3, 2", total, ips)
	}

	last.Release()
	if total, ips := limiter.Stats(); total != 2 || ips != 1 {
		t.Errorf("Stats = %d, %d after release, want 2, 1", total, ips)
	}
}

func TestLimitMessage(t *testing.T) {
	if got := limitMessage(errServerFull); got != "Too many connections on the server. Please try again later." {
		t.Errorf("limitMessage(errServerFull) = %q", got)
	}
	if got := limitMessage(errIPLimit); got != "Too many connections from your address. Please try again later." {
		t.Errorf("limitMessage(errIPLimit) = %q", got)
	}
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"192.168.1.1:12345", "192.168.1.1"},
		{"[::1]:12345", "::1"},
		{"localhost:4000", "localhost"},
		{"192.168.1.1", "192.168.1.1"},
	}

	for _, tt := range tests {
		if got := extractIP(tt.input); got != tt.expected {
			t.Errorf("extractIP(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestGetRealIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		expected   string
	}{
		{
			name:       "proxy X-Forwarded-For single IP",
			xff:        "203.0.113.50",
			remoteAddr: "10.0.0.1:12345",
			expected:   "203.0.113.50",
		},
		{
			name:       "proxy X-Forwarded-For chain uses first",
			xff:        "203.0.113.50, 70.41.3.18, 150.172.238.178",
			remoteAddr: "127.0.0.1:12345",
			expected:   "203.0.113.50",
		},
		{
			name:       "proxy X-Real-IP",
			xri:        "203.0.113.50",
			remoteAddr: "192.168.0.10:12345",
			expected:   "203.0.113.50",
		},
		{
			name:       "X-Forwarded-For wins over X-Real-IP",
			xff:        "203.0.113.50",
			xri:        "198.51.100.25",
			remoteAddr: "10.0.0.1:12345",
			expected:   "203.0.113.50",
		},
		{
			name:       "public peer headers ignored",
			xff:        "203.0.113.50",
			remoteAddr: "198.51.100.7:4444",
			expected:   "198.51.100.7",
		},
		{
			name:       "no headers",
			remoteAddr: "192.168.1.100:54321",
			expected:   "192.168.1.100",
		},
		{
			name:       "blank X-Forwarded-For entry",
			xff:        " , 70.41.3.18",
			remoteAddr: "10.0.0.1:12345",
			expected:   "10.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &http.Request{
				RemoteAddr: tt.remoteAddr,
				Header:     make(http.Header),
			}
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}

			if got := getRealIP(req); got != tt.expected {
				t.Errorf("getRealIP() = %q, want %q", got, tt.expected)
			}
		})
	}
}
