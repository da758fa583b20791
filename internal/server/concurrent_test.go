package server

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jglee22/OpenHorizons-sub001/internal/config"
	"github.com/jglee22/OpenHorizons-sub001/internal/quest"
)

// TestSessionManager_ConcurrentAttach attaches and detaches many sessions
// across a few players at once
func TestSessionManager_ConcurrentAttach(t *testing.T) {
	store := quest.NewMemoryStore()
	m := NewSessionManager(testContent(t), store, "")

	var wg sync.WaitGroup
	const numGoroutines = 20

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			playerID := fmt.Sprintf("player%d", id%4)
			for j := 0; j < 10; j++ {
				session, err := m.Attach(context.Background(), playerID, &fakeClient{})
				if err != nil {
					t.Errorf("Attach returned error: %v", err)
					return
				}
				session.System().ReportEnemyKilled("Grunt", 1)
				m.Detach(session)
			}
		}(i)
	}

	wg.Wait()
	if players, sessions := m.Counts(); players != 0 || sessions != 0 {
		t.Errorf("Counts = %d, %d, want 0, 0", players, sessions)
	}
	for i := 0; i < 4; i++ {
		key := fmt.Sprintf("quest_system/player%d", i)
		if _, found, _ := store.LoadBlob(context.Background(), key); !found {
			t.Errorf("%s was not saved", key)
		}
	}
}

// TestSessionManager_ConcurrentTickers runs the survival report and save
// loops against live sessions
func TestSessionManager_ConcurrentTickers(t *testing.T) {
	m := NewSessionManager(testContent(t), quest.NewMemoryStore(), "")
	session, err := m.Attach(context.Background(), "alice", &fakeClient{})
	if err != nil {
		t.Fatalf("Attach returned error: %v", err)
	}
	if _, err := session.System().Accept("kill_3_grunts"); err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		m.RunAutoSave(ctx, time.Millisecond)
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			m.ReportElapsed(1)
			session.System().ReportEnemyKilled("Grunt", 1)
		}
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	wg.Wait()
	m.Detach(session)
}

// TestKeyRateLimiter_ConcurrentAccess tests concurrent rate limiter operations
func TestKeyRateLimiter_ConcurrentAccess(t *testing.T) {
	rl := NewKeyRateLimiter(defaultRateLimitConfig())
	defer rl.Stop()

	var wg sync.WaitGroup
	const numGoroutines = 20
	const numOps = 50

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			ip := fmt.Sprintf("192.168.1.%d", id%10)

			for j := 0; j < numOps; j++ {
				switch j % 4 {
				case 0:
					rl.IsLocked(ip)
				case 1:
					rl.RecordFailure(ip)
				case 2:
					rl.Attempts(ip)
				case 3:
					rl.RecordSuccess(ip)
				}
			}
		}(i)
	}

	wg.Wait()
}

// TestConnLimiter_ConcurrentAccess tests concurrent connection limiter operations
func TestConnLimiter_ConcurrentAccess(t *testing.T) {
	cl := NewConnLimiter(config.ConnectionsConfig{
		MaxTotal: 100,
		MaxPerIP: 10,
	})

	var wg sync.WaitGroup
	const numGoroutines = 20

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			ip := fmt.Sprintf("192.168.1.%d", id%10)

			for j := 0; j < 50; j++ {
				if slot, err := cl.Acquire(ip); err == nil {
					time.Sleep(time.Microsecond)
					slot.Release()
					slot.Release()
				}
			}
		}(i)
	}

	wg.Wait()
	if total, ips := cl.Stats(); total != 0 || ips != 0 {
		t.Errorf("Stats = %d, %d, want 0, 0", total, ips)
	}
}

// defaultRateLimitConfig returns default rate limit config for testing
func defaultRateLimitConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		MaxAttempts:       5,
		LockoutSeconds:    30,
		MaxLockoutSeconds: 300,
	}
}
