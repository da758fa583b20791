package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jglee22/OpenHorizons-sub001/internal/logger"
	"github.com/jglee22/OpenHorizons-sub001/internal/quest"
)

// SaveTimeout bounds a single save or load against the store.
const SaveTimeout = 10 * time.Second

// Session is one connection bound to a player's quest system.
type Session struct {
	id       string
	playerID string
	client   Client
	sys      *quest.System

	unsubscribe func()
	quitting    atomic.Bool
}

func (s *Session) ID() string            { return s.id }
func (s *Session) PlayerID() string      { return s.playerID }
func (s *Session) System() *quest.System { return s.sys }

// Save writes the player's quest system to the store.
func (s *Session) Save() error {
	ctx, cancel := context.WithTimeout(context.Background(), SaveTimeout)
	defer cancel()
	return saveSystem(ctx, s.sys)
}

// Disconnect asks the connection loop to stop after the current reply.
func (s *Session) Disconnect() {
	s.quitting.Store(true)
}

// Quitting reports whether Disconnect was called.
func (s *Session) Quitting() bool {
	return s.quitting.Load()
}

// pushEvent forwards a quest system event to the connection.
func (s *Session) pushEvent(e quest.Event) {
	if err := s.client.WriteLine(fmt.Sprintf("event %s %s", e.Type, e.Quest.CodeName())); err != nil {
		logger.Debug("Failed to push quest event", "session", s.id, "event", string(e.Type), "error", err)
	}
}

// playerEntry is a loaded quest system and the sessions sharing it.
type playerEntry struct {
	sys      *quest.System
	sessions map[string]*Session
}

// SessionManager owns one quest.System per attached player. A system is
// loaded when its first session attaches and saved when its last one detaches.
type SessionManager struct {
	db       *quest.Database
	store    quest.Store
	saveRoot string

	mu      sync.Mutex
	players map[string]*playerEntry
}

// NewSessionManager creates a manager for content db persisted in store.
func NewSessionManager(db *quest.Database, store quest.Store, saveRoot string) *SessionManager {
	if saveRoot == "" {
		saveRoot = quest.DefaultSaveRoot
	}
	return &SessionManager{
		db:       db,
		store:    store,
		saveRoot: saveRoot,
		players:  make(map[string]*playerEntry),
	}
}

// Attach binds client to playerID's quest system, loading it on first use.
// Every event of the system is pushed to the client as "event <type> <code_name>".
func (m *SessionManager) Attach(ctx context.Context, playerID string, client Client) (*Session, error) {
	if playerID == "" {
		return nil, errors.New("player id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.players[playerID]
	if !ok {
		sys, err := m.loadSystem(ctx, playerID)
		if err != nil {
			return nil, err
		}
		entry = &playerEntry{sys: sys, sessions: make(map[string]*Session)}
		m.players[playerID] = entry
	}

	session := &Session{
		id:       uuid.NewString(),
		playerID: playerID,
		client:   client,
		sys:      entry.sys,
	}
	session.unsubscribe = entry.sys.Subscribe(session.pushEvent)
	entry.sessions[session.id] = session

	logger.Info("Session attached",
		"player", playerID,
		"session", session.id,
		"sessions", len(entry.sessions))
	return session, nil
}

// loadSystem builds a system for playerID and restores its save.
// A player without a save starts with every achievement registered.
func (m *SessionManager) loadSystem(ctx context.Context, playerID string) (*quest.System, error) {
	sys, err := quest.NewSystem(playerID, m.db, m.store)
	if err != nil {
		return nil, err
	}
	sys.SetSaveRoot(m.saveRoot)

	if m.store == nil {
		sys.RegisterAchievements()
		return sys, nil
	}

	ctx, cancel := context.WithTimeout(ctx, SaveTimeout)
	defer cancel()
	if _, err := sys.LoadOrDefault(ctx); err != nil {
		return nil, fmt.Errorf("failed to load quests for %s: %w", playerID, err)
	}
	return sys, nil
}

// Detach unbinds session. The player's system is saved and dropped when no
// session remains. The final save runs under the manager lock so a quick
// reattach cannot load a stale save.
func (m *SessionManager) Detach(session *Session) error {
	if session.unsubscribe != nil {
		session.unsubscribe()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.players[session.playerID]
	if !ok {
		return nil
	}
	delete(entry.sessions, session.id)
	last := len(entry.sessions) == 0

	logger.Info("Session detached", "player", session.playerID, "session", session.id, "last", last)
	if !last {
		return nil
	}
	delete(m.players, session.playerID)

	ctx, cancel := context.WithTimeout(context.Background(), SaveTimeout)
	defer cancel()
	if err := saveSystem(ctx, entry.sys); err != nil {
		logger.Error("Failed to save quests on detach", "player", session.playerID, "error", err)
		return err
	}
	return nil
}

// systems returns a snapshot of the attached systems
func (m *SessionManager) systems() []*quest.System {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*quest.System, 0, len(m.players))
	for _, entry := range m.players {
		result = append(result, entry.sys)
	}
	return result
}

// System returns the attached system for playerID.
func (m *SessionManager) System(playerID string) (*quest.System, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.players[playerID]
	if !ok {
		return nil, false
	}
	return entry.sys, true
}

// Counts returns the number of attached players and sessions.
func (m *SessionManager) Counts() (players int, sessions int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, entry := range m.players {
		sessions += len(entry.sessions)
	}
	return len(m.players), sessions
}

// SaveAll saves every attached player and joins the failures.
func (m *SessionManager) SaveAll(ctx context.Context) error {
	var errs []error
	saved := 0
	for _, sys := range m.systems() {
		if err := saveSystem(ctx, sys); err != nil {
			logger.Warning("Auto-save failed for player", "player", sys.PlayerID(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", sys.PlayerID(), err))
			continue
		}
		saved++
	}
	logger.Debug("Save completed", "saved", saved, "errors", len(errs))
	return errors.Join(errs...)
}

// RunAutoSave saves every attached player each interval until ctx is done.
func (m *SessionManager) RunAutoSave(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		logger.Info("Auto-save disabled")
		return
	}
	logger.Info("Auto-save enabled", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			saveCtx, cancel := context.WithTimeout(ctx, SaveTimeout)
			m.SaveAll(saveCtx)
			cancel()
		}
	}
}

// RunSurvival reports tick of elapsed time to every attached player each
// tick until ctx is done.
func (m *SessionManager) RunSurvival(ctx context.Context, tick time.Duration) {
	if tick < time.Second {
		logger.Info("Survival ticker disabled")
		return
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.ReportElapsed(int(tick / time.Second))
		}
	}
}

// ReportElapsed reports seconds survived to every attached player.
func (m *SessionManager) ReportElapsed(seconds int) {
	for _, sys := range m.systems() {
		sys.ReportTimeElapsed(seconds)
	}
}

func saveSystem(ctx context.Context, sys *quest.System) error {
	err := sys.Save(ctx)
	if errors.Is(err, quest.ErrNoStore) {
		return nil
	}
	return err
}
