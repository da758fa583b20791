package quest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jglee22/OpenHorizons-sub001/internal/logger"
)

// Store persists whole save blobs by key. SaveBlob replaces any previous blob.
type Store interface {
	LoadBlob(ctx context.Context, key string) (blob []byte, found bool, err error)
	SaveBlob(ctx context.Context, key string, blob []byte) error
}

// ErrNoStore is returned by Save and Load on a system built without a store
var ErrNoStore = errors.New("quest system has no store")

// systemSaveData is the persisted layout of a System
type systemSaveData struct {
	ActiveQuests          []SaveData `json:"active_quests"`
	CompletedQuests       []SaveData `json:"completed_quests"`
	ActiveAchievements    []SaveData `json:"active_achievements"`
	CompletedAchievements []SaveData `json:"completed_achievements"`
}

// Save writes every savable quest and achievement to the store
func (s *System) Save(ctx context.Context) error {
	if s.store == nil {
		return ErrNoStore
	}

	var key string
	var blob []byte
	var err error
	s.run(func() {
		key = s.saveKeyLocked()
		data := systemSaveData{
			ActiveQuests:          collectSaveData(s.activeQuests),
			CompletedQuests:       collectSaveData(s.completedQuests),
			ActiveAchievements:    collectSaveData(s.activeAchievements),
			CompletedAchievements: collectSaveData(s.completedAchievements),
		}
		blob, err = json.Marshal(data)
	})
	if err != nil {
		return fmt.Errorf("failed to encode quest save: %w", err)
	}

	if err := s.store.SaveBlob(ctx, key, blob); err != nil {
		return fmt.Errorf("failed to save quests for %q: %w", key, err)
	}
	logger.Debug("Quest system saved", "player", s.playerID, "key", key, "bytes", len(blob))
	return nil
}

func collectSaveData(list []*Quest) []SaveData {
	result := make([]SaveData, 0, len(list))
	for _, q := range list {
		if q.IsSavable() {
			result = append(result, q.ToSaveData())
		}
	}
	return result
}

// Load restores the system from the store. It returns false when there is
// no prior save, or when the save cannot be decoded, so the caller can fall
// back to default content. Only a failing store returns an error.
//
// Active entries are registered and restored silently. Completed entries go
// straight into the completed lists without registration events. Entries for
// quests missing from the database are skipped.
func (s *System) Load(ctx context.Context) (bool, error) {
	if s.store == nil {
		return false, ErrNoStore
	}

	key := s.SaveKey()
	blob, found, err := s.store.LoadBlob(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to load quests for %q: %w", key, err)
	}
	if !found || len(blob) == 0 {
		return false, nil
	}

	var data systemSaveData
	if err := json.Unmarshal(blob, &data); err != nil {
		logger.Warning("Ignoring corrupt quest save", "player", s.playerID, "key", key, "error", err)
		return false, nil
	}

	completedQuests := s.restore(data.CompletedQuests, true)
	completedAchievements := s.restore(data.CompletedAchievements, true)
	activeQuests := s.restore(data.ActiveQuests, false)
	activeAchievements := s.restore(data.ActiveAchievements, false)

	// Restored quests fire no registration events
	s.run(func() {
		s.adoptLocked(&s.completedQuests, completedQuests)
		s.adoptLocked(&s.completedAchievements, completedAchievements)
		for _, q := range append(activeQuests, activeAchievements...) {
			if q.IsAchievement() {
				s.adoptLocked(&s.activeAchievements, []*Quest{q})
			} else {
				s.adoptLocked(&s.activeQuests, []*Quest{q})
			}
		}
	})

	logger.Info("Quest system loaded",
		"player", s.playerID,
		"active_quests", len(data.ActiveQuests),
		"completed_quests", len(data.CompletedQuests),
		"active_achievements", len(data.ActiveAchievements),
		"completed_achievements", len(data.CompletedAchievements))
	return true, nil
}

// restore rebuilds saved quests without touching the lists. Records for
// quests missing from the database or that fail to load are skipped.
func (s *System) restore(records []SaveData, completed bool) []*Quest {
	restored := make([]*Quest, 0, len(records))
	for _, record := range records {
		def, ok := s.db.FindQuestBy(record.CodeName)
		if !ok {
			logger.Warning("Skipping saved quest missing from database", "player", s.playerID, "quest", record.CodeName)
			continue
		}

		q := NewQuest(def)
		q.setup(s)
		if !completed {
			q.evaluateInitialSuccess()
		}
		if err := q.LoadFrom(record); err != nil {
			logger.Warning("Skipping corrupt quest save", "player", s.playerID, "quest", record.CodeName, "error", err)
			continue
		}
		if completed {
			q.state = QuestComplete
			for _, group := range q.groups {
				group.state = TaskGroupComplete
			}
			q.end()
		}
		restored = append(restored, q)
	}
	return restored
}

// adoptLocked appends restored quests whose code names are not held yet
func (s *System) adoptLocked(list *[]*Quest, restored []*Quest) {
	for _, q := range restored {
		if s.findLocked(q.CodeName()) == nil {
			*list = append(*list, q)
		}
	}
}

// LoadOrDefault loads saved progress and, when there is none, registers
// every achievement fresh. It reports whether a save was found.
func (s *System) LoadOrDefault(ctx context.Context) (bool, error) {
	loaded, err := s.Load(ctx)
	if err != nil {
		return false, err
	}
	// Also picks up achievements added to content after the save was written
	s.RegisterAchievements()
	return loaded, nil
}

// MemoryStore is an in-process Store
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// LoadBlob returns a copy of the blob stored under key
func (m *MemoryStore) LoadBlob(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	blob, ok := m.blobs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), blob...), true, nil
}

// SaveBlob replaces the blob stored under key
func (m *MemoryStore) SaveBlob(_ context.Context, key string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), blob...)
	return nil
}
