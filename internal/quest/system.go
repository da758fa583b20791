package quest

import (
	"fmt"
	"slices"
	"sync"

	"github.com/jglee22/OpenHorizons-sub001/internal/logger"
)

// DefaultSaveRoot is the key prefix for saved systems
const DefaultSaveRoot = "quest_system"

// System owns one player's quests and achievements. It routes reports to
// every active quest, moves finished quests between its lists and notifies
// subscribers.
//
// A code name appears in at most one of the four lists at a time. Only the
// System mutates the lists. All methods are safe for concurrent use; each
// operation runs under one lock. Rewards, quest callbacks and subscribers
// run after the lock is released, once the lists are consistent, so they
// may call back into the System.
type System struct {
	mu       sync.Mutex
	playerID string
	db       *Database
	store    Store
	saveRoot string

	activeQuests          []*Quest
	completedQuests       []*Quest
	activeAchievements    []*Quest
	completedAchievements []*Quest

	after []func() // Work queued under mu, run once it is released

	subMu       sync.RWMutex
	subscribers []subscriber
	nextSubID   uint64
}

// NewSystem creates an empty system for a player. store may be nil, in
// which case Save and Load report an error.
func NewSystem(playerID string, db *Database, store Store) (*System, error) {
	if db == nil {
		return nil, ErrNoDatabase
	}
	return &System{
		playerID: playerID,
		db:       db,
		store:    store,
		saveRoot: DefaultSaveRoot,
	}, nil
}

// PlayerID returns the player this system belongs to
func (s *System) PlayerID() string { return s.playerID }

// Database returns the content the system registers quests from
func (s *System) Database() *Database { return s.db }

// SetSaveRoot changes the key prefix used by Save and Load
func (s *System) SetSaveRoot(root string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveRoot = root
}

// SaveKey returns the store key for this system's save data
func (s *System) SaveKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveKeyLocked()
}

func (s *System) saveKeyLocked() string {
	if s.playerID == "" {
		return s.saveRoot
	}
	return s.saveRoot + "/" + s.playerID
}

// run executes fn under the lock, then runs the work it queued in order
func (s *System) run(fn func()) {
	var after []func()
	func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		fn()
		after = s.after
		s.after = nil
	}()
	for _, work := range after {
		work()
	}
}

// later queues work to run after the current operation releases the lock.
// Must be called with s.mu held.
func (s *System) later(work func()) {
	s.after = append(s.after, work)
}

// prepare builds an instance of def owned by this system. Initial success
// providers are evaluated here, without the lock held.
func (s *System) prepare(def *Definition) *Quest {
	q := NewQuest(def)
	q.setup(s)
	q.evaluateInitialSuccess()
	return q
}

// Do runs fn serialized with every other operation on the system. Use it to
// read quest state consistently. fn must not call methods of the System.
func (s *System) Do(fn func()) {
	s.run(fn)
}

// Register starts an instance of def and adds it to the active list.
// If the code name is already held in any list, the existing instance is
// returned unchanged.
func (s *System) Register(def *Definition) (*Quest, error) {
	if def == nil {
		return nil, ErrNilDefinition
	}
	q := s.prepare(def)
	s.run(func() {
		q = s.registerLocked(q)
	})
	return q, nil
}

// RegisterByCode registers the database quest or achievement with the given code name
func (s *System) RegisterByCode(codeName string) (*Quest, error) {
	def, ok := s.db.FindQuestBy(codeName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrQuestNotFound, codeName)
	}
	return s.Register(def)
}

// Accept registers a quest after checking that the player may take it
func (s *System) Accept(codeName string) (*Quest, error) {
	def, ok := s.db.FindQuestBy(codeName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrQuestNotFound, codeName)
	}

	q := s.prepare(def)
	var err error
	s.run(func() {
		if !s.isAcceptableLocked(def) {
			q, err = nil, fmt.Errorf("%w: %s", ErrNotAcceptable, codeName)
			return
		}
		q = s.registerLocked(q)
	})
	return q, err
}

// RegisterAchievements registers every achievement in the database
func (s *System) RegisterAchievements() {
	var missing []*Definition
	s.run(func() {
		for _, def := range s.db.Achievements() {
			if s.findLocked(def.CodeName) == nil {
				missing = append(missing, def)
			}
		}
	})
	if len(missing) == 0 {
		return
	}

	prepared := make([]*Quest, len(missing))
	for i, def := range missing {
		prepared[i] = s.prepare(def)
	}
	s.run(func() {
		for _, q := range prepared {
			s.registerLocked(q)
		}
	})
}

// registerLocked adds a prepared instance unless its code name is already held,
// in which case the held instance is returned
func (s *System) registerLocked(q *Quest) *Quest {
	def := q.def
	if existing := s.findLocked(def.CodeName); existing != nil {
		logger.Info("Quest already registered",
			"player", s.playerID,
			"quest", def.CodeName,
			"state", existing.State().String())
		return existing
	}

	if def.IsAchievement() {
		s.activeAchievements = append(s.activeAchievements, q)
		s.queue(EventAchievementRegistered, q)
	} else {
		s.activeQuests = append(s.activeQuests, q)
		s.queue(EventQuestRegistered, q)
	}

	// Started after joining the active list: an immediately satisfied
	// quest completes through questCompleted like any other.
	q.start()

	logger.Debug("Quest registered", "player", s.playerID, "quest", def.CodeName, "kind", string(def.Kind))
	return q
}

// ReceiveReport routes a report to every active quest, then every active
// achievement. Each pass iterates a snapshot because a report may complete
// a quest and move it out of its active list.
func (s *System) ReceiveReport(category string, target Target, successCount int) {
	s.run(func() {
		s.receiveReportLocked(category, target, successCount)
	})
}

func (s *System) receiveReportLocked(category string, target Target, successCount int) {
	for _, q := range slices.Clone(s.activeQuests) {
		q.receiveReport(category, target, successCount)
	}
	for _, q := range slices.Clone(s.activeAchievements) {
		q.receiveReport(category, target, successCount)
	}
}

// TurnIn completes an active quest whose task groups are all done
func (s *System) TurnIn(codeName string) (*Quest, error) {
	var q *Quest
	var err error
	s.run(func() {
		q = findByCode(s.activeQuests, codeName)
		if q == nil {
			err = fmt.Errorf("%w: %s", ErrNotActive, codeName)
			return
		}
		if !q.IsCompletable() {
			err = fmt.Errorf("%w: %s", ErrNotCompletable, codeName)
			return
		}
		q.complete()
	})
	return q, err
}

// ForceComplete completes an active quest or achievement regardless of progress
func (s *System) ForceComplete(codeName string) (*Quest, error) {
	var q *Quest
	var err error
	s.run(func() {
		q = findByCode(s.activeQuests, codeName)
		if q == nil {
			q = findByCode(s.activeAchievements, codeName)
		}
		if q == nil {
			err = fmt.Errorf("%w: %s", ErrNotActive, codeName)
			return
		}
		q.complete()
	})
	return q, err
}

// CompleteWaitingQuests completes every active quest that is ready for turn-in
// and returns them
func (s *System) CompleteWaitingQuests() []*Quest {
	var completed []*Quest
	s.run(func() {
		for _, q := range slices.Clone(s.activeQuests) {
			if q.IsCompletable() {
				q.complete()
				completed = append(completed, q)
			}
		}
	})
	return completed
}

// Cancel abandons an active quest. Quests that are not in the active list
// or not cancelable are left untouched and an error describes why.
func (s *System) Cancel(q *Quest) error {
	var err error
	s.run(func() {
		if q == nil || !slices.Contains(s.activeQuests, q) {
			err = ErrNotActive
			return
		}
		err = q.cancel()
	})
	if err != nil {
		logger.Debug("Quest cancel ignored", "player", s.playerID, "error", err)
	}
	return err
}

// CancelByCode abandons the active quest with the given code name
func (s *System) CancelByCode(codeName string) error {
	var q *Quest
	s.run(func() {
		q = findByCode(s.activeQuests, codeName)
	})
	if q == nil {
		return fmt.Errorf("%w: %s", ErrNotActive, codeName)
	}
	return s.Cancel(q)
}

// questCompleted moves a finished quest to its completed list.
// Called by Quest.complete with s.mu held.
func (s *System) questCompleted(q *Quest) {
	if q.IsAchievement() {
		s.activeAchievements = removeQuest(s.activeAchievements, q)
		s.completedAchievements = append(s.completedAchievements, q)
		s.queue(EventAchievementCompleted, q)
	} else {
		s.activeQuests = removeQuest(s.activeQuests, q)
		s.completedQuests = append(s.completedQuests, q)
		s.queue(EventQuestCompleted, q)
	}
	logger.Audit("Quest completed", "player", s.playerID, "quest", q.CodeName(), "kind", string(q.Kind()))
}

// questCanceled drops a canceled quest. Called by Quest.cancel with s.mu held.
func (s *System) questCanceled(q *Quest) {
	s.activeQuests = removeQuest(s.activeQuests, q)
	s.queue(EventQuestCanceled, q)
	logger.Info("Quest canceled", "player", s.playerID, "quest", q.CodeName())
}

// IsAcceptable returns true if def is not held in any list and every prerequisite is completed
func (s *System) IsAcceptable(def *Definition) bool {
	if def == nil {
		return false
	}
	var ok bool
	s.run(func() {
		ok = s.isAcceptableLocked(def)
	})
	return ok
}

func (s *System) isAcceptableLocked(def *Definition) bool {
	if s.findLocked(def.CodeName) != nil {
		return false
	}
	for _, prereq := range def.Prereqs {
		if findByCode(s.completedQuests, prereq) == nil && findByCode(s.completedAchievements, prereq) == nil {
			return false
		}
	}
	return true
}

// AvailableQuests returns the quests an NPC offers that the player may accept
func (s *System) AvailableQuests(npcID string) []*Definition {
	offered := s.db.QuestsForNPC(npcID)
	available := make([]*Definition, 0, len(offered))
	s.run(func() {
		for _, def := range offered {
			if s.isAcceptableLocked(def) {
				available = append(available, def)
			}
		}
	})
	return available
}

// Find returns the instance with the given code name from any list
func (s *System) Find(codeName string) (*Quest, bool) {
	var q *Quest
	s.run(func() {
		q = s.findLocked(codeName)
	})
	return q, q != nil
}

func (s *System) findLocked(codeName string) *Quest {
	for _, list := range [][]*Quest{s.activeQuests, s.completedQuests, s.activeAchievements, s.completedAchievements} {
		if q := findByCode(list, codeName); q != nil {
			return q
		}
	}
	return nil
}

// HasCompleted returns true if a quest or achievement with the code name is completed
func (s *System) HasCompleted(codeName string) bool {
	var done bool
	s.run(func() {
		done = findByCode(s.completedQuests, codeName) != nil || findByCode(s.completedAchievements, codeName) != nil
	})
	return done
}

// ActiveQuests returns a copy of the active quest list
func (s *System) ActiveQuests() []*Quest { return s.snapshot(&s.activeQuests) }

// CompletedQuests returns a copy of the completed quest list
func (s *System) CompletedQuests() []*Quest { return s.snapshot(&s.completedQuests) }

// ActiveAchievements returns a copy of the active achievement list
func (s *System) ActiveAchievements() []*Quest { return s.snapshot(&s.activeAchievements) }

// CompletedAchievements returns a copy of the completed achievement list
func (s *System) CompletedAchievements() []*Quest { return s.snapshot(&s.completedAchievements) }

func (s *System) snapshot(list *[]*Quest) []*Quest {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]*Quest, len(*list))
	copy(result, *list)
	return result
}

func findByCode(list []*Quest, codeName string) *Quest {
	for _, q := range list {
		if q.CodeName() == codeName {
			return q
		}
	}
	return nil
}

func removeQuest(list []*Quest, q *Quest) []*Quest {
	idx := slices.Index(list, q)
	if idx < 0 {
		return list
	}
	return slices.Delete(list, idx, idx+1)
}
