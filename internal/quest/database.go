package quest

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Database holds every quest and achievement definition plus the categories
// tasks may route on. Definitions are shared by all players and read-only.
type Database struct {
	mu          sync.RWMutex
	categories  map[string]Category      // lower-cased code name -> category
	defs        map[string]*Definition   // code name -> definition
	questsByNPC map[string][]*Definition // npcID -> quests they give
}

// NewDatabase creates a database holding the default categories
func NewDatabase() *Database {
	db := &Database{
		categories:  make(map[string]Category),
		defs:        make(map[string]*Definition),
		questsByNPC: make(map[string][]*Definition),
	}
	for _, c := range DefaultCategories() {
		db.AddCategory(c)
	}
	return db
}

// AddCategory adds or replaces a category
func (db *Database) AddCategory(c Category) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.categories[strings.ToLower(c.CodeName)] = c
}

// Category returns the category with the given code name, ignoring case
func (db *Database) Category(codeName string) (Category, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	c, ok := db.categories[strings.ToLower(codeName)]
	return c, ok
}

// Categories returns every category sorted by code name
func (db *Database) Categories() []Category {
	db.mu.RLock()
	defer db.mu.RUnlock()
	result := make([]Category, 0, len(db.categories))
	for _, c := range db.categories {
		result = append(result, c)
	}
	slices.SortFunc(result, func(a, b Category) int { return strings.Compare(a.CodeName, b.CodeName) })
	return result
}

// Add stores a definition. Code names are unique across quests and achievements.
func (db *Database) Add(def *Definition) error {
	if def == nil {
		return ErrNilDefinition
	}
	if def.CodeName == "" {
		return fmt.Errorf("quest definition has no code name")
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.defs[def.CodeName]; exists {
		return fmt.Errorf("duplicate quest code name %q", def.CodeName)
	}
	db.defs[def.CodeName] = def
	if def.GiverNPC != "" && !def.IsAchievement() {
		db.questsByNPC[def.GiverNPC] = append(db.questsByNPC[def.GiverNPC], def)
		slices.SortFunc(db.questsByNPC[def.GiverNPC], compareDefinitions)
	}
	return nil
}

// FindQuestBy returns the quest or achievement with the given code name
func (db *Database) FindQuestBy(codeName string) (*Definition, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	def, ok := db.defs[codeName]
	return def, ok
}

// Quests returns every non-achievement definition sorted by code name
func (db *Database) Quests() []*Definition {
	return db.filter(func(def *Definition) bool { return !def.IsAchievement() })
}

// Achievements returns every achievement definition sorted by code name
func (db *Database) Achievements() []*Definition {
	return db.filter(func(def *Definition) bool { return def.IsAchievement() })
}

// All returns every definition sorted by code name
func (db *Database) All() []*Definition {
	return db.filter(func(*Definition) bool { return true })
}

func (db *Database) filter(keep func(def *Definition) bool) []*Definition {
	db.mu.RLock()
	defer db.mu.RUnlock()
	result := make([]*Definition, 0, len(db.defs))
	for _, def := range db.defs {
		if keep(def) {
			result = append(result, def)
		}
	}
	slices.SortFunc(result, compareDefinitions)
	return result
}

// QuestsForNPC returns all quests an NPC can give
func (db *Database) QuestsForNPC(npcID string) []*Definition {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return slices.Clone(db.questsByNPC[npcID])
}

// QuestsForTurnIn returns all quests that can be turned in to an NPC
func (db *Database) QuestsForTurnIn(npcID string) []*Definition {
	return db.filter(func(def *Definition) bool {
		return !def.IsAchievement() && turnInNPC(def) == npcID
	})
}

// Count returns the number of definitions
func (db *Database) Count() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.defs)
}

// turnInNPC returns the NPC a quest is turned in to, defaulting to its giver
func turnInNPC(def *Definition) string {
	if def.TurnInNPC != "" {
		return def.TurnInNPC
	}
	return def.GiverNPC
}

func compareDefinitions(a, b *Definition) int {
	return strings.Compare(a.CodeName, b.CodeName)
}
