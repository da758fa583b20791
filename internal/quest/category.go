package quest

import "strings"

// Well-known category code names used by the report helpers
const (
	CategoryCollection  = "collection"  // Items picked up or crafted
	CategoryCombat      = "combat"      // Enemies defeated
	CategoryExploration = "exploration" // Locations reached
	CategorySocial      = "social"      // NPCs talked to
	CategorySurvival    = "survival"    // Time survived
)

// Category is a coarse report kind used to route reports to tasks
type Category struct {
	CodeName    string // Unique key (e.g., "combat")
	DisplayName string // Name shown to players
}

// Matches returns true if codeName names this category.
// Routing ignores case, so "Combat" and "combat" are the same category.
func (c Category) Matches(codeName string) bool {
	return c.CodeName != "" && strings.EqualFold(c.CodeName, codeName)
}

// String returns the display name, falling back to the code name
func (c Category) String() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.CodeName
}

// DefaultCategories returns the built-in categories keyed by code name
func DefaultCategories() map[string]Category {
	return map[string]Category{
		CategoryCollection:  {CodeName: CategoryCollection, DisplayName: "Collection"},
		CategoryCombat:      {CodeName: CategoryCombat, DisplayName: "Combat"},
		CategoryExploration: {CodeName: CategoryExploration, DisplayName: "Exploration"},
		CategorySocial:      {CodeName: CategorySocial, DisplayName: "Social"},
		CategorySurvival:    {CodeName: CategorySurvival, DisplayName: "Survival"},
	}
}
