package quest

import (
	"fmt"
	"math"
	"strconv"
)

// Target is the specific subject of a task (an item, an enemy, a location).
// Reports carry a Target that is compared against each task's targets.
type Target interface {
	// Matches returns true if candidate is the same logical target.
	// A candidate of a different variant never matches.
	Matches(candidate Target) bool
	String() string
}

// StringTarget matches reports carrying the same string (item IDs, mob IDs, NPC IDs)
type StringTarget string

// Matches compares string targets exactly
func (t StringTarget) Matches(candidate Target) bool {
	other, ok := candidate.(StringTarget)
	return ok && other == t
}

func (t StringTarget) String() string {
	return string(t)
}

// IDTarget matches reports carrying the same numeric ID
type IDTarget int64

// Matches compares numeric targets exactly
func (t IDTarget) Matches(candidate Target) bool {
	other, ok := candidate.(IDTarget)
	return ok && other == t
}

func (t IDTarget) String() string {
	return strconv.FormatInt(int64(t), 10)
}

// Vector3 is a world position
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Distance returns the euclidean distance between two positions
func (v Vector3) Distance(other Vector3) float64 {
	dx, dy, dz := v.X-other.X, v.Y-other.Y, v.Z-other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// LocationTarget is a place a player must reach.
// With a positive ReachDistance, any reported location within that distance
// of Position matches. Without one, or when the report carries no position,
// the location names must match.
type LocationTarget struct {
	Name          string
	Position      Vector3
	ReachDistance float64
	NameOnly      bool // Reported without a position
}

// Matches checks a reported location against this target
func (t LocationTarget) Matches(candidate Target) bool {
	other, ok := candidate.(LocationTarget)
	if !ok {
		return false
	}
	if t.ReachDistance > 0 && !other.NameOnly {
		return t.Position.Distance(other.Position) <= t.ReachDistance
	}
	return t.Name != "" && t.Name == other.Name
}

func (t LocationTarget) String() string {
	if t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("(%.1f, %.1f, %.1f)", t.Position.X, t.Position.Y, t.Position.Z)
}

// AnyTarget matches every reported target
type AnyTarget struct{}

// Matches returns true for any non-nil candidate
func (AnyTarget) Matches(candidate Target) bool {
	return candidate != nil
}

func (AnyTarget) String() string {
	return "any"
}

// TargetOf converts a loosely typed report payload into a Target.
// Returns nil for payloads that have no target variant.
func TargetOf(v any) Target {
	switch value := v.(type) {
	case Target:
		return value
	case string:
		return StringTarget(value)
	case int:
		return IDTarget(value)
	case int32:
		return IDTarget(value)
	case int64:
		return IDTarget(value)
	case Vector3:
		return LocationTarget{Position: value}
	default:
		return nil
	}
}
