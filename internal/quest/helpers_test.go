package quest

import (
	"errors"
	"testing"
	"time"
)

func combatTask(codeName, target string, need int) TaskDefinition {
	return TaskDefinition{
		CodeName:              codeName,
		Category:              Category{CodeName: CategoryCombat, DisplayName: "Combat"},
		Targets:               []Target{StringTarget(target)},
		NeedSuccessToComplete: need,
	}
}

func collectTask(codeName, item string, need int) TaskDefinition {
	return TaskDefinition{
		CodeName:              codeName,
		Category:              Category{CodeName: CategoryCollection, DisplayName: "Collection"},
		Targets:               []Target{StringTarget(item)},
		NeedSuccessToComplete: need,
	}
}

func questDef(codeName string, groups ...[]TaskDefinition) *Definition {
	def := &Definition{
		CodeName:   codeName,
		Kind:       KindQuest,
		Savable:    true,
		Cancelable: true,
	}
	for _, tasks := range groups {
		def.TaskGroups = append(def.TaskGroups, TaskGroupDefinition{Tasks: tasks})
	}
	return def
}

func achievementDef(codeName string, tasks ...TaskDefinition) *Definition {
	def := questDef(codeName, tasks)
	def.Kind = KindAchievement
	return def
}

// killGruntsDef is the canonical single-task quest: kill 3 grunts
func killGruntsDef() *Definition {
	return questDef("kill_3_grunts", []TaskDefinition{combatTask("kill_grunts", "Grunt", 3)})
}

func newTestSystem(t *testing.T, defs ...*Definition) *System {
	t.Helper()
	db := NewDatabase()
	for _, def := range defs {
		if err := db.Add(def); err != nil {
			t.Fatalf("Failed to add %s: %v", def.CodeName, err)
		}
	}
	sys, err := NewSystem("player1", db, NewMemoryStore())
	if err != nil {
		t.Fatalf("NewSystem returned error: %v", err)
	}
	return sys
}

func mustRegister(t *testing.T, sys *System, def *Definition) *Quest {
	t.Helper()
	q, err := sys.Register(def)
	if err != nil {
		t.Fatalf("Register(%s) returned error: %v", def.CodeName, err)
	}
	return q
}

// countingReward records how often it was given
type countingReward struct {
	given  int
	err    error
	panics bool
}

func (r *countingReward) Give(q *Quest) error {
	r.given++
	if r.panics {
		panic("reward exploded")
	}
	return r.err
}

func (r *countingReward) Description() string { return "counting reward" }

var errInventoryMissing = errors.New("inventory not found")

// eventRecorder collects every event a system publishes
type eventRecorder struct {
	events []Event
}

func (r *eventRecorder) record(e Event) {
	r.events = append(r.events, e)
}

func (r *eventRecorder) count(typ EventType) int {
	n := 0
	for _, e := range r.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func (r *eventRecorder) types() []EventType {
	result := make([]EventType, len(r.events))
	for i, e := range r.events {
		result[i] = e.Type
	}
	return result
}

// unlockReward registers a follow-up quest for the player
type unlockReward struct {
	next *Definition
}

func (r unlockReward) Give(q *Quest) error {
	_, err := q.System().Register(r.next)
	return err
}

func (r unlockReward) Description() string { return "unlock " + r.next.CodeName }

// returnsWithin fails the test if fn does not return in time
func returnsWithin(t *testing.T, name string, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("%s did not return within 2s", name)
	}
}
