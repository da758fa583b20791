package server

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/jglee22/OpenHorizons-sub001/internal/config"
	"github.com/jglee22/OpenHorizons-sub001/internal/quest"
)

// fakeClient records written lines and never produces input
type fakeClient struct {
	mu     sync.Mutex
	lines  []string
	closed bool
}

func (c *fakeClient) ReadLine() (string, error) { return "", io.EOF }

func (c *fakeClient) WriteLine(message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("client closed")
	}
	c.lines = append(c.lines, message)
	return nil
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeClient) RemoteAddr() string { return "127.0.0.1:5555" }

func (c *fakeClient) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func (c *fakeClient) HasLine(line string) bool {
	for _, l := range c.Lines() {
		if l == line {
			return true
		}
	}
	return false
}

// failingStore refuses every save
type failingStore struct{}

func (failingStore) LoadBlob(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (failingStore) SaveBlob(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func testTask(codeName, category, target string, need int) quest.TaskDefinition {
	return quest.TaskDefinition{
		CodeName:              codeName,
		Category:              quest.Category{CodeName: category},
		Targets:               []quest.Target{quest.StringTarget(target)},
		NeedSuccessToComplete: need,
	}
}

// testContent has one quest, one quest with a prerequisite and one achievement
func testContent(t *testing.T) *quest.Database {
	t.Helper()
	db := quest.NewDatabase()
	defs := []*quest.Definition{
		{
			CodeName:    "kill_3_grunts",
			DisplayName: "Grunt Trouble",
			Kind:        quest.KindQuest,
			GiverNPC:    "captain",
			TurnInNPC:   "captain",
			Savable:     true,
			Cancelable:  true,
			TaskGroups: []quest.TaskGroupDefinition{
				{Tasks: []quest.TaskDefinition{testTask("kill_grunts", quest.CategoryCombat, "Grunt", 3)}},
			},
		},
		{
			CodeName:    "herb_run",
			DisplayName: "Herb Run",
			Kind:        quest.KindQuest,
			GiverNPC:    "captain",
			Savable:     true,
			Cancelable:  true,
			TaskGroups: []quest.TaskGroupDefinition{
				{Tasks: []quest.TaskDefinition{testTask("gather_herbs", quest.CategoryCollection, "herb", 2)}},
			},
		},
		{
			CodeName:    "veteran",
			DisplayName: "Veteran",
			Kind:        quest.KindAchievement,
			Savable:     true,
			TaskGroups: []quest.TaskGroupDefinition{
				{Tasks: []quest.TaskDefinition{testTask("survive_long", quest.CategorySurvival, "time", 100)}},
			},
		},
	}
	for _, def := range defs {
		if err := db.Add(def); err != nil {
			t.Fatalf("Failed to add %s: %v", def.CodeName, err)
		}
	}
	return db
}

func testServiceConfig() *config.ServiceConfig {
	cfg := config.DefaultConfig()
	cfg.Listen.Telnet = "127.0.0.1:0"
	cfg.Listen.WebSocket = ""
	cfg.Storage.Driver = config.DriverMemory
	cfg.Session.AutoSaveInterval = 0
	return cfg
}

// taskProgress reads a task's success count under the system lock
func taskProgress(t *testing.T, sys *quest.System, questCode, taskCode string) int {
	t.Helper()
	q, ok := sys.Find(questCode)
	if !ok {
		t.Fatalf("quest %s is not held", questCode)
	}
	progress := -1
	sys.Do(func() {
		if task, found := q.FindTask(taskCode); found {
			progress = task.CurrentSuccess()
		}
	})
	if progress < 0 {
		t.Fatalf("task %s not found in %s", taskCode, questCode)
	}
	return progress
}

func containsLine(lines []string, substr string) bool {
	for _, line := range lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}
