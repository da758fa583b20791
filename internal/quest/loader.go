package quest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jglee22/OpenHorizons-sub001/internal/logger"
	"gopkg.in/yaml.v3"
)

// CategoryYAML for YAML parsing
type CategoryYAML struct {
	DisplayName string `yaml:"display_name"`
}

// TargetYAML for YAML parsing. A plain scalar is shorthand for a string target.
type TargetYAML struct {
	Type          string  `yaml:"type"` // string, id, location, any
	Value         string  `yaml:"value"`
	ID            int64   `yaml:"id"`
	Name          string  `yaml:"name"`
	Position      Vector3 `yaml:"position"`
	ReachDistance float64 `yaml:"reach_distance"`
}

// UnmarshalYAML accepts either a mapping or a bare string
func (t *TargetYAML) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		t.Type = "string"
		t.Value = node.Value
		return nil
	}
	type plain TargetYAML
	return node.Decode((*plain)(t))
}

// InitialSuccessYAML for YAML parsing. Exactly one of Value or Provider is set.
type InitialSuccessYAML struct {
	Value    *int   `yaml:"value"`
	Provider string `yaml:"provider"`
}

// TaskYAML for YAML parsing
type TaskYAML struct {
	CodeName                       string              `yaml:"code_name"`
	Description                    string              `yaml:"description"`
	Category                       string              `yaml:"category"`
	Targets                        []TargetYAML        `yaml:"targets"`
	Action                         string              `yaml:"action"` // accumulate (default), set, max, positive, negative, continuous
	NeedSuccess                    int                 `yaml:"need_success"`
	ReceiveReportsDuringCompletion bool                `yaml:"receive_reports_during_completion"`
	InitialSuccess                 *InitialSuccessYAML `yaml:"initial_success"`
}

// TaskGroupYAML for YAML parsing
type TaskGroupYAML struct {
	Tasks []TaskYAML `yaml:"tasks"`
}

// RewardYAML for YAML parsing
type RewardYAML struct {
	Type   string `yaml:"type"`
	ID     string `yaml:"id"`
	Amount int    `yaml:"amount"`
}

// QuestYAML for YAML parsing
type QuestYAML struct {
	DisplayName  string          `yaml:"display_name"`
	Description  string          `yaml:"description"`
	GiverNPC     string          `yaml:"giver_npc"`
	TurnInNPC    string          `yaml:"turn_in_npc"`
	Savable      *bool           `yaml:"savable"`    // Default true
	Cancelable   *bool           `yaml:"cancelable"` // Default true
	AutoComplete bool            `yaml:"auto_complete"`
	Prereqs      []string        `yaml:"prereqs"`
	Rewards      []RewardYAML    `yaml:"rewards"`
	TaskGroups   []TaskGroupYAML `yaml:"task_groups"`
}

// ContentConfig represents the structure of a quest content file
type ContentConfig struct {
	Categories   map[string]CategoryYAML `yaml:"categories"`
	Quests       map[string]QuestYAML    `yaml:"quests"`
	Achievements map[string]QuestYAML    `yaml:"achievements"`
}

// LoaderOptions supplies the pieces of content that live outside this package
type LoaderOptions struct {
	// Rewards builds rewards; content with rewards fails to load without it
	Rewards RewardFactory

	// InitialSuccess maps provider names used by initial_success to providers
	InitialSuccess map[string]InitialSuccess
}

// LoadContentFromYAML loads quest content from a YAML file
func LoadContentFromYAML(filename string) (*ContentConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read quest content file: %w", err)
	}

	var config ContentConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse quest content YAML: %w", err)
	}
	config.ensureMaps()
	return &config, nil
}

func (config *ContentConfig) ensureMaps() {
	if config.Categories == nil {
		config.Categories = make(map[string]CategoryYAML)
	}
	if config.Quests == nil {
		config.Quests = make(map[string]QuestYAML)
	}
	if config.Achievements == nil {
		config.Achievements = make(map[string]QuestYAML)
	}
}

// Merge combines another ContentConfig into this one. Later entries win.
func (config *ContentConfig) Merge(other *ContentConfig) {
	if other == nil {
		return
	}
	config.ensureMaps()
	for id, c := range other.Categories {
		config.Categories[id] = c
	}
	for id, def := range other.Quests {
		config.Quests[id] = def
	}
	for id, def := range other.Achievements {
		config.Achievements[id] = def
	}
}

// LoadContentFromDirectory loads and merges all YAML files from a directory
func LoadContentFromDirectory(dir string) (*ContentConfig, error) {
	merged := &ContentConfig{}
	merged.ensureMaps()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	fileCount := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		filePath := filepath.Join(dir, name)
		config, err := LoadContentFromYAML(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", filePath, err)
		}
		merged.Merge(config)
		fileCount++
		logger.Info("Loaded quest file", "path", filePath, "quests", len(config.Quests), "achievements", len(config.Achievements))
	}

	logger.Info("Loaded quests from directory",
		"dir", dir,
		"files", fileCount,
		"total_quests", len(merged.Quests),
		"total_achievements", len(merged.Achievements))
	return merged, nil
}

// LoadDatabase loads a database from a YAML file or a directory of YAML files
func LoadDatabase(path string, opts LoaderOptions) (*Database, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat quest content %s: %w", path, err)
	}

	var config *ContentConfig
	if info.IsDir() {
		config, err = LoadContentFromDirectory(path)
	} else {
		config, err = LoadContentFromYAML(path)
	}
	if err != nil {
		return nil, err
	}
	return config.Build(opts)
}

// Build validates the content and converts it into a Database.
// Every problem found is reported in the returned error.
func (config *ContentConfig) Build(opts LoaderOptions) (*Database, error) {
	db := NewDatabase()
	for id, c := range config.Categories {
		db.AddCategory(Category{CodeName: id, DisplayName: c.DisplayName})
	}

	var errs []error
	build := func(id string, def QuestYAML, kind Kind) {
		quest, err := buildDefinition(db, id, def, kind, opts)
		if err != nil {
			errs = append(errs, err)
			return
		}
		if err := db.Add(quest); err != nil {
			errs = append(errs, err)
		}
	}
	for id, def := range config.Quests {
		build(id, def, KindQuest)
	}
	for id, def := range config.Achievements {
		build(id, def, KindAchievement)
	}

	// Prerequisites can only be checked once everything is loaded
	for _, def := range db.All() {
		for _, prereq := range def.Prereqs {
			if _, ok := db.FindQuestBy(prereq); !ok {
				errs = append(errs, fmt.Errorf("quest %s: unknown prerequisite %q", def.CodeName, prereq))
			}
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return db, nil
}

func buildDefinition(db *Database, id string, y QuestYAML, kind Kind, opts LoaderOptions) (*Definition, error) {
	def := &Definition{
		CodeName:     id,
		DisplayName:  y.DisplayName,
		Description:  y.Description,
		Kind:         kind,
		GiverNPC:     y.GiverNPC,
		TurnInNPC:    y.TurnInNPC,
		Prereqs:      y.Prereqs,
		Savable:      y.Savable == nil || *y.Savable,
		Cancelable:   y.Cancelable == nil || *y.Cancelable,
		AutoComplete: y.AutoComplete,
	}
	if def.Prereqs == nil {
		def.Prereqs = []string{}
	}

	if len(y.TaskGroups) == 0 {
		return nil, fmt.Errorf("%s %s: no task groups", kind, id)
	}
	for i, groupYAML := range y.TaskGroups {
		if len(groupYAML.Tasks) == 0 {
			return nil, fmt.Errorf("%s %s: task group %d has no tasks", kind, id, i)
		}
		group := TaskGroupDefinition{Tasks: make([]TaskDefinition, 0, len(groupYAML.Tasks))}
		seen := make(map[string]bool, len(groupYAML.Tasks))
		for _, taskYAML := range groupYAML.Tasks {
			if seen[taskYAML.CodeName] {
				return nil, fmt.Errorf("%s %s: duplicate task %q in group %d", kind, id, taskYAML.CodeName, i)
			}
			seen[taskYAML.CodeName] = true

			task, err := buildTask(db, taskYAML, opts)
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", kind, id, err)
			}
			group.Tasks = append(group.Tasks, task)
		}
		def.TaskGroups = append(def.TaskGroups, group)
	}

	for _, rewardYAML := range y.Rewards {
		if opts.Rewards == nil {
			return nil, fmt.Errorf("%s %s: rewards defined but no reward factory configured", kind, id)
		}
		reward, err := opts.Rewards(RewardDefinition{Type: rewardYAML.Type, ID: rewardYAML.ID, Amount: rewardYAML.Amount})
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", kind, id, err)
		}
		def.Rewards = append(def.Rewards, reward)
	}

	return def, nil
}

func buildTask(db *Database, y TaskYAML, opts LoaderOptions) (TaskDefinition, error) {
	if y.CodeName == "" {
		return TaskDefinition{}, fmt.Errorf("task without code_name")
	}
	if y.NeedSuccess < 1 {
		return TaskDefinition{}, fmt.Errorf("task %s: need_success must be at least 1, got %d", y.CodeName, y.NeedSuccess)
	}

	category, ok := db.Category(y.Category)
	if !ok {
		return TaskDefinition{}, fmt.Errorf("task %s: unknown category %q", y.CodeName, y.Category)
	}

	action, err := ParseAction(y.Action)
	if err != nil {
		return TaskDefinition{}, fmt.Errorf("task %s: %w", y.CodeName, err)
	}

	if len(y.Targets) == 0 {
		return TaskDefinition{}, fmt.Errorf("task %s: no targets", y.CodeName)
	}
	targets := make([]Target, 0, len(y.Targets))
	for _, targetYAML := range y.Targets {
		target, err := buildTarget(targetYAML)
		if err != nil {
			return TaskDefinition{}, fmt.Errorf("task %s: %w", y.CodeName, err)
		}
		targets = append(targets, target)
	}

	task := TaskDefinition{
		CodeName:                          y.CodeName,
		Description:                       y.Description,
		Category:                          category,
		Targets:                           targets,
		Action:                            action,
		NeedSuccessToComplete:             y.NeedSuccess,
		CanReceiveReportsDuringCompletion: y.ReceiveReportsDuringCompletion,
	}

	if y.InitialSuccess != nil {
		switch {
		case y.InitialSuccess.Provider != "":
			provider, ok := opts.InitialSuccess[y.InitialSuccess.Provider]
			if !ok {
				return TaskDefinition{}, fmt.Errorf("task %s: unknown initial success provider %q", y.CodeName, y.InitialSuccess.Provider)
			}
			task.InitialSuccess = provider
		case y.InitialSuccess.Value != nil:
			task.InitialSuccess = ConstantInitialSuccess(*y.InitialSuccess.Value)
		}
	}

	return task, nil
}

func buildTarget(y TargetYAML) (Target, error) {
	switch strings.ToLower(y.Type) {
	case "", "string":
		if y.Value == "" {
			return nil, fmt.Errorf("string target without value")
		}
		return StringTarget(y.Value), nil
	case "id":
		return IDTarget(y.ID), nil
	case "location":
		if y.Name == "" && y.ReachDistance <= 0 {
			return nil, fmt.Errorf("location target needs a name or a reach_distance")
		}
		return LocationTarget{Name: y.Name, Position: y.Position, ReachDistance: y.ReachDistance}, nil
	case "any":
		return AnyTarget{}, nil
	default:
		return nil, fmt.Errorf("unknown target type %q", y.Type)
	}
}
