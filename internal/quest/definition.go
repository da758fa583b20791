package quest

// Kind separates ordinary quests from achievements
type Kind string

const (
	KindQuest       Kind = "quest"
	KindAchievement Kind = "achievement"
)

// InitialSuccess provides a task's starting success count when it starts
// (e.g., items the player already holds for a collection task). For quests
// registered through a System it is evaluated once per task at registration,
// before the System's lock is taken, so a provider may query the System.
type InitialSuccess interface {
	InitialSuccess(task *Task) int
}

// ConstantInitialSuccess starts a task at a fixed value
type ConstantInitialSuccess int

func (c ConstantInitialSuccess) InitialSuccess(task *Task) int {
	return int(c)
}

// InitialSuccessFunc adapts a function to InitialSuccess
type InitialSuccessFunc func(task *Task) int

func (f InitialSuccessFunc) InitialSuccess(task *Task) int {
	return f(task)
}

// TaskDefinition is the authored, read-only form of a task
type TaskDefinition struct {
	CodeName                          string
	Description                       string
	Category                          Category
	Targets                           []Target
	Action                            TaskAction     // nil means AccumulateAction
	NeedSuccessToComplete             int            // Values below 1 are treated as 1
	CanReceiveReportsDuringCompletion bool           // Keep reacting to reports once complete
	InitialSuccess                    InitialSuccess // Optional
}

// TaskGroupDefinition is one phase of a quest
type TaskGroupDefinition struct {
	Tasks []TaskDefinition
}

// Definition is a quest template loaded from content.
// Definitions are shared and never mutated at runtime; players get
// independent instances through NewQuest. Instance accessors such as
// Task.Targets and Quest.Rewards return copies of the template slices.
type Definition struct {
	CodeName     string
	DisplayName  string
	Description  string
	Kind         Kind
	GiverNPC     string   // NPC ID who offers this quest
	TurnInNPC    string   // NPC ID to turn in (often same as giver)
	Prereqs      []string // Quest code names that must be completed first
	Savable      bool
	Cancelable   bool
	AutoComplete bool // Complete without a turn-in once every group is done
	Rewards      []Reward
	TaskGroups   []TaskGroupDefinition
}

// IsAchievement returns true if this definition is tracked as an achievement
func (d *Definition) IsAchievement() bool {
	return d.Kind == KindAchievement
}

// HasPrereqs returns true if the quest requires other quests first
func (d *Definition) HasPrereqs() bool {
	return len(d.Prereqs) > 0
}

// TaskCount returns the number of tasks across all groups
func (d *Definition) TaskCount() int {
	count := 0
	for _, group := range d.TaskGroups {
		count += len(group.Tasks)
	}
	return count
}
