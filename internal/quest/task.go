package quest

import (
	"fmt"
	"slices"
)

// TaskState is the lifecycle state of a task
type TaskState int

const (
	TaskInactive TaskState = iota // Not started yet
	TaskRunning                   // Accepting reports
	TaskComplete                  // Success count reached the requirement
)

var taskStateNames = map[TaskState]string{
	TaskInactive: "inactive",
	TaskRunning:  "running",
	TaskComplete: "complete",
}

func (s TaskState) String() string {
	if name, ok := taskStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("TaskState(%d)", int(s))
}

// MarshalText stores task states by name in save data
func (s TaskState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a task state name
func (s *TaskState) UnmarshalText(text []byte) error {
	for state, name := range taskStateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown task state %q", text)
}

// TaskSuccessChangedFunc observes success count changes
type TaskSuccessChangedFunc func(task *Task, currentSuccess, prevSuccess int)

// TaskStateChangedFunc observes task state transitions
type TaskStateChangedFunc func(task *Task, currentState, prevState TaskState)

// Task is a single trackable objective inside a quest instance.
// Tasks belong to exactly one Quest and are not safe for concurrent use.
type Task struct {
	def            *TaskDefinition
	owner          *Quest
	action         TaskAction
	need           int
	currentSuccess int
	state          TaskState
	initial        *int // Provider value evaluated ahead of Start

	onSuccessChanged []TaskSuccessChangedFunc
	onStateChanged   []TaskStateChangedFunc
}

// newTask builds a fresh task instance from its definition
func newTask(def *TaskDefinition, owner *Quest) *Task {
	action := def.Action
	if action == nil {
		action = AccumulateAction{}
	}
	return &Task{
		def:    def,
		owner:  owner,
		action: action,
		need:   max(def.NeedSuccessToComplete, 1),
	}
}

// CodeName returns the task's identifier within its quest
func (t *Task) CodeName() string { return t.def.CodeName }

// Description returns the task description
func (t *Task) Description() string { return t.def.Description }

// Category returns the category reports must match
func (t *Task) Category() Category { return t.def.Category }

// Targets returns a copy of the accepted targets
func (t *Task) Targets() []Target { return slices.Clone(t.def.Targets) }

// Action returns the strategy applied to reports
func (t *Task) Action() TaskAction { return t.action }

// Owner returns the quest this task belongs to
func (t *Task) Owner() *Quest { return t.owner }

// NeedSuccessToComplete returns the success count required to complete
func (t *Task) NeedSuccessToComplete() int { return t.need }

// CurrentSuccess returns the current success count
func (t *Task) CurrentSuccess() int { return t.currentSuccess }

// State returns the task state
func (t *Task) State() TaskState { return t.state }

// IsComplete returns true once the task reached its requirement
func (t *Task) IsComplete() bool { return t.state == TaskComplete }

// CanReceiveReportsDuringCompletion returns true if the task keeps reacting after completion
func (t *Task) CanReceiveReportsDuringCompletion() bool {
	return t.def.CanReceiveReportsDuringCompletion
}

// OnSuccessChanged subscribes to success count changes
func (t *Task) OnSuccessChanged(fn TaskSuccessChangedFunc) {
	t.onSuccessChanged = append(t.onSuccessChanged, fn)
}

// OnStateChanged subscribes to state transitions
func (t *Task) OnStateChanged(fn TaskStateChangedFunc) {
	t.onStateChanged = append(t.onStateChanged, fn)
}

// Start moves an inactive task to running and applies its initial success value
func (t *Task) Start() {
	if t.state != TaskInactive {
		return
	}
	t.setState(TaskRunning)
	switch {
	case t.initial != nil:
		t.setSuccess(*t.initial)
	case t.def.InitialSuccess != nil:
		t.setSuccess(t.def.InitialSuccess.InitialSuccess(t))
	}
}

// evaluateInitialSuccess asks the provider now and keeps the value for Start
func (t *Task) evaluateInitialSuccess() {
	if t.def.InitialSuccess == nil {
		return
	}
	value := t.def.InitialSuccess.InitialSuccess(t)
	t.initial = &value
}

// End clears every subscription. Called when the owning quest is finished.
func (t *Task) End() {
	t.onSuccessChanged = nil
	t.onStateChanged = nil
}

// IsTarget returns true if a report for category and target should change this task.
// The task must be started, the category must match (ignoring case), one of the
// targets must match, and a completed task only matches if it keeps receiving reports.
func (t *Task) IsTarget(category string, target Target) bool {
	if t.state == TaskInactive || target == nil {
		return false
	}
	if !t.def.Category.Matches(category) {
		return false
	}
	if t.IsComplete() && !t.def.CanReceiveReportsDuringCompletion {
		return false
	}
	for _, candidate := range t.def.Targets {
		if candidate.Matches(target) {
			return true
		}
	}
	return false
}

// ReceiveReport applies a reported success count through the task's action
func (t *Task) ReceiveReport(successCount int) {
	if t.state == TaskInactive {
		return
	}
	if t.IsComplete() && !t.def.CanReceiveReportsDuringCompletion {
		return
	}
	t.setSuccess(t.action.Run(t, t.currentSuccess, successCount))
}

// Complete forces the task to its requirement
func (t *Task) Complete() {
	t.setSuccess(t.need)
}

// setSuccess assigns a clamped success count and derives the state from it
func (t *Task) setSuccess(value int) {
	value = min(max(value, 0), t.need)
	prev := t.currentSuccess
	if value == prev {
		return
	}
	t.currentSuccess = value

	for _, fn := range t.onSuccessChanged {
		fn(t, value, prev)
	}

	if value == t.need {
		t.setState(TaskComplete)
	} else if t.state == TaskComplete {
		t.setState(TaskRunning)
	}
}

func (t *Task) setState(state TaskState) {
	prev := t.state
	if state == prev {
		return
	}
	t.state = state
	for _, fn := range t.onStateChanged {
		fn(t, state, prev)
	}
}

// restore sets saved progress without notifying subscribers
func (t *Task) restore(success int, state TaskState) {
	t.currentSuccess = min(max(success, 0), t.need)
	switch {
	case t.currentSuccess == t.need:
		t.state = TaskComplete
	case state == TaskComplete:
		// Saved as complete but below the requirement; trust the count
		t.state = TaskRunning
	default:
		t.state = state
	}
}
