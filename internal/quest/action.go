package quest

import (
	"fmt"
	"strings"
)

// TaskAction computes a task's new success count from a reported delta.
// Implementations must be pure: the result depends only on the arguments
// and always lies within [0, task.NeedSuccessToComplete()].
type TaskAction interface {
	Run(task *Task, currentSuccess, successCount int) int
	Name() string
}

// AccumulateAction adds every reported count
type AccumulateAction struct{}

func (AccumulateAction) Run(task *Task, currentSuccess, successCount int) int {
	return clampSuccess(task, currentSuccess+successCount)
}

func (AccumulateAction) Name() string { return "accumulate" }

// SetAction replaces the success count with the reported value
type SetAction struct{}

func (SetAction) Run(task *Task, currentSuccess, successCount int) int {
	return clampSuccess(task, successCount)
}

func (SetAction) Name() string { return "set" }

// MaxAction keeps the highest value ever reported
type MaxAction struct{}

func (MaxAction) Run(task *Task, currentSuccess, successCount int) int {
	return clampSuccess(task, max(currentSuccess, successCount))
}

func (MaxAction) Name() string { return "max" }

// PositiveAction counts only positive deltas
type PositiveAction struct{}

func (PositiveAction) Run(task *Task, currentSuccess, successCount int) int {
	if successCount <= 0 {
		return clampSuccess(task, currentSuccess)
	}
	return clampSuccess(task, currentSuccess+successCount)
}

func (PositiveAction) Name() string { return "positive" }

// NegativeAction counts only negative deltas, by magnitude
type NegativeAction struct{}

func (NegativeAction) Run(task *Task, currentSuccess, successCount int) int {
	if successCount >= 0 {
		return clampSuccess(task, currentSuccess)
	}
	return clampSuccess(task, currentSuccess-successCount)
}

func (NegativeAction) Name() string { return "negative" }

// ContinuousAction accumulates positive deltas and resets on anything else.
// Used for streak objectives ("win 5 fights in a row").
type ContinuousAction struct{}

func (ContinuousAction) Run(task *Task, currentSuccess, successCount int) int {
	if successCount <= 0 {
		return 0
	}
	return clampSuccess(task, currentSuccess+successCount)
}

func (ContinuousAction) Name() string { return "continuous" }

// ParseAction returns the action registered under name.
// An empty name selects AccumulateAction.
func ParseAction(name string) (TaskAction, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "accumulate", "simple":
		return AccumulateAction{}, nil
	case "set":
		return SetAction{}, nil
	case "max":
		return MaxAction{}, nil
	case "positive":
		return PositiveAction{}, nil
	case "negative":
		return NegativeAction{}, nil
	case "continuous":
		return ContinuousAction{}, nil
	default:
		return nil, fmt.Errorf("unknown task action %q", name)
	}
}

func clampSuccess(task *Task, value int) int {
	need := 1
	if task != nil {
		need = task.NeedSuccessToComplete()
	}
	return min(max(value, 0), need)
}
