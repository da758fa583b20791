package quest

import (
	"fmt"
	"slices"

	"github.com/jglee22/OpenHorizons-sub001/internal/logger"
)

// QuestState is the lifecycle state of a quest instance
type QuestState int

const (
	QuestInactive             QuestState = iota // Built but not registered
	QuestRunning                                // Working through task groups
	QuestWaitingForCompletion                   // All groups done, waiting for turn-in
	QuestComplete                               // Finished, rewards given
	QuestCanceled                               // Abandoned, no rewards
)

var questStateNames = map[QuestState]string{
	QuestInactive:             "inactive",
	QuestRunning:              "running",
	QuestWaitingForCompletion: "waiting_for_completion",
	QuestComplete:             "complete",
	QuestCanceled:             "canceled",
}

func (s QuestState) String() string {
	if name, ok := questStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("QuestState(%d)", int(s))
}

// MarshalText stores quest states by name in save data
func (s QuestState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a quest state name
func (s *QuestState) UnmarshalText(text []byte) error {
	for state, name := range questStateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown quest state %q", text)
}

// NewTaskGroupFunc observes a quest advancing to its next task group
type NewTaskGroupFunc func(q *Quest, current, prev *TaskGroup)

// QuestTaskSuccessChangedFunc observes progress on any task of a quest
type QuestTaskSuccessChangedFunc func(q *Quest, task *Task, currentSuccess, prevSuccess int)

// Quest is a player's mutable instance of a quest Definition.
// A standalone Quest is not safe for concurrent use. For a quest owned by a
// System, OnRegister, ReceiveReport, Complete and Cancel take the System's
// lock, and rewards and quest callbacks run after it is released. Read the
// state of an owned quest through System.Do.
type Quest struct {
	def        *Definition
	system     *System
	groups     []*TaskGroup
	groupIndex int
	state      QuestState

	onCompleted          []func(q *Quest)
	onCanceled           []func(q *Quest)
	onNewTaskGroup       []NewTaskGroupFunc
	onTaskSuccessChanged []QuestTaskSuccessChangedFunc
}

// NewQuest builds an independent quest instance from a definition.
// The instance owns deep copies of every task group and task; the
// definition is never modified.
func NewQuest(def *Definition) *Quest {
	q := &Quest{
		def:    def,
		groups: make([]*TaskGroup, len(def.TaskGroups)),
	}
	for i := range def.TaskGroups {
		group := newTaskGroup(&def.TaskGroups[i], q, i)
		for _, task := range group.tasks {
			task.OnSuccessChanged(q.forwardTaskSuccess)
		}
		q.groups[i] = group
	}
	return q
}

// setup wires the owning system
func (q *Quest) setup(system *System) {
	q.system = system
}

// Definition returns the template this quest was built from
func (q *Quest) Definition() *Definition { return q.def }

// CodeName returns the quest's unique identifier
func (q *Quest) CodeName() string { return q.def.CodeName }

// DisplayName returns the quest name shown to players
func (q *Quest) DisplayName() string {
	if q.def.DisplayName != "" {
		return q.def.DisplayName
	}
	return q.def.CodeName
}

// Description returns the quest description
func (q *Quest) Description() string { return q.def.Description }

// Kind returns whether this is a quest or an achievement
func (q *Quest) Kind() Kind { return q.def.Kind }

// IsAchievement returns true for achievements
func (q *Quest) IsAchievement() bool { return q.def.IsAchievement() }

// System returns the owning system, or nil for a standalone quest
func (q *Quest) System() *System { return q.system }

// State returns the quest state
func (q *Quest) State() QuestState { return q.state }

// IsRegistered returns true once the quest has been started
func (q *Quest) IsRegistered() bool { return q.state != QuestInactive }

// IsComplete returns true if the quest finished successfully
func (q *Quest) IsComplete() bool { return q.state == QuestComplete }

// IsCanceled returns true if the quest was abandoned
func (q *Quest) IsCanceled() bool { return q.state == QuestCanceled }

// IsCompletable returns true if every task group is done and the quest is waiting for turn-in
func (q *Quest) IsCompletable() bool { return q.state == QuestWaitingForCompletion }

// IsSavable returns true if the quest is written to save data
func (q *Quest) IsSavable() bool { return q.def.Savable }

// IsCancelable returns true if the player may abandon the quest.
// Achievements are never cancelable.
func (q *Quest) IsCancelable() bool { return q.def.Cancelable && !q.IsAchievement() }

// IsAutoComplete returns true if the quest completes without a turn-in
func (q *Quest) IsAutoComplete() bool { return q.def.AutoComplete || q.IsAchievement() }

// Rewards returns a copy of the rewards given on completion
func (q *Quest) Rewards() []Reward { return slices.Clone(q.def.Rewards) }

// TaskGroups returns every task group in order
func (q *Quest) TaskGroups() []*TaskGroup {
	result := make([]*TaskGroup, len(q.groups))
	copy(result, q.groups)
	return result
}

// CurrentTaskGroupIndex returns the index of the active phase
func (q *Quest) CurrentTaskGroupIndex() int { return q.groupIndex }

// CurrentTaskGroup returns the active phase, or nil for a quest with no groups
func (q *Quest) CurrentTaskGroup() *TaskGroup {
	if len(q.groups) == 0 {
		return nil
	}
	return q.groups[q.groupIndex]
}

// FindTask returns the first task with the given code name in any group
func (q *Quest) FindTask(codeName string) (*Task, bool) {
	for _, group := range q.groups {
		if task, ok := group.FindTask(codeName); ok {
			return task, true
		}
	}
	return nil, false
}

// OnCompleted subscribes to completion. Rewards have been given when it runs.
func (q *Quest) OnCompleted(fn func(q *Quest)) {
	q.onCompleted = append(q.onCompleted, fn)
}

// OnCanceled subscribes to cancellation
func (q *Quest) OnCanceled(fn func(q *Quest)) {
	q.onCanceled = append(q.onCanceled, fn)
}

// OnNewTaskGroup subscribes to phase changes
func (q *Quest) OnNewTaskGroup(fn NewTaskGroupFunc) {
	q.onNewTaskGroup = append(q.onNewTaskGroup, fn)
}

// OnTaskSuccessChanged subscribes to progress on any task
func (q *Quest) OnTaskSuccessChanged(fn QuestTaskSuccessChangedFunc) {
	q.onTaskSuccessChanged = append(q.onTaskSuccessChanged, fn)
}

// OnRegister starts the quest and its first task group
func (q *Quest) OnRegister() {
	q.locked(q.start)
}

// locked runs fn under the owning system's lock, or directly for a standalone quest
func (q *Quest) locked(fn func()) {
	if q.system != nil {
		q.system.run(fn)
		return
	}
	fn()
}

// later runs work after the owning system releases its lock, or now for a
// standalone quest
func (q *Quest) later(work func()) {
	if q.system != nil {
		q.system.later(work)
		return
	}
	work()
}

// evaluateInitialSuccess asks every task's provider for its starting value
func (q *Quest) evaluateInitialSuccess() {
	for _, group := range q.groups {
		for _, task := range group.tasks {
			task.evaluateInitialSuccess()
		}
	}
}

func (q *Quest) start() {
	if q.state != QuestInactive {
		return
	}
	q.state = QuestRunning
	if len(q.groups) > 0 {
		q.groups[0].Start()
	}
	q.advance()
}

// ReceiveReport forwards a report to the current task group only.
// Later groups never see reports before they start.
func (q *Quest) ReceiveReport(category string, target Target, successCount int) {
	q.locked(func() { q.receiveReport(category, target, successCount) })
}

func (q *Quest) receiveReport(category string, target Target, successCount int) {
	if q.state != QuestRunning && q.state != QuestWaitingForCompletion {
		return
	}
	group := q.CurrentTaskGroup()
	if group == nil {
		return
	}
	group.ReceiveReport(category, target, successCount)

	if q.state == QuestWaitingForCompletion {
		// A task that keeps receiving reports may have dropped below its requirement
		if !group.IsAllTaskComplete() {
			group.state = TaskGroupRunning
			q.state = QuestRunning
		}
		return
	}
	q.advance()
}

// advance moves through finished groups until one is still open or the last is done
func (q *Quest) advance() {
	for q.state == QuestRunning {
		group := q.CurrentTaskGroup()
		if group != nil && !group.IsAllTaskComplete() {
			return
		}
		if group != nil {
			group.Complete()
		}
		if group == nil || q.groupIndex == len(q.groups)-1 {
			q.state = QuestWaitingForCompletion
			if q.IsAutoComplete() {
				q.complete()
			}
			return
		}

		q.groupIndex++
		next := q.groups[q.groupIndex]
		next.Start()
		for _, fn := range q.onNewTaskGroup {
			q.later(func() { fn(q, next, group) })
		}
	}
}

// Complete finishes the quest, gives every reward once and notifies the owning
// system before other subscribers. Calling it on a finished quest does nothing.
// Unfinished task groups are force-completed.
func (q *Quest) Complete() {
	q.locked(q.complete)
}

func (q *Quest) complete() {
	if q.state == QuestComplete || q.state == QuestCanceled {
		return
	}
	for i := q.groupIndex; i < len(q.groups); i++ {
		q.groups[i].Start()
		q.groups[i].Complete()
	}
	if len(q.groups) > 0 {
		q.groupIndex = len(q.groups) - 1
	}
	q.state = QuestComplete

	q.later(func() {
		for _, reward := range q.def.Rewards {
			q.giveReward(reward)
		}
	})

	if q.system != nil {
		q.system.questCompleted(q)
	}
	for _, fn := range q.onCompleted {
		q.later(func() { fn(q) })
	}
	q.end()
}

// Cancel abandons the quest without rewards
func (q *Quest) Cancel() error {
	var err error
	q.locked(func() { err = q.cancel() })
	return err
}

func (q *Quest) cancel() error {
	if q.state == QuestInactive || q.state == QuestComplete || q.state == QuestCanceled {
		return fmt.Errorf("%w: %s is %s", ErrNotActive, q.CodeName(), q.state)
	}
	if !q.IsCancelable() {
		return fmt.Errorf("%w: %s", ErrNotCancelable, q.CodeName())
	}
	q.state = QuestCanceled

	if q.system != nil {
		q.system.questCanceled(q)
	}
	for _, fn := range q.onCanceled {
		q.later(func() { fn(q) })
	}
	q.end()
	return nil
}

// giveReward dispatches a single reward. A failing reward is logged and
// skipped; the quest stays complete.
func (q *Quest) giveReward(reward Reward) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Quest reward panicked",
				"quest", q.CodeName(),
				"reward", reward.Description(),
				"panic", r)
		}
	}()

	if err := reward.Give(q); err != nil {
		logger.Warning("Failed to give quest reward",
			"quest", q.CodeName(),
			"reward", reward.Description(),
			"error", err)
		return
	}
	logger.Audit("Quest reward given",
		"quest", q.CodeName(),
		"player", q.playerID(),
		"reward", reward.Description())
}

func (q *Quest) forwardTaskSuccess(task *Task, currentSuccess, prevSuccess int) {
	for _, fn := range q.onTaskSuccessChanged {
		q.later(func() { fn(q, task, currentSuccess, prevSuccess) })
	}
}

func (q *Quest) playerID() string {
	if q.system == nil {
		return ""
	}
	return q.system.PlayerID()
}

// end clears task subscriptions once the quest is finished
func (q *Quest) end() {
	for _, group := range q.groups {
		group.End()
	}
}
