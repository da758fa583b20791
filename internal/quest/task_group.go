package quest

// TaskGroupState is the lifecycle state of a task group
type TaskGroupState int

const (
	TaskGroupInactive TaskGroupState = iota
	TaskGroupRunning
	TaskGroupComplete
)

func (s TaskGroupState) String() string {
	switch s {
	case TaskGroupInactive:
		return "inactive"
	case TaskGroupRunning:
		return "running"
	case TaskGroupComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// TaskGroup is one phase of a quest. All of its tasks run at the same time
// and the group is done when every task is complete.
type TaskGroup struct {
	owner *Quest
	index int
	tasks []*Task
	state TaskGroupState
}

func newTaskGroup(def *TaskGroupDefinition, owner *Quest, index int) *TaskGroup {
	group := &TaskGroup{
		owner: owner,
		index: index,
		tasks: make([]*Task, len(def.Tasks)),
	}
	for i := range def.Tasks {
		group.tasks[i] = newTask(&def.Tasks[i], owner)
	}
	return group
}

// Index returns the group's position in its quest
func (g *TaskGroup) Index() int { return g.index }

// State returns the group state
func (g *TaskGroup) State() TaskGroupState { return g.state }

// Tasks returns the member tasks in authored order
func (g *TaskGroup) Tasks() []*Task {
	result := make([]*Task, len(g.tasks))
	copy(result, g.tasks)
	return result
}

// FindTask returns the member task with the given code name
func (g *TaskGroup) FindTask(codeName string) (*Task, bool) {
	for _, task := range g.tasks {
		if task.CodeName() == codeName {
			return task, true
		}
	}
	return nil, false
}

// Start starts the group and every member task
func (g *TaskGroup) Start() {
	if g.state != TaskGroupInactive {
		return
	}
	g.state = TaskGroupRunning
	for _, task := range g.tasks {
		task.Start()
	}
}

// ReceiveReport forwards a report to every task that targets it.
// Several tasks may react to the same report.
func (g *TaskGroup) ReceiveReport(category string, target Target, successCount int) {
	if g.state == TaskGroupInactive {
		return
	}
	for _, task := range g.tasks {
		if task.IsTarget(category, target) {
			task.ReceiveReport(successCount)
		}
	}
}

// IsAllTaskComplete returns true if every member task is complete
func (g *TaskGroup) IsAllTaskComplete() bool {
	for _, task := range g.tasks {
		if !task.IsComplete() {
			return false
		}
	}
	return true
}

// IsComplete returns true if the group was completed or all its tasks are
func (g *TaskGroup) IsComplete() bool {
	return g.state == TaskGroupComplete || g.IsAllTaskComplete()
}

// Complete force-completes any unfinished task and marks the group complete.
// Calling it again has no further effect.
func (g *TaskGroup) Complete() {
	if g.state == TaskGroupComplete {
		return
	}
	for _, task := range g.tasks {
		if !task.IsComplete() {
			task.Complete()
		}
	}
	g.state = TaskGroupComplete
}

// End tears down task subscriptions
func (g *TaskGroup) End() {
	for _, task := range g.tasks {
		task.End()
	}
}
