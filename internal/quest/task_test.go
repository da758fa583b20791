package quest

import "testing"

func TestCategoryMatchesIgnoresCase(t *testing.T) {
	c := Category{CodeName: "combat"}
	tests := []struct {
		input    string
		expected bool
	}{
		{"combat", true},
		{"Combat", true},
		{"COMBAT", true},
		{"collection", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := c.Matches(tt.input); got != tt.expected {
			t.Errorf("Matches(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}

	if (Category{}).Matches("") {
		t.Error("Empty category should never match")
	}
}

func TestTargetMatches(t *testing.T) {
	tests := []struct {
		name      string
		target    Target
		candidate Target
		expected  bool
	}{
		{"string equal", StringTarget("Grunt"), StringTarget("Grunt"), true},
		{"string differs", StringTarget("Grunt"), StringTarget("Orc"), false},
		{"string is case sensitive", StringTarget("Grunt"), StringTarget("grunt"), false},
		{"string vs id", StringTarget("7"), IDTarget(7), false},
		{"id equal", IDTarget(7), IDTarget(7), true},
		{"id differs", IDTarget(7), IDTarget(8), false},
		{"nil candidate", StringTarget("Grunt"), nil, false},
		{"location by name", LocationTarget{Name: "Cave"}, LocationTarget{Name: "Cave"}, true},
		{"location name differs", LocationTarget{Name: "Cave"}, LocationTarget{Name: "Lake"}, false},
		{"location within reach", LocationTarget{Position: Vector3{X: 10}, ReachDistance: 5}, LocationTarget{Position: Vector3{X: 13, Y: 4}}, true},
		{"location outside reach", LocationTarget{Position: Vector3{X: 10}, ReachDistance: 5}, LocationTarget{Position: Vector3{X: 16}}, false},
		{"location vs string", LocationTarget{Name: "Cave"}, StringTarget("Cave"), false},
		{"name-only report skips reach", LocationTarget{ReachDistance: 5}, LocationTarget{Name: "Lake", NameOnly: true}, false},
		{"name-only report matches name", LocationTarget{Name: "Cave", ReachDistance: 5}, LocationTarget{Name: "Cave", NameOnly: true}, true},
		{"any matches string", AnyTarget{}, StringTarget("x"), true},
		{"any rejects nil", AnyTarget{}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.target.Matches(tt.candidate); got != tt.expected {
				t.Errorf("%v.Matches(%v) = %v, want %v", tt.target, tt.candidate, got, tt.expected)
			}
		})
	}
}

func TestTargetOf(t *testing.T) {
	if got := TargetOf("Grunt"); got != StringTarget("Grunt") {
		t.Errorf("TargetOf(string) = %#v", got)
	}
	if got := TargetOf(42); got != IDTarget(42) {
		t.Errorf("TargetOf(int) = %#v", got)
	}
	if got := TargetOf(Vector3{X: 1}); got != (LocationTarget{Position: Vector3{X: 1}}) {
		t.Errorf("TargetOf(Vector3) = %#v", got)
	}
	if got := TargetOf(3.5); got != nil {
		t.Errorf("TargetOf(float64) = %#v, want nil", got)
	}
}

func TestActions(t *testing.T) {
	task := newTask(&TaskDefinition{CodeName: "t", NeedSuccessToComplete: 5}, nil)

	tests := []struct {
		action   TaskAction
		current  int
		reported int
		expected int
	}{
		{AccumulateAction{}, 1, 2, 3},
		{AccumulateAction{}, 4, 3, 5},  // Clamped to need
		{AccumulateAction{}, 1, -4, 0}, // Clamped to zero
		{SetAction{}, 4, 2, 2},
		{SetAction{}, 0, 9, 5},
		{MaxAction{}, 3, 2, 3},
		{MaxAction{}, 3, 4, 4},
		{PositiveAction{}, 2, -1, 2},
		{PositiveAction{}, 2, 2, 4},
		{NegativeAction{}, 2, 1, 2},
		{NegativeAction{}, 2, -2, 4},
		{ContinuousAction{}, 3, 1, 4},
		{ContinuousAction{}, 3, 0, 0},
		{ContinuousAction{}, 3, -1, 0},
	}

	for _, tt := range tests {
		if got := tt.action.Run(task, tt.current, tt.reported); got != tt.expected {
			t.Errorf("%s.Run(current=%d, reported=%d) = %d, want %d",
				tt.action.Name(), tt.current, tt.reported, got, tt.expected)
		}
	}
}

func TestParseAction(t *testing.T) {
	for _, name := range []string{"", "accumulate", "Accumulate", "simple"} {
		action, err := ParseAction(name)
		if err != nil {
			t.Fatalf("ParseAction(%q) returned error: %v", name, err)
		}
		if action.Name() != "accumulate" {
			t.Errorf("ParseAction(%q) = %s, want accumulate", name, action.Name())
		}
	}
	for _, name := range []string{"set", "max", "positive", "negative", "continuous"} {
		action, err := ParseAction(name)
		if err != nil {
			t.Fatalf("ParseAction(%q) returned error: %v", name, err)
		}
		if action.Name() != name {
			t.Errorf("ParseAction(%q) = %s", name, action.Name())
		}
	}
	if _, err := ParseAction("double"); err == nil {
		t.Error("ParseAction should reject unknown actions")
	}
}

func TestTaskInactiveIgnoresReports(t *testing.T) {
	def := combatTask("kill_grunts", "Grunt", 3)
	task := newTask(&def, nil)

	if task.IsTarget(CategoryCombat, StringTarget("Grunt")) {
		t.Error("Inactive task should not be a report target")
	}
	task.ReceiveReport(1)
	if task.CurrentSuccess() != 0 {
		t.Errorf("Inactive task progressed to %d", task.CurrentSuccess())
	}

	task.Start()
	if task.State() != TaskRunning {
		t.Fatalf("State after Start = %s, want running", task.State())
	}
	if !task.IsTarget("Combat", StringTarget("Grunt")) {
		t.Error("Running task should match category regardless of case")
	}
}

func TestTaskIsTargetGating(t *testing.T) {
	def := combatTask("kill_grunts", "Grunt", 1)
	task := newTask(&def, nil)
	task.Start()

	if task.IsTarget(CategoryCollection, StringTarget("Grunt")) {
		t.Error("Wrong category should not match")
	}
	if task.IsTarget(CategoryCombat, StringTarget("Orc")) {
		t.Error("Wrong target should not match")
	}
	if task.IsTarget(CategoryCombat, nil) {
		t.Error("Nil target should not match")
	}

	task.ReceiveReport(1)
	if !task.IsComplete() {
		t.Fatal("Task should be complete")
	}
	if task.IsTarget(CategoryCombat, StringTarget("Grunt")) {
		t.Error("Complete task should not match without receive-during-completion")
	}

	def.CanReceiveReportsDuringCompletion = true
	keep := newTask(&def, nil)
	keep.Start()
	keep.ReceiveReport(1)
	if !keep.IsTarget(CategoryCombat, StringTarget("Grunt")) {
		t.Error("Complete task that keeps receiving reports should still match")
	}
}

func TestTaskCompletionIffMaxProgress(t *testing.T) {
	def := collectTask("gather_herbs", "herb", 4)
	def.CanReceiveReportsDuringCompletion = true
	task := newTask(&def, nil)
	task.Start()

	for _, count := range []int{1, 2, 5, -3, 2, -10, 4} {
		task.ReceiveReport(count)
		if task.CurrentSuccess() < 0 || task.CurrentSuccess() > task.NeedSuccessToComplete() {
			t.Fatalf("CurrentSuccess %d out of range", task.CurrentSuccess())
		}
		if task.IsComplete() != (task.CurrentSuccess() == task.NeedSuccessToComplete()) {
			t.Fatalf("After report %d: IsComplete=%v with success %d/%d",
				count, task.IsComplete(), task.CurrentSuccess(), task.NeedSuccessToComplete())
		}
	}
}

func TestTaskAccumulateIsMonotonic(t *testing.T) {
	def := combatTask("kill_grunts", "Grunt", 10)
	task := newTask(&def, nil)
	task.Start()

	prev := 0
	for _, count := range []int{0, 1, 3, 0, 2, 7} {
		task.ReceiveReport(count)
		if task.CurrentSuccess() < prev {
			t.Fatalf("Success decreased from %d to %d", prev, task.CurrentSuccess())
		}
		prev = task.CurrentSuccess()
	}
	if prev != 10 {
		t.Errorf("Final success = %d, want 10", prev)
	}
}

func TestTaskEvents(t *testing.T) {
	def := combatTask("kill_grunts", "Grunt", 2)
	task := newTask(&def, nil)

	var successChanges [][2]int
	var stateChanges [][2]TaskState
	task.OnSuccessChanged(func(_ *Task, cur, prev int) {
		successChanges = append(successChanges, [2]int{cur, prev})
	})
	task.OnStateChanged(func(_ *Task, cur, prev TaskState) {
		stateChanges = append(stateChanges, [2]TaskState{cur, prev})
	})

	task.Start()
	task.ReceiveReport(1)
	task.ReceiveReport(1)
	task.ReceiveReport(1) // Ignored once complete

	if len(successChanges) != 2 || successChanges[1] != [2]int{2, 1} {
		t.Errorf("Success changes = %v", successChanges)
	}
	want := [][2]TaskState{{TaskRunning, TaskInactive}, {TaskComplete, TaskRunning}}
	if len(stateChanges) != len(want) {
		t.Fatalf("State changes = %v, want %v", stateChanges, want)
	}
	for i := range want {
		if stateChanges[i] != want[i] {
			t.Errorf("State change %d = %v, want %v", i, stateChanges[i], want[i])
		}
	}

	task.End()
	task.Complete()
	if len(successChanges) != 2 {
		t.Error("End should clear subscriptions")
	}
}

func TestTaskInitialSuccess(t *testing.T) {
	def := collectTask("gather_herbs", "herb", 5)
	def.InitialSuccess = ConstantInitialSuccess(3)
	task := newTask(&def, nil)
	task.Start()
	if task.CurrentSuccess() != 3 {
		t.Errorf("Initial success = %d, want 3", task.CurrentSuccess())
	}

	def.InitialSuccess = InitialSuccessFunc(func(*Task) int { return 99 })
	full := newTask(&def, nil)
	full.Start()
	if !full.IsComplete() {
		t.Error("Initial success at or above need should complete the task")
	}
}

func TestTaskNeedAtLeastOne(t *testing.T) {
	def := combatTask("kill_any", "Grunt", 0)
	task := newTask(&def, nil)
	if task.NeedSuccessToComplete() != 1 {
		t.Errorf("Need = %d, want 1", task.NeedSuccessToComplete())
	}
}

func TestTaskGroupRoutesToEveryMatchingTask(t *testing.T) {
	def := &TaskGroupDefinition{Tasks: []TaskDefinition{
		combatTask("kill_grunts", "Grunt", 2),
		{
			CodeName:              "kill_anything",
			Category:              Category{CodeName: CategoryCombat},
			Targets:               []Target{AnyTarget{}},
			NeedSuccessToComplete: 5,
		},
		collectTask("gather_herbs", "herb", 1),
	}}
	group := newTaskGroup(def, nil, 0)

	group.ReceiveReport(CategoryCombat, StringTarget("Grunt"), 1)
	if group.Tasks()[0].CurrentSuccess() != 0 {
		t.Error("Inactive group should ignore reports")
	}

	group.Start()
	group.ReceiveReport(CategoryCombat, StringTarget("Grunt"), 1)
	tasks := group.Tasks()
	if tasks[0].CurrentSuccess() != 1 || tasks[1].CurrentSuccess() != 1 {
		t.Errorf("Both combat tasks should progress: %d, %d", tasks[0].CurrentSuccess(), tasks[1].CurrentSuccess())
	}
	if tasks[2].CurrentSuccess() != 0 {
		t.Error("Collection task should not progress on a combat report")
	}
}

func TestTaskGroupCompletion(t *testing.T) {
	def := &TaskGroupDefinition{Tasks: []TaskDefinition{
		combatTask("kill_grunts", "Grunt", 1),
		collectTask("gather_herbs", "herb", 1),
	}}
	group := newTaskGroup(def, nil, 0)
	group.Start()

	group.ReceiveReport(CategoryCombat, StringTarget("Grunt"), 1)
	if group.IsAllTaskComplete() {
		t.Error("Group should not be complete with one task open")
	}
	group.ReceiveReport(CategoryCollection, StringTarget("herb"), 1)
	if !group.IsAllTaskComplete() {
		t.Error("Group should be complete once the last task completes")
	}
}

func TestTaskGroupCompleteIsIdempotent(t *testing.T) {
	def := &TaskGroupDefinition{Tasks: []TaskDefinition{
		combatTask("kill_grunts", "Grunt", 3),
		collectTask("gather_herbs", "herb", 2),
	}}
	group := newTaskGroup(def, nil, 0)
	group.Start()

	changes := 0
	for _, task := range group.Tasks() {
		task.OnSuccessChanged(func(*Task, int, int) { changes++ })
	}

	group.Complete()
	afterFirst := changes
	group.Complete()

	if changes != afterFirst {
		t.Errorf("Second Complete fired %d more changes", changes-afterFirst)
	}
	if group.State() != TaskGroupComplete || !group.IsComplete() || !group.IsAllTaskComplete() {
		t.Error("Group should be complete after Complete")
	}
	for _, task := range group.Tasks() {
		if task.CurrentSuccess() != task.NeedSuccessToComplete() {
			t.Errorf("Task %s at %d, want %d", task.CodeName(), task.CurrentSuccess(), task.NeedSuccessToComplete())
		}
	}
}

func TestInstanceAccessorsCopyTemplate(t *testing.T) {
	def := killGruntsDef()
	def.Rewards = []Reward{&countingReward{}}
	q := NewQuest(def)

	task, _ := q.FindTask("kill_grunts")
	targets := task.Targets()
	targets[0] = StringTarget("Orc")
	rewards := q.Rewards()
	rewards[0] = nil

	if got := def.TaskGroups[0].Tasks[0].Targets[0]; got != StringTarget("Grunt") {
		t.Errorf("template target = %v, want Grunt", got)
	}
	if got := task.Targets()[0]; got != StringTarget("Grunt") {
		t.Errorf("Targets()[0] = %v, want Grunt", got)
	}
	if def.Rewards[0] == nil {
		t.Error("template reward was replaced through Rewards()")
	}
}
