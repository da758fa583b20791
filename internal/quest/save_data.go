package quest

import "fmt"

// TaskSaveData is the saved progress of one task
type TaskSaveData struct {
	Group          int       `json:"group"`
	CodeName       string    `json:"code_name"`
	CurrentSuccess int       `json:"current_success"`
	State          TaskState `json:"state"`
}

// SaveData is the saved progress of one quest instance
type SaveData struct {
	CodeName          string         `json:"code_name"`
	State             QuestState     `json:"state"`
	CurrentGroupIndex int            `json:"current_group_index"`
	TaskProgress      []TaskSaveData `json:"task_progress"`
}

// ToSaveData captures everything needed to rebuild this quest's progress
func (q *Quest) ToSaveData() SaveData {
	data := SaveData{
		CodeName:          q.CodeName(),
		State:             q.state,
		CurrentGroupIndex: q.groupIndex,
		TaskProgress:      make([]TaskSaveData, 0, q.def.TaskCount()),
	}
	for _, group := range q.groups {
		for _, task := range group.tasks {
			data.TaskProgress = append(data.TaskProgress, TaskSaveData{
				Group:          group.index,
				CodeName:       task.CodeName(),
				CurrentSuccess: task.currentSuccess,
				State:          task.state,
			})
		}
	}
	return data
}

// LoadFrom restores progress written by ToSaveData. Restoration is silent:
// no success, state or completion callbacks fire. Tasks missing from the
// data keep their current progress; records for unknown tasks are ignored.
func (q *Quest) LoadFrom(data SaveData) error {
	if data.CodeName != q.CodeName() {
		return fmt.Errorf("%w: save for %q loaded into %q", ErrCorruptSave, data.CodeName, q.CodeName())
	}
	if data.CurrentGroupIndex < 0 || (len(q.groups) > 0 && data.CurrentGroupIndex >= len(q.groups)) {
		return fmt.Errorf("%w: %s has no task group %d", ErrCorruptSave, q.CodeName(), data.CurrentGroupIndex)
	}

	q.groupIndex = data.CurrentGroupIndex
	q.state = data.State
	if q.state == QuestInactive {
		q.state = QuestRunning
	}

	for i, group := range q.groups {
		switch {
		case i < q.groupIndex:
			group.state = TaskGroupComplete
		case i == q.groupIndex:
			group.state = TaskGroupRunning
		default:
			group.state = TaskGroupInactive
		}
	}

	for _, record := range data.TaskProgress {
		if record.Group < 0 || record.Group >= len(q.groups) {
			continue
		}
		task, ok := q.groups[record.Group].FindTask(record.CodeName)
		if !ok {
			continue
		}
		task.restore(record.CurrentSuccess, record.State)
	}

	if current := q.CurrentTaskGroup(); current != nil {
		if q.state == QuestComplete || q.state == QuestWaitingForCompletion {
			current.state = TaskGroupComplete
		}
	}
	return nil
}
