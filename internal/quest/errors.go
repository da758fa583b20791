package quest

import "errors"

var (
	// ErrQuestNotFound is returned when a code name is not in the database or the system
	ErrQuestNotFound = errors.New("quest not found")

	// ErrNotActive is returned when an operation needs an active quest
	ErrNotActive = errors.New("quest is not active")

	// ErrNotCancelable is returned when canceling a quest that forbids it
	ErrNotCancelable = errors.New("quest cannot be canceled")

	// ErrNotCompletable is returned when turning in a quest whose tasks are not done
	ErrNotCompletable = errors.New("quest is not ready to complete")

	// ErrNotAcceptable is returned when a quest is already held or its prerequisites are missing
	ErrNotAcceptable = errors.New("quest cannot be accepted")

	// ErrCorruptSave is returned when save data does not fit the quest it is loaded into
	ErrCorruptSave = errors.New("corrupt quest save data")

	// ErrNoDatabase is returned when a system is created without content
	ErrNoDatabase = errors.New("quest database is required")

	// ErrNilDefinition is returned when registering a nil definition
	ErrNilDefinition = errors.New("quest definition is nil")
)
