package domain

// Task is a to-do item. UserID is the owner; only the owner may see or change it.
type Task struct {
	ID        int64  `db:"id" json:"id"`
	Task      string `db:"task" json:"task"`
	Completed bool   `db:"completed" json:"completed"`
	UserID    int64  `db:"user_id" json:"user_id"`
}

const MaxTaskLength = 200

// Task event types pushed to the owner's live subscribers
const (
	TaskEventCreated = "todo_created"
	TaskEventUpdated = "todo_updated"
	TaskEventDeleted = "todo_deleted"
)

type TaskEvent struct {
	Type string `json:"type"`
	Todo *Task  `json:"todo,omitempty"`
	ID   int64  `json:"id"`
}
