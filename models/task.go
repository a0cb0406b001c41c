package models

// TaskState is the lifecycle state of a registered crawl task.
type TaskState string

const (
	TaskPending   TaskState = "PENDING"
	TaskActive    TaskState = "ACTIVE"
	TaskSucceeded TaskState = "SUCCEEDED"
	TaskFailed    TaskState = "FAILED"
)

// TaskStatus is a point-in-time snapshot of one crawl task. CompletedAt
// is RFC 3339 and empty until the task first reaches a terminal state.
type TaskStatus struct {
	State       TaskState `json:"state"`
	ItemCount   int       `json:"itemCount"`
	CompletedAt string    `json:"completedAt,omitempty"`
	Error       string    `json:"error,omitempty"`
}
