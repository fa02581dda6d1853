package models

import "time"

// TaskStatus represents the lifecycle state of a workflow task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusSkipped    TaskStatus = "skipped"
)

// TaskOutcome is the resolution a human supplies through the trigger
// interface. Approval tasks accept approved/rejected; plain tasks accept
// completed/skipped.
type TaskOutcome string

const (
	TaskOutcomeCompleted TaskOutcome = "completed"
	TaskOutcomeSkipped   TaskOutcome = "skipped"
	TaskOutcomeApproved  TaskOutcome = "approved"
	TaskOutcomeRejected  TaskOutcome = "rejected"
)

// ValidTaskOutcome reports whether o is one of the enumerated outcomes.
func ValidTaskOutcome(o TaskOutcome) bool {
	switch o {
	case TaskOutcomeCompleted, TaskOutcomeSkipped, TaskOutcomeApproved, TaskOutcomeRejected:
		return true
	default:
		return false
	}
}

// WorkflowTask is a human work item materialized when the engine enters a
// task or approval node. Terminal once completed or skipped.
type WorkflowTask struct {
	ID          string     `json:"id"`
	InstanceID  string     `json:"instance_id"`
	NodeID      string     `json:"node_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Assignee    string     `json:"assignee"`
	Status      TaskStatus `json:"status"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy  string     `json:"resolved_by,omitempty"`
	Rejected    bool       `json:"rejected,omitempty"` // Set when the owning approval was rejected
}

// IsResolved reports whether the task reached a final status.
func (t *WorkflowTask) IsResolved() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusSkipped
}

// IsOverdue reports whether the task is still open past its due date.
func (t *WorkflowTask) IsOverdue(now time.Time) bool {
	return !t.IsResolved() && t.DueAt != nil && now.After(*t.DueAt)
}
