package models

import "time"

// InstanceStatus represents the lifecycle state of a workflow instance.
// Terminal statuses are reached exactly once; afterwards the instance is
// read-only.
type InstanceStatus string

const (
	InstanceStatusPending    InstanceStatus = "pending"
	InstanceStatusInProgress InstanceStatus = "in_progress"
	InstanceStatusCompleted  InstanceStatus = "completed"
	InstanceStatusRejected   InstanceStatus = "rejected"
	InstanceStatusCancelled  InstanceStatus = "cancelled"
)

// ContextKeyFailureReason holds the human-readable reason a run failure
// terminated the instance. Kept in context so the audit trail survives.
const ContextKeyFailureReason = "failure_reason"

// WorkflowInstance is one run of a workflow definition. Mutated exclusively
// by the execution engine; the version field backs the optimistic
// concurrency check on every update.
type WorkflowInstance struct {
	ID            string         `json:"id"`
	DefinitionID  string         `json:"definition_id"`
	Status        InstanceStatus `json:"status"`
	CurrentNodeID string         `json:"current_node_id,omitempty"`
	// CurrentTaskID is the task materialized for the current node entry.
	// Empty whenever the current node has not materialized a task yet, so a
	// loop revisiting a node id gets a fresh task instead of reusing the
	// resolved one from the previous visit.
	CurrentTaskID string         `json:"current_task_id,omitempty"`
	Context       map[string]any `json:"context,omitempty"`
	StartedBy     string         `json:"started_by"`
	StartedAt     time.Time      `json:"started_at"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	Version       int64          `json:"version"`
}

// IsTerminal reports whether the instance reached a final status.
func (i *WorkflowInstance) IsTerminal() bool {
	switch i.Status {
	case InstanceStatusCompleted, InstanceStatusRejected, InstanceStatusCancelled:
		return true
	default:
		return false
	}
}

// MergeContext copies the given values into the instance context,
// overwriting existing keys.
func (i *WorkflowInstance) MergeContext(values map[string]any) {
	if len(values) == 0 {
		return
	}

	if i.Context == nil {
		i.Context = make(map[string]any, len(values))
	}

	for k, v := range values {
		i.Context[k] = v
	}
}

// Fail moves the instance to the rejected status, recording the reason in
// context and stamping the completion time.
func (i *WorkflowInstance) Fail(reason string, at time.Time) {
	i.MergeContext(map[string]any{ContextKeyFailureReason: reason})
	i.Status = InstanceStatusRejected
	i.CurrentNodeID = ""
	i.CurrentTaskID = ""
	i.CompletedAt = &at
}

// Complete moves the instance to the completed status and clears the
// current node.
func (i *WorkflowInstance) Complete(at time.Time) {
	i.Status = InstanceStatusCompleted
	i.CurrentNodeID = ""
	i.CurrentTaskID = ""
	i.CompletedAt = &at
}
