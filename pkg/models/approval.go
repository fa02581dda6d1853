package models

import "time"

// ApprovalStatus represents the lifecycle state of an approval.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// WorkflowApproval is the decision record created alongside the task of an
// approval node. Its decision is the only input that lets the engine move
// past that node.
type WorkflowApproval struct {
	ID         string         `json:"id"`
	InstanceID string         `json:"instance_id"`
	TaskID     string         `json:"task_id"`
	NodeID     string         `json:"node_id"`
	Title      string         `json:"title"`
	Approver   string         `json:"approver"`
	Status     ApprovalStatus `json:"status"`
	Comments   string         `json:"comments,omitempty"`
	DecidedAt  *time.Time     `json:"decided_at,omitempty"`
	DecidedBy  string         `json:"decided_by,omitempty"`
}

// IsDecided reports whether the approval has been approved or rejected.
func (a *WorkflowApproval) IsDecided() bool {
	return a.Status != ApprovalStatusPending
}
