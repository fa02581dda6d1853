// Package events defines the state-change events the instance store emits.
// Realtime delivery to dashboards is a subscriber concern; the engine only
// publishes.
package events

import (
	"time"

	"github.com/cascadehq/cascade/pkg/models"
)

type EventType string

// Topic is the bus topic all store events are published on.
const Topic = "cascade.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Instance lifecycle events.
	InstanceStartedEvent   EventType = "instance.started"
	InstanceAdvancedEvent  EventType = "instance.advanced"
	InstanceCompletedEvent EventType = "instance.completed"
	InstanceRejectedEvent  EventType = "instance.rejected"
	InstanceCancelledEvent EventType = "instance.cancelled"

	// Task and approval events.
	TaskCreatedEvent     EventType = "task.created"
	TaskResolvedEvent    EventType = "task.resolved"
	TaskOverdueEvent     EventType = "task.overdue"
	ApprovalDecidedEvent EventType = "approval.decided"
)

type BaseEvent struct {
	ID           string         `json:"id"`
	Type         EventType      `json:"type"`
	Timestamp    time.Time      `json:"timestamp"`
	DefinitionID string         `json:"definition_id,omitempty"`
	InstanceID   string         `json:"instance_id"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type InstanceStarted struct {
	BaseEvent

	StartedBy string `json:"started_by"`
}

func (e InstanceStarted) GetType() EventType {
	return InstanceStartedEvent
}

type InstanceAdvanced struct {
	BaseEvent

	FromNodeID string                `json:"from_node_id,omitempty"`
	ToNodeID   string                `json:"to_node_id,omitempty"`
	Status     models.InstanceStatus `json:"status"`
}

func (e InstanceAdvanced) GetType() EventType {
	return InstanceAdvancedEvent
}

type InstanceCompleted struct {
	BaseEvent

	Duration time.Duration `json:"duration"`
}

func (e InstanceCompleted) GetType() EventType {
	return InstanceCompletedEvent
}

type InstanceRejected struct {
	BaseEvent

	Reason string `json:"reason"`
}

func (e InstanceRejected) GetType() EventType {
	return InstanceRejectedEvent
}

type InstanceCancelled struct {
	BaseEvent

	CancelledBy string `json:"cancelled_by"`
}

func (e InstanceCancelled) GetType() EventType {
	return InstanceCancelledEvent
}

type TaskCreated struct {
	BaseEvent

	TaskID   string     `json:"task_id"`
	NodeID   string     `json:"node_id"`
	Assignee string     `json:"assignee"`
	DueAt    *time.Time `json:"due_at,omitempty"`
}

func (e TaskCreated) GetType() EventType {
	return TaskCreatedEvent
}

type TaskResolved struct {
	BaseEvent

	TaskID     string             `json:"task_id"`
	NodeID     string             `json:"node_id"`
	Outcome    models.TaskOutcome `json:"outcome"`
	ResolvedBy string             `json:"resolved_by"`
}

func (e TaskResolved) GetType() EventType {
	return TaskResolvedEvent
}

type TaskOverdue struct {
	BaseEvent

	TaskID   string    `json:"task_id"`
	NodeID   string    `json:"node_id"`
	Assignee string    `json:"assignee"`
	DueAt    time.Time `json:"due_at"`
}

func (e TaskOverdue) GetType() EventType {
	return TaskOverdueEvent
}

type ApprovalDecided struct {
	BaseEvent

	ApprovalID string                `json:"approval_id"`
	TaskID     string                `json:"task_id"`
	NodeID     string                `json:"node_id"`
	Decision   models.ApprovalStatus `json:"decision"`
	DecidedBy  string                `json:"decided_by"`
	Comments   string                `json:"comments,omitempty"`
}

func (e ApprovalDecided) GetType() EventType {
	return ApprovalDecidedEvent
}
