// Package models defines the core domain models for graph-based workflow execution.
package models

import "time"

// DefinitionStatus represents the lifecycle state of a workflow definition.
type DefinitionStatus string

const (
	DefinitionStatusDraft    DefinitionStatus = "draft"    // Editable, not executable
	DefinitionStatusActive   DefinitionStatus = "active"   // Validated, executable
	DefinitionStatusArchived DefinitionStatus = "archived" // Historical, not executable
)

// WorkflowDefinition is an authored workflow graph. Only definitions in
// status "active" may be started; drafts may be saved without passing
// validation.
type WorkflowDefinition struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"        validate:"required,min=3"`
	Description string           `json:"description"`
	Status      DefinitionStatus `json:"status"      validate:"required"`
	Nodes       []*Node          `json:"nodes"`
	Edges       []*Edge          `json:"edges"`
	Owner       string           `json:"owner"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	ArchivedAt  *time.Time       `json:"archived_at,omitempty"`
}

// Graph returns a read-only view over the definition's nodes and edges.
func (d *WorkflowDefinition) Graph() *Graph {
	return NewGraph(d.Nodes, d.Edges)
}

// IsExecutable reports whether instances may be started from this definition.
func (d *WorkflowDefinition) IsExecutable() bool {
	return d.Status == DefinitionStatusActive
}
