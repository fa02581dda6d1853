// Package web provides HTTP request and response types for the workflow API.
package web

import "github.com/cascadehq/cascade/pkg/models"

// NodeRequest is the wire form of a workflow node.
type NodeRequest struct {
	ID          string         `json:"id"          validate:"required"`
	Type        string         `json:"type"        validate:"required"`
	Label       string         `json:"label"`
	Description string         `json:"description"`
	Params      map[string]any `json:"params,omitempty"`
}

// EdgeRequest is the wire form of a workflow edge.
type EdgeRequest struct {
	ID          string `json:"id"                     validate:"required"`
	Source      string `json:"source"                 validate:"required"`
	Target      string `json:"target"                 validate:"required"`
	BranchLabel string `json:"branch_label,omitempty"`
}

// CreateDefinitionRequest represents the request body for creating a new definition.
type CreateDefinitionRequest struct {
	Name        string        `json:"name"        validate:"required,min=3"`
	Description string        `json:"description"`
	Owner       string        `json:"owner"       validate:"required"`
	Nodes       []NodeRequest `json:"nodes"`
	Edges       []EdgeRequest `json:"edges"`
}

// UpdateDefinitionRequest represents the request body for updating a draft.
// Name and description are optional; nodes and edges replace the graph when
// present.
type UpdateDefinitionRequest struct {
	Name        *string       `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description *string       `json:"description,omitempty"`
	Nodes       []NodeRequest `json:"nodes,omitempty"`
	Edges       []EdgeRequest `json:"edges,omitempty"`
}

// StartInstanceRequest represents the request body for starting an instance.
type StartInstanceRequest struct {
	StartedBy string `json:"started_by" validate:"required"`
}

// ResolveTaskRequest represents the request body for resolving a task.
type ResolveTaskRequest struct {
	Outcome    string `json:"outcome"            validate:"required,oneof=completed skipped approved rejected"`
	ResolvedBy string `json:"resolved_by"        validate:"required"`
	Comments   string `json:"comments,omitempty"`
}

// CancelInstanceRequest represents the request body for cancelling an instance.
type CancelInstanceRequest struct {
	CancelledBy string `json:"cancelled_by" validate:"required"`
}

func toNodes(reqs []NodeRequest) []*models.Node {
	nodes := make([]*models.Node, 0, len(reqs))
	for _, req := range reqs {
		nodes = append(nodes, &models.Node{
			ID:          req.ID,
			Type:        models.NodeType(req.Type),
			Label:       req.Label,
			Description: req.Description,
			Params:      req.Params,
		})
	}

	return nodes
}

func toEdges(reqs []EdgeRequest) []*models.Edge {
	edges := make([]*models.Edge, 0, len(reqs))
	for _, req := range reqs {
		edges = append(edges, &models.Edge{
			ID:          req.ID,
			Source:      req.Source,
			Target:      req.Target,
			BranchLabel: req.BranchLabel,
		})
	}

	return edges
}
