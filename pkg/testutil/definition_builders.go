// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/cascadehq/cascade/pkg/models"
	"github.com/google/uuid"
)

// CreateTestNode creates a node with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.Node)) *models.Node {
	node := &models.Node{
		ID:    uuid.New().String(),
		Type:  models.NodeTypeTask,
		Label: "Test Node",
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithID sets the node ID.
func WithID(id string) func(*models.Node) {
	return func(n *models.Node) {
		n.ID = id
	}
}

// WithType sets the node type.
func WithType(nodeType models.NodeType) func(*models.Node) {
	return func(n *models.Node) {
		n.Type = nodeType
	}
}

// WithLabel sets the node label.
func WithLabel(label string) func(*models.Node) {
	return func(n *models.Node) {
		n.Label = label
	}
}

// WithParams sets the node parameters.
func WithParams(params map[string]any) func(*models.Node) {
	return func(n *models.Node) {
		n.Params = params
	}
}

// Node is shorthand for a node with an explicit ID and type.
func Node(id string, nodeType models.NodeType) *models.Node {
	return CreateTestNode(WithID(id), WithType(nodeType), WithLabel(id))
}

// Edge is shorthand for an unlabeled edge.
func Edge(id, source, target string) *models.Edge {
	return &models.Edge{ID: id, Source: source, Target: target}
}

// BranchEdge is shorthand for a labeled edge leaving a condition node.
func BranchEdge(id, source, target, label string) *models.Edge {
	return &models.Edge{ID: id, Source: source, Target: target, BranchLabel: label}
}

// CreateTestDefinition creates an empty draft definition.
func CreateTestDefinition() *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		ID:          uuid.New().String(),
		Name:        "Test Workflow",
		Description: "A workflow for testing",
		Status:      models.DefinitionStatusDraft,
		Owner:       "test-user",
		Nodes:       []*models.Node{},
		Edges:       []*models.Edge{},
	}
}

// LinearDefinition builds an active start → task → end definition, the
// smallest graph that exercises suspension and resumption.
func LinearDefinition(taskParams map[string]any) *models.WorkflowDefinition {
	definition := CreateTestDefinition()
	definition.Status = models.DefinitionStatusActive
	definition.Nodes = []*models.Node{
		Node("start", models.NodeTypeStart),
		CreateTestNode(WithID("work"), WithType(models.NodeTypeTask), WithLabel("Do the work"), WithParams(taskParams)),
		Node("end", models.NodeTypeEnd),
	}
	definition.Edges = []*models.Edge{
		Edge("e1", "start", "work"),
		Edge("e2", "work", "end"),
	}

	return definition
}

// ApprovalDefinition builds an active start → approval → end definition.
func ApprovalDefinition(approvalParams map[string]any) *models.WorkflowDefinition {
	definition := CreateTestDefinition()
	definition.Status = models.DefinitionStatusActive
	definition.Nodes = []*models.Node{
		Node("start", models.NodeTypeStart),
		CreateTestNode(WithID("sign-off"), WithType(models.NodeTypeApproval), WithLabel("Sign off"), WithParams(approvalParams)),
		Node("end", models.NodeTypeEnd),
	}
	definition.Edges = []*models.Edge{
		Edge("e1", "start", "sign-off"),
		Edge("e2", "sign-off", "end"),
	}

	return definition
}
