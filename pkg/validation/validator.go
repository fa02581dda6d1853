// Package validation checks the structural invariants of a workflow graph
// before a definition may be activated. Structural failures caught here can
// never surface during execution.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cascadehq/cascade/pkg/models"
)

// Category identifies the class of structural failure. Checks run in a
// fixed order and stop at the first failing category, collecting every
// offending node or edge within it.
type Category string

const (
	CategoryDuplicateNodeID    Category = "duplicate_node_id"
	CategoryUnknownNodeType    Category = "unknown_node_type"
	CategoryNoStart            Category = "no_start"
	CategoryMultipleStart      Category = "multiple_start"
	CategoryNoEnd              Category = "no_end"
	CategoryDanglingEdge       Category = "dangling_edge"
	CategoryUnreachableNode    Category = "unreachable_node"
	CategoryMissingBranchLabel Category = "missing_branch_label"
	CategoryAmbiguousBranch    Category = "ambiguous_branch"
	CategoryDeadEnd            Category = "dead_end"
	CategoryMultipleOutgoing   Category = "multiple_outgoing"
)

// Error reports one failing category together with the node or edge IDs
// that violate it.
type Error struct {
	Category Category `json:"category"`
	NodeIDs  []string `json:"node_ids,omitempty"`
	EdgeIDs  []string `json:"edge_ids,omitempty"`
	Message  string   `json:"message"`
}

func (e *Error) Error() string {
	var ids []string
	ids = append(ids, e.NodeIDs...)
	ids = append(ids, e.EdgeIDs...)

	if len(ids) == 0 {
		return fmt.Sprintf("%s: %s", e.Category, e.Message)
	}

	return fmt.Sprintf("%s: %s (%s)", e.Category, e.Message, strings.Join(ids, ", "))
}

// Validate checks the definition's graph and returns nil when every
// invariant holds. The returned error is always a *Error.
func Validate(definition *models.WorkflowDefinition) error {
	graph := definition.Graph()

	checks := []func(*models.Graph) *Error{
		checkDuplicateNodeIDs,
		checkNodeTypes,
		checkStartNode,
		checkEndNode,
		checkDanglingEdges,
		checkReachability,
		checkBranchLabels,
		checkDeadEnds,
		checkSingleOutgoing,
	}

	for _, check := range checks {
		if err := check(graph); err != nil {
			return err
		}
	}

	return nil
}

func checkDuplicateNodeIDs(graph *models.Graph) *Error {
	seen := make(map[string]bool)

	var duplicates []string

	for _, node := range graph.Nodes() {
		if seen[node.ID] {
			duplicates = append(duplicates, node.ID)

			continue
		}

		seen[node.ID] = true
	}

	if len(duplicates) > 0 {
		return &Error{
			Category: CategoryDuplicateNodeID,
			NodeIDs:  duplicates,
			Message:  "node IDs must be unique within a definition",
		}
	}

	return nil
}

func checkNodeTypes(graph *models.Graph) *Error {
	var unknown []string

	for _, node := range graph.Nodes() {
		if !models.ValidNodeType(node.Type) {
			unknown = append(unknown, node.ID)
		}
	}

	if len(unknown) > 0 {
		return &Error{
			Category: CategoryUnknownNodeType,
			NodeIDs:  unknown,
			Message:  "nodes carry an unrecognized type",
		}
	}

	return nil
}

func checkStartNode(graph *models.Graph) *Error {
	starts := graph.StartNodes()

	switch {
	case len(starts) == 0:
		return &Error{
			Category: CategoryNoStart,
			Message:  "definition has no start node",
		}
	case len(starts) > 1:
		return &Error{
			Category: CategoryMultipleStart,
			NodeIDs:  nodeIDs(starts),
			Message:  "definition has more than one start node",
		}
	default:
		return nil
	}
}

func checkEndNode(graph *models.Graph) *Error {
	if len(graph.EndNodes()) == 0 {
		return &Error{
			Category: CategoryNoEnd,
			Message:  "definition has no end node",
		}
	}

	return nil
}

func checkDanglingEdges(graph *models.Graph) *Error {
	var dangling []string

	for _, edge := range graph.Edges() {
		if graph.NodeByID(edge.Source) == nil || graph.NodeByID(edge.Target) == nil {
			dangling = append(dangling, edge.ID)
		}
	}

	if len(dangling) > 0 {
		return &Error{
			Category: CategoryDanglingEdge,
			EdgeIDs:  dangling,
			Message:  "edges reference nodes that do not exist",
		}
	}

	return nil
}

func checkReachability(graph *models.Graph) *Error {
	start := graph.StartNodes()[0]
	reached := graph.ReachableFrom(start.ID)

	var unreachable []string

	for _, node := range graph.Nodes() {
		if !reached[node.ID] {
			unreachable = append(unreachable, node.ID)
		}
	}

	if len(unreachable) > 0 {
		sort.Strings(unreachable)

		return &Error{
			Category: CategoryUnreachableNode,
			NodeIDs:  unreachable,
			Message:  "nodes are not reachable from the start node",
		}
	}

	return nil
}

func checkBranchLabels(graph *models.Graph) *Error {
	var missing, ambiguous []string

	for _, node := range graph.Nodes() {
		if node.Type != models.NodeTypeCondition {
			continue
		}

		labels := make(map[string]bool)
		nodeMissing, nodeAmbiguous := false, false

		for _, edge := range graph.OutgoingEdges(node.ID) {
			if edge.BranchLabel == "" {
				nodeMissing = true

				continue
			}

			if labels[edge.BranchLabel] {
				nodeAmbiguous = true
			}

			labels[edge.BranchLabel] = true
		}

		if nodeMissing {
			missing = append(missing, node.ID)
		}

		if nodeAmbiguous {
			ambiguous = append(ambiguous, node.ID)
		}
	}

	if len(missing) > 0 {
		return &Error{
			Category: CategoryMissingBranchLabel,
			NodeIDs:  missing,
			Message:  "condition nodes have outgoing edges without a branch label",
		}
	}

	if len(ambiguous) > 0 {
		return &Error{
			Category: CategoryAmbiguousBranch,
			NodeIDs:  ambiguous,
			Message:  "condition nodes have outgoing edges with duplicate branch labels",
		}
	}

	return nil
}

func checkDeadEnds(graph *models.Graph) *Error {
	var deadEnds []string

	for _, node := range graph.Nodes() {
		if node.Type != models.NodeTypeStart && len(graph.IncomingEdges(node.ID)) == 0 {
			deadEnds = append(deadEnds, node.ID)
		}

		if node.Type != models.NodeTypeEnd && len(graph.OutgoingEdges(node.ID)) == 0 {
			deadEnds = append(deadEnds, node.ID)
		}
	}

	if len(deadEnds) > 0 {
		return &Error{
			Category: CategoryDeadEnd,
			NodeIDs:  deadEnds,
			Message:  "nodes are missing required incoming or outgoing edges",
		}
	}

	return nil
}

// checkSingleOutgoing enforces that every node the engine follows without a
// branch decision has exactly one outgoing edge. Condition nodes branch and
// end nodes terminate, so both are exempt.
func checkSingleOutgoing(graph *models.Graph) *Error {
	var offending []string

	for _, node := range graph.Nodes() {
		switch node.Type {
		case models.NodeTypeCondition, models.NodeTypeEnd:
			continue
		default:
			if len(graph.OutgoingEdges(node.ID)) > 1 {
				offending = append(offending, node.ID)
			}
		}
	}

	if len(offending) > 0 {
		return &Error{
			Category: CategoryMultipleOutgoing,
			NodeIDs:  offending,
			Message:  "non-condition nodes must have exactly one outgoing edge",
		}
	}

	return nil
}

func nodeIDs(nodes []*models.Node) []string {
	ids := make([]string, 0, len(nodes))
	for _, node := range nodes {
		ids = append(ids, node.ID)
	}

	return ids
}
