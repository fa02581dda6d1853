package models

// Edge is a directed connection between two nodes. Edges leaving a condition
// node carry a branch label; the engine follows the edge whose label matches
// the evaluated branch result.
type Edge struct {
	ID          string `json:"id"     validate:"required"`
	Source      string `json:"source" validate:"required"`
	Target      string `json:"target" validate:"required"`
	BranchLabel string `json:"branch_label,omitempty"`
}

// Graph is an indexed, read-only view of a definition's nodes and edges.
// The engine only reads; mutation belongs to the authoring surface.
type Graph struct {
	nodes    []*Node
	edges    []*Edge
	byID     map[string]*Node
	outgoing map[string][]*Edge
	incoming map[string][]*Edge
}

// NewGraph builds the node and edge indexes once; accessors are O(1) after.
func NewGraph(nodes []*Node, edges []*Edge) *Graph {
	g := &Graph{
		nodes:    nodes,
		edges:    edges,
		byID:     make(map[string]*Node, len(nodes)),
		outgoing: make(map[string][]*Edge, len(nodes)),
		incoming: make(map[string][]*Edge, len(nodes)),
	}

	for _, node := range nodes {
		g.byID[node.ID] = node
	}

	for _, edge := range edges {
		g.outgoing[edge.Source] = append(g.outgoing[edge.Source], edge)
		g.incoming[edge.Target] = append(g.incoming[edge.Target], edge)
	}

	return g
}

// Nodes returns all nodes in authoring order.
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// Edges returns all edges in authoring order.
func (g *Graph) Edges() []*Edge {
	return g.edges
}

// NodeByID returns the node with the given ID, or nil.
func (g *Graph) NodeByID(id string) *Node {
	return g.byID[id]
}

// OutgoingEdges returns the edges whose source is the given node.
func (g *Graph) OutgoingEdges(nodeID string) []*Edge {
	return g.outgoing[nodeID]
}

// IncomingEdges returns the edges whose target is the given node.
func (g *Graph) IncomingEdges(nodeID string) []*Edge {
	return g.incoming[nodeID]
}

// StartNodes returns every node of type start. A valid definition has
// exactly one; the validator reports zero or several.
func (g *Graph) StartNodes() []*Node {
	return g.nodesOfType(NodeTypeStart)
}

// EndNodes returns every node of type end.
func (g *Graph) EndNodes() []*Node {
	return g.nodesOfType(NodeTypeEnd)
}

func (g *Graph) nodesOfType(t NodeType) []*Node {
	var matched []*Node

	for _, node := range g.nodes {
		if node.Type == t {
			matched = append(matched, node)
		}
	}

	return matched
}

// ReachableFrom returns the set of node IDs reachable from the given node by
// following edges forward. Cycles are allowed; each node is visited once.
func (g *Graph) ReachableFrom(nodeID string) map[string]bool {
	reached := make(map[string]bool)

	if g.byID[nodeID] == nil {
		return reached
	}

	stack := []string{nodeID}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if reached[current] {
			continue
		}

		reached[current] = true

		for _, edge := range g.outgoing[current] {
			if g.byID[edge.Target] != nil && !reached[edge.Target] {
				stack = append(stack, edge.Target)
			}
		}
	}

	return reached
}
