package models

// NodeType is the enumerated kind of a workflow node. Presentation concerns
// (icons, colors) are a lookup keyed by this tag in the authoring surface and
// never travel with the node itself.
type NodeType string

const (
	NodeTypeStart      NodeType = "start"      // Entry point, exactly one per definition
	NodeTypeTask       NodeType = "task"       // Human work item, suspends execution
	NodeTypeApproval   NodeType = "approval"   // Human decision, suspends execution
	NodeTypeCondition  NodeType = "condition"  // Branch selection from instance context
	NodeTypeAutomation NodeType = "automation" // External side effect, merges output
	NodeTypeEnd        NodeType = "end"        // Terminal node, completes the instance
)

// Node parameter keys shared between the authoring surface and the engine.
const (
	ParamAssignee   = "assignee"     // task: assignee identity
	ParamApprover   = "approver"     // approval: approver identity
	ParamDueInHours = "due_in_hours" // task/approval: due date offset
	ParamLanguage   = "language"     // condition: evaluator language
	ParamHandler    = "handler"      // automation: registered handler type
	ParamConfig     = "config"       // automation: handler configuration
)

// Node is a typed vertex in a workflow graph.
type Node struct {
	ID          string         `json:"id"          validate:"required"`
	Type        NodeType       `json:"type"        validate:"required"`
	Label       string         `json:"label"       validate:"required,min=1"`
	Description string         `json:"description,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
}

// RequiresHuman reports whether entering this node suspends execution until
// a person resolves it.
func (n *Node) RequiresHuman() bool {
	return n.Type == NodeTypeTask || n.Type == NodeTypeApproval
}

// IsTerminal reports whether this node ends the instance.
func (n *Node) IsTerminal() bool {
	return n.Type == NodeTypeEnd
}

// StringParam returns the named parameter if it is a non-empty string.
func (n *Node) StringParam(key string) (string, bool) {
	if n.Params == nil {
		return "", false
	}

	value, ok := n.Params[key].(string)
	if !ok || value == "" {
		return "", false
	}

	return value, true
}

// ValidNodeType reports whether t is one of the enumerated node types.
func ValidNodeType(t NodeType) bool {
	switch t {
	case NodeTypeStart, NodeTypeTask, NodeTypeApproval,
		NodeTypeCondition, NodeTypeAutomation, NodeTypeEnd:
		return true
	default:
		return false
	}
}
