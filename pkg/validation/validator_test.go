package validation

import (
	"testing"

	"github.com/cascadehq/cascade/pkg/models"
	"github.com/cascadehq/cascade/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func definitionWith(nodes []*models.Node, edges []*models.Edge) *models.WorkflowDefinition {
	definition := testutil.CreateTestDefinition()
	definition.Nodes = nodes
	definition.Edges = edges

	return definition
}

func requireCategory(t *testing.T, err error, category Category) *Error {
	t.Helper()

	require.Error(t, err)

	var validationErr *Error

	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, category, validationErr.Category)

	return validationErr
}

func TestValidateLinearDefinition(t *testing.T) {
	definition := testutil.LinearDefinition(nil)

	assert.NoError(t, Validate(definition))
}

func TestValidateNoStart(t *testing.T) {
	definition := definitionWith(
		[]*models.Node{
			testutil.Node("work", models.NodeTypeTask),
			testutil.Node("end", models.NodeTypeEnd),
		},
		[]*models.Edge{testutil.Edge("e1", "work", "end")},
	)

	requireCategory(t, Validate(definition), CategoryNoStart)
}

func TestValidateMultipleStart(t *testing.T) {
	definition := definitionWith(
		[]*models.Node{
			testutil.Node("s1", models.NodeTypeStart),
			testutil.Node("s2", models.NodeTypeStart),
			testutil.Node("end", models.NodeTypeEnd),
		},
		[]*models.Edge{
			testutil.Edge("e1", "s1", "end"),
			testutil.Edge("e2", "s2", "end"),
		},
	)

	err := requireCategory(t, Validate(definition), CategoryMultipleStart)
	assert.ElementsMatch(t, []string{"s1", "s2"}, err.NodeIDs)
}

func TestValidateNoEnd(t *testing.T) {
	definition := definitionWith(
		[]*models.Node{
			testutil.Node("start", models.NodeTypeStart),
			testutil.Node("work", models.NodeTypeTask),
		},
		[]*models.Edge{testutil.Edge("e1", "start", "work")},
	)

	requireCategory(t, Validate(definition), CategoryNoEnd)
}

func TestValidateDanglingEdge(t *testing.T) {
	definition := testutil.LinearDefinition(nil)
	definition.Edges = append(definition.Edges, testutil.Edge("e3", "work", "ghost"))

	err := requireCategory(t, Validate(definition), CategoryDanglingEdge)
	assert.Equal(t, []string{"e3"}, err.EdgeIDs)
}

func TestValidateUnreachableNode(t *testing.T) {
	definition := testutil.LinearDefinition(nil)
	definition.Nodes = append(definition.Nodes,
		testutil.Node("island-a", models.NodeTypeTask),
		testutil.Node("island-b", models.NodeTypeTask),
	)
	definition.Edges = append(definition.Edges,
		testutil.Edge("e3", "island-a", "island-b"),
		testutil.Edge("e4", "island-b", "island-a"),
	)

	err := requireCategory(t, Validate(definition), CategoryUnreachableNode)
	assert.ElementsMatch(t, []string{"island-a", "island-b"}, err.NodeIDs)
}

func TestValidateMissingBranchLabel(t *testing.T) {
	definition := definitionWith(
		[]*models.Node{
			testutil.Node("start", models.NodeTypeStart),
			testutil.Node("check", models.NodeTypeCondition),
			testutil.Node("work", models.NodeTypeTask),
			testutil.Node("end", models.NodeTypeEnd),
		},
		[]*models.Edge{
			testutil.Edge("e1", "start", "check"),
			testutil.BranchEdge("e2", "check", "work", "true"),
			testutil.Edge("e3", "check", "end"), // unlabeled branch
			testutil.Edge("e4", "work", "end"),
		},
	)

	err := requireCategory(t, Validate(definition), CategoryMissingBranchLabel)
	assert.Equal(t, []string{"check"}, err.NodeIDs)
}

func TestValidateAmbiguousBranch(t *testing.T) {
	definition := definitionWith(
		[]*models.Node{
			testutil.Node("start", models.NodeTypeStart),
			testutil.Node("check", models.NodeTypeCondition),
			testutil.Node("work", models.NodeTypeTask),
			testutil.Node("end", models.NodeTypeEnd),
		},
		[]*models.Edge{
			testutil.Edge("e1", "start", "check"),
			testutil.BranchEdge("e2", "check", "work", "true"),
			testutil.BranchEdge("e3", "check", "end", "true"),
			testutil.Edge("e4", "work", "end"),
		},
	)

	err := requireCategory(t, Validate(definition), CategoryAmbiguousBranch)
	assert.Equal(t, []string{"check"}, err.NodeIDs)
}

func TestValidateDeadEnd(t *testing.T) {
	// "work" has no outgoing edge, so it can never reach an end node.
	definition := definitionWith(
		[]*models.Node{
			testutil.Node("start", models.NodeTypeStart),
			testutil.Node("check", models.NodeTypeCondition),
			testutil.Node("work", models.NodeTypeTask),
			testutil.Node("end", models.NodeTypeEnd),
		},
		[]*models.Edge{
			testutil.Edge("e1", "start", "check"),
			testutil.BranchEdge("e2", "check", "work", "true"),
			testutil.BranchEdge("e3", "check", "end", "false"),
		},
	)

	err := requireCategory(t, Validate(definition), CategoryDeadEnd)
	assert.Equal(t, []string{"work"}, err.NodeIDs)
}

func TestValidateMultipleOutgoing(t *testing.T) {
	definition := definitionWith(
		[]*models.Node{
			testutil.Node("start", models.NodeTypeStart),
			testutil.Node("work", models.NodeTypeTask),
			testutil.Node("extra", models.NodeTypeTask),
			testutil.Node("end", models.NodeTypeEnd),
		},
		[]*models.Edge{
			testutil.Edge("e1", "start", "work"),
			testutil.Edge("e2", "work", "extra"),
			testutil.Edge("e3", "work", "end"),
			testutil.Edge("e4", "extra", "end"),
		},
	)

	err := requireCategory(t, Validate(definition), CategoryMultipleOutgoing)
	assert.Equal(t, []string{"work"}, err.NodeIDs)
}

func TestValidateRetryLoopIsValid(t *testing.T) {
	// A cycle back to an earlier task is a legal graph shape.
	definition := definitionWith(
		[]*models.Node{
			testutil.Node("start", models.NodeTypeStart),
			testutil.Node("fix", models.NodeTypeTask),
			testutil.Node("check", models.NodeTypeCondition),
			testutil.Node("end", models.NodeTypeEnd),
		},
		[]*models.Edge{
			testutil.Edge("e1", "start", "fix"),
			testutil.Edge("e2", "fix", "check"),
			testutil.BranchEdge("e3", "check", "fix", "retry"),
			testutil.BranchEdge("e4", "check", "end", "done"),
		},
	)

	assert.NoError(t, Validate(definition))
}

func TestValidateDuplicateNodeID(t *testing.T) {
	definition := testutil.LinearDefinition(nil)
	definition.Nodes = append(definition.Nodes, testutil.Node("work", models.NodeTypeTask))

	err := requireCategory(t, Validate(definition), CategoryDuplicateNodeID)
	assert.Equal(t, []string{"work"}, err.NodeIDs)
}

func TestValidateUnknownNodeType(t *testing.T) {
	definition := testutil.LinearDefinition(nil)
	definition.Nodes[1].Type = "icon"

	requireCategory(t, Validate(definition), CategoryUnknownNodeType)
}
