package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_SimpleExpression(t *testing.T) {
	data := map[string]any{
		"name":     "John",
		"approved": true,
		"amount":   30,
	}

	result, err := Render("{{ .name }}", data)
	require.NoError(t, err)
	assert.Equal(t, "John", result)

	result, err = Render("{{ .approved }}", data)
	require.NoError(t, err)
	assert.Equal(t, true, result)

	// Numeric output always coerces to float.
	result, err = Render("{{ .amount }}", data)
	require.NoError(t, err)
	assert.InEpsilon(t, 30.0, result, 0.001)
}

func TestRender_JSONOutput(t *testing.T) {
	data := map[string]any{
		"requester": map[string]any{
			"name":  "Alice",
			"email": "alice@example.com",
		},
	}

	result, err := Render(`{
		"requested_by": "{{ .requester.name }}",
		"contact": "{{ .requester.email }}"
	}`, data)
	require.NoError(t, err)

	resultMap, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Alice", resultMap["requested_by"])
	assert.Equal(t, "alice@example.com", resultMap["contact"])
}

func TestRender_InvalidTemplate(t *testing.T) {
	_, err := Render("{{ .broken", nil)
	require.Error(t, err)
}

func TestRenderWithContext_ExposesInstanceContext(t *testing.T) {
	instanceContext := map[string]any{
		"amount":   1500.0,
		"approved": false,
	}

	result, err := RenderWithContext(
		"instance {{ .instance.id }} amount {{ .context.amount }}",
		"inst-1", "notify", instanceContext)
	require.NoError(t, err)
	assert.Equal(t, "instance inst-1 amount 1500", result)
}

func TestRenderString_PassThroughWithoutActions(t *testing.T) {
	result, err := RenderString("plain message", "inst-1", "notify", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain message", result)
}

func TestRenderString_RendersContextValue(t *testing.T) {
	result, err := RenderString("{{ .context.amount }}", "inst-1", "notify",
		map[string]any{"amount": 42})
	require.NoError(t, err)
	assert.Equal(t, "42", result)
}

func TestNeedsTemplating(t *testing.T) {
	assert.True(t, NeedsTemplating("hello {{ .context.name }}"))
	assert.False(t, NeedsTemplating("hello world"))
}
