// Package template renders automation node parameters against the instance
// context, so handler config can reference values accumulated by earlier
// nodes.
package template

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/template"
	"time"
)

// RenderWithContext renders input with the instance context exposed under
// .context, process environment under .env, and instance identifiers under
// .instance.
func RenderWithContext(input, instanceID, nodeID string, instanceContext map[string]any) (any, error) {
	return Render(input, contextData(instanceID, nodeID, instanceContext))
}

// Render executes input as a text/template over data. The rendered output
// is coerced: JSON objects and arrays are unmarshalled, numbers and
// booleans are parsed, everything else comes back as a string.
func Render(input string, data any) (any, error) {
	rendered, err := renderRaw(input, data)
	if err != nil {
		return nil, err
	}

	result := strings.TrimSpace(rendered)

	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var jsonResult any

		err := json.Unmarshal([]byte(result), &jsonResult)
		if err == nil {
			return jsonResult, nil
		}

		return jsonResult, fmt.Errorf("failed to parse json '%s': %w", input, err)
	}

	if num, err := strconv.ParseFloat(result, 64); err == nil {
		return num, nil
	}

	if b, err := strconv.ParseBool(result); err == nil {
		return b, nil
	}

	return result, nil
}

// RenderString is Render without coercion, for values that must stay
// strings such as log messages, URLs, and request bodies.
func RenderString(input, instanceID, nodeID string, instanceContext map[string]any) (string, error) {
	if !NeedsTemplating(input) {
		return input, nil
	}

	return renderRaw(input, contextData(instanceID, nodeID, instanceContext))
}

func contextData(instanceID, nodeID string, instanceContext map[string]any) map[string]any {
	return map[string]any{
		"context": instanceContext,
		"env":     getEnvVars(),
		"instance": map[string]any{
			"id":      instanceID,
			"node_id": nodeID,
		},
	}
}

func renderRaw(input string, data any) (string, error) {
	tmpl, err := template.
		New("params").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
		}).Parse(input)
	if err != nil {
		return "", fmt.Errorf("failed to parse template '%s': %w", input, err)
	}

	var buf strings.Builder

	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template '%s': %w", input, err)
	}

	return buf.String(), nil
}

// NeedsTemplating reports whether input contains template actions.
func NeedsTemplating(input string) bool {
	return strings.Contains(input, "{{")
}

func getEnvVars() map[string]any {
	envMap := make(map[string]any)

	for _, env := range os.Environ() {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) == 2 {
			envMap[parts[0]] = parts[1]
		}
	}

	return envMap
}
