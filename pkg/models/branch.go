// Package models provides branch evaluation for condition nodes.
package models

import (
	"fmt"
	"strconv"
)

// BranchEvaluator turns a condition node's parameters and the instance
// context into a branch label. Evaluators are pluggable; the engine selects
// one by the node's "language" parameter.
type BranchEvaluator interface {
	Evaluate(params map[string]any, context map[string]any) (string, error)
}

// GetBranchEvaluator returns the evaluator registered for the given
// language, or nil when the language is unknown. An empty language defaults
// to "simple".
func GetBranchEvaluator(language string) BranchEvaluator {
	if language == "simple" || language == "" {
		return &SimpleBranchEvaluator{}
	}

	return nil
}

// SimpleBranchEvaluator reads a single context key named by the "key"
// parameter and normalizes its value to a branch label: booleans become
// "true"/"false", strings pass through, integers render in decimal.
type SimpleBranchEvaluator struct{}

func (s *SimpleBranchEvaluator) Evaluate(params map[string]any, context map[string]any) (string, error) {
	key, _ := params["key"].(string)
	if key == "" {
		return "", fmt.Errorf("condition is missing the %q parameter", "key")
	}

	value, exists := context[key]
	if !exists {
		return "", fmt.Errorf("context has no value for key %q", key)
	}

	switch v := value.(type) {
	case bool:
		return strconv.FormatBool(v), nil
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		// JSON numbers decode as float64; render integral values without a
		// fractional part so labels like "3" match.
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10), nil
		}

		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("cannot derive a branch label from %T", value)
	}
}
