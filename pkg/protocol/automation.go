// Package protocol defines the contracts pluggable automation components
// implement. The engine knows handlers only by these interfaces; concrete
// side effects live behind them.
package protocol

import (
	"context"
	"log/slog"
)

// HandlerInput is what an automation handler receives when its node is
// entered: a read-only snapshot of the instance context plus identifiers
// for logging and tracing.
type HandlerInput struct {
	InstanceID string
	NodeID     string
	Context    map[string]any
}

// AutomationHandler performs one automation node's declared side effect.
// The returned map is merged into the instance context; an error marks the
// instance as failed. Implementations must respect ctx cancellation, as the
// engine bounds every execution with a timeout.
type AutomationHandler interface {
	Execute(ctx context.Context, input HandlerInput) (map[string]any, error)
}

// HandlerFactory creates automation handlers from node configuration.
type HandlerFactory interface {
	// Type is the value an automation node's "handler" parameter selects
	// this factory by.
	Type() string

	// Schema returns the JSON schema the node's "config" parameter must
	// satisfy.
	Schema() map[string]any

	Create(config map[string]any, logger *slog.Logger) (AutomationHandler, error)
}
