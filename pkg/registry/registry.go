// Package registry tracks the automation handlers available to the engine
// and validates node configuration against each handler's JSON schema.
package registry

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/cascadehq/cascade/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

type Registry struct {
	logger           *slog.Logger
	handlerFactories map[string]protocol.HandlerFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:           logger,
		handlerFactories: make(map[string]protocol.HandlerFactory),
	}
}

// RegisterHandler makes a handler factory available under its type.
func (r *Registry) RegisterHandler(factory protocol.HandlerFactory) {
	r.handlerFactories[factory.Type()] = factory
}

// IsHandlerRegistered reports whether a handler type is known.
func (r *Registry) IsHandlerRegistered(handlerType string) bool {
	_, exists := r.handlerFactories[handlerType]

	return exists
}

// AvailableHandlers returns the registered handler types.
func (r *Registry) AvailableHandlers() []string {
	types := make([]string, 0, len(r.handlerFactories))
	for handlerType := range r.handlerFactories {
		types = append(types, handlerType)
	}

	return types
}

// CreateHandler validates the config against the factory's schema and
// builds the handler.
func (r *Registry) CreateHandler(handlerType string, config map[string]any) (protocol.AutomationHandler, error) {
	factory, ok := r.handlerFactories[handlerType]
	if !ok {
		return nil, fmt.Errorf("automation handler %q not registered", handlerType)
	}

	if err := r.ValidateConfig(handlerType, config); err != nil {
		return nil, err
	}

	return factory.Create(config, r.logger)
}

// ValidateConfig checks an automation node's config against the handler's
// JSON schema without building the handler. Used at definition activation
// so misconfigured nodes never reach execution.
func (r *Registry) ValidateConfig(handlerType string, config map[string]any) error {
	factory, ok := r.handlerFactories[handlerType]
	if !ok {
		return fmt.Errorf("automation handler %q not registered", handlerType)
	}

	schema := factory.Schema()
	if schema == nil {
		return nil
	}

	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(config),
	)
	if err != nil {
		return fmt.Errorf("schema validation for handler %q: %w", handlerType, err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, resultErr := range result.Errors() {
			details = append(details, resultErr.String())
		}

		return fmt.Errorf("invalid config for handler %q: %s", handlerType, strings.Join(details, "; "))
	}

	return nil
}

// HealthCheck reports whether any handlers are registered.
func (r *Registry) HealthCheck() (string, bool) {
	if len(r.handlerFactories) == 0 {
		return "No automation handlers registered", false
	}

	return fmt.Sprintf("%d automation handlers registered", len(r.handlerFactories)), true
}
