// Package log provides the built-in logging automation handler.
package log

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cascadehq/cascade/pkg/protocol"
	"github.com/cascadehq/cascade/pkg/template"
)

// Handler writes a configured message to the service log when its node is
// entered. The message may reference instance context values through
// template actions. Useful as a tracer bullet inside a definition.
type Handler struct {
	message string
	level   string
	logger  *slog.Logger
}

func NewHandler(config map[string]any, logger *slog.Logger) (*Handler, error) {
	message, ok := config["message"].(string)
	if !ok || message == "" {
		return nil, errors.New("missing required field 'message'")
	}

	level := "info"
	if lvl, ok := config["level"].(string); ok {
		level = lvl
	}

	return &Handler{
		message: message,
		level:   level,
		logger:  logger,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input protocol.HandlerInput) (map[string]any, error) {
	logger := h.logger.With(
		"instance_id", input.InstanceID,
		"node_id", input.NodeID,
	)

	message, err := template.RenderString(h.message, input.InstanceID, input.NodeID, input.Context)
	if err != nil {
		return nil, fmt.Errorf("failed to render message: %w", err)
	}

	switch h.level {
	case "debug":
		logger.DebugContext(ctx, message)
	case "warn":
		logger.WarnContext(ctx, message)
	case "error":
		logger.ErrorContext(ctx, message)
	default:
		logger.InfoContext(ctx, message)
	}

	return map[string]any{}, nil
}
