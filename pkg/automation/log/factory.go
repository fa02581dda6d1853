package log

import (
	"log/slog"

	"github.com/cascadehq/cascade/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Type() string {
	return "log"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "The message to log",
			},
			"level": map[string]any{
				"type":        "string",
				"enum":        []any{"debug", "info", "warn", "error"},
				"description": "The log level to use",
			},
		},
		"required": []any{"message"},
	}
}

func (f *Factory) Create(config map[string]any, logger *slog.Logger) (protocol.AutomationHandler, error) {
	return NewHandler(config, logger)
}
