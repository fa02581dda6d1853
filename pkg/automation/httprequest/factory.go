package httprequest

import (
	"log/slog"

	"github.com/cascadehq/cascade/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Type() string {
	return "http_request"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "The URL to call",
			},
			"method": map[string]any{
				"type":        "string",
				"enum":        []any{"GET", "POST", "PUT", "PATCH", "DELETE"},
				"description": "HTTP method, defaults to GET",
			},
			"headers": map[string]any{
				"type":        "object",
				"description": "Request headers as string key/value pairs",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Raw request body",
			},
			"result_key": map[string]any{
				"type":        "string",
				"description": "Context key the response is merged under",
			},
		},
		"required": []any{"url"},
	}
}

func (f *Factory) Create(config map[string]any, logger *slog.Logger) (protocol.AutomationHandler, error) {
	return NewHandler(config, logger)
}
