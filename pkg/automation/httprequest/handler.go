// Package httprequest provides the built-in HTTP call automation handler.
package httprequest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cascadehq/cascade/pkg/protocol"
	"github.com/cascadehq/cascade/pkg/template"
)

const maxResponseBytes = 1 << 20 // 1 MiB keeps runaway responses out of instance context

// Handler calls an external HTTP endpoint and merges the response into the
// instance context under the configured result key. Timeouts come from the
// engine through ctx.
type Handler struct {
	method    string
	url       string
	headers   map[string]string
	body      string
	resultKey string
	logger    *slog.Logger
	client    *http.Client
}

func NewHandler(config map[string]any, logger *slog.Logger) (*Handler, error) {
	url, ok := config["url"].(string)
	if !ok || url == "" {
		return nil, errors.New("missing required field 'url'")
	}

	method, _ := config["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	body, _ := config["body"].(string)

	resultKey, _ := config["result_key"].(string)
	if resultKey == "" {
		resultKey = "http_response"
	}

	headers := make(map[string]string)
	if headersConfig, ok := config["headers"].(map[string]any); ok {
		for k, v := range headersConfig {
			if value, ok := v.(string); ok {
				headers[k] = value
			}
		}
	}

	return &Handler{
		method:    strings.ToUpper(method),
		url:       url,
		headers:   headers,
		body:      body,
		resultKey: resultKey,
		logger:    logger,
		client:    &http.Client{},
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input protocol.HandlerInput) (map[string]any, error) {
	url, err := template.RenderString(h.url, input.InstanceID, input.NodeID, input.Context)
	if err != nil {
		return nil, fmt.Errorf("failed to render url: %w", err)
	}

	logger := h.logger.With(
		"instance_id", input.InstanceID,
		"node_id", input.NodeID,
		"method", h.method,
		"url", url,
	)

	var bodyReader io.Reader

	if h.body != "" {
		body, err := template.RenderString(h.body, input.InstanceID, input.NodeID, input.Context)
		if err != nil {
			return nil, fmt.Errorf("failed to render body: %w", err)
		}

		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, h.method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}

	for key, value := range h.headers {
		req.Header.Set(key, value)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.WarnContext(ctx, "failed to close response body", "error", err)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("http request returned status %d", resp.StatusCode)
	}

	logger.InfoContext(ctx, "HTTP request completed", "status", resp.StatusCode)

	var body any = string(raw)

	var parsed map[string]any
	if json.Unmarshal(raw, &parsed) == nil {
		body = parsed
	}

	return map[string]any{
		h.resultKey: map[string]any{
			"status_code": resp.StatusCode,
			"body":        body,
		},
	}, nil
}
