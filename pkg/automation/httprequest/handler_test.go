package httprequest

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/cascadehq/cascade/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, config map[string]any) *Handler {
	t.Helper()

	handler, err := NewHandler(config, slog.New(slog.NewTextHandler(os.Stdout, nil)))
	require.NoError(t, err)

	return handler
}

func TestNewHandler_RequiresURL(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	_, err := NewHandler(map[string]any{}, logger)
	require.Error(t, err)
}

func TestHandler_Execute_MergesJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"score": 720})
	}))
	defer server.Close()

	handler := newTestHandler(t, map[string]any{
		"url":        server.URL,
		"result_key": "credit_check",
	})

	output, err := handler.Execute(t.Context(), protocol.HandlerInput{
		InstanceID: "inst-1",
		NodeID:     "check",
	})
	require.NoError(t, err)

	result, ok := output["credit_check"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, result["status_code"])

	body, ok := result["body"].(map[string]any)
	require.True(t, ok)
	assert.InEpsilon(t, 720.0, body["score"], 0.001)
}

func TestHandler_Execute_SendsRenderedBodyAndHeaders(t *testing.T) {
	var received struct {
		body    []byte
		headers http.Header
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.body, _ = io.ReadAll(r.Body)
		received.headers = r.Header
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	handler := newTestHandler(t, map[string]any{
		"url":    server.URL,
		"method": "post",
		"body":   `{"amount": {{ .context.amount }}}`,
		"headers": map[string]any{
			"Content-Type": "application/json",
		},
	})

	output, err := handler.Execute(t.Context(), protocol.HandlerInput{
		InstanceID: "inst-1",
		NodeID:     "submit",
		Context:    map[string]any{"amount": 1500},
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{"amount": 1500}`, string(received.body))
	assert.Equal(t, "application/json", received.headers.Get("Content-Type"))

	result, ok := output["http_response"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, http.StatusCreated, result["status_code"])
}

func TestHandler_Execute_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	handler := newTestHandler(t, map[string]any{"url": server.URL})

	_, err := handler.Execute(t.Context(), protocol.HandlerInput{
		InstanceID: "inst-1",
		NodeID:     "check",
	})
	require.Error(t, err)
}

func TestHandler_Execute_UnreachableServer(t *testing.T) {
	handler := newTestHandler(t, map[string]any{"url": "http://127.0.0.1:1"})

	_, err := handler.Execute(t.Context(), protocol.HandlerInput{
		InstanceID: "inst-1",
		NodeID:     "check",
	})
	require.Error(t, err)
}
