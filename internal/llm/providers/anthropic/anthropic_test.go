package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jerzydziewierz/second-opinion/internal/llm"
)

func TestExecuteSendsSystemPromptAndParsesText(t *testing.T) {
	var payload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &payload))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-opus-4-6",
			"content": [{"type": "text", "text": "first "}, {"type": "text", "text": "second"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 3, "output_tokens": 5}
		}`))
	}))
	t.Cleanup(srv.Close)

	exec, err := NewExecutor("test-key", srv.URL, nil)
	require.NoError(t, err)

	resp, err := exec.Execute(context.Background(), llm.Request{Prompt: "hi", Model: "claude-opus-4-6", SystemPrompt: "sys"})
	require.NoError(t, err)
	require.Equal(t, "first second", resp.Text)
	require.Equal(t, &llm.Usage{PromptTokens: 3, CompletionTokens: 5, TotalTokens: 8}, resp.Usage)

	require.Equal(t, "claude-opus-4-6", payload["model"])
	system := payload["system"].([]interface{})
	require.Equal(t, "sys", system[0].(map[string]interface{})["text"])
}

func TestExecuteEmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "msg_2", "type": "message", "role": "assistant", "model": "claude-opus-4-6",
			"content": [], "stop_reason": "end_turn", "usage": {"input_tokens": 1, "output_tokens": 0}}`))
	}))
	t.Cleanup(srv.Close)

	exec, err := NewExecutor("test-key", srv.URL, nil)
	require.NoError(t, err)

	_, err = exec.Execute(context.Background(), llm.Request{Prompt: "hi", Model: "claude-opus-4-6"})
	require.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestMissingKey(t *testing.T) {
	_, err := NewExecutor("", "", nil)
	require.ErrorIs(t, err, llm.ErrMissingCredential)
	require.Contains(t, err.Error(), "ANTHROPIC_API_KEY environment variable is required for Claude models in API mode")
}
