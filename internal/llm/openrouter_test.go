package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRouterComplete(t *testing.T) {
	var gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path

		response := map[string]any{
			"id":    "gen-123",
			"model": "deepseek/deepseek-r1-zero:free",
			"choices": []map[string]any{
				{
					"message": map[string]any{
						"role":    "assistant",
						"content": "Yield farming generates returns.",
					},
					"finish_reason": "stop",
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	defer server.Close()

	provider := NewOpenRouter("test-key", "deepseek/deepseek-r1-zero:free", option.WithBaseURL(server.URL))

	history := []Message{
		{Role: RoleUser, Content: "What is yield farming?"},
	}
	completion, err := provider.Complete(context.Background(), history)
	require.NoError(t, err)

	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "gen-123", completion.ID)
	assert.Equal(t, "deepseek/deepseek-r1-zero:free", completion.Model)
	assert.Equal(t, "Yield farming generates returns.", completion.Message.Content)
	assert.Equal(t, RoleAssistant, completion.Message.Role)
	assert.Equal(t, "stop", completion.FinishReason)
}

func TestOpenRouterMissingAPIKey(t *testing.T) {
	provider := NewOpenRouter("", "deepseek/deepseek-r1-zero:free")

	_, err := provider.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	assert.Error(t, err)
}

func TestOpenRouterEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"id": "gen-1", "model": "m", "choices": []}`)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer server.Close()

	provider := NewOpenRouter("test-key", "m", option.WithBaseURL(server.URL))

	_, err := provider.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	assert.Error(t, err)
}

func TestRegistryDefaultSelection(t *testing.T) {
	gemini := NewGemini("key", "gemini-1.5-flash")
	deepseek := NewOpenRouter("key", "deepseek/deepseek-r1-zero:free")

	registry := NewRegistry("gemini", gemini, deepseek)

	assert.Equal(t, "gemini", registry.For("").Name())
	assert.Equal(t, "gemini", registry.For("no-such-model").Name())
	assert.Equal(t, "deepseek", registry.For("deepseek").Name())
	assert.Equal(t, "gemini", registry.Default())
	assert.ElementsMatch(t, []string{"gemini", "deepseek"}, registry.Names())
}

func TestRegistryUnknownDefaultFallsBackToFirstProvider(t *testing.T) {
	gemini := NewGemini("key", "gemini-1.5-flash")

	registry := NewRegistry("typo", gemini)
	assert.Equal(t, "gemini", registry.Default())
	assert.Equal(t, "gemini", registry.For("anything").Name())
}
