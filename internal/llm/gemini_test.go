package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiComplete(t *testing.T) {
	var gotPath string
	var gotBody geminiRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		response := map[string]any{
			"candidates": []map[string]any{
				{
					"content": map[string]any{
						"role":  "model",
						"parts": []map[string]any{{"text": "Staking locks up tokens."}},
					},
					"finishReason": "STOP",
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	defer server.Close()

	provider := NewGemini("test-key", "gemini-1.5-flash")
	provider.client.SetBaseURL(server.URL)

	history := []Message{
		{Role: RoleUser, Content: "What is staking?"},
		{Role: RoleAssistant, Content: "An earlier answer."},
		{Role: RoleUser, Content: "Tell me more."},
	}
	completion, err := provider.Complete(context.Background(), history)
	require.NoError(t, err)

	assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", gotPath)
	require.Len(t, gotBody.Contents, 3)
	assert.Equal(t, "user", gotBody.Contents[0].Role)
	assert.Equal(t, "model", gotBody.Contents[1].Role)
	assert.Equal(t, "user", gotBody.Contents[2].Role)

	assert.Equal(t, "Staking locks up tokens.", completion.Message.Content)
	assert.Equal(t, RoleAssistant, completion.Message.Role)
	assert.Equal(t, "gemini-1.5-flash", completion.Model)
	assert.Equal(t, "STOP", completion.FinishReason)
	assert.NotEmpty(t, completion.ID)
}

func TestGeminiMissingAPIKey(t *testing.T) {
	provider := NewGemini("", "gemini-1.5-flash")

	_, err := provider.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	assert.Error(t, err)
}

func TestGeminiAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider := NewGemini("test-key", "gemini-1.5-flash")
	provider.client.SetBaseURL(server.URL)

	_, err := provider.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	assert.Error(t, err)
}

func TestGeminiEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"candidates": []}`)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer server.Close()

	provider := NewGemini("test-key", "gemini-1.5-flash")
	provider.client.SetBaseURL(server.URL)

	_, err := provider.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	assert.Error(t, err)
}
