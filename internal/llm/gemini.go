package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com"

// Gemini calls the Generative Language REST API.
type Gemini struct {
	client *resty.Client
	model  string
	apiKey string
}

func NewGemini(apiKey, model string) *Gemini {
	return &Gemini{
		client: resty.New().SetBaseURL(geminiBaseURL),
		model:  model,
		apiKey: apiKey,
	}
}

func (g *Gemini) Name() string {
	return "gemini"
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
			Role  string       `json:"role"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func (g *Gemini) Complete(ctx context.Context, history []Message) (Completion, error) {
	if g.apiKey == "" {
		return Completion{}, fmt.Errorf("gemini: GEMINI_API_KEY is not configured")
	}

	body := geminiRequest{Contents: make([]geminiContent, 0, len(history))}
	for _, msg := range history {
		role := "user"
		if msg.Role == RoleAssistant {
			role = "model"
		}
		body.Contents = append(body.Contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: msg.Content}},
		})
	}

	var out geminiResponse
	res, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("key", g.apiKey).
		SetBody(body).
		SetResult(&out).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", g.model))
	if err != nil {
		slog.Error("gemini request failed", "model", g.model, "error", err)
		return Completion{}, fmt.Errorf("gemini request failed: %w", err)
	}
	if res.IsError() {
		return Completion{}, fmt.Errorf("gemini api error: status %d: %s", res.StatusCode(), res.String())
	}

	if len(out.Candidates) == 0 {
		return Completion{}, fmt.Errorf("gemini returned no candidates")
	}
	candidate := out.Candidates[0]

	var content strings.Builder
	for _, part := range candidate.Content.Parts {
		content.WriteString(part.Text)
	}
	if content.Len() == 0 {
		return Completion{}, fmt.Errorf("gemini returned an empty response")
	}

	return Completion{
		ID:           uuid.NewString(),
		Model:        g.model,
		Message:      Message{Role: RoleAssistant, Content: content.String()},
		FinishReason: candidate.FinishReason,
	}, nil
}
