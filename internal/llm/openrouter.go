package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouter serves DeepSeek through OpenRouter's OpenAI-compatible chat
// completions endpoint.
type OpenRouter struct {
	client openai.Client
	model  string
	apiKey string
}

func NewOpenRouter(apiKey, model string, opts ...option.RequestOption) *OpenRouter {
	options := append([]option.RequestOption{
		option.WithBaseURL(openRouterBaseURL),
		option.WithAPIKey(apiKey),
	}, opts...)

	return &OpenRouter{
		client: openai.NewClient(options...),
		model:  model,
		apiKey: apiKey,
	}
}

func (o *OpenRouter) Name() string {
	return "deepseek"
}

func (o *OpenRouter) Complete(ctx context.Context, history []Message) (Completion, error) {
	if o.apiKey == "" {
		return Completion{}, fmt.Errorf("deepseek: OPENROUTER_API_KEY is not configured")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	res, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       o.model,
		Temperature: openai.Float(0.7),
		MaxTokens:   openai.Int(1000),
	})
	if err != nil {
		slog.Error("openrouter error: chat completions failed", "model", o.model, "error", err)
		return Completion{}, fmt.Errorf("openrouter completion failed: %w", err)
	}

	if len(res.Choices) == 0 {
		return Completion{}, fmt.Errorf("openrouter returned no choices")
	}
	choice := res.Choices[0]
	if choice.Message.Content == "" {
		return Completion{}, fmt.Errorf("openrouter returned an empty response")
	}

	return Completion{
		ID:           res.ID,
		Model:        res.Model,
		Message:      Message{Role: RoleAssistant, Content: choice.Message.Content},
		FinishReason: string(choice.FinishReason),
	}, nil
}
