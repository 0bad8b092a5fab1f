package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"defi-copilot/internal/llm"
)

// Chat titles derived from the first question are clipped to this many runes.
const titleMaxLen = 30

// ConversationService orchestrates chats and messages over two stores. Every
// operation tries the primary store first and transparently re-executes
// against the fallback store when the primary is unavailable. The two stores
// are never reconciled: a chat lives entirely in whichever store holds it.
type ConversationService struct {
	primary   Store
	fallback  Store
	providers *llm.Registry
}

func NewConversationService(primary, fallback Store, providers *llm.Registry) *ConversationService {
	return &ConversationService{primary: primary, fallback: fallback, providers: providers}
}

// fallbackTo runs the primary operation and substitutes the fallback-store
// equivalent when the primary store is unavailable or does not hold the
// entity. Validation errors never reach this point.
func fallbackTo[T any](op string, primary func() (T, error), fallback func() (T, error)) (T, error) {
	value, err := primary()
	if err == nil {
		return value, nil
	}
	if errors.Is(err, ErrStoreUnavailable) {
		slog.Warn("primary store failed, using fallback store", "op", op, "error", err)
		return fallback()
	}
	if errors.Is(err, ErrChatNotFound) {
		return fallback()
	}
	return value, err
}

// ListChats returns every chat with its messages attached, newest first.
func (s *ConversationService) ListChats(ctx context.Context) ([]Chat, error) {
	return fallbackTo("list chats",
		func() ([]Chat, error) { return s.primary.ListChats(ctx) },
		func() ([]Chat, error) { return s.fallback.ListChats(ctx) },
	)
}

// CreateChat creates a chat with the given title and an empty message list.
// Exactly one store ends up holding the new chat.
func (s *ConversationService) CreateChat(ctx context.Context, title string) (Chat, error) {
	if strings.TrimSpace(title) == "" {
		return Chat{}, ErrEmptyTitle
	}

	chat := Chat{Title: title}
	return fallbackTo("create chat",
		func() (Chat, error) { return s.primary.CreateChat(ctx, chat) },
		func() (Chat, error) { return s.fallback.CreateChat(ctx, chat) },
	)
}

// GetChat returns the chat with its messages from whichever store holds it.
func (s *ConversationService) GetChat(ctx context.Context, chatID uuid.UUID) (Chat, error) {
	return fallbackTo("get chat",
		func() (Chat, error) { return s.primary.GetChat(ctx, chatID) },
		func() (Chat, error) { return s.fallback.GetChat(ctx, chatID) },
	)
}

// RenameChat updates the chat title in whichever store holds the chat.
func (s *ConversationService) RenameChat(ctx context.Context, chatID uuid.UUID, title string) (Chat, error) {
	if strings.TrimSpace(title) == "" {
		return Chat{}, ErrEmptyTitle
	}

	return fallbackTo("rename chat",
		func() (Chat, error) { return s.primary.RenameChat(ctx, chatID, title) },
		func() (Chat, error) { return s.fallback.RenameChat(ctx, chatID, title) },
	)
}

// DeleteChat removes the chat and all of its messages from whichever store
// holds it.
func (s *ConversationService) DeleteChat(ctx context.Context, chatID uuid.UUID) error {
	_, err := fallbackTo("delete chat",
		func() (struct{}, error) { return struct{}{}, s.primary.DeleteChat(ctx, chatID) },
		func() (struct{}, error) { return struct{}{}, s.fallback.DeleteChat(ctx, chatID) },
	)
	return err
}

// ListMessages returns the chat's messages ascending by creation order. A
// chat unknown to either store yields an empty list, not an error.
func (s *ConversationService) ListMessages(ctx context.Context, chatID uuid.UUID) ([]Message, error) {
	return fallbackTo("list messages",
		func() ([]Message, error) { return s.primary.ListMessages(ctx, chatID) },
		func() ([]Message, error) { return s.fallback.ListMessages(ctx, chatID) },
	)
}

// PostMessage generates an answer for question and persists the resulting
// question/answer pair in whichever store holds the chat. The first message
// of a chat also derives the chat title from the question; a failure there
// is logged and swallowed.
func (s *ConversationService) PostMessage(ctx context.Context, chatID uuid.UUID, question, providerName string) (Message, error) {
	if strings.TrimSpace(question) == "" {
		return Message{}, ErrEmptyQuestion
	}

	chat, owner, err := s.resolveChat(ctx, chatID)
	if err != nil {
		return Message{}, err
	}

	history := providerHistory(chat.Messages)
	history = append(history, llm.Message{Role: llm.RoleUser, Content: question})

	provider := s.providers.For(providerName)
	completion, err := provider.Complete(ctx, history)
	if err != nil {
		return Message{}, &ProviderError{Provider: provider.Name(), Err: err}
	}
	if strings.TrimSpace(completion.Message.Content) == "" {
		return Message{}, &ProviderError{Provider: provider.Name(), Err: errors.New("empty response content")}
	}

	created, owner, err := s.createMessage(ctx, owner, Message{
		Question: question,
		Answer:   completion.Message.Content,
		ChatID:   chatID,
	})
	if err != nil {
		return Message{}, err
	}

	if len(chat.Messages) == 0 {
		if _, err := owner.RenameChat(ctx, chatID, deriveTitle(question)); err != nil {
			slog.Warn("could not derive chat title from first message", "chat_id", chatID, "error", err)
		}
	}

	return created, nil
}

// Complete answers an ad-hoc message history without requiring a chat. When
// chatID names an existing chat, the final user question and the generated
// answer are additionally persisted to it.
func (s *ConversationService) Complete(ctx context.Context, history []llm.Message, chatID uuid.UUID, providerName string) (llm.Completion, error) {
	provider := s.providers.For(providerName)
	completion, err := provider.Complete(ctx, history)
	if err != nil {
		return llm.Completion{}, &ProviderError{Provider: provider.Name(), Err: err}
	}

	if chatID == uuid.Nil {
		return completion, nil
	}

	question := lastUserContent(history)
	if question == "" {
		return completion, nil
	}

	_, owner, err := s.resolveChat(ctx, chatID)
	if err != nil {
		if errors.Is(err, ErrChatNotFound) {
			return completion, nil
		}
		return llm.Completion{}, err
	}

	if _, _, err := s.createMessage(ctx, owner, Message{
		Question: question,
		Answer:   completion.Message.Content,
		ChatID:   chatID,
	}); err != nil {
		return llm.Completion{}, err
	}

	return completion, nil
}

// resolveChat finds the chat and the store currently holding it, primary
// first.
func (s *ConversationService) resolveChat(ctx context.Context, chatID uuid.UUID) (Chat, Store, error) {
	chat, err := s.primary.GetChat(ctx, chatID)
	if err == nil {
		return chat, s.primary, nil
	}
	if !errors.Is(err, ErrStoreUnavailable) && !errors.Is(err, ErrChatNotFound) {
		return Chat{}, nil, err
	}
	if errors.Is(err, ErrStoreUnavailable) {
		slog.Warn("primary store failed, using fallback store", "op", "resolve chat", "error", err)
	}

	chat, err = s.fallback.GetChat(ctx, chatID)
	if err != nil {
		return Chat{}, nil, err
	}
	return chat, s.fallback, nil
}

// createMessage persists msg in owner, dropping to the fallback store when a
// primary-store write fails mid-flight. It returns the store that ended up
// holding the message.
func (s *ConversationService) createMessage(ctx context.Context, owner Store, msg Message) (Message, Store, error) {
	created, err := owner.CreateMessage(ctx, msg)
	if err != nil && owner == s.primary && errors.Is(err, ErrStoreUnavailable) {
		slog.Warn("primary store failed, using fallback store", "op", "create message", "error", err)
		owner = s.fallback
		created, err = s.fallback.CreateMessage(ctx, msg)
	}
	if err != nil {
		return Message{}, nil, err
	}
	return created, owner, nil
}

// providerHistory flattens prior messages into alternating user/assistant
// turns in creation order.
func providerHistory(messages []Message) []llm.Message {
	history := make([]llm.Message, 0, 2*len(messages)+1)
	for _, msg := range messages {
		history = append(history,
			llm.Message{Role: llm.RoleUser, Content: msg.Question},
			llm.Message{Role: llm.RoleAssistant, Content: msg.Answer},
		)
	}
	return history
}

func lastUserContent(history []llm.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == llm.RoleUser {
			return history[i].Content
		}
	}
	return ""
}

func deriveTitle(question string) string {
	runes := []rune(question)
	if len(runes) <= titleMaxLen {
		return question
	}
	return string(runes[:titleMaxLen]) + "..."
}
