package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Chat is a named conversation owning an ordered list of messages. No store
// types leak past this package; both backends map to and from these.
type Chat struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Messages []Message `json:"messages"`
}

// Message is one question/answer pair belonging to exactly one chat. Messages
// are created atomically with both fields populated; there is no pending
// state.
type Message struct {
	ID       uuid.UUID `json:"id"`
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	ChatID   uuid.UUID `json:"chatId"`
}

var (
	ErrChatNotFound = errors.New("chat not found")

	// ErrStoreUnavailable is how a store reports any connectivity or query
	// failure. The service does not distinguish failure subtypes: any
	// occurrence triggers the fallback store.
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrEmptyTitle    = errors.New("title is required")
	ErrEmptyQuestion = errors.New("question is required")
)

// ProviderError wraps an answer-generation failure. It is surfaced to the
// caller and never retried.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Store is the persistence contract implemented by both the gorm-backed
// primary store and the in-memory fallback store.
//
// ListChats returns chats newest first, each with its messages attached in
// creation order. ListMessages returns messages ascending by creation order.
type Store interface {
	ListChats(ctx context.Context) ([]Chat, error)
	CreateChat(ctx context.Context, chat Chat) (Chat, error)
	GetChat(ctx context.Context, chatID uuid.UUID) (Chat, error)
	RenameChat(ctx context.Context, chatID uuid.UUID, title string) (Chat, error)
	DeleteChat(ctx context.Context, chatID uuid.UUID) error
	ListMessages(ctx context.Context, chatID uuid.UUID) ([]Message, error)
	CreateMessage(ctx context.Context, msg Message) (Message, error)
}
