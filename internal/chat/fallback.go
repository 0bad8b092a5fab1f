package chat

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is the in-memory fallback store. It lives for the lifetime of
// the process and never reports ErrStoreUnavailable; the only failures it
// knows are missing entities. All access is serialized through a single
// mutex so concurrent requests in degraded mode cannot lose updates.
type MemoryStore struct {
	mu       sync.Mutex
	chats    []Chat
	messages []Message
}

// NewMemoryStore seeds the store with an example conversation so the UI is
// never empty on a cold start without a database.
func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{}

	chatID := uuid.New()
	store.chats = append(store.chats, Chat{
		ID:    chatID,
		Title: "Welcome to DeFi Copilot",
	})
	store.messages = append(store.messages, Message{
		ID:       uuid.New(),
		Question: "What can DeFi Copilot help me with?",
		Answer: "I can help you with DeFi strategies, token analysis, market trends, and more. " +
			"Feel free to ask me anything about decentralized finance!",
		ChatID: chatID,
	})

	return store
}

func (s *MemoryStore) ListChats(ctx context.Context) ([]Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Newest first, each chat with only its own messages.
	chats := make([]Chat, 0, len(s.chats))
	for i := len(s.chats) - 1; i >= 0; i-- {
		chat := s.chats[i]
		chat.Messages = s.messagesFor(chat.ID)
		chats = append(chats, chat)
	}
	return chats, nil
}

func (s *MemoryStore) CreateChat(ctx context.Context, chat Chat) (Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if chat.ID == uuid.Nil {
		chat.ID = uuid.New()
	}
	chat.Messages = []Message{}
	s.chats = append(s.chats, chat)
	return chat, nil
}

func (s *MemoryStore) GetChat(ctx context.Context, chatID uuid.UUID) (Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chat := range s.chats {
		if chat.ID == chatID {
			chat.Messages = s.messagesFor(chatID)
			return chat, nil
		}
	}
	return Chat{}, ErrChatNotFound
}

func (s *MemoryStore) RenameChat(ctx context.Context, chatID uuid.UUID, title string) (Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.chats {
		if s.chats[i].ID == chatID {
			s.chats[i].Title = title
			chat := s.chats[i]
			chat.Messages = s.messagesFor(chatID)
			return chat, nil
		}
	}
	return Chat{}, ErrChatNotFound
}

func (s *MemoryStore) DeleteChat(ctx context.Context, chatID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chats := s.chats[:0]
	found := false
	for _, chat := range s.chats {
		if chat.ID == chatID {
			found = true
			continue
		}
		chats = append(chats, chat)
	}
	if !found {
		return ErrChatNotFound
	}
	s.chats = chats

	// Cascade: drop the chat's messages as well.
	messages := s.messages[:0]
	for _, msg := range s.messages {
		if msg.ChatID != chatID {
			messages = append(messages, msg)
		}
	}
	s.messages = messages
	return nil
}

func (s *MemoryStore) ListMessages(ctx context.Context, chatID uuid.UUID) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messagesFor(chatID), nil
}

func (s *MemoryStore) CreateMessage(ctx context.Context, msg Message) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for _, chat := range s.chats {
		if chat.ID == msg.ChatID {
			found = true
			break
		}
	}
	if !found {
		return Message{}, ErrChatNotFound
	}

	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	s.messages = append(s.messages, msg)
	return msg, nil
}

// messagesFor returns the chat's messages in insertion order. Callers must
// hold s.mu.
func (s *MemoryStore) messagesFor(chatID uuid.UUID) []Message {
	messages := make([]Message, 0)
	for _, msg := range s.messages {
		if msg.ChatID == chatID {
			messages = append(messages, msg)
		}
	}
	return messages
}
