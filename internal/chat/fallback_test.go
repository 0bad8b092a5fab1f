package chat

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSeed(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	chats, err := store.ListChats(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, "Welcome to DeFi Copilot", chats[0].Title)
	require.Len(t, chats[0].Messages, 1)
	assert.Equal(t, "What can DeFi Copilot help me with?", chats[0].Messages[0].Question)
}

func TestMemoryStoreListChatsAttachesOwnMessagesOnly(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first, err := store.CreateChat(ctx, Chat{Title: "first"})
	require.NoError(t, err)
	second, err := store.CreateChat(ctx, Chat{Title: "second"})
	require.NoError(t, err)

	_, err = store.CreateMessage(ctx, Message{Question: "q1", Answer: "a1", ChatID: first.ID})
	require.NoError(t, err)
	_, err = store.CreateMessage(ctx, Message{Question: "q2", Answer: "a2", ChatID: second.ID})
	require.NoError(t, err)

	chats, err := store.ListChats(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 3)

	// Newest first.
	assert.Equal(t, "second", chats[0].Title)
	assert.Equal(t, "first", chats[1].Title)

	require.Len(t, chats[0].Messages, 1)
	assert.Equal(t, "q2", chats[0].Messages[0].Question)
	require.Len(t, chats[1].Messages, 1)
	assert.Equal(t, "q1", chats[1].Messages[0].Question)
}

func TestMemoryStoreDeleteCascades(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, err := store.CreateChat(ctx, Chat{Title: "doomed"})
	require.NoError(t, err)
	_, err = store.CreateMessage(ctx, Message{Question: "q", Answer: "a", ChatID: created.ID})
	require.NoError(t, err)

	require.NoError(t, store.DeleteChat(ctx, created.ID))

	_, err = store.GetChat(ctx, created.ID)
	assert.ErrorIs(t, err, ErrChatNotFound)

	messages, err := store.ListMessages(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)

	assert.ErrorIs(t, store.DeleteChat(ctx, created.ID), ErrChatNotFound)
}

func TestMemoryStoreCreateMessageUnknownChat(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.CreateMessage(context.Background(), Message{Question: "q", Answer: "a", ChatID: uuid.New()})
	assert.ErrorIs(t, err, ErrChatNotFound)
}

func TestMemoryStoreRename(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, err := store.CreateChat(ctx, Chat{Title: "before"})
	require.NoError(t, err)

	renamed, err := store.RenameChat(ctx, created.ID, "after")
	require.NoError(t, err)
	assert.Equal(t, "after", renamed.Title)

	_, err = store.RenameChat(ctx, uuid.New(), "missing")
	assert.ErrorIs(t, err, ErrChatNotFound)
}
