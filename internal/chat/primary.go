package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"defi-copilot/internal/database"
)

// GormStore is the primary store adapter. Every failure other than a missing
// record is collapsed into ErrStoreUnavailable so the service can decide on
// fallback without inspecting driver errors.
type GormStore struct {
	// SQLite only supports one writer at a time, so we hold a lock whenever
	// we write to the database.
	mu sync.Mutex
	db *gorm.DB
}

// NewGormStore wraps db. A nil db is a valid degenerate state (the database
// could not be opened at startup); every operation then reports
// ErrStoreUnavailable.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) conn(ctx context.Context) (*gorm.DB, error) {
	if s.db == nil {
		return nil, fmt.Errorf("%w: database is not configured", ErrStoreUnavailable)
	}
	return s.db.WithContext(ctx), nil
}

func storeError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrChatNotFound
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

func (s *GormStore) ListChats(ctx context.Context) ([]Chat, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	var records []database.Chat
	err = db.
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, storeError(err)
	}

	chats := make([]Chat, 0, len(records))
	for _, record := range records {
		chats = append(chats, fromChatRecord(record))
	}
	return chats, nil
}

func (s *GormStore) CreateChat(ctx context.Context, chat Chat) (Chat, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return Chat{}, err
	}

	record := database.Chat{
		ID:        chat.ID,
		Title:     chat.Title,
		CreatedAt: time.Now().UTC(),
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := db.Create(&record).Error; err != nil {
		return Chat{}, storeError(err)
	}
	return fromChatRecord(record), nil
}

func (s *GormStore) GetChat(ctx context.Context, chatID uuid.UUID) (Chat, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return Chat{}, err
	}

	var record database.Chat
	err = db.
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&record, "id = ?", chatID).Error
	if err != nil {
		return Chat{}, storeError(err)
	}
	return fromChatRecord(record), nil
}

func (s *GormStore) RenameChat(ctx context.Context, chatID uuid.UUID, title string) (Chat, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return Chat{}, err
	}

	var record database.Chat
	if err := db.First(&record, "id = ?", chatID).Error; err != nil {
		return Chat{}, storeError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := db.Model(&database.Chat{ID: chatID}).Update("title", title).Error; err != nil {
		return Chat{}, storeError(err)
	}

	record.Title = title
	return fromChatRecord(record), nil
}

func (s *GormStore) DeleteChat(ctx context.Context, chatID uuid.UUID) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := db.Delete(&database.Message{}, "chat_id = ?", chatID).Error; err != nil {
		return storeError(err)
	}

	result := db.Delete(&database.Chat{}, "id = ?", chatID)
	if result.Error != nil {
		return storeError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrChatNotFound
	}
	return nil
}

func (s *GormStore) ListMessages(ctx context.Context, chatID uuid.UUID) ([]Message, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	var records []database.Message
	err = db.Where("chat_id = ?", chatID).Order("created_at ASC").Find(&records).Error
	if err != nil {
		return nil, storeError(err)
	}

	messages := make([]Message, 0, len(records))
	for _, record := range records {
		messages = append(messages, fromMessageRecord(record))
	}
	return messages, nil
}

func (s *GormStore) CreateMessage(ctx context.Context, msg Message) (Message, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return Message{}, err
	}

	record := database.Message{
		ID:        msg.ID,
		Question:  msg.Question,
		Answer:    msg.Answer,
		ChatID:    msg.ChatID,
		CreatedAt: time.Now().UTC(),
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := db.Create(&record).Error; err != nil {
		return Message{}, storeError(err)
	}
	return fromMessageRecord(record), nil
}

func fromChatRecord(record database.Chat) Chat {
	messages := make([]Message, 0, len(record.Messages))
	for _, msg := range record.Messages {
		messages = append(messages, fromMessageRecord(msg))
	}
	return Chat{ID: record.ID, Title: record.Title, Messages: messages}
}

func fromMessageRecord(record database.Message) Message {
	return Message{
		ID:       record.ID,
		Question: record.Question,
		Answer:   record.Answer,
		ChatID:   record.ChatID,
	}
}
