package database

import (
	"time"

	"github.com/google/uuid"
)

type Chat struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title     string    `gorm:"not null"`
	CreatedAt time.Time

	Messages []Message `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE"`
}

type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Question  string    `gorm:"not null"`
	Answer    string    `gorm:"not null"`
	ChatID    uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time
}
