package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatMessage is append-only; history is ordered by Timestamp.
type ChatMessage struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	BoardID   string    `json:"board" gorm:"type:varchar(36);not null;index:idx_chat_board_ts,priority:1"`
	UserID    string    `json:"user" gorm:"type:varchar(36);not null"`
	Message   string    `json:"message" gorm:"type:text;not null"`
	Timestamp time.Time `json:"timestamp" gorm:"not null;index:idx_chat_board_ts,priority:2"`
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	return nil
}
