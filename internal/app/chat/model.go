package chat

import (
	"time"

	"taskboard/internal/models"
)

const (
	EventChatMessage = "chat-message"

	MaxMessageRunes = 2000
)

type PostMessageRequest struct {
	Message string `json:"message" example:"Standup in 5"`
}

// MessageView is a persisted chat message with its author expanded.
type MessageView struct {
	ID        string             `json:"id"`
	BoardID   string             `json:"boardId"`
	User      models.UserSummary `json:"user"`
	Message   string             `json:"message"`
	Timestamp time.Time          `json:"timestamp"`
}

func newView(m *models.ChatMessage, author models.UserSummary) MessageView {
	return MessageView{
		ID:        m.ID,
		BoardID:   m.BoardID,
		User:      author,
		Message:   m.Message,
		Timestamp: m.Timestamp,
	}
}
