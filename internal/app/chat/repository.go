package chat

import (
	"context"
	"fmt"

	"taskboard/internal/models"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, msg *models.ChatMessage) error
	ListByBoard(ctx context.Context, boardID string, limit int) ([]*models.ChatMessage, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, msg *models.ChatMessage) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("chat: create: %w", err)
	}
	return nil
}

// ListByBoard returns the board's messages oldest first. With limit > 0 only the
// most recent limit messages are returned.
func (r *repository) ListByBoard(ctx context.Context, boardID string, limit int) ([]*models.ChatMessage, error) {
	var messages []*models.ChatMessage
	q := r.db.WithContext(ctx).Where("board_id = ?", boardID)
	if limit <= 0 {
		err := q.Order("timestamp ASC").Order("id ASC").Find(&messages).Error
		return messages, err
	}

	err := q.Order("timestamp DESC").Order("id DESC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
