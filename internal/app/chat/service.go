package chat

import (
	"context"
	"strings"
	"unicode/utf8"

	"taskboard/internal/models"
	"taskboard/internal/utils"
	"taskboard/pkg/apierrors"

	"go.uber.org/zap"
)

// MembershipChecker reports whether a user belongs to a board. It returns a
// NotFound error when the board does not exist.
type MembershipChecker interface {
	IsMember(ctx context.Context, boardID, userID string) (bool, error)
}

type UserLister interface {
	ListByIDs(ctx context.Context, ids []string) ([]*models.User, error)
}

type Service interface {
	Post(ctx context.Context, boardID, userID, text string) (*MessageView, error)
	History(ctx context.Context, boardID, userID string, limit int) ([]MessageView, error)
}

type service struct {
	repo     Repository
	boards   MembershipChecker
	users    UserLister
	eventBus *utils.EventBus
	logger   *zap.SugaredLogger
}

func NewService(repo Repository, boards MembershipChecker, users UserLister, eventBus *utils.EventBus, logger *zap.Logger) Service {
	return &service{
		repo:     repo,
		boards:   boards,
		users:    users,
		eventBus: eventBus,
		logger:   logger.Sugar(),
	}
}

func (s *service) requireMember(ctx context.Context, boardID, userID string) error {
	ok, err := s.boards.IsMember(ctx, boardID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apierrors.New(apierrors.ErrPermissionDenied, "You are not a member of this board")
	}
	return nil
}

// Post persists a message and broadcasts it to the board room, sender included.
func (s *service) Post(ctx context.Context, boardID, userID, text string) (*MessageView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apierrors.New(apierrors.ErrInvalidInput, "Message cannot be empty")
	}
	if utf8.RuneCountInString(text) > MaxMessageRunes {
		return nil, apierrors.Newf(apierrors.ErrInvalidInput, "Message cannot exceed %d characters", MaxMessageRunes)
	}
	if err := s.requireMember(ctx, boardID, userID); err != nil {
		return nil, err
	}

	msg := &models.ChatMessage{BoardID: boardID, UserID: userID, Message: text}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}

	authors, err := s.authors(ctx, []*models.ChatMessage{msg})
	if err != nil {
		return nil, err
	}
	view := newView(msg, authors(userID))

	s.logger.Infow("Chat message posted", "board_id", boardID, "user_id", userID, "message_id", msg.ID)
	s.eventBus.Publish(boardID, EventChatMessage, view)
	return &view, nil
}

func (s *service) History(ctx context.Context, boardID, userID string, limit int) ([]MessageView, error) {
	if err := s.requireMember(ctx, boardID, userID); err != nil {
		return nil, err
	}
	messages, err := s.repo.ListByBoard(ctx, boardID, limit)
	if err != nil {
		return nil, err
	}
	authors, err := s.authors(ctx, messages)
	if err != nil {
		return nil, err
	}
	views := make([]MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, newView(m, authors(m.UserID)))
	}
	return views, nil
}

func (s *service) authors(ctx context.Context, messages []*models.ChatMessage) (func(id string) models.UserSummary, error) {
	seen := map[string]bool{}
	var ids []string
	for _, m := range messages {
		if !seen[m.UserID] {
			seen[m.UserID] = true
			ids = append(ids, m.UserID)
		}
	}
	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.UserSummary, len(users))
	for _, u := range users {
		byID[u.ID] = u.Summary()
	}
	return func(id string) models.UserSummary {
		if u, ok := byID[id]; ok {
			return u
		}
		return models.UserSummary{ID: id}
	}, nil
}
