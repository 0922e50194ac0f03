package invite

import (
	"context"
	"errors"
	"strings"

	"taskboard/internal/app/board"
	"taskboard/internal/models"
	"taskboard/internal/permission"
	"taskboard/internal/utils"
	"taskboard/pkg/apierrors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]*models.User, error)
}

type Service interface {
	Send(ctx context.Context, inviterID string, req SendInviteRequest) (*models.Invite, error)
	ListPending(ctx context.Context, email string) ([]InviteView, error)
	Accept(ctx context.Context, inviteID string, user *models.User) (string, error)
	Reject(ctx context.Context, inviteID string, user *models.User) error
}

type service struct {
	repo     Repository
	boards   board.Service
	users    UserFinder
	eventBus *utils.EventBus
	logger   *zap.SugaredLogger
}

func NewService(repo Repository, boards board.Service, users UserFinder, eventBus *utils.EventBus, logger *zap.Logger) Service {
	return &service{
		repo:     repo,
		boards:   boards,
		users:    users,
		eventBus: eventBus,
		logger:   logger.Sugar(),
	}
}

// Send records a pending invite. Any authenticated user may invite to a board
// that exists.
func (s *service) Send(ctx context.Context, inviterID string, req SendInviteRequest) (*models.Invite, error) {
	boardID := strings.TrimSpace(req.BoardID)
	email := models.NormalizeEmail(req.InviteeEmail)
	if boardID == "" || email == "" {
		return nil, apierrors.New(apierrors.ErrInvalidInput, "boardId and inviteeEmail are required")
	}
	role := req.Role
	if role == "" {
		role = models.RoleMember
	}
	if !role.Valid() {
		return nil, apierrors.New(apierrors.ErrInvalidInput, "Role must be Admin or Member")
	}

	b, err := s.boards.Load(ctx, boardID)
	if err != nil {
		return nil, err
	}

	invitee, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if permission.IsBoardMember(b, invitee.ID) {
			return nil, apierrors.New(apierrors.ErrConflict, "User is already a member of this board")
		}
	case !errors.Is(err, apierrors.ErrNotFound):
		return nil, err
	}

	pending, err := s.repo.HasPending(ctx, boardID, email)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, apierrors.New(apierrors.ErrConflict, "Invite already sent to this email")
	}

	inv := &models.Invite{
		BoardID:      boardID,
		InviterID:    inviterID,
		InviteeEmail: email,
		Role:         role,
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}
	s.logger.Infow("Invite sent", "invite_id", inv.ID, "board_id", boardID, "inviter_id", inviterID, "role", role)
	return inv, nil
}

func (s *service) ListPending(ctx context.Context, email string) ([]InviteView, error) {
	invites, err := s.repo.ListPendingForEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	boardIDs := make([]string, 0, len(invites))
	inviterIDs := make([]string, 0, len(invites))
	for _, inv := range invites {
		boardIDs = append(boardIDs, inv.BoardID)
		inviterIDs = append(inviterIDs, inv.InviterID)
	}
	titles, err := s.repo.BoardTitles(ctx, boardIDs)
	if err != nil {
		return nil, err
	}
	inviters, err := s.users.ListByIDs(ctx, inviterIDs)
	if err != nil {
		return nil, err
	}
	summaries := make(map[string]models.UserSummary, len(inviters))
	for _, u := range inviters {
		summaries[u.ID] = u.Summary()
	}

	views := make([]InviteView, 0, len(invites))
	for _, inv := range invites {
		inviter, ok := summaries[inv.InviterID]
		if !ok {
			inviter = models.UserSummary{ID: inv.InviterID}
		}
		views = append(views, InviteView{
			ID:           inv.ID,
			Board:        BoardSummary{ID: inv.BoardID, Title: titles[inv.BoardID]},
			Inviter:      inviter,
			InviteeEmail: inv.InviteeEmail,
			Role:         inv.Role,
			Status:       inv.Status,
			CreatedAt:    inv.CreatedAt,
		})
	}
	return views, nil
}

func (s *service) pendingFor(ctx context.Context, inviteID string, user *models.User, verb string) (*models.Invite, error) {
	inv, err := s.repo.GetByID(ctx, inviteID)
	if err != nil {
		return nil, err
	}
	if inv.Status != models.InviteStatusPending {
		return nil, errHandled()
	}
	if inv.InviteeEmail != models.NormalizeEmail(user.Email) {
		return nil, apierrors.Newf(apierrors.ErrPermissionDenied, "You are not authorized to %s this invite", verb)
	}
	return inv, nil
}

// Accept adds the user to the board with the invited role and marks the invite
// accepted in the same transaction. It returns the board id.
func (s *service) Accept(ctx context.Context, inviteID string, user *models.User) (string, error) {
	inv, err := s.pendingFor(ctx, inviteID, user, "accept")
	if err != nil {
		return "", err
	}

	var role models.Role
	_, err = s.boards.Mutate(ctx, inv.BoardID, func(tx *gorm.DB, b *models.Board) error {
		if existing, ok := b.RoleOf(user.ID); ok {
			role = existing
		} else {
			b.Members = append(b.Members, models.Member{BoardID: b.ID, UserID: user.ID, Role: inv.Role})
			role = inv.Role
		}
		return s.repo.WithTx(tx).Transition(ctx, inv.ID, models.InviteStatusAccepted)
	})
	if err != nil {
		return "", err
	}

	s.logger.Infow("Invite accepted", "invite_id", inv.ID, "board_id", inv.BoardID, "user_id", user.ID, "role", role)
	s.eventBus.Publish(inv.BoardID, EventMemberJoined, MemberJoinedEvent{
		BoardID: inv.BoardID,
		User:    user.Summary(),
		Role:    role,
	})
	return inv.BoardID, nil
}

func (s *service) Reject(ctx context.Context, inviteID string, user *models.User) error {
	inv, err := s.pendingFor(ctx, inviteID, user, "reject")
	if err != nil {
		return err
	}
	if err := s.repo.Transition(ctx, inv.ID, models.InviteStatusRejected); err != nil {
		return err
	}
	s.logger.Infow("Invite rejected", "invite_id", inv.ID, "board_id", inv.BoardID, "user_id", user.ID)
	return nil
}
