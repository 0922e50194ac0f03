package invite

import (
	"context"
	"errors"
	"fmt"

	"taskboard/internal/models"
	"taskboard/pkg/apierrors"

	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, inv *models.Invite) error
	GetByID(ctx context.Context, id string) (*models.Invite, error)
	HasPending(ctx context.Context, boardID, email string) (bool, error)
	ListPendingForEmail(ctx context.Context, email string) ([]*models.Invite, error)
	Transition(ctx context.Context, id string, to models.InviteStatus) error
	BoardTitles(ctx context.Context, boardIDs []string) (map[string]string, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func errHandled() error {
	return apierrors.New(apierrors.ErrNotFound, "Invite not found or already handled")
}

func (r *repository) Create(ctx context.Context, inv *models.Invite) error {
	err := r.db.WithContext(ctx).Create(inv).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apierrors.New(apierrors.ErrConflict, "Invite already sent to this email")
	}
	if err != nil {
		return fmt.Errorf("invite: create: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*models.Invite, error) {
	var inv models.Invite
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errHandled()
	}
	if err != nil {
		return nil, fmt.Errorf("invite: get %s: %w", id, err)
	}
	return &inv, nil
}

func (r *repository) HasPending(ctx context.Context, boardID, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Invite{}).
		Where("board_id = ? AND invitee_email = ? AND status = ?", boardID, models.NormalizeEmail(email), models.InviteStatusPending).
		Count(&n).Error
	return n > 0, err
}

func (r *repository) ListPendingForEmail(ctx context.Context, email string) ([]*models.Invite, error) {
	var invites []*models.Invite
	err := r.db.WithContext(ctx).
		Where("invitee_email = ? AND status = ?", models.NormalizeEmail(email), models.InviteStatusPending).
		Order("created_at DESC").
		Find(&invites).Error
	return invites, err
}

// Transition moves a pending invite to status to. It fails with NotFound when
// the invite is missing or no longer pending, so a transition happens at most once.
func (r *repository) Transition(ctx context.Context, id string, to models.InviteStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Invite{}).
		Where("id = ? AND status = ?", id, models.InviteStatusPending).
		Update("status", to)
	if res.Error != nil {
		return fmt.Errorf("invite: transition %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return errHandled()
	}
	return nil
}

func (r *repository) BoardTitles(ctx context.Context, boardIDs []string) (map[string]string, error) {
	titles := make(map[string]string, len(boardIDs))
	if len(boardIDs) == 0 {
		return titles, nil
	}
	var rows []struct {
		ID    string
		Title string
	}
	err := r.db.WithContext(ctx).Model(&models.Board{}).Select("id", "title").Where("id IN ?", boardIDs).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		titles[row.ID] = row.Title
	}
	return titles, nil
}
