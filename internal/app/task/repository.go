package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskboard/internal/models"
	"taskboard/pkg/apierrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Repository stores task documents. It never touches board column membership.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id string) (*models.Task, error)
	ListByIDs(ctx context.Context, ids []string) ([]*models.Task, error)
	ListByBoard(ctx context.Context, boardID string) ([]*models.Task, error)
	UpdateFields(ctx context.Context, id string, patch Patch) (*models.Task, error)
	SetColumn(ctx context.Context, id, columnID string) error
	Delete(ctx context.Context, id string) error
	DeleteByBoard(ctx context.Context, boardID string) (int64, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
	ListOrphans(ctx context.Context, before time.Time, limit int) ([]*models.Task, error)
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

func notFound() error {
	return apierrors.New(apierrors.ErrNotFound, "Task not found")
}

func (r *repository) Create(ctx context.Context, task *models.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("task: create: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound()
	}
	if err != nil {
		return nil, fmt.Errorf("task: get %s: %w", id, err)
	}
	return &task, nil
}

func (r *repository) ListByIDs(ctx context.Context, ids []string) ([]*models.Task, error) {
	var tasks []*models.Task
	if len(ids) == 0 {
		return tasks, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tasks).Error
	return tasks, err
}

func (r *repository) ListByBoard(ctx context.Context, boardID string) ([]*models.Task, error) {
	var tasks []*models.Task
	err := r.db.WithContext(ctx).Where("board_id = ?", boardID).Order("created_at ASC").Find(&tasks).Error
	return tasks, err
}

// UpdateFields merges the fields present in patch into the stored task.
func (r *repository) UpdateFields(ctx context.Context, id string, patch Patch) (*models.Task, error) {
	updates := map[string]interface{}{}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.DescriptionSet {
		updates["description"] = patch.Description
	}
	if patch.Priority != nil {
		updates["priority"] = *patch.Priority
	}
	if patch.DueDateSet {
		updates["due_date"] = patch.DueDate
	}
	if patch.Checklist != nil {
		updates["checklist"] = datatypes.JSONSlice[models.ChecklistItem](*patch.Checklist)
	}
	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("task: update %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, notFound()
		}
	}
	return r.GetByID(ctx, id)
}

func (r *repository) SetColumn(ctx context.Context, id, columnID string) error {
	res := r.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", id).Update("column_id", columnID)
	if res.Error != nil {
		return fmt.Errorf("task: set column %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound()
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Task{})
	if res.Error != nil {
		return fmt.Errorf("task: delete %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound()
	}
	return nil
}

func (r *repository) DeleteByBoard(ctx context.Context, boardID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("board_id = ?", boardID).Delete(&models.Task{})
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Task{})
	return res.RowsAffected, res.Error
}

// ListOrphans returns tasks created before the cutoff whose board no longer exists.
func (r *repository) ListOrphans(ctx context.Context, before time.Time, limit int) ([]*models.Task, error) {
	var tasks []*models.Task
	boards := r.db.Model(&models.Board{}).Select("id")
	err := r.db.WithContext(ctx).
		Where("created_at < ? AND board_id NOT IN (?)", before, boards).
		Order("created_at ASC").
		Limit(limit).
		Find(&tasks).Error
	return tasks, err
}
