package board

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskboard/internal/models"
	"taskboard/pkg/apierrors"

	"gorm.io/gorm"
)

// ErrStaleBoard is returned by Save when the board changed since it was read.
var ErrStaleBoard = errors.New("board: stale revision")

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetByID(ctx context.Context, id string) (*models.Board, error)
	Revision(ctx context.Context, id string) (int64, error)
	ListForUser(ctx context.Context, userID string) ([]*models.Board, error)
	Create(ctx context.Context, b *models.Board) error
	Save(ctx context.Context, b *models.Board) error
	Delete(ctx context.Context, id string) error
	TaskPlacements(ctx context.Context, boardID string) ([]TaskPlacement, error)
	SyncTaskColumns(ctx context.Context, b *models.Board) error
	EachBatch(ctx context.Context, size int, fn func(boards []*models.Board) error) error
}

// TaskPlacement is the column a stored task last recorded for itself.
type TaskPlacement struct {
	ID       string
	ColumnID string
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

func (r *repository) GetByID(ctx context.Context, id string) (*models.Board, error) {
	var b models.Board
	err := r.db.WithContext(ctx).Preload("Members").Where("id = ?", id).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierrors.New(apierrors.ErrNotFound, "Board not found")
	}
	if err != nil {
		return nil, fmt.Errorf("board: get %s: %w", id, err)
	}
	return &b, nil
}

// Revision returns the stored revision without loading the document.
func (r *repository) Revision(ctx context.Context, id string) (int64, error) {
	var revs []int64
	err := r.db.WithContext(ctx).Model(&models.Board{}).Where("id = ?", id).Limit(1).Pluck("revision", &revs).Error
	if err != nil {
		return 0, fmt.Errorf("board: revision %s: %w", id, err)
	}
	if len(revs) == 0 {
		return 0, apierrors.New(apierrors.ErrNotFound, "Board not found")
	}
	return revs[0], nil
}

func (r *repository) ListForUser(ctx context.Context, userID string) ([]*models.Board, error) {
	var boards []*models.Board
	memberOf := r.db.Model(&models.Member{}).Select("board_id").Where("user_id = ?", userID)
	err := r.db.WithContext(ctx).
		Preload("Members").
		Where("owner_id = ? OR id IN (?)", userID, memberOf).
		Order("created_at ASC").
		Find(&boards).Error
	if err != nil {
		return nil, fmt.Errorf("board: list for %s: %w", userID, err)
	}
	return boards, nil
}

func (r *repository) Create(ctx context.Context, b *models.Board) error {
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("board: create: %w", err)
	}
	return nil
}

// Save replaces the stored document with b. The write only applies when the
// stored revision still equals b.Revision; on success b.Revision is advanced.
func (r *repository) Save(ctx context.Context, b *models.Board) error {
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Board{}).
			Where("id = ? AND revision = ?", b.ID, b.Revision).
			Updates(map[string]interface{}{
				"title":      b.Title,
				"columns":    b.Columns,
				"revision":   b.Revision + 1,
				"updated_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("board: save %s: %w", b.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrStaleBoard
		}

		if err := tx.Where("board_id = ?", b.ID).Delete(&models.Member{}).Error; err != nil {
			return fmt.Errorf("board: clear members %s: %w", b.ID, err)
		}
		if len(b.Members) == 0 {
			return nil
		}
		for i := range b.Members {
			b.Members[i].BoardID = b.ID
		}
		if err := tx.Create(&b.Members).Error; err != nil {
			return fmt.Errorf("board: write members %s: %w", b.ID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	b.Revision++
	b.UpdatedAt = now
	return nil
}

// Delete removes the board together with its tasks, chat history, invites and members.
func (r *repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dependents := []interface{}{
			&models.Task{},
			&models.ChatMessage{},
			&models.Invite{},
			&models.Member{},
		}
		for _, m := range dependents {
			if err := tx.Where("board_id = ?", id).Delete(m).Error; err != nil {
				return fmt.Errorf("board: cascade delete %s: %w", id, err)
			}
		}
		res := tx.Where("id = ?", id).Delete(&models.Board{})
		if res.Error != nil {
			return fmt.Errorf("board: delete %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return apierrors.New(apierrors.ErrNotFound, "Board not found")
		}
		return nil
	})
}

// TaskPlacements lists every stored task of the board, oldest first.
func (r *repository) TaskPlacements(ctx context.Context, boardID string) ([]TaskPlacement, error) {
	var out []TaskPlacement
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Select("id, column_id").
		Where("board_id = ?", boardID).
		Order("created_at ASC").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("board: task placements %s: %w", boardID, err)
	}
	return out, nil
}

// SyncTaskColumns points each listed task's column id at the column that lists it.
func (r *repository) SyncTaskColumns(ctx context.Context, b *models.Board) error {
	for _, col := range b.Columns {
		if len(col.Tasks) == 0 {
			continue
		}
		err := r.db.WithContext(ctx).Model(&models.Task{}).
			Where("board_id = ? AND id IN ? AND column_id <> ?", b.ID, col.Tasks, col.ID).
			Update("column_id", col.ID).Error
		if err != nil {
			return fmt.Errorf("board: sync columns %s: %w", b.ID, err)
		}
	}
	return nil
}

func (r *repository) EachBatch(ctx context.Context, size int, fn func(boards []*models.Board) error) error {
	var batch []*models.Board
	res := r.db.WithContext(ctx).FindInBatches(&batch, size, func(tx *gorm.DB, _ int) error {
		return fn(batch)
	})
	return res.Error
}
