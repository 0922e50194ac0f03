package task

import (
	"context"

	"taskboard/internal/app/board"
	"taskboard/internal/models"
	"taskboard/internal/permission"
	"taskboard/internal/utils"
	"taskboard/pkg/apierrors"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service interface {
	Create(ctx context.Context, boardID, actorID string, in CreateInput) (*models.Task, error)
	Update(ctx context.Context, boardID, taskID, actorID string, patch Patch) (*models.Task, error)
	Move(ctx context.Context, boardID, actorID string, in MoveInput) (*models.Task, error)
	Delete(ctx context.Context, boardID, taskID, actorID string) error
}

type Options struct {
	// UpdateRequiresRole applies the owner-or-admin check to task updates.
	UpdateRequiresRole bool
}

type service struct {
	repo     Repository
	boards   board.Service
	eventBus *utils.EventBus
	logger   *zap.SugaredLogger
	opts     Options
}

func NewService(repo Repository, boards board.Service, eventBus *utils.EventBus, logger *zap.Logger, opts Options) Service {
	return &service{
		repo:     repo,
		boards:   boards,
		eventBus: eventBus,
		logger:   logger.Sugar(),
		opts:     opts,
	}
}

func (s *service) Create(ctx context.Context, boardID, actorID string, in CreateInput) (*models.Task, error) {
	var created *models.Task
	_, err := s.boards.Mutate(ctx, boardID, func(tx *gorm.DB, b *models.Board) error {
		if !permission.CanMutateBoard(b, actorID) {
			return apierrors.New(apierrors.ErrPermissionDenied, "You do not have permission to add tasks to this board.")
		}
		col := b.Column(in.ColumnID)
		if col == nil {
			return apierrors.New(apierrors.ErrNotFound, "Column not found")
		}

		checklist := in.Checklist
		if checklist == nil {
			checklist = []models.ChecklistItem{}
		}
		task := &models.Task{
			Title:       in.Title,
			Description: in.Description,
			Priority:    in.Priority,
			DueDate:     in.DueDate,
			Checklist:   datatypes.JSONSlice[models.ChecklistItem](checklist),
			BoardID:     b.ID,
			ColumnID:    col.ID,
		}
		if err := s.repo.WithTx(tx).Create(ctx, task); err != nil {
			return err
		}
		col.Insert(task.ID, nil)
		created = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Task created", "task_id", created.ID, "board_id", boardID, "column_id", created.ColumnID, "actor_id", actorID)
	s.eventBus.Publish(boardID, EventTaskCreated, created)
	return created, nil
}

// Update merges patch into the task. Unless UpdateRequiresRole is set any
// authenticated caller may edit task fields. The board is saved alongside so
// its revision moves with every visible change.
func (s *service) Update(ctx context.Context, boardID, taskID, actorID string, patch Patch) (*models.Task, error) {
	var task *models.Task
	_, err := s.boards.Mutate(ctx, boardID, func(tx *gorm.DB, b *models.Board) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if current.BoardID != b.ID {
			return notFound()
		}
		if s.opts.UpdateRequiresRole && !permission.CanMutateBoard(b, actorID) {
			return apierrors.New(apierrors.ErrPermissionDenied, "You do not have permission to update tasks in this board.")
		}
		task, err = repo.UpdateFields(ctx, taskID, patch)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Task updated", "task_id", taskID, "board_id", boardID, "actor_id", actorID)
	s.eventBus.Publish(boardID, EventTaskUpdated, task)
	return task, nil
}

// Move takes the task out of every column and inserts it into the target
// column. Moving within one column reorders it.
func (s *service) Move(ctx context.Context, boardID, actorID string, in MoveInput) (*models.Task, error) {
	var moved *models.Task
	_, err := s.boards.Mutate(ctx, boardID, func(tx *gorm.DB, b *models.Board) error {
		if !permission.CanMutateBoard(b, actorID) {
			return apierrors.New(apierrors.ErrPermissionDenied, "You do not have permission to move tasks in this board.")
		}
		repo := s.repo.WithTx(tx)
		task, err := repo.GetByID(ctx, in.TaskID)
		if err != nil {
			return err
		}
		if task.BoardID != b.ID {
			return notFound()
		}
		if b.Column(in.FromColumnID) == nil {
			return apierrors.New(apierrors.ErrNotFound, "From column not found")
		}
		to := b.Column(in.ToColumnID)
		if to == nil {
			return apierrors.New(apierrors.ErrNotFound, "To column not found")
		}

		b.PurgeTask(task.ID)
		to.Insert(task.ID, in.Index)
		if err := repo.SetColumn(ctx, task.ID, to.ID); err != nil {
			return err
		}
		task.ColumnID = to.ID
		moved = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Task moved", "task_id", in.TaskID, "board_id", boardID, "from", in.FromColumnID, "to", in.ToColumnID, "actor_id", actorID)
	s.eventBus.Publish(boardID, EventTaskMoved, MovedEvent{
		TaskID:       in.TaskID,
		FromColumnID: in.FromColumnID,
		ToColumnID:   in.ToColumnID,
		Index:        in.Index,
		Task:         moved,
	})
	return moved, nil
}

// Delete removes the task document and every column reference to it.
func (s *service) Delete(ctx context.Context, boardID, taskID, actorID string) error {
	_, err := s.boards.Mutate(ctx, boardID, func(tx *gorm.DB, b *models.Board) error {
		if !permission.CanMutateBoard(b, actorID) {
			return apierrors.New(apierrors.ErrPermissionDenied, "You do not have permission to delete tasks from this board.")
		}
		repo := s.repo.WithTx(tx)
		task, err := repo.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if task.BoardID != b.ID {
			return notFound()
		}
		if err := repo.Delete(ctx, taskID); err != nil {
			return err
		}
		b.PurgeTask(taskID)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Infow("Task deleted", "task_id", taskID, "board_id", boardID, "actor_id", actorID)
	s.eventBus.Publish(boardID, EventTaskDeleted, DeletedEvent{TaskID: taskID, BoardID: boardID})
	return nil
}
