package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskboard/internal/models"
	"taskboard/internal/permission"
	"taskboard/internal/utils"
	"taskboard/pkg/apierrors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxMutateAttempts = 5

	EventBoardUpdated = "board-updated"
	EventBoardDeleted = "board-deleted"
)

// MutateFunc changes b in place. It runs inside the transaction that saves b;
// tx must be used for any other write that has to commit together with it.
type MutateFunc func(tx *gorm.DB, b *models.Board) error

// TaskLister loads task documents for view expansion.
type TaskLister interface {
	ListByIDs(ctx context.Context, ids []string) ([]*models.Task, error)
}

// UserLister loads users for view expansion and member validation.
type UserLister interface {
	ListByIDs(ctx context.Context, ids []string) ([]*models.User, error)
}

// Cache stores expanded board views. *redis.RedisProvider satisfies it.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) bool
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration)
	Invalidate(ctx context.Context, keys ...string)
}

type Service interface {
	Create(ctx context.Context, ownerID, title string) (*models.Board, error)
	CreateDefault(ctx context.Context, tx *gorm.DB, ownerID string) (*models.Board, error)
	List(ctx context.Context, actorID string) ([]*models.Board, error)
	Get(ctx context.Context, boardID, actorID string) (*BoardView, error)
	Load(ctx context.Context, boardID string) (*models.Board, error)
	Update(ctx context.Context, boardID, actorID string, in UpdateInput) (*BoardView, error)
	Delete(ctx context.Context, boardID, actorID string) error
	Mutate(ctx context.Context, boardID string, fn MutateFunc) (*models.Board, error)
	Reconcile(ctx context.Context, boardID string) (int, error)
	IsMember(ctx context.Context, boardID, userID string) (bool, error)
}

// errUnchanged aborts a mutation that found nothing to do.
var errUnchanged = errors.New("board: unchanged")

type service struct {
	db       *gorm.DB
	repo     Repository
	tasks    TaskLister
	users    UserLister
	cache    Cache
	eventBus *utils.EventBus
	logger   *zap.SugaredLogger
}

func NewService(db *gorm.DB, repo Repository, tasks TaskLister, users UserLister, cache Cache, eventBus *utils.EventBus, logger *zap.Logger) Service {
	if cache == nil {
		cache = noopCache{}
	}
	return &service{
		db:       db,
		repo:     repo,
		tasks:    tasks,
		users:    users,
		cache:    cache,
		eventBus: eventBus,
		logger:   logger.Sugar(),
	}
}

// viewCacheKey is scoped to a revision. Every change that shows up in the view
// bumps the revision, so an entry written from an old snapshot is never read.
func viewCacheKey(boardID string, revision int64) string {
	return fmt.Sprintf("board:view:%s:%d", boardID, revision)
}

func (s *service) Create(ctx context.Context, ownerID, title string) (*models.Board, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apierrors.New(apierrors.ErrInvalidInput, "Board title is required")
	}
	b := models.NewBoard(ownerID, title)
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	s.logger.Infow("Board created", "board_id", b.ID, "owner_id", ownerID)
	return b, nil
}

func (s *service) CreateDefault(ctx context.Context, tx *gorm.DB, ownerID string) (*models.Board, error) {
	b := models.NewBoard(ownerID, models.DefaultBoardTitle)
	if err := s.repo.WithTx(tx).Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) List(ctx context.Context, actorID string) ([]*models.Board, error) {
	return s.repo.ListForUser(ctx, actorID)
}

func (s *service) Load(ctx context.Context, boardID string) (*models.Board, error) {
	return s.repo.GetByID(ctx, boardID)
}

// Get returns the expanded board. Non-members get NotFound so they cannot
// probe for board ids.
func (s *service) Get(ctx context.Context, boardID, actorID string) (*BoardView, error) {
	rev, err := s.repo.Revision(ctx, boardID)
	if err != nil {
		return nil, err
	}
	var cached BoardView
	if s.cache.GetJSON(ctx, viewCacheKey(boardID, rev), &cached) {
		if !cached.HasMember(actorID) {
			return nil, apierrors.New(apierrors.ErrNotFound, "Board not found")
		}
		return &cached, nil
	}

	b, err := s.repo.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if !permission.Allowed(b, actorID, permission.ActionView) {
		return nil, apierrors.New(apierrors.ErrNotFound, "Board not found")
	}

	view, err := s.expand(ctx, b)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, viewCacheKey(b.ID, b.Revision), view, 0)
	return view, nil
}

func (s *service) expand(ctx context.Context, b *models.Board) (*BoardView, error) {
	tasks, err := s.tasks.ListByIDs(ctx, b.TaskIDs())
	if err != nil {
		return nil, fmt.Errorf("board: expand tasks %s: %w", b.ID, err)
	}
	byID := make(map[string]*models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	members := b.AllMembers()
	userIDs := make([]string, 0, len(members))
	for _, m := range members {
		userIDs = append(userIDs, m.UserID)
	}
	users, err := s.users.ListByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("board: expand members %s: %w", b.ID, err)
	}
	summaries := make(map[string]models.UserSummary, len(users))
	for _, u := range users {
		summaries[u.ID] = u.Summary()
	}
	summary := func(id string) models.UserSummary {
		if s, ok := summaries[id]; ok {
			return s
		}
		return models.UserSummary{ID: id}
	}

	view := &BoardView{
		ID:        b.ID,
		Title:     b.Title,
		Owner:     summary(b.OwnerID),
		Members:   make([]MemberView, 0, len(members)),
		Columns:   make([]ColumnView, 0, len(b.Columns)),
		Revision:  b.Revision,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	for _, m := range members {
		view.Members = append(view.Members, MemberView{User: summary(m.UserID), Role: m.Role})
	}
	for _, c := range b.Columns {
		cv := ColumnView{ID: c.ID, Title: c.Title, Tasks: make([]*models.Task, 0, len(c.Tasks))}
		for _, id := range c.Tasks {
			// ids without a document are skipped; the sweep reconciles them.
			if t, ok := byID[id]; ok {
				cv.Tasks = append(cv.Tasks, t)
			}
		}
		view.Columns = append(view.Columns, cv)
	}
	return view, nil
}

func (s *service) Update(ctx context.Context, boardID, actorID string, in UpdateInput) (*BoardView, error) {
	var title string
	if in.Title != nil {
		title = strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apierrors.New(apierrors.ErrInvalidInput, "Board title is required")
		}
	}
	var columns []models.Column
	if in.Columns != nil {
		var err error
		if columns, err = buildColumns(*in.Columns); err != nil {
			return nil, err
		}
	}
	var members []models.Member
	if in.Members != nil {
		var err error
		if members, err = s.buildMembers(ctx, *in.Members); err != nil {
			return nil, err
		}
	}

	b, err := s.Mutate(ctx, boardID, func(tx *gorm.DB, b *models.Board) error {
		if !permission.CanMutateBoard(b, actorID) {
			return apierrors.New(apierrors.ErrPermissionDenied, "You do not have permission to update this board.")
		}
		if in.Revision != nil && *in.Revision != b.Revision {
			return apierrors.New(apierrors.ErrConflict, "Board has changed since it was loaded, please refresh")
		}
		if in.Title != nil {
			b.Title = title
		}
		if in.Members != nil {
			for _, m := range members {
				if m.UserID == b.OwnerID {
					return apierrors.New(apierrors.ErrInvalidInput, "The board owner cannot be listed as a member")
				}
			}
			b.Members = members
		}
		if in.Columns != nil {
			repo := s.repo.WithTx(tx)
			owned, err := repo.TaskPlacements(ctx, b.ID)
			if err != nil {
				return err
			}
			if len(columns) == 0 && len(owned) > 0 {
				return apierrors.New(apierrors.ErrInvalidInput, "A board with tasks needs at least one column")
			}
			placed := append([]models.Column(nil), columns...)
			if n := placeTasks(placed, owned); n > 0 {
				s.logger.Infow("Kept tasks missing from column update", "board_id", b.ID, "tasks", n)
			}
			b.Columns = placed
			if err := repo.SyncTaskColumns(ctx, b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Board updated", "board_id", b.ID, "actor_id", actorID, "revision", b.Revision)
	s.eventBus.Publish(b.ID, EventBoardUpdated, b)

	view, err := s.expand(ctx, b)
	if err != nil {
		return nil, err
	}
	return view, nil
}

func buildColumns(reqs []ColumnRequest) ([]models.Column, error) {
	columns := make([]models.Column, 0, len(reqs))
	seen := make(map[string]bool, len(reqs))
	for _, r := range reqs {
		title := strings.TrimSpace(r.Title)
		if title == "" {
			return nil, apierrors.New(apierrors.ErrInvalidInput, "Column title is required")
		}
		id := strings.TrimSpace(r.ID)
		if id == "" {
			id = uuid.NewString()
		}
		if seen[id] {
			return nil, apierrors.Newf(apierrors.ErrInvalidInput, "Duplicate column id %s", id)
		}
		seen[id] = true
		tasks := r.Tasks
		if tasks == nil {
			tasks = []string{}
		}
		columns = append(columns, models.Column{ID: id, Title: title, Tasks: tasks})
	}
	return columns, nil
}

// placeTasks drops ids of tasks that are not on the board and keeps only the
// first listing of each id. Owned tasks no column lists go back to the column
// they last recorded, or the first column when that one is gone. It returns
// how many tasks were put back. columns must not be empty when owned is not.
func placeTasks(columns []models.Column, owned []TaskPlacement) int {
	allowed := make(map[string]bool, len(owned))
	for _, p := range owned {
		allowed[p.ID] = true
	}
	placed := make(map[string]bool, len(owned))
	for i := range columns {
		kept := make([]string, 0, len(columns[i].Tasks))
		for _, id := range columns[i].Tasks {
			if !allowed[id] || placed[id] {
				continue
			}
			placed[id] = true
			kept = append(kept, id)
		}
		columns[i].Tasks = kept
	}

	restored := 0
	for _, p := range owned {
		if placed[p.ID] {
			continue
		}
		target := 0
		for i := range columns {
			if columns[i].ID == p.ColumnID {
				target = i
				break
			}
		}
		columns[target].Tasks = append(columns[target].Tasks, p.ID)
		placed[p.ID] = true
		restored++
	}
	return restored
}

func (s *service) buildMembers(ctx context.Context, reqs []MemberRequest) ([]models.Member, error) {
	members := make([]models.Member, 0, len(reqs))
	seen := make(map[string]bool, len(reqs))
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		userID := strings.TrimSpace(r.User)
		if userID == "" {
			return nil, apierrors.New(apierrors.ErrInvalidInput, "Member user is required")
		}
		role := r.Role
		if role == "" {
			role = models.RoleMember
		}
		if !role.Valid() {
			return nil, apierrors.Newf(apierrors.ErrInvalidInput, "Invalid member role %q", string(role))
		}
		if seen[userID] {
			return nil, apierrors.New(apierrors.ErrInvalidInput, "Duplicate member")
		}
		seen[userID] = true
		ids = append(ids, userID)
		members = append(members, models.Member{UserID: userID, Role: role})
	}

	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(users) != len(ids) {
		return nil, apierrors.New(apierrors.ErrInvalidInput, "Unknown member user")
	}
	return members, nil
}

func (s *service) Delete(ctx context.Context, boardID, actorID string) error {
	b, err := s.repo.GetByID(ctx, boardID)
	if err != nil {
		return err
	}
	if !permission.CanDeleteBoard(b, actorID) {
		return apierrors.New(apierrors.ErrPermissionDenied, "Only the board owner can delete this board.")
	}
	if err := s.repo.Delete(ctx, boardID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, viewCacheKey(boardID, b.Revision))
	s.logger.Infow("Board deleted", "board_id", boardID, "actor_id", actorID)
	s.eventBus.Publish(boardID, EventBoardDeleted, DeletedEvent{BoardID: boardID})
	return nil
}

// Mutate applies fn to a fresh snapshot of the board and saves it in the same
// transaction. When another writer saved first the whole read-apply-save cycle
// is retried, so fn must be safe to run more than once.
func (s *service) Mutate(ctx context.Context, boardID string, fn MutateFunc) (*models.Board, error) {
	for attempt := 1; attempt <= maxMutateAttempts; attempt++ {
		var saved *models.Board
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			b, err := repo.GetByID(ctx, boardID)
			if err != nil {
				return err
			}
			if err := fn(tx, b); err != nil {
				return err
			}
			if err := repo.Save(ctx, b); err != nil {
				return err
			}
			saved = b
			return nil
		})
		if errors.Is(err, ErrStaleBoard) {
			s.logger.Warnw("Board changed concurrently, retrying", "board_id", boardID, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, err
		}
		s.cache.Invalidate(ctx, viewCacheKey(boardID, saved.Revision-1))
		return saved, nil
	}
	s.logger.Errorw("Board mutation retries exhausted", "board_id", boardID, "attempts", maxMutateAttempts)
	return nil, apierrors.New(apierrors.ErrConflict, "Board is being modified concurrently, please retry")
}

// Reconcile puts tasks of the board that no column lists back into a column.
// It returns how many were put back and leaves the board untouched when none were.
func (s *service) Reconcile(ctx context.Context, boardID string) (int, error) {
	restored := 0
	b, err := s.Mutate(ctx, boardID, func(tx *gorm.DB, b *models.Board) error {
		restored = 0
		owned, err := s.repo.WithTx(tx).TaskPlacements(ctx, b.ID)
		if err != nil {
			return err
		}
		if len(b.Columns) == 0 || len(owned) == 0 {
			return errUnchanged
		}
		columns := []models.Column(b.Columns)
		before := len(b.TaskIDs())
		restored = placeTasks(columns, owned)
		if restored == 0 && len(b.TaskIDs()) == before {
			return errUnchanged
		}
		b.Columns = columns
		return s.repo.WithTx(tx).SyncTaskColumns(ctx, b)
	})
	if errors.Is(err, errUnchanged) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	s.logger.Infow("Board reconciled", "board_id", b.ID, "restored", restored, "revision", b.Revision)
	s.eventBus.Publish(b.ID, EventBoardUpdated, b)
	return restored, nil
}

func (s *service) IsMember(ctx context.Context, boardID, userID string) (bool, error) {
	b, err := s.repo.GetByID(ctx, boardID)
	if err != nil {
		return false, err
	}
	return permission.IsBoardMember(b, userID), nil
}

type noopCache struct{}

func (noopCache) GetJSON(context.Context, string, interface{}) bool { return false }

func (noopCache) SetJSON(context.Context, string, interface{}, time.Duration) {}

func (noopCache) Invalidate(context.Context, ...string) {}
