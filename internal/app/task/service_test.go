package task

import (
	"context"
	"testing"
	"time"

	"taskboard/internal/app/board"
	"taskboard/internal/app/user"
	"taskboard/internal/db/dbtest"
	"taskboard/internal/models"
	"taskboard/internal/utils"
	"taskboard/pkg/apierrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db     *gorm.DB
	repo   Repository
	boards board.Service
	users  user.Repository
	bus    *utils.EventBus
	svc    Service
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	conn := dbtest.New(t)
	repo := NewRepository(conn)
	users := user.NewRepository(conn)
	bus := utils.NewEventBus(zap.NewNop())
	boards := board.NewService(conn, board.NewRepository(conn), repo, users, nil, bus, zap.NewNop())
	return &fixture{
		db:     conn,
		repo:   repo,
		boards: boards,
		users:  users,
		bus:    bus,
		svc:    NewService(repo, boards, bus, zap.NewNop(), opts),
	}
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: name + "@example.com", PasswordHash: "x"}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

type cast struct {
	owner, admin, member, stranger *models.User
	board                          *models.Board
}

func (f *fixture) cast(t *testing.T) cast {
	t.Helper()
	ctx := context.Background()
	c := cast{
		owner:    f.user(t, "owner"),
		admin:    f.user(t, "admin"),
		member:   f.user(t, "member"),
		stranger: f.user(t, "stranger"),
	}
	b, err := f.boards.Create(ctx, c.owner.ID, "Board")
	require.NoError(t, err)
	members := []board.MemberRequest{
		{User: c.admin.ID, Role: models.RoleAdmin},
		{User: c.member.ID, Role: models.RoleMember},
	}
	_, err = f.boards.Update(ctx, b.ID, c.owner.ID, board.UpdateInput{Members: &members})
	require.NoError(t, err)
	c.board, err = f.boards.Load(ctx, b.ID)
	require.NoError(t, err)
	drain(f.bus)
	return c
}

func (f *fixture) reload(t *testing.T, id string) *models.Board {
	t.Helper()
	b, err := f.boards.Load(context.Background(), id)
	require.NoError(t, err)
	return b
}

func (f *fixture) create(t *testing.T, c cast, colIdx int, title string) *models.Task {
	t.Helper()
	task, err := f.svc.Create(context.Background(), c.board.ID, c.owner.ID, CreateInput{
		Title:    title,
		Priority: models.PriorityMedium,
		ColumnID: c.board.Columns[colIdx].ID,
	})
	require.NoError(t, err)
	return task
}

func drain(bus *utils.EventBus) []utils.Event {
	var out []utils.Event
	for {
		select {
		case e := <-bus.SubscribeCh():
			out = append(out, e)
		default:
			return out
		}
	}
}

func occurrences(b *models.Board, taskID string) map[string]int {
	out := map[string]int{}
	for _, col := range b.Columns {
		for _, id := range col.Tasks {
			if id == taskID {
				out[col.ID]++
			}
		}
	}
	return out
}

func TestCreate_PlacesTaskExactlyOnce(t *testing.T) {
	f := newFixture(t, Options{})
	c := f.cast(t)
	todo := c.board.Columns[0]
	require.Equal(t, "To Do", todo.Title)

	due := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	task, err := f.svc.Create(context.Background(), c.board.ID, c.admin.ID, CreateInput{
		Title:     "Write tests",
		Priority:  models.PriorityHigh,
		DueDate:   &due,
		Checklist: []models.ChecklistItem{{Text: "unit"}},
		ColumnID:  todo.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, todo.ID, task.ColumnID)
	assert.Equal(t, c.board.ID, task.BoardID)

	b := f.reload(t, c.board.ID)
	assert.Equal(t, map[string]int{todo.ID: 1}, occurrences(b, task.ID))
	assert.Equal(t, []string{task.ID}, b.Columns[0].Tasks)

	events := drain(f.bus)
	require.Len(t, events, 1)
	assert.Equal(t, EventTaskCreated, events[0].Event)
	assert.Equal(t, c.board.ID, events[0].Room)
}

func TestCreate_MissingColumnLeavesNoTask(t *testing.T) {
	f := newFixture(t, Options{})
	c := f.cast(t)

	_, err := f.svc.Create(context.Background(), c.board.ID, c.owner.ID, CreateInput{Title: "x", ColumnID: "nope"})
	require.ErrorIs(t, err, apierrors.ErrNotFound)

	var n int64
	require.NoError(t, f.db.Model(&models.Task{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Empty(t, drain(f.bus))
}

func TestCreate_MissingBoard(t *testing.T) {
	f := newFixture(t, Options{})
	c := f.cast(t)
	_, err := f.svc.Create(context.Background(), "missing", c.owner.ID, CreateInput{Title: "x", ColumnID: "c"})
	require.ErrorIs(t, err, apierrors.ErrNotFound)
}

func TestMove_ThereAndBackRestoresPosition(t *testing.T) {
	f := newFixture(t, Options{})
	c := f.cast(t)
	ctx := context.Background()
	var tasks []*models.Task
	for _, title := range []string{"a", "b", "c"} {
		tasks = append(tasks, f.create(t, c, 0, title))
	}
	from, to := c.board.Columns[0].ID, c.board.Columns[1].ID
	before := f.reload(t, c.board.ID)

	j := 1
	moved, err := f.svc.Move(ctx, c.board.ID, c.admin.ID, MoveInput{TaskID: tasks[j].ID, FromColumnID: from, ToColumnID: to})
	require.NoError(t, err)
	assert.Equal(t, to, moved.ColumnID)
	mid := f.reload(t, c.board.ID)
	assert.Equal(t, map[string]int{to: 1}, occurrences(mid, tasks[j].ID))

	_, err = f.svc.Move(ctx, c.board.ID, c.admin.ID, MoveInput{TaskID: tasks[j].ID, FromColumnID: to, ToColumnID: from, Index: &j})
	require.NoError(t, err)

	after := f.reload(t, c.board.ID)
	assert.Equal(t, before.Columns[0].Tasks, after.Columns[0].Tasks)
	assert.Empty(t, after.Columns[1].Tasks)

	stored, err := f.repo.GetByID(ctx, tasks[j].ID)
	require.NoError(t, err)
	assert.Equal(t, from, stored.ColumnID)
}

func TestMove_ReorderWithinColumn(t *testing.T) {
	f := newFixture(t, Options{})
	c := f.cast(t)
	a, b, d := f.create(t, c, 0, "a"), f.create(t, c, 0, "b"), f.create(t, c, 0, "d")
	col := c.board.Columns[0].ID

	zero := 0
	_, err := f.svc.Move(context.Background(), c.board.ID, c.owner.ID, MoveInput{TaskID: d.ID, FromColumnID: col, ToColumnID: col, Index: &zero})
	require.NoError(t, err)
	assert.Equal(t, []string{d.ID, a.ID, b.ID}, f.reload(t, c.board.ID).Columns[0].Tasks)

	far := 99
	_, err = f.svc.Move(context.Background(), c.board.ID, c.owner.ID, MoveInput{TaskID: d.ID, FromColumnID: col, ToColumnID: col, Index: &far})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID, d.ID}, f.reload(t, c.board.ID).Columns[0].Tasks)
}

func TestMove_PublishesEvent(t *testing.T) {
	f := newFixture(t, Options{})
	c := f.cast(t)
	task := f.create(t, c, 0, "a")
	drain(f.bus)

	from, to := c.board.Columns[0].ID, c.board.Columns[2].ID
	_, err := f.svc.Move(context.Background(), c.board.ID, c.owner.ID, MoveInput{TaskID: task.ID, FromColumnID: from, ToColumnID: to})
	require.NoError(t, err)

	events := drain(f.bus)
	require.Len(t, events, 1)
	assert.Equal(t, EventTaskMoved, events[0].Event)
	payload, ok := events[0].Data.(MovedEvent)
	require.True(t, ok)
	assert.Equal(t, task.ID, payload.TaskID)
	assert.Equal(t, from, payload.FromColumnID)
	assert.Equal(t, to, payload.ToColumnID)
	assert.Equal(t, to, payload.Task.ColumnID)
}

func TestMove_NotFoundCases(t *testing.T) {
	f := newFixture(t, Options{})
	c := f.cast(t)
	task := f.create(t, c, 0, "a")
	from, to := c.board.Columns[0].ID, c.board.Columns[1].ID

	other, err := f.boards.Create(context.Background(), c.owner.ID, "Other")
	require.NoError(t, err)

	tests := []struct {
		name    string
		boardID string
		in      MoveInput
	}{
		{name: "board", boardID: "missing", in: MoveInput{TaskID: task.ID, FromColumnID: from, ToColumnID: to}},
		{name: "task", boardID: c.board.ID, in: MoveInput{TaskID: "missing", FromColumnID: from, ToColumnID: to}},
		{name: "from column", boardID: c.board.ID, in: MoveInput{TaskID: task.ID, FromColumnID: "x", ToColumnID: to}},
		{name: "to column", boardID: c.board.ID, in: MoveInput{TaskID: task.ID, FromColumnID: from, ToColumnID: "x"}},
		{name: "task of other board", boardID: other.ID, in: MoveInput{TaskID: task.ID, FromColumnID: other.Columns[0].ID, ToColumnID: other.Columns[1].ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Move(context.Background(), tt.boardID, c.owner.ID, tt.in)
			require.ErrorIs(t, err, apierrors.ErrNotFound)
		})
	}
}

func TestMove_MissingColumnIdsCheckPermissionFirst(t *testing.T) {
	f := newFixture(t, Options{})
	c := f.cast(t)
	task := f.create(t, c, 0, "a")
	to := c.board.Columns[1].ID

	_, err := f.svc.Move(context.Background(), c.board.ID, c.stranger.ID, MoveInput{TaskID: task.ID, ToColumnID: to})
	require.ErrorIs(t, err, apierrors.ErrPermissionDenied)

	_, err = f.svc.Move(context.Background(), c.board.ID, c.owner.ID, MoveInput{TaskID: task.ID, ToColumnID: to})
	require.ErrorIs(t, err, apierrors.ErrNotFound)
	assert.Contains(t, err.Error(), "From column not found")

	_, err = f.svc.Move(context.Background(), c.board.ID, c.owner.ID, MoveInput{TaskID: task.ID, FromColumnID: c.board.Columns[0].ID})
	require.ErrorIs(t, err, apierrors.ErrNotFound)
	assert.Contains(t, err.Error(), "To column not found")
}

func TestStrangerMoveIsDeniedAndBoardUnchanged(t *testing.T) {
	f := newFixture(t, Options{})
	c := f.cast(t)
	task := f.create(t, c, 0, "Write tests")
	before := f.reload(t, c.board.ID)

	_, err := f.svc.Move(context.Background(), c.board.ID, c.stranger.ID, MoveInput{
		TaskID: task.ID, FromColumnID: before.Columns[0].ID, ToColumnID: before.Columns[1].ID,
	})
	require.ErrorIs(t, err, apierrors.ErrPermissionDenied)
	assert.Equal(t, "You do not have permission to move tasks in this board.", err.Error())

	after := f.reload(t, c.board.ID)
	assert.Equal(t, before.Columns, after.Columns)
	assert.Equal(t, before.Revision, after.Revision)
}

func TestDelete_PurgesEveryColumnEvenWithStaleColumnID(t *testing.T) {
	f := newFixture(t, Options{})
	c := f.cast(t)
	ctx := context.Background()
	task := f.create(t, c, 0, "a")

	// Corrupt the board so the id sits in two columns and the task points at a third.
	_, err := f.boards.Mutate(ctx, c.board.ID, func(tx *gorm.DB, b *models.Board) error {
		b.Columns[1].Tasks = append(b.Columns[1].Tasks, task.ID)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, f.repo.SetColumn(ctx, task.ID, c.board.Columns[2].ID))
	drain(f.bus)

	require.NoError(t, f.svc.Delete(ctx, c.board.ID, task.ID, c.owner.ID))

	b := f.reload(t, c.board.ID)
	assert.Empty(t, occurrences(b, task.ID))
	_, err = f.repo.GetByID(ctx, task.ID)
	require.ErrorIs(t, err, apierrors.ErrNotFound)

	events := drain(f.bus)
	require.Len(t, events, 1)
	assert.Equal(t, DeletedEvent{TaskID: task.ID, BoardID: c.board.ID}, events[0].Data)

	require.ErrorIs(t, f.svc.Delete(ctx, c.board.ID, task.ID, c.owner.ID), apierrors.ErrNotFound)
}

func TestMutationPermissions(t *testing.T) {
	actions := []string{"create", "move", "delete"}
	roles := []struct {
		name  string
		actor func(c cast) *models.User
		allow bool
	}{
		{name: "owner", actor: func(c cast) *models.User { return c.owner }, allow: true},
		{name: "admin", actor: func(c cast) *models.User { return c.admin }, allow: true},
		{name: "member", actor: func(c cast) *models.User { return c.member }},
		{name: "stranger", actor: func(c cast) *models.User { return c.stranger }},
	}

	for _, role := range roles {
		for _, action := range actions {
			t.Run(role.name+"/"+action, func(t *testing.T) {
				f := newFixture(t, Options{})
				c := f.cast(t)
				ctx := context.Background()
				actor := role.actor(c)
				existing := f.create(t, c, 0, "existing")
				before := f.reload(t, c.board.ID)

				var err error
				switch action {
				case "create":
					_, err = f.svc.Create(ctx, c.board.ID, actor.ID, CreateInput{Title: "new", Priority: models.PriorityLow, ColumnID: before.Columns[0].ID})
				case "move":
					_, err = f.svc.Move(ctx, c.board.ID, actor.ID, MoveInput{TaskID: existing.ID, FromColumnID: before.Columns[0].ID, ToColumnID: before.Columns[1].ID})
				case "delete":
					err = f.svc.Delete(ctx, c.board.ID, existing.ID, actor.ID)
				}

				if role.allow {
					require.NoError(t, err)
					return
				}
				require.ErrorIs(t, err, apierrors.ErrPermissionDenied)
				assert.Equal(t, before.Columns, f.reload(t, c.board.ID).Columns)
			})
		}
	}
}

func TestUpdate_PermissiveByDefault(t *testing.T) {
	f := newFixture(t, Options{})
	c := f.cast(t)
	ctx := context.Background()
	task := f.create(t, c, 0, "a")
	drain(f.bus)

	desc := "details"
	high := models.PriorityHigh
	items := []models.ChecklistItem{{Text: "one", Completed: true}}
	updated, err := f.svc.Update(ctx, c.board.ID, task.ID, c.member.ID, Patch{
		Description:    &desc,
		DescriptionSet: true,
		Priority:       &high,
		Checklist:      &items,
	})
	require.NoError(t, err)
	assert.Equal(t, "a", updated.Title)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "details", *updated.Description)
	assert.Equal(t, models.PriorityHigh, updated.Priority)
	assert.Equal(t, items, []models.ChecklistItem(updated.Checklist))

	cleared, err := f.svc.Update(ctx, c.board.ID, task.ID, c.stranger.ID, Patch{DescriptionSet: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.Description)
	assert.Equal(t, models.PriorityHigh, cleared.Priority)

	events := drain(f.bus)
	require.Len(t, events, 2)
	assert.Equal(t, EventTaskUpdated, events[0].Event)
}

func TestUpdate_RoleCheckWhenEnabled(t *testing.T) {
	f := newFixture(t, Options{UpdateRequiresRole: true})
	c := f.cast(t)
	task := f.create(t, c, 0, "a")
	title := "renamed"

	_, err := f.svc.Update(context.Background(), c.board.ID, task.ID, c.member.ID, Patch{Title: &title})
	require.ErrorIs(t, err, apierrors.ErrPermissionDenied)

	updated, err := f.svc.Update(context.Background(), c.board.ID, task.ID, c.admin.ID, Patch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
}

func TestUpdate_NotFound(t *testing.T) {
	f := newFixture(t, Options{})
	c := f.cast(t)
	task := f.create(t, c, 0, "a")
	title := "x"

	_, err := f.svc.Update(context.Background(), c.board.ID, "missing", c.owner.ID, Patch{Title: &title})
	require.ErrorIs(t, err, apierrors.ErrNotFound)
	_, err = f.svc.Update(context.Background(), "other-board", task.ID, c.owner.ID, Patch{Title: &title})
	require.ErrorIs(t, err, apierrors.ErrNotFound)

	other, err := f.boards.Create(context.Background(), c.owner.ID, "Other")
	require.NoError(t, err)
	_, err = f.svc.Update(context.Background(), other.ID, task.ID, c.owner.ID, Patch{Title: &title})
	require.ErrorIs(t, err, apierrors.ErrNotFound)
	stored, err := f.repo.GetByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", stored.Title)
}

func TestUpdate_RefreshesBoardView(t *testing.T) {
	f := newFixture(t, Options{})
	c := f.cast(t)
	ctx := context.Background()
	task := f.create(t, c, 0, "a")

	before, err := f.boards.Get(ctx, c.board.ID, c.owner.ID)
	require.NoError(t, err)

	title := "renamed"
	_, err = f.svc.Update(ctx, c.board.ID, task.ID, c.owner.ID, Patch{Title: &title})
	require.NoError(t, err)

	after, err := f.boards.Get(ctx, c.board.ID, c.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Revision+1, after.Revision)
	require.Len(t, after.Columns[0].Tasks, 1)
	assert.Equal(t, "renamed", after.Columns[0].Tasks[0].Title)
}
