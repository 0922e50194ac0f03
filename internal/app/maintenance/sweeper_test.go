package maintenance

import (
	"context"
	"testing"
	"time"

	"taskboard/internal/app/board"
	"taskboard/internal/app/task"
	"taskboard/internal/app/user"
	"taskboard/internal/db/dbtest"
	"taskboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	tasks   task.Repository
	boards  board.Repository
	service board.Service
	sweeper *Sweeper
}

func newFixture(t *testing.T, conn *gorm.DB) *fixture {
	t.Helper()
	tasks := task.NewRepository(conn)
	boards := board.NewRepository(conn)
	svc := board.NewService(conn, boards, tasks, user.NewRepository(conn), nil, nil, zap.NewNop())
	return &fixture{
		tasks:   tasks,
		boards:  boards,
		service: svc,
		sweeper: NewSweeper(tasks, boards, svc, "", 10*time.Minute, zap.NewNop()),
	}
}

func TestSweep(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	f := newFixture(t, conn)

	b := models.NewBoard("owner", "Board")
	old := time.Now().Add(-time.Hour)
	mk := func(id, boardID, columnID string, created time.Time) {
		require.NoError(t, f.tasks.Create(ctx, &models.Task{
			ID: id, Title: id, BoardID: boardID, ColumnID: columnID,
			Priority: models.PriorityMedium, CreatedAt: created,
		}))
	}
	mk("listed", b.ID, b.Columns[0].ID, old)
	mk("detached-old", b.ID, b.Columns[1].ID, old)
	mk("detached-new", b.ID, b.Columns[0].ID, time.Now())
	mk("orphan-old", "gone", "c", old)
	mk("orphan-new", "gone", "c", time.Now())
	b.Columns[0].Tasks = []string{"listed"}
	require.NoError(t, f.boards.Create(ctx, b))

	res, err := f.sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Orphaned: 1, Reattached: 2}, res)

	for _, id := range []string{"listed", "detached-old", "detached-new", "orphan-new"} {
		_, err := f.tasks.GetByID(ctx, id)
		assert.NoError(t, err, id)
	}
	_, err = f.tasks.GetByID(ctx, "orphan-old")
	assert.Error(t, err)

	stored, err := f.boards.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"listed", "detached-new"}, stored.Columns[0].Tasks)
	assert.Equal(t, []string{"detached-old"}, stored.Columns[1].Tasks)

	res, err = f.sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestSweep_KeepsTaskMissingFromStaleColumnUpdate(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	f := newFixture(t, conn)

	owner := &models.User{Name: "owner", Email: "owner@example.com", PasswordHash: "x"}
	require.NoError(t, user.NewRepository(conn).Create(ctx, owner))
	b, err := f.service.Create(ctx, owner.ID, "Board")
	require.NoError(t, err)

	// A column layout read before the task below existed.
	snapshot := make([]board.ColumnRequest, 0, len(b.Columns))
	for _, c := range b.Columns {
		snapshot = append(snapshot, board.ColumnRequest{ID: c.ID, Title: c.Title, Tasks: []string{}})
	}

	task := &models.Task{
		Title: "late", BoardID: b.ID, ColumnID: b.Columns[2].ID,
		Priority: models.PriorityMedium, CreatedAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, f.tasks.Create(ctx, task))
	b.Columns[2].Tasks = []string{task.ID}
	require.NoError(t, f.boards.Save(ctx, b))

	snapshot[0].Title = "Backlog"
	_, err = f.service.Update(ctx, b.ID, owner.ID, board.UpdateInput{Columns: &snapshot})
	require.NoError(t, err)

	res, err := f.sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)

	_, err = f.tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	stored, err := f.boards.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{task.ID}, stored.Columns[2].Tasks)
}

func TestSweeper_Start(t *testing.T) {
	f := newFixture(t, dbtest.New(t))

	require.NoError(t, NewSweeper(f.tasks, f.boards, f.service, "", time.Minute, zap.NewNop()).Start())
	require.Error(t, NewSweeper(f.tasks, f.boards, f.service, "not a schedule", time.Minute, zap.NewNop()).Start())

	s := NewSweeper(f.tasks, f.boards, f.service, "*/30 * * * *", time.Minute, zap.NewNop())
	require.NoError(t, s.Start())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
