package board

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"taskboard/internal/app/user"
	"taskboard/internal/db/dbtest"
	"taskboard/internal/models"
	"taskboard/internal/utils"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type dbTasks struct {
	db *gorm.DB
}

func (d dbTasks) ListByIDs(ctx context.Context, ids []string) ([]*models.Task, error) {
	var tasks []*models.Task
	if len(ids) == 0 {
		return tasks, nil
	}
	err := d.db.WithContext(ctx).Where("id IN ?", ids).Find(&tasks).Error
	return tasks, err
}

type memCache struct {
	entries     map[string][]byte
	invalidated []string
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

func (m *memCache) GetJSON(_ context.Context, key string, dst interface{}) bool {
	data, ok := m.entries[key]
	return ok && json.Unmarshal(data, dst) == nil
}

func (m *memCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) {
	data, _ := json.Marshal(value)
	m.entries[key] = data
}

func (m *memCache) Invalidate(_ context.Context, keys ...string) {
	for _, k := range keys {
		delete(m.entries, k)
		m.invalidated = append(m.invalidated, k)
	}
}

type fixture struct {
	db    *gorm.DB
	repo  Repository
	svc   Service
	bus   *utils.EventBus
	cache *memCache
	users user.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.New(t)
	repo := NewRepository(conn)
	users := user.NewRepository(conn)
	bus := utils.NewEventBus(zap.NewNop())
	cache := newMemCache()
	return &fixture{
		db:    conn,
		repo:  repo,
		svc:   NewService(conn, repo, dbTasks{db: conn}, users, cache, bus, zap.NewNop()),
		bus:   bus,
		cache: cache,
		users: users,
	}
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: name + "@example.com", PasswordHash: "x"}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

// board creates a board owned by owner with the given extra members.
func (f *fixture) board(t *testing.T, owner *models.User, members ...models.Member) *models.Board {
	t.Helper()
	ctx := context.Background()
	b, err := f.svc.Create(ctx, owner.ID, "Board")
	require.NoError(t, err)
	if len(members) == 0 {
		return b
	}
	b.Members = members
	require.NoError(t, f.repo.Save(ctx, b))
	return b
}

func (f *fixture) task(t *testing.T, b *models.Board, col *models.Column, title string) *models.Task {
	t.Helper()
	task := &models.Task{Title: title, BoardID: b.ID, ColumnID: col.ID}
	require.NoError(t, f.db.Create(task).Error)
	col.Tasks = append(col.Tasks, task.ID)
	require.NoError(t, f.repo.Save(context.Background(), b))
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
