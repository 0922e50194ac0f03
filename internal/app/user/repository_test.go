package user

import (
	"context"
	"testing"

	"taskboard/internal/db/dbtest"
	"taskboard/internal/models"
	"taskboard/pkg/apierrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.New(t))

	u := &models.User{Name: "Ana", Email: " Ana@Example.com ", PasswordHash: "x"}
	require.NoError(t, repo.Create(ctx, u))
	require.NotEmpty(t, u.ID)

	byEmail, err := repo.GetByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, "ana@example.com", byEmail.Email)

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", byID.Name)
}

func TestRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.New(t))

	require.NoError(t, repo.Create(ctx, &models.User{Name: "A", Email: "a@x.io", PasswordHash: "x"}))
	err := repo.Create(ctx, &models.User{Name: "B", Email: "A@x.io", PasswordHash: "y"})
	require.ErrorIs(t, err, apierrors.ErrInvalidInput)
}

func TestRepository_NotFound(t *testing.T) {
	repo := NewRepository(dbtest.New(t))
	_, err := repo.GetByID(context.Background(), "nope")
	require.ErrorIs(t, err, apierrors.ErrNotFound)
	_, err = repo.GetByEmail(context.Background(), "nope@x.io")
	require.ErrorIs(t, err, apierrors.ErrNotFound)
}

func TestRepository_ListByIDsAndSummaries(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.New(t))
	a := &models.User{Name: "A", Email: "a@x.io", PasswordHash: "x"}
	b := &models.User{Name: "B", Email: "b@x.io", PasswordHash: "x"}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	users, err := repo.ListByIDs(ctx, []string{a.ID, b.ID, "ghost"})
	require.NoError(t, err)
	require.Len(t, users, 2)

	idx := Summaries(users)
	assert.Equal(t, models.UserSummary{ID: a.ID, Name: "A", Email: "a@x.io"}, idx[a.ID])

	empty, err := repo.ListByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
