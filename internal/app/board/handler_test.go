package board

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"taskboard/internal/middleware"
	"taskboard/internal/models"
	"taskboard/pkg/apierrors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type serviceMock struct {
	mock.Mock
}

func (m *serviceMock) Create(ctx context.Context, ownerID, title string) (*models.Board, error) {
	args := m.Called(ctx, ownerID, title)
	b, _ := args.Get(0).(*models.Board)
	return b, args.Error(1)
}

func (m *serviceMock) CreateDefault(ctx context.Context, tx *gorm.DB, ownerID string) (*models.Board, error) {
	args := m.Called(ctx, tx, ownerID)
	b, _ := args.Get(0).(*models.Board)
	return b, args.Error(1)
}

func (m *serviceMock) List(ctx context.Context, actorID string) ([]*models.Board, error) {
	args := m.Called(ctx, actorID)
	b, _ := args.Get(0).([]*models.Board)
	return b, args.Error(1)
}

func (m *serviceMock) Get(ctx context.Context, boardID, actorID string) (*BoardView, error) {
	args := m.Called(ctx, boardID, actorID)
	v, _ := args.Get(0).(*BoardView)
	return v, args.Error(1)
}

func (m *serviceMock) Load(ctx context.Context, boardID string) (*models.Board, error) {
	args := m.Called(ctx, boardID)
	b, _ := args.Get(0).(*models.Board)
	return b, args.Error(1)
}

func (m *serviceMock) Update(ctx context.Context, boardID, actorID string, in UpdateInput) (*BoardView, error) {
	args := m.Called(ctx, boardID, actorID, in)
	v, _ := args.Get(0).(*BoardView)
	return v, args.Error(1)
}

func (m *serviceMock) Delete(ctx context.Context, boardID, actorID string) error {
	return m.Called(ctx, boardID, actorID).Error(0)
}

func (m *serviceMock) Mutate(ctx context.Context, boardID string, fn MutateFunc) (*models.Board, error) {
	args := m.Called(ctx, boardID, fn)
	b, _ := args.Get(0).(*models.Board)
	return b, args.Error(1)
}

func (m *serviceMock) Reconcile(ctx context.Context, boardID string) (int, error) {
	args := m.Called(ctx, boardID)
	return args.Int(0), args.Error(1)
}

func (m *serviceMock) IsMember(ctx context.Context, boardID, userID string) (bool, error) {
	args := m.Called(ctx, boardID, userID)
	return args.Bool(0), args.Error(1)
}

func newRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api", func(c *gin.Context) {
		middleware.SetCurrentUser(c, &models.User{ID: "u1"})
	})
	RegisterRoutes(api, NewHandler(svc))
	return r
}

func TestHandler_GetBoardNotFound(t *testing.T) {
	svc := new(serviceMock)
	svc.On("Get", mock.Anything, "b1", "u1").Return(nil, apierrors.New(apierrors.ErrNotFound, "Board not found")).Once()

	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/boards/b1", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":{"code":404,"kind":"not_found","message":"Board not found"}}`, rec.Body.String())
	svc.AssertExpectations(t)
}

func TestHandler_CreateBoard(t *testing.T) {
	svc := new(serviceMock)
	svc.On("Create", mock.Anything, "u1", "Roadmap").Return(&models.Board{ID: "b1", Title: "Roadmap", OwnerID: "u1"}, nil).Once()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/boards", strings.NewReader(`{"title":"Roadmap"}`))
	req.Header.Set("Content-Type", "application/json")
	newRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"owner":"u1"`)
	svc.AssertExpectations(t)
}

func TestHandler_UpdateBoardParsesPartialBody(t *testing.T) {
	svc := new(serviceMock)
	svc.On("Update", mock.Anything, "b1", "u1", mock.MatchedBy(func(in UpdateInput) bool {
		return in.Title != nil && *in.Title == "New" && in.Columns == nil && in.Members == nil
	})).Return(&BoardView{ID: "b1", Title: "New"}, nil).Once()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/boards/b1", strings.NewReader(`{"title":"New"}`))
	newRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestParseUpdate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "not json", body: `nope`, wantErr: true},
		{name: "empty object", body: `{}`, wantErr: true},
		{name: "null title", body: `{"title":null}`, wantErr: true},
		{name: "null columns", body: `{"columns":null}`, wantErr: true},
		{name: "wrong type", body: `{"members":"x"}`, wantErr: true},
		{name: "null revision", body: `{"title":"A","revision":null}`, wantErr: true},
		{name: "revision only", body: `{"revision":3}`, wantErr: true},
		{name: "title with revision", body: `{"title":"A","revision":3}`},
		{name: "columns", body: `{"columns":[{"title":"A","tasks":[]}]}`},
		{name: "members", body: `{"members":[{"user":"u2","role":"Admin"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseUpdate([]byte(tt.body))
			if tt.wantErr {
				require.ErrorIs(t, err, apierrors.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
		})
	}
}
