package apierrors_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskboard/pkg/apierrors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_MapsKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", apierrors.New(apierrors.ErrInvalidInput, "title is required"), http.StatusBadRequest},
		{"conflict", apierrors.New(apierrors.ErrConflict, "invite already sent"), http.StatusBadRequest},
		{"permission", apierrors.New(apierrors.ErrPermissionDenied, "nope"), http.StatusForbidden},
		{"not found", apierrors.New(apierrors.ErrNotFound, "board not found"), http.StatusNotFound},
		{"unauthenticated", apierrors.New(apierrors.ErrUnauthenticated, "invalid token"), http.StatusUnauthorized},
		{"wrapped", fmt.Errorf("move task: %w", apierrors.New(apierrors.ErrNotFound, "task not found")), http.StatusNotFound},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apierrors.Status(tt.err))
		})
	}
}

func TestBuild_HidesUnexpectedErrors(t *testing.T) {
	got := apierrors.Build(errors.New("pq: password authentication failed"))
	assert.Equal(t, http.StatusInternalServerError, got.ErrDetails.Code)
	assert.Equal(t, "internal", got.ErrDetails.Kind)
	assert.Equal(t, "internal server error", got.ErrDetails.Message)
}

func TestBuild_KeepsDomainMessageThroughWrapping(t *testing.T) {
	err := fmt.Errorf("create task: %w", apierrors.New(apierrors.ErrPermissionDenied, "You do not have permission to add tasks to this board."))
	got := apierrors.Build(err)
	assert.Equal(t, http.StatusForbidden, got.ErrDetails.Code)
	assert.Equal(t, "permission_denied", got.ErrDetails.Kind)
	assert.Equal(t, "You do not have permission to add tasks to this board.", got.ErrDetails.Message)
}

func TestRespond_WritesJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/boards/x", nil)

	apierrors.Respond(c, apierrors.New(apierrors.ErrNotFound, "board not found"))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":{"code":404,"kind":"not_found","message":"board not found"}}`, rec.Body.String())
	assert.True(t, c.IsAborted())
}

func TestJsonErr_ErrorMethod(t *testing.T) {
	err := apierrors.Build(apierrors.New(apierrors.ErrInvalidInput, "bad"))
	assert.Equal(t, "Code: 400, Message: bad", err.Error())
}
