package board

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"taskboard/internal/middleware"
	"taskboard/pkg/apierrors"

	"github.com/gin-gonic/gin"
)

type Handler interface {
	ListBoards(c *gin.Context)
	GetBoard(c *gin.Context)
	CreateBoard(c *gin.Context)
	UpdateBoard(c *gin.Context)
	DeleteBoard(c *gin.Context)
}

type handler struct {
	service Service
}

func NewHandler(service Service) Handler {
	return &handler{service: service}
}

// @Summary List boards
// @Description Boards the caller owns or is a member of, oldest first
// @Tags Board
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Board
// @Failure 500 {object} apierrors.JsonErr
// @Router /api/boards [get]
func (h *handler) ListBoards(c *gin.Context) {
	boards, err := h.service.List(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, boards)
}

// @Summary Get board
// @Description Board with tasks and members expanded
// @Tags Board
// @Produce json
// @Security BearerAuth
// @Param boardId path string true "Board ID"
// @Success 200 {object} BoardView
// @Failure 404 {object} apierrors.JsonErr
// @Router /api/boards/{boardId} [get]
func (h *handler) GetBoard(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context(), c.Param("boardId"), middleware.CurrentUserID(c))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary Create board
// @Tags Board
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateBoardRequest true "Board"
// @Success 201 {object} models.Board
// @Failure 400 {object} apierrors.JsonErr
// @Router /api/boards [post]
func (h *handler) CreateBoard(c *gin.Context) {
	var req CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Respond(c, apierrors.New(apierrors.ErrInvalidInput, "Invalid board payload"))
		return
	}
	b, err := h.service.Create(c.Request.Context(), middleware.CurrentUserID(c), req.Title)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// @Summary Update board
// @Description Replaces title, columns and members. Omitted fields are unchanged. Tasks left out of every column stay in their last column. A stale revision fails with 400 conflict.
// @Tags Board
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param boardId path string true "Board ID"
// @Param body body UpdateBoardRequest true "Changes"
// @Success 200 {object} BoardView
// @Failure 400 {object} apierrors.JsonErr
// @Failure 403 {object} apierrors.JsonErr
// @Failure 404 {object} apierrors.JsonErr
// @Router /api/boards/{boardId} [put]
func (h *handler) UpdateBoard(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		apierrors.Respond(c, apierrors.New(apierrors.ErrInvalidInput, "Invalid board payload"))
		return
	}
	in, err := parseUpdate(body)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	view, err := h.service.Update(c.Request.Context(), c.Param("boardId"), middleware.CurrentUserID(c), in)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary Delete board
// @Description Owner only. Removes the board with its tasks, chat and invites.
// @Tags Board
// @Produce json
// @Security BearerAuth
// @Param boardId path string true "Board ID"
// @Success 200 {object} DeleteResponse
// @Failure 403 {object} apierrors.JsonErr
// @Failure 404 {object} apierrors.JsonErr
// @Router /api/boards/{boardId} [delete]
func (h *handler) DeleteBoard(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("boardId"), middleware.CurrentUserID(c)); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, DeleteResponse{Message: "Board deleted"})
}

func parseUpdate(body []byte) (UpdateInput, error) {
	invalid := apierrors.New(apierrors.ErrInvalidInput, "Invalid board payload")

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return UpdateInput{}, invalid
	}
	for _, field := range []string{"title", "columns", "members", "revision"} {
		if v, ok := raw[field]; ok && isJSONNull(v) {
			return UpdateInput{}, invalid
		}
	}

	var req UpdateBoardRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return UpdateInput{}, invalid
	}
	if req.Title == nil && req.Columns == nil && req.Members == nil {
		return UpdateInput{}, apierrors.New(apierrors.ErrInvalidInput, "Nothing to update")
	}
	return UpdateInput(req), nil
}

func isJSONNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}
