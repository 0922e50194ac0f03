package chat

import (
	"net/http"
	"strconv"

	"taskboard/internal/middleware"
	"taskboard/pkg/apierrors"

	"github.com/gin-gonic/gin"
)

type Handler interface {
	GetHistory(c *gin.Context)
	PostMessage(c *gin.Context)
}

type handler struct {
	service Service
}

func NewHandler(service Service) Handler {
	return &handler{service: service}
}

// @Summary Chat history
// @Description Messages of a board ordered by timestamp ascending
// @Tags Chat
// @Produce json
// @Security BearerAuth
// @Param boardId path string true "Board ID"
// @Param limit query int false "Only the most recent messages"
// @Success 200 {array} MessageView
// @Failure 403 {object} apierrors.JsonErr
// @Failure 404 {object} apierrors.JsonErr
// @Router /api/boards/{boardId}/chat [get]
func (h *handler) GetHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			apierrors.Respond(c, apierrors.New(apierrors.ErrInvalidInput, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	messages, err := h.service.History(c.Request.Context(), c.Param("boardId"), middleware.CurrentUserID(c), limit)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// @Summary Post chat message
// @Description Persists a message and broadcasts it to the board room
// @Tags Chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param boardId path string true "Board ID"
// @Param body body PostMessageRequest true "Message"
// @Success 201 {object} MessageView
// @Failure 400 {object} apierrors.JsonErr
// @Failure 403 {object} apierrors.JsonErr
// @Failure 404 {object} apierrors.JsonErr
// @Router /api/boards/{boardId}/chat [post]
func (h *handler) PostMessage(c *gin.Context) {
	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Respond(c, apierrors.New(apierrors.ErrInvalidInput, "Invalid message payload"))
		return
	}
	view, err := h.service.Post(c.Request.Context(), c.Param("boardId"), middleware.CurrentUserID(c), req.Message)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}
