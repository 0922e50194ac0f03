package task

import (
	"encoding/json"
	"io"
	"net/http"

	"taskboard/internal/middleware"
	"taskboard/pkg/apierrors"

	"github.com/gin-gonic/gin"
)

type Handler interface {
	CreateTask(c *gin.Context)
	UpdateTask(c *gin.Context)
	MoveTask(c *gin.Context)
	DeleteTask(c *gin.Context)
}

type handler struct {
	service Service
}

func NewHandler(service Service) Handler {
	return &handler{service: service}
}

// readBody decodes the request body into dst and also returns the raw fields
// so handlers can tell an omitted field from an explicit null.
func readBody(c *gin.Context, dst interface{}) (map[string]json.RawMessage, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, errInvalidPayload
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errInvalidPayload
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return nil, errInvalidPayload
	}
	return raw, nil
}

// @Summary Create task
// @Description Creates a task and appends it to the given column
// @Tags Task
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param boardId path string true "Board ID"
// @Param body body CreateTaskRequest true "Task"
// @Success 201 {object} models.Task
// @Failure 400 {object} apierrors.JsonErr
// @Failure 403 {object} apierrors.JsonErr
// @Failure 404 {object} apierrors.JsonErr
// @Router /api/boards/{boardId}/tasks [post]
func (h *handler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	raw, err := readBody(c, &req)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	in, err := BuildCreateInput(req, raw)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	task, err := h.service.Create(c.Request.Context(), c.Param("boardId"), middleware.CurrentUserID(c), in)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// @Summary Update task
// @Description Merges the provided fields into the task. A task that belongs to a different board than the one in the path is reported as 404.
// @Tags Task
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param boardId path string true "Board ID"
// @Param taskId path string true "Task ID"
// @Param body body UpdateTaskRequest true "Fields to change"
// @Success 200 {object} models.Task
// @Failure 400 {object} apierrors.JsonErr
// @Failure 404 {object} apierrors.JsonErr
// @Router /api/boards/{boardId}/tasks/{taskId} [put]
func (h *handler) UpdateTask(c *gin.Context) {
	var req UpdateTaskRequest
	raw, err := readBody(c, &req)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	patch, err := BuildPatch(req, raw)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	task, err := h.service.Update(c.Request.Context(), c.Param("boardId"), c.Param("taskId"), middleware.CurrentUserID(c), patch)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// @Summary Move task
// @Description Moves a task to another column or position. An index that is not an integer appends the task.
// @Tags Task
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param boardId path string true "Board ID"
// @Param taskId path string true "Task ID"
// @Param body body MoveTaskRequest true "Target"
// @Success 200 {object} models.Task
// @Failure 403 {object} apierrors.JsonErr
// @Failure 404 {object} apierrors.JsonErr
// @Router /api/boards/{boardId}/tasks/{taskId}/move [put]
func (h *handler) MoveTask(c *gin.Context) {
	var req MoveTaskRequest
	if _, err := readBody(c, &req); err != nil {
		apierrors.Respond(c, err)
		return
	}
	in := BuildMoveInput(c.Param("taskId"), req)
	task, err := h.service.Move(c.Request.Context(), c.Param("boardId"), middleware.CurrentUserID(c), in)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// @Summary Delete task
// @Tags Task
// @Produce json
// @Security BearerAuth
// @Param boardId path string true "Board ID"
// @Param taskId path string true "Task ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} apierrors.JsonErr
// @Failure 404 {object} apierrors.JsonErr
// @Router /api/boards/{boardId}/tasks/{taskId} [delete]
func (h *handler) DeleteTask(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("boardId"), c.Param("taskId"), middleware.CurrentUserID(c)); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Task deleted"})
}
