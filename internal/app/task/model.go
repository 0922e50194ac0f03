package task

import (
	"encoding/json"
	"time"

	"taskboard/internal/models"
)

const (
	EventTaskCreated = "task-created"
	EventTaskUpdated = "task-updated"
	EventTaskMoved   = "task-moved"
	EventTaskDeleted = "task-deleted"
)

type CreateTaskRequest struct {
	Title       string                 `json:"title" example:"Write release notes"`
	Description *string                `json:"description,omitempty"`
	Priority    *string                `json:"priority,omitempty" example:"high"`
	DueDate     *string                `json:"dueDate,omitempty" example:"2025-03-01"`
	Checklist   []models.ChecklistItem `json:"checklist,omitempty"`
	ColumnID    string                 `json:"columnId"`
}

type UpdateTaskRequest struct {
	Title       *string                 `json:"title,omitempty"`
	Description *string                 `json:"description,omitempty"`
	Priority    *string                 `json:"priority,omitempty"`
	DueDate     *string                 `json:"dueDate,omitempty"`
	Checklist   *[]models.ChecklistItem `json:"checklist,omitempty"`
}

// MoveTaskRequest documents the move body. An index that is not a JSON
// integer appends the task to the target column.
type MoveTaskRequest struct {
	FromColumnID string          `json:"fromColumnId"`
	ToColumnID   string          `json:"toColumnId"`
	Index        json.RawMessage `json:"index,omitempty" swaggertype:"integer"`
}

type CreateInput struct {
	Title       string
	Description *string
	Priority    models.Priority
	DueDate     *time.Time
	Checklist   []models.ChecklistItem
	ColumnID    string
}

// Patch lists the fields an update touches. The *Set flags distinguish
// "clear the field" from "leave it alone" for nullable fields.
type Patch struct {
	Title          *string
	Description    *string
	DescriptionSet bool
	Priority       *models.Priority
	DueDate        *time.Time
	DueDateSet     bool
	Checklist      *[]models.ChecklistItem
}

func (p Patch) Empty() bool {
	return p.Title == nil && !p.DescriptionSet && p.Priority == nil && !p.DueDateSet && p.Checklist == nil
}

type MoveInput struct {
	TaskID       string
	FromColumnID string
	ToColumnID   string
	Index        *int
}

// MovedEvent is the payload of task-moved.
type MovedEvent struct {
	TaskID       string       `json:"taskId"`
	FromColumnID string       `json:"fromColumnId"`
	ToColumnID   string       `json:"toColumnId"`
	Index        *int         `json:"index,omitempty"`
	Task         *models.Task `json:"task"`
}

// DeletedEvent is the payload of task-deleted.
type DeletedEvent struct {
	TaskID  string `json:"taskId"`
	BoardID string `json:"boardId"`
}

type MessageResponse struct {
	Message string `json:"message" example:"Task deleted"`
}
