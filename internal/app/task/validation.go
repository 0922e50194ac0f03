package task

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"taskboard/internal/models"
	"taskboard/pkg/apierrors"
)

var errInvalidPayload = apierrors.New(apierrors.ErrInvalidInput, "Invalid task payload")

// ParseDueDate accepts a calendar date or an RFC 3339 timestamp.
func ParseDueDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if d, err := time.Parse("2006-01-02", value); err == nil {
		return d, nil
	}
	return time.Parse(time.RFC3339, value)
}

func BuildCreateInput(req CreateTaskRequest, raw map[string]json.RawMessage) (CreateInput, error) {
	if hasJSONField(raw, "priority") && req.Priority == nil {
		return CreateInput{}, errInvalidPayload
	}

	title := strings.TrimSpace(req.Title)
	columnID := strings.TrimSpace(req.ColumnID)
	if title == "" || columnID == "" {
		return CreateInput{}, apierrors.New(apierrors.ErrInvalidInput, "Title and columnId are required")
	}

	priority := models.PriorityMedium
	if req.Priority != nil {
		priority = models.Priority(*req.Priority)
		if !priority.Valid() {
			return CreateInput{}, apierrors.New(apierrors.ErrInvalidInput, "Priority must be low, medium or high")
		}
	}

	var dueDate *time.Time
	if req.DueDate != nil {
		parsed, err := ParseDueDate(*req.DueDate)
		if err != nil {
			return CreateInput{}, apierrors.New(apierrors.ErrInvalidInput, "Invalid due date")
		}
		dueDate = &parsed
	}

	checklist, err := validChecklist(req.Checklist)
	if err != nil {
		return CreateInput{}, err
	}

	return CreateInput{
		Title:       title,
		Description: req.Description,
		Priority:    priority,
		DueDate:     dueDate,
		Checklist:   checklist,
		ColumnID:    columnID,
	}, nil
}

func BuildPatch(req UpdateTaskRequest, raw map[string]json.RawMessage) (Patch, error) {
	if !hasTaskUpdateFields(raw) {
		return Patch{}, apierrors.New(apierrors.ErrInvalidInput, "Nothing to update")
	}

	var patch Patch
	if hasJSONField(raw, "title") && req.Title == nil {
		return Patch{}, errInvalidPayload
	}
	if req.Title != nil {
		value := strings.TrimSpace(*req.Title)
		if value == "" {
			return Patch{}, apierrors.New(apierrors.ErrInvalidInput, "Title cannot be empty")
		}
		patch.Title = &value
	}

	patch.DescriptionSet = hasJSONField(raw, "description")
	if patch.DescriptionSet && !isJSONNull(raw["description"]) && req.Description == nil {
		return Patch{}, errInvalidPayload
	}
	patch.Description = req.Description

	if hasJSONField(raw, "priority") && req.Priority == nil {
		return Patch{}, errInvalidPayload
	}
	if req.Priority != nil {
		value := models.Priority(*req.Priority)
		if !value.Valid() {
			return Patch{}, apierrors.New(apierrors.ErrInvalidInput, "Priority must be low, medium or high")
		}
		patch.Priority = &value
	}

	patch.DueDateSet = hasJSONField(raw, "dueDate")
	if patch.DueDateSet && !isJSONNull(raw["dueDate"]) {
		if req.DueDate == nil {
			return Patch{}, errInvalidPayload
		}
		parsed, err := ParseDueDate(*req.DueDate)
		if err != nil {
			return Patch{}, apierrors.New(apierrors.ErrInvalidInput, "Invalid due date")
		}
		patch.DueDate = &parsed
	}

	if hasJSONField(raw, "checklist") && req.Checklist == nil {
		return Patch{}, errInvalidPayload
	}
	if req.Checklist != nil {
		items, err := validChecklist(*req.Checklist)
		if err != nil {
			return Patch{}, err
		}
		patch.Checklist = &items
	}

	return patch, nil
}

// BuildMoveInput leaves column checks to the service, which answers a
// stranger with 403 before it reports an unknown column.
func BuildMoveInput(taskID string, req MoveTaskRequest) MoveInput {
	return MoveInput{
		TaskID:       taskID,
		FromColumnID: strings.TrimSpace(req.FromColumnID),
		ToColumnID:   strings.TrimSpace(req.ToColumnID),
		Index:        moveIndex(req.Index),
	}
}

// moveIndex returns nil, meaning append, for anything but a JSON integer.
func moveIndex(raw json.RawMessage) *int {
	if len(raw) == 0 || isJSONNull(raw) {
		return nil
	}
	var idx int
	if err := json.Unmarshal(raw, &idx); err != nil {
		return nil
	}
	return &idx
}

func validChecklist(items []models.ChecklistItem) ([]models.ChecklistItem, error) {
	out := make([]models.ChecklistItem, 0, len(items))
	for _, item := range items {
		text := strings.TrimSpace(item.Text)
		if text == "" {
			return nil, apierrors.New(apierrors.ErrInvalidInput, "Checklist items need text")
		}
		out = append(out, models.ChecklistItem{Text: text, Completed: item.Completed})
	}
	return out, nil
}

func hasTaskUpdateFields(raw map[string]json.RawMessage) bool {
	return hasJSONField(raw, "title") ||
		hasJSONField(raw, "description") ||
		hasJSONField(raw, "priority") ||
		hasJSONField(raw, "dueDate") ||
		hasJSONField(raw, "checklist")
}

func hasJSONField(raw map[string]json.RawMessage, field string) bool {
	_, ok := raw[field]
	return ok
}

func isJSONNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}
