package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type ChecklistItem struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Task is referenced by exactly one column of its board. ColumnID mirrors that column.
type Task struct {
	ID          string                             `json:"id" gorm:"type:varchar(36);primaryKey"`
	Title       string                             `json:"title" gorm:"not null"`
	Description *string                            `json:"description,omitempty" gorm:"type:text"`
	Priority    Priority                           `json:"priority" gorm:"type:varchar(8);not null;default:'medium'"`
	DueDate     *time.Time                         `json:"dueDate,omitempty"`
	Checklist   datatypes.JSONSlice[ChecklistItem] `json:"checklist"`
	BoardID     string                             `json:"board" gorm:"type:varchar(36);not null;index"`
	ColumnID    string                             `json:"columnId" gorm:"type:varchar(36);not null"`
	CreatedAt   time.Time                          `json:"createdAt"`
	UpdatedAt   time.Time                          `json:"updatedAt"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Checklist == nil {
		t.Checklist = datatypes.JSONSlice[ChecklistItem]{}
	}
	return nil
}
