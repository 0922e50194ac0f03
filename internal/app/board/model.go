package board

import (
	"time"

	"taskboard/internal/models"
)

type CreateBoardRequest struct {
	Title string `json:"title" example:"Sprint 12"`
}

type ColumnRequest struct {
	ID    string   `json:"id,omitempty"`
	Title string   `json:"title"`
	Tasks []string `json:"tasks"`
}

type MemberRequest struct {
	User string      `json:"user"`
	Role models.Role `json:"role"`
}

// UpdateBoardRequest documents the PUT body. Omitted fields are left unchanged.
// Revision, when sent, must match the stored board.
type UpdateBoardRequest struct {
	Title    *string          `json:"title,omitempty"`
	Columns  *[]ColumnRequest `json:"columns,omitempty"`
	Members  *[]MemberRequest `json:"members,omitempty"`
	Revision *int64           `json:"revision,omitempty" example:"3"`
}

// UpdateInput is a validated update. Nil fields are left unchanged.
type UpdateInput struct {
	Title    *string
	Columns  *[]ColumnRequest
	Members  *[]MemberRequest
	Revision *int64
}

type MemberView struct {
	User models.UserSummary `json:"user"`
	Role models.Role        `json:"role"`
}

type ColumnView struct {
	ID    string         `json:"id"`
	Title string         `json:"title"`
	Tasks []*models.Task `json:"tasks"`
}

// BoardView is a board with task documents and user summaries expanded.
type BoardView struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Owner     models.UserSummary `json:"owner"`
	Members   []MemberView       `json:"members"`
	Columns   []ColumnView       `json:"columns"`
	Revision  int64              `json:"revision"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// HasMember reports whether userID is the owner or a member of the viewed board.
func (v *BoardView) HasMember(userID string) bool {
	if userID == "" {
		return false
	}
	for _, m := range v.Members {
		if m.User.ID == userID {
			return true
		}
	}
	return false
}

type DeleteResponse struct {
	Message string `json:"message" example:"Board deleted"`
}

// DeletedEvent is the payload of board-deleted.
type DeletedEvent struct {
	BoardID string `json:"boardId"`
}
