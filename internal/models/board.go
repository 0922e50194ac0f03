package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Role string

const (
	RoleOwner  Role = "Owner"
	RoleAdmin  Role = "Admin"
	RoleMember Role = "Member"
)

// Valid reports whether r can be stored on a member row. Owner is implicit.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

const DefaultBoardTitle = "My First Board"

var DefaultColumnTitles = []string{"To Do", "In Progress", "Done"}

type Column struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Tasks []string `json:"tasks"`
}

// Remove filters taskID out of the column. It reports whether anything was removed.
func (c *Column) Remove(taskID string) bool {
	kept := make([]string, 0, len(c.Tasks))
	for _, id := range c.Tasks {
		if id != taskID {
			kept = append(kept, id)
		}
	}
	removed := len(kept) != len(c.Tasks)
	c.Tasks = kept
	return removed
}

// Insert places taskID at index with splice semantics: a negative index counts
// from the end, an index past the end appends. A nil index appends.
func (c *Column) Insert(taskID string, index *int) {
	n := len(c.Tasks)
	pos := n
	if index != nil {
		pos = *index
		if pos < 0 {
			pos += n
			if pos < 0 {
				pos = 0
			}
		}
		if pos > n {
			pos = n
		}
	}
	c.Tasks = append(c.Tasks, "")
	copy(c.Tasks[pos+1:], c.Tasks[pos:])
	c.Tasks[pos] = taskID
}

func (c *Column) Contains(taskID string) bool {
	for _, id := range c.Tasks {
		if id == taskID {
			return true
		}
	}
	return false
}

// Member is a non-owner participant of a board.
type Member struct {
	BoardID   string    `json:"-" gorm:"type:varchar(36);primaryKey"`
	UserID    string    `json:"user" gorm:"type:varchar(36);primaryKey;index"`
	Role      Role      `json:"role" gorm:"type:varchar(16);not null;default:'Member'"`
	CreatedAt time.Time `json:"-"`
}

func (Member) TableName() string {
	return "board_members"
}

// Board is the aggregate that owns column layout and membership. Revision is
// bumped on every save and used to reject writes based on a stale read.
type Board struct {
	ID        string                      `json:"id" gorm:"type:varchar(36);primaryKey"`
	Title     string                      `json:"title" gorm:"not null"`
	OwnerID   string                      `json:"owner" gorm:"type:varchar(36);not null;index"`
	Columns   datatypes.JSONSlice[Column] `json:"columns"`
	Members   []Member                    `json:"members" gorm:"foreignKey:BoardID;references:ID"`
	Revision  int64                       `json:"revision" gorm:"not null;default:1"`
	CreatedAt time.Time                   `json:"createdAt"`
	UpdatedAt time.Time                   `json:"updatedAt"`
}

func (b *Board) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Revision == 0 {
		b.Revision = 1
	}
	return nil
}

// NewBoard builds a board seeded with the default columns.
func NewBoard(ownerID, title string) *Board {
	columns := make([]Column, 0, len(DefaultColumnTitles))
	for _, t := range DefaultColumnTitles {
		columns = append(columns, Column{ID: uuid.NewString(), Title: t, Tasks: []string{}})
	}
	return &Board{
		ID:       uuid.NewString(),
		Title:    title,
		OwnerID:  ownerID,
		Columns:  columns,
		Members:  []Member{},
		Revision: 1,
	}
}

// Column returns a pointer into the board's column slice, or nil.
func (b *Board) Column(id string) *Column {
	for i := range b.Columns {
		if b.Columns[i].ID == id {
			return &b.Columns[i]
		}
	}
	return nil
}

// PurgeTask removes taskID from every column and returns how many columns listed it.
func (b *Board) PurgeTask(taskID string) int {
	n := 0
	for i := range b.Columns {
		if b.Columns[i].Remove(taskID) {
			n++
		}
	}
	return n
}

// TaskIDs returns every task id referenced by the board in column order.
func (b *Board) TaskIDs() []string {
	var ids []string
	for _, c := range b.Columns {
		ids = append(ids, c.Tasks...)
	}
	return ids
}

// RoleOf returns the role userID holds on the board.
func (b *Board) RoleOf(userID string) (Role, bool) {
	if userID == "" {
		return "", false
	}
	if b.OwnerID == userID {
		return RoleOwner, true
	}
	for _, m := range b.Members {
		if m.UserID == userID {
			return m.Role, true
		}
	}
	return "", false
}

// AllMembers is the membership view with the owner synthesized first.
func (b *Board) AllMembers() []Member {
	all := make([]Member, 0, len(b.Members)+1)
	all = append(all, Member{BoardID: b.ID, UserID: b.OwnerID, Role: RoleOwner})
	for _, m := range b.Members {
		if m.UserID == b.OwnerID {
			continue
		}
		all = append(all, m)
	}
	return all
}
