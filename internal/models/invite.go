package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusRejected InviteStatus = "rejected"
)

// Invite offers membership of a board to an email address. Only one pending
// invite may exist per board and address.
type Invite struct {
	ID           string       `json:"id" gorm:"type:varchar(36);primaryKey"`
	BoardID      string       `json:"board" gorm:"type:varchar(36);not null;index;uniqueIndex:idx_invites_pending,where:status = 'pending'"`
	InviterID    string       `json:"inviter" gorm:"type:varchar(36);not null"`
	InviteeEmail string       `json:"inviteeEmail" gorm:"not null;index;uniqueIndex:idx_invites_pending,where:status = 'pending'"`
	Role         Role         `json:"role" gorm:"type:varchar(16);not null;default:'Member'"`
	Status       InviteStatus `json:"status" gorm:"type:varchar(16);not null;default:'pending'"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

func (i *Invite) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Status == "" {
		i.Status = InviteStatusPending
	}
	i.InviteeEmail = NormalizeEmail(i.InviteeEmail)
	return nil
}
