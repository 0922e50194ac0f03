package invite

import (
	"time"

	"taskboard/internal/models"
)

const EventMemberJoined = "member-joined"

type SendInviteRequest struct {
	BoardID      string      `json:"boardId"`
	InviteeEmail string      `json:"inviteeEmail" example:"ana@example.com"`
	Role         models.Role `json:"role,omitempty" example:"Member"`
}

type BoardSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// InviteView is a pending invite with its board and inviter expanded.
type InviteView struct {
	ID           string              `json:"id"`
	Board        BoardSummary        `json:"board"`
	Inviter      models.UserSummary  `json:"inviter"`
	InviteeEmail string              `json:"inviteeEmail"`
	Role         models.Role         `json:"role"`
	Status       models.InviteStatus `json:"status"`
	CreatedAt    time.Time           `json:"createdAt"`
}

type AcceptResponse struct {
	Message string `json:"message" example:"Invite accepted"`
	BoardID string `json:"boardId"`
}

type RejectResponse struct {
	Message string `json:"message" example:"Invite rejected"`
}

// MemberJoinedEvent is the payload of member-joined.
type MemberJoinedEvent struct {
	BoardID string             `json:"boardId"`
	User    models.UserSummary `json:"user"`
	Role    models.Role        `json:"role"`
}
