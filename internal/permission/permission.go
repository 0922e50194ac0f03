// Package permission decides what an actor may do on a board using only the
// board snapshot.
package permission

import "taskboard/internal/models"

type Action string

const (
	ActionView   Action = "view"
	ActionMutate Action = "mutate"
	ActionDelete Action = "delete"
)

// CanMutateBoard is true for the owner and for members with the Admin role.
func CanMutateBoard(b *models.Board, actorID string) bool {
	role, ok := b.RoleOf(actorID)
	return ok && (role == models.RoleOwner || role == models.RoleAdmin)
}

// CanDeleteBoard is true for the owner only.
func CanDeleteBoard(b *models.Board, actorID string) bool {
	return actorID != "" && b.OwnerID == actorID
}

// IsBoardMember is true for the owner and any member regardless of role.
func IsBoardMember(b *models.Board, actorID string) bool {
	_, ok := b.RoleOf(actorID)
	return ok
}

func Allowed(b *models.Board, actorID string, action Action) bool {
	if b == nil {
		return false
	}
	switch action {
	case ActionView:
		return IsBoardMember(b, actorID)
	case ActionMutate:
		return CanMutateBoard(b, actorID)
	case ActionDelete:
		return CanDeleteBoard(b, actorID)
	}
	return false
}
