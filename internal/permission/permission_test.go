package permission

import (
	"fmt"
	"testing"

	"taskboard/internal/models"

	"github.com/stretchr/testify/assert"
)

func fixtureBoard() *models.Board {
	b := models.NewBoard("owner", "Roadmap")
	b.Members = []models.Member{
		{BoardID: b.ID, UserID: "admin", Role: models.RoleAdmin},
		{BoardID: b.ID, UserID: "member", Role: models.RoleMember},
	}
	return b
}

func TestAllowed_Matrix(t *testing.T) {
	b := fixtureBoard()

	want := map[string]map[Action]bool{
		"owner":    {ActionView: true, ActionMutate: true, ActionDelete: true},
		"admin":    {ActionView: true, ActionMutate: true, ActionDelete: false},
		"member":   {ActionView: true, ActionMutate: false, ActionDelete: false},
		"stranger": {ActionView: false, ActionMutate: false, ActionDelete: false},
		"":         {ActionView: false, ActionMutate: false, ActionDelete: false},
	}

	for actor, actions := range want {
		for action, allowed := range actions {
			t.Run(fmt.Sprintf("%s/%s", actor, action), func(t *testing.T) {
				assert.Equal(t, allowed, Allowed(b, actor, action))
			})
		}
	}
}

func TestCanMutateBoard(t *testing.T) {
	b := fixtureBoard()
	assert.True(t, CanMutateBoard(b, "owner"))
	assert.True(t, CanMutateBoard(b, "admin"))
	assert.False(t, CanMutateBoard(b, "member"))
	assert.False(t, CanMutateBoard(b, "stranger"))
}

func TestCanDeleteBoard_OwnerOnly(t *testing.T) {
	b := fixtureBoard()
	assert.True(t, CanDeleteBoard(b, "owner"))
	assert.False(t, CanDeleteBoard(b, "admin"))
	assert.False(t, CanDeleteBoard(b, "member"))
}

func TestIsBoardMember(t *testing.T) {
	b := fixtureBoard()
	assert.True(t, IsBoardMember(b, "owner"))
	assert.True(t, IsBoardMember(b, "member"))
	assert.False(t, IsBoardMember(b, "stranger"))
}

func TestAllowed_NilBoardAndUnknownAction(t *testing.T) {
	assert.False(t, Allowed(nil, "owner", ActionView))
	assert.False(t, Allowed(fixtureBoard(), "owner", Action("archive")))
}
