package policy

import (
	"errors"
	"testing"

	"open-factcheck/internal/apperr"
	"open-factcheck/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func actor(role models.Role) Actor {
	return Actor{ID: uuid.New(), Role: role, Active: true}
}

func TestAllowedVerify(t *testing.T) {
	tests := []struct {
		role models.Role
		want bool
	}{
		{models.RoleUser, false},
		{models.RoleFactChecker, true},
		{models.RoleExpert, true},
		{models.RoleAdmin, true},
		{models.Role("moderator"), false},
		{models.Role(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.want, Allowed(actor(tt.role), ActionVerify))
		})
	}
}

func TestEveryRoleMaySubmitAndEngage(t *testing.T) {
	for _, role := range []models.Role{models.RoleUser, models.RoleFactChecker, models.RoleExpert, models.RoleAdmin} {
		for _, action := range []Action{ActionSubmit, ActionComment, ActionLike, ActionBookmark, ActionShare} {
			assert.True(t, Allowed(actor(role), action), "%s %s", role, action)
		}
	}
}

func TestAdminOnlyActions(t *testing.T) {
	for _, action := range []Action{ActionSetTrending, ActionDeactivate} {
		assert.True(t, Allowed(actor(models.RoleAdmin), action))
		assert.False(t, Allowed(actor(models.RoleExpert), action))
		assert.False(t, Allowed(actor(models.RoleFactChecker), action))
		assert.False(t, Allowed(actor(models.RoleUser), action))
	}
}

func TestAnonymousAndInactiveActorsAreDenied(t *testing.T) {
	assert.False(t, Allowed(Actor{Role: models.RoleAdmin, Active: true}, ActionSubmit))

	inactive := actor(models.RoleAdmin)
	inactive.Active = false
	assert.False(t, Allowed(inactive, ActionVerify))
}

func TestUnknownActionIsDenied(t *testing.T) {
	assert.False(t, Allowed(actor(models.RoleAdmin), Action("delete_everything")))
}

func TestCheck(t *testing.T) {
	assert.NoError(t, Check(actor(models.RoleExpert), ActionVerify))

	err := Check(actor(models.RoleUser), ActionVerify)
	assert.True(t, errors.Is(err, apperr.ErrPermissionDenied))
}
