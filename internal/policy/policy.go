// Package policy decides which actors may perform which claim actions.
// It has no storage dependency so it can be tested on its own.
package policy

import (
	"open-factcheck/internal/apperr"
	"open-factcheck/internal/models"

	"github.com/google/uuid"
)

// Action is an operation gated by role
type Action string

const (
	ActionSubmit      Action = "submit"
	ActionVerify      Action = "verify"
	ActionComment     Action = "comment"
	ActionLike        Action = "like"
	ActionBookmark    Action = "bookmark"
	ActionShare       Action = "share"
	ActionSetTrending Action = "set_trending"
	ActionDeactivate  Action = "deactivate"
)

// Actor is an authenticated identity
type Actor struct {
	ID     uuid.UUID
	Role   models.Role
	Active bool
}

// ActorFromUser builds an actor from a stored user
func ActorFromUser(u *models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role, Active: u.IsActive}
}

var everyone = []models.Role{models.RoleUser, models.RoleFactChecker, models.RoleExpert, models.RoleAdmin}

var grants = map[Action][]models.Role{
	ActionSubmit:      everyone,
	ActionComment:     everyone,
	ActionLike:        everyone,
	ActionBookmark:    everyone,
	ActionShare:       everyone,
	ActionVerify:      {models.RoleFactChecker, models.RoleExpert, models.RoleAdmin},
	ActionSetTrending: {models.RoleAdmin},
	ActionDeactivate:  {models.RoleAdmin},
}

// Allowed reports whether actor may perform action
func Allowed(actor Actor, action Action) bool {
	if actor.ID == uuid.Nil || !actor.Active {
		return false
	}
	for _, r := range grants[action] {
		if actor.Role == r {
			return true
		}
	}
	return false
}

// Check is Allowed as an error
func Check(actor Actor, action Action) error {
	if Allowed(actor, action) {
		return nil
	}
	return apperr.PermissionDenied("role %q may not %s", actor.Role, action)
}
