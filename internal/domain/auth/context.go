package auth

import (
	"mealplanner/internal/domain/entity"
	"mealplanner/internal/domain/scope"
)

// UserContext is the verified caller attached to a request.
type UserContext struct {
	UserID   int
	Username string
	Role     entity.Role
	TeamID   *int
	Status   entity.Status
}

func NewUserContext(u entity.User) UserContext {
	return UserContext{UserID: u.ID, Username: u.Username, Role: u.Role, TeamID: u.TeamID, Status: u.Status}
}

func (u UserContext) Actor() scope.Actor {
	return scope.Actor{ID: u.UserID, Role: u.Role, TeamID: u.TeamID}
}
