package core

import "mealplanner/internal/domain/entity"

// UserView is a user as returned to callers. It never carries the credential.
type UserView struct {
	ID       int           `json:"id"`
	Username string        `json:"username"`
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Role     entity.Role   `json:"role"`
	TeamID   *int          `json:"team_id"`
	TeamName *string       `json:"team_name,omitempty"`
	Status   entity.Status `json:"status"`
}

type RegisterInput struct {
	Username string
	Password string
	Name     string
	Email    string
	Role     entity.Role
	TeamID   *int
}

// ApproveInput optionally overrides the requested role and team.
type ApproveInput struct {
	Role   *entity.Role
	TeamID *int
}

type UpdateInput struct {
	Name      *string
	Email     *string
	Role      *entity.Role
	TeamID    *int
	ClearTeam bool
}
