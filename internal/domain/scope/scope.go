// Package scope decides which users an actor may see and change.
package scope

import (
	"sort"

	"mealplanner/internal/domain/apperr"
	"mealplanner/internal/domain/entity"
)

// Actor is the authenticated caller as verified by the auth layer.
type Actor struct {
	ID     int
	Role   entity.Role
	TeamID *int
}

func FromUser(u entity.User) Actor {
	return Actor{ID: u.ID, Role: u.Role, TeamID: u.TeamID}
}

// VisibleUsers returns the Approved users the actor may see, ordered by id.
// teamFilter narrows an Admin's view and is ignored for every other role.
func VisibleUsers(actor Actor, users []entity.User, teamFilter *int) []entity.User {
	out := make([]entity.User, 0, len(users))
	for _, u := range users {
		if !u.Approved() {
			continue
		}
		if canSee(actor, u, teamFilter) {
			out = append(out, u)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func canSee(actor Actor, u entity.User, teamFilter *int) bool {
	switch actor.Role {
	case entity.RoleAdmin:
		return teamFilter == nil || u.InTeam(*teamFilter)
	case entity.RoleLogistics:
		return true
	case entity.RoleTeamLead:
		return entity.SameTeam(actor.TeamID, u.TeamID)
	case entity.RoleEmployee:
		return u.ID == actor.ID
	}
	return false
}

// CanModify reports whether the actor may change the target's participation
// or work location.
func CanModify(actor Actor, target entity.User) bool {
	switch actor.Role {
	case entity.RoleAdmin:
		return true
	case entity.RoleLogistics:
		return false
	case entity.RoleTeamLead:
		return entity.SameTeam(actor.TeamID, target.TeamID)
	case entity.RoleEmployee:
		return target.ID == actor.ID
	}
	return false
}

// ResolveTarget finds targetID in users and checks the actor may modify it.
func ResolveTarget(actor Actor, users []entity.User, targetID int) (entity.User, error) {
	i, ok := entity.FindUser(users, targetID)
	if !ok {
		return entity.User{}, apperr.NotFound("user %d", targetID)
	}
	if !CanModify(actor, users[i]) {
		return entity.User{}, apperr.Forbidden("%s cannot modify user %d", actor.Role, targetID)
	}
	return users[i], nil
}

// IncludeDetail reports whether per-member meal detail of a team is shown.
func IncludeDetail(actor Actor, teamID int) bool {
	switch actor.Role {
	case entity.RoleAdmin, entity.RoleLogistics:
		return true
	case entity.RoleTeamLead:
		return actor.TeamID != nil && *actor.TeamID == teamID
	case entity.RoleEmployee:
		return false
	}
	return false
}
