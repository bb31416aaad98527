package auth

import (
	"context"

	"mealplanner/internal/domain/entity"
)

const (
	PermMealsSelf          = "meals.self"
	PermParticipationRead  = "participation.read"
	PermParticipationWrite = "participation.write"
	PermHeadcountRead      = "headcount.read"
	PermTeamsRead          = "teams.read"
	PermTeamsWrite         = "teams.write"
	PermLocationSelf       = "locations.self"
	PermLocationWrite      = "locations.write"
	PermCalendarRead       = "calendar.read"
	PermCalendarWrite      = "calendar.write"
	PermUsersManage        = "users.manage"
	PermAuditRead          = "audit.read"
	PermJobsRun            = "jobs.run"
)

var DefaultPermissions = []string{
	PermMealsSelf,
	PermParticipationRead,
	PermParticipationWrite,
	PermHeadcountRead,
	PermTeamsRead,
	PermTeamsWrite,
	PermLocationSelf,
	PermLocationWrite,
	PermCalendarRead,
	PermCalendarWrite,
	PermUsersManage,
	PermAuditRead,
	PermJobsRun,
}

// RolePermissions gates routes. Row-level scope is decided by package scope.
var RolePermissions = map[entity.Role][]string{
	entity.RoleEmployee: {
		PermMealsSelf,
		PermLocationSelf,
		PermCalendarRead,
	},
	entity.RoleTeamLead: {
		PermMealsSelf,
		PermParticipationRead,
		PermParticipationWrite,
		PermHeadcountRead,
		PermTeamsRead,
		PermLocationSelf,
		PermLocationWrite,
		PermCalendarRead,
	},
	entity.RoleLogistics: {
		PermMealsSelf,
		PermParticipationRead,
		PermHeadcountRead,
		PermTeamsRead,
		PermLocationSelf,
		PermCalendarRead,
		PermCalendarWrite,
	},
	entity.RoleAdmin: {
		PermMealsSelf,
		PermParticipationRead,
		PermParticipationWrite,
		PermHeadcountRead,
		PermTeamsRead,
		PermTeamsWrite,
		PermLocationSelf,
		PermLocationWrite,
		PermCalendarRead,
		PermCalendarWrite,
		PermUsersManage,
		PermAuditRead,
		PermJobsRun,
	},
}

// StaticPermissions answers permission checks from RolePermissions.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(_ context.Context, role entity.Role, permission string) (bool, error) {
	for _, perm := range RolePermissions[role] {
		if perm == permission {
			return true, nil
		}
	}
	return false, nil
}
