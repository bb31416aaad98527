package participation

import (
	"time"

	"mealplanner/internal/domain/entity"
)

const DefaultCutoffHour = 21

// Cutoff locks an Employee's choices for tomorrow from Hour o'clock today.
type Cutoff struct {
	Hour int
}

// IsLocked reports whether role may no longer change choices for target.
// target and now are compared as calendar dates in now's location.
func (c Cutoff) IsLocked(role entity.Role, target, now time.Time) bool {
	switch role {
	case entity.RoleAdmin, entity.RoleTeamLead, entity.RoleLogistics:
		return false
	case entity.RoleEmployee:
	default:
		return true
	}

	day := entity.FormatDate(target)
	if day <= entity.FormatDate(now) {
		return true
	}
	if day == entity.FormatDate(entity.Day(now).AddDate(0, 0, 1)) {
		return now.Hour() >= c.hour()
	}
	return false
}

func (c Cutoff) hour() int {
	if c.Hour <= 0 || c.Hour > 24 {
		return DefaultCutoffHour
	}
	return c.Hour
}
