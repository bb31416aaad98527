package location

import "mealplanner/internal/domain/entity"

// Snapshot is a read-only view of the location collections.
type Snapshot struct {
	Records     []entity.WorkLocationRecord
	Periods     []entity.WFHPeriod
	SpecialDays []entity.SpecialDay
}

// Resolve returns the explicit record for (userID, date), then WFH when a
// period covers date, then Office.
func (s Snapshot) Resolve(userID int, date string) entity.WorkLocation {
	for _, r := range s.Records {
		if r.UserID == userID && r.Date == date {
			return r.Location
		}
	}
	if InWFHPeriod(date, s.Periods) {
		return entity.LocationWFH
	}
	return entity.LocationOffice
}

func InWFHPeriod(date string, periods []entity.WFHPeriod) bool {
	for _, p := range periods {
		if entity.DateInRange(date, p.StartDate, p.EndDate) {
			return true
		}
	}
	return false
}

// ClosedOn returns the Closed special day for date, if any.
func ClosedOn(date string, days []entity.SpecialDay) (entity.SpecialDay, bool) {
	for _, d := range days {
		if d.Date == date && d.Type == entity.SpecialDayClosed {
			return d, true
		}
	}
	return entity.SpecialDay{}, false
}
