package entity

import "time"

// Clock reads the current time in the planner's timezone. Zero value uses
// time.Now and time.Local.
type Clock struct {
	Location *time.Location
	NowFunc  func() time.Time
}

func (c Clock) Now() time.Time {
	now := time.Now
	if c.NowFunc != nil {
		now = c.NowFunc
	}
	return now().In(c.location())
}

func (c Clock) Today() string {
	return FormatDate(c.Now())
}

func (c Clock) Tomorrow() string {
	return FormatDate(Day(c.Now()).AddDate(0, 0, 1))
}

// ParseDate parses value in the clock's timezone.
func (c Clock) ParseDate(value string) (time.Time, error) {
	return ParseDate(value, c.location())
}

func (c Clock) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}
