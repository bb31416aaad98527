package entity

import "time"

const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, value, loc)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DateInRange reports whether date lies in the inclusive range. All values are
// YYYY-MM-DD, so lexical order is calendar order.
func DateInRange(date, start, end string) bool {
	return start <= date && date <= end
}
