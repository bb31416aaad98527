package shared

import (
	"strings"
	"time"

	"mealplanner/internal/domain/entity"
)

// ParseDate accepts a YYYY-MM-DD calendar date. Timestamps are rejected so a
// caller's offset never shifts the day. An empty value yields an empty date.
func ParseDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	parsed, err := time.Parse(entity.DateLayout, value)
	if err != nil {
		return "", err
	}
	return entity.FormatDate(parsed), nil
}
