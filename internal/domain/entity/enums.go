package entity

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleEmployee  Role = "Employee"
	RoleTeamLead  Role = "TeamLead"
	RoleAdmin     Role = "Admin"
	RoleLogistics Role = "Logistics"
)

var Roles = []Role{RoleEmployee, RoleTeamLead, RoleAdmin, RoleLogistics}

func ParseRole(value string) (Role, error) {
	for _, role := range Roles {
		if strings.EqualFold(value, string(role)) {
			return role, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", value)
}

type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

type MealType string

const (
	MealLunch          MealType = "Lunch"
	MealSnacks         MealType = "Snacks"
	MealIftar          MealType = "Iftar"
	MealEventDinner    MealType = "EventDinner"
	MealOptionalDinner MealType = "OptionalDinner"
)

// MealTypes is the closed set of meals, in display order.
var MealTypes = []MealType{MealLunch, MealSnacks, MealIftar, MealEventDinner, MealOptionalDinner}

func ParseMealType(value string) (MealType, bool) {
	for _, mt := range MealTypes {
		if value == string(mt) {
			return mt, true
		}
	}
	return "", false
}

// Meals maps a meal type to the opt-in choice.
type Meals map[MealType]bool

// DefaultMeals is the opt-in-by-default record content.
func DefaultMeals() Meals {
	meals := make(Meals, len(MealTypes))
	for _, mt := range MealTypes {
		meals[mt] = true
	}
	return meals
}

// OptedIn treats a missing entry as opted in.
func (m Meals) OptedIn(mt MealType) bool {
	if value, ok := m[mt]; ok {
		return value
	}
	return true
}

// IsDefault reports whether m reads the same as a missing record.
func (m Meals) IsDefault() bool {
	for _, mt := range MealTypes {
		if !m.OptedIn(mt) {
			return false
		}
	}
	return true
}

func (m Meals) Clone() Meals {
	out := make(Meals, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type WorkLocation string

const (
	LocationOffice WorkLocation = "Office"
	LocationWFH    WorkLocation = "WFH"
)

func ParseWorkLocation(value string) (WorkLocation, bool) {
	switch WorkLocation(value) {
	case LocationOffice, LocationWFH:
		return WorkLocation(value), true
	}
	return "", false
}

type SpecialDayType string

const (
	SpecialDayClosed      SpecialDayType = "Closed"
	SpecialDayHoliday     SpecialDayType = "Holiday"
	SpecialDayCelebration SpecialDayType = "Celebration"
)

func ParseSpecialDayType(value string) (SpecialDayType, bool) {
	switch SpecialDayType(value) {
	case SpecialDayClosed, SpecialDayHoliday, SpecialDayCelebration:
		return SpecialDayType(value), true
	}
	return "", false
}
