package entity

// User is a person known to the planner. PasswordHash is opaque to the domain.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	TeamID       *int   `json:"team_id"`
	Status       Status `json:"status"`
}

func (u User) InTeam(teamID int) bool {
	return u.TeamID != nil && *u.TeamID == teamID
}

func (u User) Approved() bool {
	return u.Status == StatusApproved
}

// Team.LeadID is not enforced as a reference and may point at a missing user.
type Team struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	LeadID int    `json:"leadId"`
}

type ParticipationRecord struct {
	UserID int    `json:"user_id"`
	Date   string `json:"date"`
	Meals  Meals  `json:"meals"`
}

type WorkLocationRecord struct {
	UserID   int          `json:"user_id"`
	Date     string       `json:"date"`
	Location WorkLocation `json:"location"`
}

type WFHPeriod struct {
	ID        int    `json:"id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type SpecialDay struct {
	ID   int            `json:"id"`
	Date string         `json:"date"`
	Type SpecialDayType `json:"type"`
	Note *string        `json:"note"`
}

// NextID returns max(id)+1 over the supplied ids, starting at 1.
func NextID(ids ...int) int {
	next := 1
	for _, id := range ids {
		if id >= next {
			next = id + 1
		}
	}
	return next
}

func IntPtr(v int) *int {
	return &v
}

func SameTeam(a, b *int) bool {
	return a != nil && b != nil && *a == *b
}
