// Package headcount folds participation and location data into read-only
// summaries. Nothing here persists.
package headcount

import (
	"math"
	"sort"

	"mealplanner/internal/domain/entity"
	"mealplanner/internal/domain/location"
	"mealplanner/internal/domain/scope"
)

type MealCount struct {
	MealType    entity.MealType `json:"meal_type"`
	OptedIn     int             `json:"opted_in"`
	OptedOut    int             `json:"opted_out"`
	OptedInPct  float64         `json:"opted_in_percentage"`
	OptedOutPct float64         `json:"opted_out_percentage"`
}

type Summary struct {
	Date           string      `json:"date"`
	TeamID         *int        `json:"team_id,omitempty"`
	TotalEmployees int         `json:"total_employees"`
	Office         int         `json:"office"`
	WFH            int         `json:"wfh"`
	Meals          []MealCount `json:"meal_counts"`
}

type MealUser struct {
	UserID   int     `json:"user_id"`
	Username string  `json:"username"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	TeamID   *int    `json:"team_id"`
	TeamName *string `json:"team_name"`
}

type MealUsers struct {
	Date         string          `json:"date"`
	MealType     entity.MealType `json:"meal_type"`
	OptedInCount int             `json:"opted_in_count"`
	Users        []MealUser      `json:"users"`
}

type UserParticipation struct {
	UserID   int                 `json:"user_id"`
	Username string              `json:"username"`
	Name     string              `json:"name"`
	Email    string              `json:"email"`
	Role     entity.Role         `json:"role"`
	TeamID   *int                `json:"team_id"`
	Date     string              `json:"date"`
	Meals    entity.Meals        `json:"meals"`
	Location entity.WorkLocation `json:"location"`
}

type TeamMember struct {
	UserID   int          `json:"user_id"`
	Username string       `json:"username"`
	Name     string       `json:"name"`
	Role     entity.Role  `json:"role"`
	Meals    entity.Meals `json:"meals,omitempty"`
}

type TeamDetail struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	LeadID      int          `json:"leadId"`
	LeadName    *string      `json:"lead_name"`
	MemberCount int          `json:"member_count"`
	Members     []TeamMember `json:"members"`
}

// Snapshot is the current state of every collection an aggregate reads.
type Snapshot struct {
	Users         []entity.User
	Teams         []entity.Team
	Participation []entity.ParticipationRecord
	Locations     location.Snapshot
}

// mealsFor returns the stored meals or the all-opted-in default.
func mealsFor(index map[int]entity.ParticipationRecord, userID int) entity.Meals {
	if rec, ok := index[userID]; ok && rec.Meals != nil {
		return rec.Meals.Clone()
	}
	return entity.DefaultMeals()
}

func Summarize(snap Snapshot, date string, actor scope.Actor, teamFilter *int) Summary {
	users := scope.VisibleUsers(actor, snap.Users, teamFilter)
	index := entity.ParticipationIndex(snap.Participation, date)

	summary := Summary{Date: date, TotalEmployees: len(users), Meals: make([]MealCount, 0, len(entity.MealTypes))}
	if actor.Role == entity.RoleAdmin && teamFilter != nil {
		summary.TeamID = teamFilter
	}
	if actor.Role == entity.RoleTeamLead {
		summary.TeamID = actor.TeamID
	}

	counts := make(map[entity.MealType]int, len(entity.MealTypes))
	for _, u := range users {
		meals := mealsFor(index, u.ID)
		for _, mt := range entity.MealTypes {
			if meals.OptedIn(mt) {
				counts[mt]++
			}
		}
		switch snap.Locations.Resolve(u.ID, date) {
		case entity.LocationWFH:
			summary.WFH++
		case entity.LocationOffice:
			summary.Office++
		}
	}

	for _, mt := range entity.MealTypes {
		in := counts[mt]
		out := summary.TotalEmployees - in
		summary.Meals = append(summary.Meals, MealCount{
			MealType:    mt,
			OptedIn:     in,
			OptedOut:    out,
			OptedInPct:  percent(in, summary.TotalEmployees),
			OptedOutPct: percent(out, summary.TotalEmployees),
		})
	}
	return summary
}

func OptedIn(snap Snapshot, date string, mt entity.MealType, actor scope.Actor, teamFilter *int) MealUsers {
	users := scope.VisibleUsers(actor, snap.Users, teamFilter)
	index := entity.ParticipationIndex(snap.Participation, date)
	names := entity.TeamNames(snap.Teams)

	out := MealUsers{Date: date, MealType: mt, Users: make([]MealUser, 0, len(users))}
	for _, u := range users {
		if !mealsFor(index, u.ID).OptedIn(mt) {
			continue
		}
		entry := MealUser{UserID: u.ID, Username: u.Username, Name: u.Name, Email: u.Email, TeamID: u.TeamID}
		if u.TeamID != nil {
			if name, ok := names[*u.TeamID]; ok {
				entry.TeamName = &name
			}
		}
		out.Users = append(out.Users, entry)
	}
	out.OptedInCount = len(out.Users)
	return out
}

func ListParticipation(snap Snapshot, date string, actor scope.Actor, teamFilter *int) []UserParticipation {
	users := scope.VisibleUsers(actor, snap.Users, teamFilter)
	index := entity.ParticipationIndex(snap.Participation, date)

	out := make([]UserParticipation, 0, len(users))
	for _, u := range users {
		out = append(out, UserParticipation{
			UserID:   u.ID,
			Username: u.Username,
			Name:     u.Name,
			Email:    u.Email,
			Role:     u.Role,
			TeamID:   u.TeamID,
			Date:     date,
			Meals:    mealsFor(index, u.ID),
			Location: snap.Locations.Resolve(u.ID, date),
		})
	}
	return out
}

// TeamDetails lists every team with its Approved members. Member meals are
// attached only where the actor may see team detail.
func TeamDetails(snap Snapshot, date string, actor scope.Actor) []TeamDetail {
	index := entity.ParticipationIndex(snap.Participation, date)
	members := make(map[int][]entity.User)
	for _, u := range snap.Users {
		if u.Approved() && u.TeamID != nil {
			members[*u.TeamID] = append(members[*u.TeamID], u)
		}
	}

	out := make([]TeamDetail, 0, len(snap.Teams))
	for _, team := range snap.Teams {
		detail := scope.IncludeDetail(actor, team.ID)
		entry := TeamDetail{ID: team.ID, Name: team.Name, LeadID: team.LeadID, Members: make([]TeamMember, 0, len(members[team.ID]))}
		for _, u := range members[team.ID] {
			if u.ID == team.LeadID {
				name := u.Name
				entry.LeadName = &name
			}
			member := TeamMember{UserID: u.ID, Username: u.Username, Name: u.Name, Role: u.Role}
			if detail {
				member.Meals = mealsFor(index, u.ID)
			}
			entry.Members = append(entry.Members, member)
		}
		sort.SliceStable(entry.Members, func(i, j int) bool { return entry.Members[i].UserID < entry.Members[j].UserID })
		entry.MemberCount = len(entry.Members)
		out = append(out, entry)
	}
	return out
}

func percent(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*100*100) / 100
}
