package entity

import "strings"

func FindUser(users []User, id int) (int, bool) {
	for i, u := range users {
		if u.ID == id {
			return i, true
		}
	}
	return -1, false
}

func FindUserByUsername(users []User, username string) (int, bool) {
	for i, u := range users {
		if strings.EqualFold(u.Username, username) {
			return i, true
		}
	}
	return -1, false
}

func FindTeam(teams []Team, id int) (int, bool) {
	for i, t := range teams {
		if t.ID == id {
			return i, true
		}
	}
	return -1, false
}

func FindParticipation(records []ParticipationRecord, userID int, date string) (int, bool) {
	for i, r := range records {
		if r.UserID == userID && r.Date == date {
			return i, true
		}
	}
	return -1, false
}

// ParticipationIndex keys the records of a single date by user id.
func ParticipationIndex(records []ParticipationRecord, date string) map[int]ParticipationRecord {
	out := make(map[int]ParticipationRecord)
	for _, r := range records {
		if r.Date == date {
			out[r.UserID] = r
		}
	}
	return out
}

func TeamNames(teams []Team) map[int]string {
	out := make(map[int]string, len(teams))
	for _, t := range teams {
		out[t.ID] = t.Name
	}
	return out
}
