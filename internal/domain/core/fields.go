package core

import "mealplanner/internal/domain/entity"

func NewUserView(u entity.User, teamNames map[int]string) UserView {
	view := UserView{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
		TeamID:   u.TeamID,
		Status:   u.Status,
	}
	if u.TeamID != nil {
		if name, ok := teamNames[*u.TeamID]; ok {
			view.TeamName = &name
		}
	}
	return view
}

func UserViews(users []entity.User, teams []entity.Team) []UserView {
	names := entity.TeamNames(teams)
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserView(u, names))
	}
	return out
}
