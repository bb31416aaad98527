package core

import (
	"context"
	"sort"
	"strings"

	"mealplanner/internal/domain/apperr"
	"mealplanner/internal/domain/entity"
	"mealplanner/internal/domain/repository"
)

func (s *Service) ListTeams(ctx context.Context) ([]entity.Team, error) {
	teams, err := s.Repo.Teams(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
	return teams, nil
}

// CreateTeam adds a team. leadID may be zero or point at a user that is not
// (yet) the team's TeamLead.
func (s *Service) CreateTeam(ctx context.Context, name string, leadID int) (entity.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return entity.Team{}, apperr.Validation("team name is required")
	}
	var out entity.Team
	err := s.Repo.Transact(ctx, func(tx *repository.Repository) error {
		teams, err := tx.Teams(ctx)
		if err != nil {
			return err
		}
		ids := make([]int, 0, len(teams))
		for _, t := range teams {
			if strings.EqualFold(t.Name, name) {
				return apperr.Conflict("team %q already exists", name)
			}
			ids = append(ids, t.ID)
		}
		if leadID != 0 {
			users, err := tx.Users(ctx)
			if err != nil {
				return err
			}
			if _, ok := entity.FindUser(users, leadID); !ok {
				return apperr.NotFound("user %d", leadID)
			}
		}
		out = entity.Team{ID: entity.NextID(ids...), Name: name, LeadID: leadID}
		return tx.SaveTeams(ctx, append(teams, out))
	}, repository.Teams, repository.Users)
	return out, err
}
