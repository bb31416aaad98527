package headcount

import (
	"context"
	"fmt"

	"mealplanner/internal/domain/apperr"
	"mealplanner/internal/domain/entity"
	"mealplanner/internal/domain/location"
	"mealplanner/internal/domain/repository"
	"mealplanner/internal/domain/scope"
)

type Service struct {
	Repo      *repository.Repository
	Locations *location.Service
	Clock     entity.Clock
}

func NewService(repo *repository.Repository, locations *location.Service, clock entity.Clock) *Service {
	return &Service{Repo: repo, Locations: locations, Clock: clock}
}

// Report bundles the summary with the opted-in list of every meal.
type Report struct {
	Summary Summary     `json:"summary"`
	Meals   []MealUsers `json:"meals"`
}

func (s *Service) Summary(ctx context.Context, actor scope.Actor, date string, teamFilter *int) (Summary, error) {
	day, snap, err := s.load(ctx, date)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(snap, day, actor, teamFilter), nil
}

func (s *Service) OptedInUsers(ctx context.Context, actor scope.Actor, date, mealType string, teamFilter *int) (MealUsers, error) {
	mt, ok := entity.ParseMealType(mealType)
	if !ok {
		return MealUsers{}, fmt.Errorf("%w: %s", apperr.ErrInvalidMealType, mealType)
	}
	day, snap, err := s.load(ctx, date)
	if err != nil {
		return MealUsers{}, err
	}
	return OptedIn(snap, day, mt, actor, teamFilter), nil
}

func (s *Service) Participation(ctx context.Context, actor scope.Actor, date string, teamFilter *int) ([]UserParticipation, error) {
	day, snap, err := s.load(ctx, date)
	if err != nil {
		return nil, err
	}
	return ListParticipation(snap, day, actor, teamFilter), nil
}

func (s *Service) Teams(ctx context.Context, actor scope.Actor, date string) ([]TeamDetail, error) {
	day, snap, err := s.load(ctx, date)
	if err != nil {
		return nil, err
	}
	return TeamDetails(snap, day, actor), nil
}

func (s *Service) Report(ctx context.Context, actor scope.Actor, date string, teamFilter *int) (Report, error) {
	day, snap, err := s.load(ctx, date)
	if err != nil {
		return Report{}, err
	}
	report := Report{Summary: Summarize(snap, day, actor, teamFilter)}
	for _, mt := range entity.MealTypes {
		report.Meals = append(report.Meals, OptedIn(snap, day, mt, actor, teamFilter))
	}
	return report, nil
}

func (s *Service) load(ctx context.Context, date string) (string, Snapshot, error) {
	day := s.Clock.Today()
	if date != "" {
		t, err := s.Clock.ParseDate(date)
		if err != nil {
			return "", Snapshot{}, apperr.Validation("date must be YYYY-MM-DD")
		}
		day = entity.FormatDate(t)
	}

	users, err := s.Repo.Users(ctx)
	if err != nil {
		return "", Snapshot{}, err
	}
	teams, err := s.Repo.Teams(ctx)
	if err != nil {
		return "", Snapshot{}, err
	}
	records, err := s.Repo.Participation(ctx)
	if err != nil {
		return "", Snapshot{}, err
	}
	locations, err := s.Locations.Snapshot(ctx)
	if err != nil {
		return "", Snapshot{}, err
	}
	return day, Snapshot{Users: users, Teams: teams, Participation: records, Locations: locations}, nil
}
