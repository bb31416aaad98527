package participation

import (
	"context"
	"fmt"

	"mealplanner/internal/domain/apperr"
	"mealplanner/internal/domain/entity"
	"mealplanner/internal/domain/repository"
	"mealplanner/internal/domain/scope"
)

type Service struct {
	Repo         *repository.Repository
	Materializer *Materializer
	Cutoff       Cutoff
	Clock        entity.Clock
}

func NewService(repo *repository.Repository, cutoff Cutoff, clock entity.Clock) *Service {
	return &Service{Repo: repo, Materializer: NewMaterializer(repo), Cutoff: cutoff, Clock: clock}
}

// Mine returns the actor's record for date, today when empty.
func (s *Service) Mine(ctx context.Context, actor scope.Actor, date string) (entity.ParticipationRecord, error) {
	day, err := s.resolveDate(date, s.Clock.Today())
	if err != nil {
		return entity.ParticipationRecord{}, err
	}
	return s.Materializer.Ensure(ctx, actor.ID, day)
}

// UpdateMine changes the actor's own choices for date, tomorrow when empty.
func (s *Service) UpdateMine(ctx context.Context, actor scope.Actor, date string, meals map[string]bool) (entity.ParticipationRecord, error) {
	day, err := s.resolveDate(date, s.Clock.Tomorrow())
	if err != nil {
		return entity.ParticipationRecord{}, err
	}
	if err := s.checkCutoff(actor.Role, day); err != nil {
		return entity.ParticipationRecord{}, err
	}
	return s.Materializer.Merge(ctx, actor.ID, day, meals)
}

// UpdateFor changes another user's choices for date, today when empty.
func (s *Service) UpdateFor(ctx context.Context, actor scope.Actor, targetID int, date string, meals map[string]bool) (entity.User, entity.ParticipationRecord, error) {
	day, err := s.resolveDate(date, s.Clock.Today())
	if err != nil {
		return entity.User{}, entity.ParticipationRecord{}, err
	}
	users, err := s.Repo.Users(ctx)
	if err != nil {
		return entity.User{}, entity.ParticipationRecord{}, err
	}
	target, err := scope.ResolveTarget(actor, users, targetID)
	if err != nil {
		return entity.User{}, entity.ParticipationRecord{}, err
	}
	if err := s.checkCutoff(actor.Role, day); err != nil {
		return entity.User{}, entity.ParticipationRecord{}, err
	}
	record, err := s.Materializer.Merge(ctx, target.ID, day, meals)
	if err != nil {
		return entity.User{}, entity.ParticipationRecord{}, err
	}
	return target, record, nil
}

func (s *Service) checkCutoff(role entity.Role, day string) error {
	target, err := s.Clock.ParseDate(day)
	if err != nil {
		return apperr.Validation("invalid date %q", day)
	}
	if s.Cutoff.IsLocked(role, target, s.Clock.Now()) {
		return fmt.Errorf("%w: choices for %s are locked", apperr.ErrCutoffPassed, day)
	}
	return nil
}

func (s *Service) resolveDate(value, fallback string) (string, error) {
	if value == "" {
		return fallback, nil
	}
	t, err := s.Clock.ParseDate(value)
	if err != nil {
		return "", apperr.Validation("date must be YYYY-MM-DD")
	}
	return entity.FormatDate(t), nil
}
