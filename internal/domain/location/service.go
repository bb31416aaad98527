package location

import (
	"context"
	"sort"
	"strings"

	"mealplanner/internal/domain/apperr"
	"mealplanner/internal/domain/entity"
	"mealplanner/internal/domain/repository"
	"mealplanner/internal/domain/scope"
)

type Service struct {
	Repo  *repository.Repository
	Clock entity.Clock
}

func NewService(repo *repository.Repository, clock entity.Clock) *Service {
	return &Service{Repo: repo, Clock: clock}
}

func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	records, err := s.Repo.WorkLocations(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	periods, err := s.Repo.WFHPeriods(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	days, err := s.Repo.SpecialDays(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Records: records, Periods: periods, SpecialDays: days}, nil
}

// Get resolves userID's location on date, today when empty.
func (s *Service) Get(ctx context.Context, userID int, date string) (entity.WorkLocationRecord, error) {
	day, err := s.date(date)
	if err != nil {
		return entity.WorkLocationRecord{}, err
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return entity.WorkLocationRecord{}, err
	}
	return entity.WorkLocationRecord{UserID: userID, Date: day, Location: snap.Resolve(userID, day)}, nil
}

func (s *Service) SetMine(ctx context.Context, actor scope.Actor, date, value string) (entity.WorkLocationRecord, error) {
	return s.set(ctx, actor.ID, date, value)
}

// SetFor changes another user's location. Logistics may not change anyone's.
func (s *Service) SetFor(ctx context.Context, actor scope.Actor, targetID int, date, value string) (entity.User, entity.WorkLocationRecord, error) {
	if actor.Role == entity.RoleLogistics {
		return entity.User{}, entity.WorkLocationRecord{}, apperr.Forbidden("logistics cannot modify user locations")
	}
	users, err := s.Repo.Users(ctx)
	if err != nil {
		return entity.User{}, entity.WorkLocationRecord{}, err
	}
	target, err := scope.ResolveTarget(actor, users, targetID)
	if err != nil {
		return entity.User{}, entity.WorkLocationRecord{}, err
	}
	rec, err := s.set(ctx, target.ID, date, value)
	if err != nil {
		return entity.User{}, entity.WorkLocationRecord{}, err
	}
	return target, rec, nil
}

func (s *Service) set(ctx context.Context, userID int, date, value string) (entity.WorkLocationRecord, error) {
	if date == "" {
		return entity.WorkLocationRecord{}, apperr.Validation("date is required")
	}
	day, err := s.date(date)
	if err != nil {
		return entity.WorkLocationRecord{}, err
	}
	loc, ok := entity.ParseWorkLocation(value)
	if !ok {
		return entity.WorkLocationRecord{}, apperr.Validation("location must be Office or WFH")
	}

	rec := entity.WorkLocationRecord{UserID: userID, Date: day, Location: loc}
	err = s.Repo.Transact(ctx, func(tx *repository.Repository) error {
		days, err := tx.SpecialDays(ctx)
		if err != nil {
			return err
		}
		if _, closed := ClosedOn(day, days); closed {
			return apperr.Conflict("office is closed on %s", day)
		}
		records, err := tx.WorkLocations(ctx)
		if err != nil {
			return err
		}
		for i := range records {
			if records[i].UserID == userID && records[i].Date == day {
				records[i].Location = loc
				return tx.SaveWorkLocations(ctx, records)
			}
		}
		return tx.SaveWorkLocations(ctx, append(records, rec))
	}, repository.WorkLocations, repository.SpecialDays)
	if err != nil {
		return entity.WorkLocationRecord{}, err
	}
	return rec, nil
}

func (s *Service) ListPeriods(ctx context.Context) ([]entity.WFHPeriod, error) {
	periods, err := s.Repo.WFHPeriods(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(periods, func(i, j int) bool { return periods[i].StartDate < periods[j].StartDate })
	return periods, nil
}

func (s *Service) CreatePeriod(ctx context.Context, start, end string) (entity.WFHPeriod, error) {
	startDay, err := s.requiredDate("start_date", start)
	if err != nil {
		return entity.WFHPeriod{}, err
	}
	endDay, err := s.requiredDate("end_date", end)
	if err != nil {
		return entity.WFHPeriod{}, err
	}
	if startDay > endDay {
		return entity.WFHPeriod{}, apperr.Conflict("start_date %s is after end_date %s", startDay, endDay)
	}

	var out entity.WFHPeriod
	err = s.Repo.Transact(ctx, func(tx *repository.Repository) error {
		periods, err := tx.WFHPeriods(ctx)
		if err != nil {
			return err
		}
		ids := make([]int, 0, len(periods))
		for _, p := range periods {
			ids = append(ids, p.ID)
		}
		out = entity.WFHPeriod{ID: entity.NextID(ids...), StartDate: startDay, EndDate: endDay}
		return tx.SaveWFHPeriods(ctx, append(periods, out))
	}, repository.WFHPeriods)
	return out, err
}

func (s *Service) DeletePeriod(ctx context.Context, id int) error {
	return s.Repo.Transact(ctx, func(tx *repository.Repository) error {
		periods, err := tx.WFHPeriods(ctx)
		if err != nil {
			return err
		}
		for i, p := range periods {
			if p.ID == id {
				return tx.SaveWFHPeriods(ctx, append(periods[:i], periods[i+1:]...))
			}
		}
		return apperr.NotFound("wfh period %d", id)
	}, repository.WFHPeriods)
}

func (s *Service) ListSpecialDays(ctx context.Context) ([]entity.SpecialDay, error) {
	days, err := s.Repo.SpecialDays(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days, nil
}

func (s *Service) CreateSpecialDay(ctx context.Context, date, kind string, note *string) (entity.SpecialDay, error) {
	day, err := s.requiredDate("date", date)
	if err != nil {
		return entity.SpecialDay{}, err
	}
	dayType, ok := entity.ParseSpecialDayType(kind)
	if !ok {
		return entity.SpecialDay{}, apperr.Validation("type must be Closed, Holiday or Celebration")
	}
	if note != nil {
		trimmed := strings.TrimSpace(*note)
		note = &trimmed
		if trimmed == "" {
			note = nil
		}
	}

	var out entity.SpecialDay
	err = s.Repo.Transact(ctx, func(tx *repository.Repository) error {
		days, err := tx.SpecialDays(ctx)
		if err != nil {
			return err
		}
		ids := make([]int, 0, len(days))
		for _, d := range days {
			if d.Date == day {
				return apperr.Conflict("special day already exists for %s", day)
			}
			ids = append(ids, d.ID)
		}
		out = entity.SpecialDay{ID: entity.NextID(ids...), Date: day, Type: dayType, Note: note}
		return tx.SaveSpecialDays(ctx, append(days, out))
	}, repository.SpecialDays)
	return out, err
}

func (s *Service) DeleteSpecialDay(ctx context.Context, id int) error {
	return s.Repo.Transact(ctx, func(tx *repository.Repository) error {
		days, err := tx.SpecialDays(ctx)
		if err != nil {
			return err
		}
		for i, d := range days {
			if d.ID == id {
				return tx.SaveSpecialDays(ctx, append(days[:i], days[i+1:]...))
			}
		}
		return apperr.NotFound("special day %d", id)
	}, repository.SpecialDays)
}

// Check reports whether the office is closed on date, today when empty.
func (s *Service) Check(ctx context.Context, date string) (string, *entity.SpecialDay, error) {
	day, err := s.date(date)
	if err != nil {
		return "", nil, err
	}
	days, err := s.Repo.SpecialDays(ctx)
	if err != nil {
		return "", nil, err
	}
	if closed, ok := ClosedOn(day, days); ok {
		return day, &closed, nil
	}
	return day, nil, nil
}

func (s *Service) date(value string) (string, error) {
	if value == "" {
		return s.Clock.Today(), nil
	}
	t, err := s.Clock.ParseDate(value)
	if err != nil {
		return "", apperr.Validation("date must be YYYY-MM-DD")
	}
	return entity.FormatDate(t), nil
}

func (s *Service) requiredDate(field, value string) (string, error) {
	if value == "" {
		return "", apperr.Validation("%s is required", field)
	}
	t, err := s.Clock.ParseDate(value)
	if err != nil {
		return "", apperr.Validation("%s must be YYYY-MM-DD", field)
	}
	return entity.FormatDate(t), nil
}
