package participation

import (
	"context"
	"fmt"
	"sort"

	"mealplanner/internal/domain/apperr"
	"mealplanner/internal/domain/entity"
	"mealplanner/internal/domain/repository"
)

// Materializer is the single place a missing participation record turns into
// the all-opted-in default.
type Materializer struct {
	repo *repository.Repository
}

func NewMaterializer(repo *repository.Repository) *Materializer {
	return &Materializer{repo: repo}
}

// Ensure returns the stored record for (userID, date), creating and persisting
// the default record when none exists.
func (m *Materializer) Ensure(ctx context.Context, userID int, date string) (entity.ParticipationRecord, error) {
	var out entity.ParticipationRecord
	err := m.repo.Transact(ctx, func(tx *repository.Repository) error {
		records, err := tx.Participation(ctx)
		if err != nil {
			return err
		}
		if i, ok := entity.FindParticipation(records, userID, date); ok {
			out = records[i]
			return nil
		}
		out = entity.ParticipationRecord{UserID: userID, Date: date, Meals: entity.DefaultMeals()}
		return tx.SaveParticipation(ctx, append(records, out))
	}, repository.Participation)
	if err != nil {
		return entity.ParticipationRecord{}, err
	}
	out.Meals = out.Meals.Clone()
	return out, nil
}

// Merge applies partial on top of the (materialized) record. Keys missing from
// partial keep their value.
func (m *Materializer) Merge(ctx context.Context, userID int, date string, partial map[string]bool) (entity.ParticipationRecord, error) {
	updates, err := ParseMeals(partial)
	if err != nil {
		return entity.ParticipationRecord{}, err
	}

	var out entity.ParticipationRecord
	err = m.repo.Transact(ctx, func(tx *repository.Repository) error {
		records, err := tx.Participation(ctx)
		if err != nil {
			return err
		}
		i, ok := entity.FindParticipation(records, userID, date)
		if !ok {
			records = append(records, entity.ParticipationRecord{UserID: userID, Date: date, Meals: entity.DefaultMeals()})
			i = len(records) - 1
		}
		if records[i].Meals == nil {
			records[i].Meals = entity.DefaultMeals()
		}
		for mt, value := range updates {
			records[i].Meals[mt] = value
		}
		out = records[i]
		return tx.SaveParticipation(ctx, records)
	}, repository.Participation)
	if err != nil {
		return entity.ParticipationRecord{}, err
	}
	out.Meals = out.Meals.Clone()
	return out, nil
}

// ParseMeals rejects any key outside the known meal types.
func ParseMeals(partial map[string]bool) (entity.Meals, error) {
	keys := make([]string, 0, len(partial))
	for k := range partial {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(entity.Meals, len(partial))
	for _, k := range keys {
		mt, ok := entity.ParseMealType(k)
		if !ok {
			return nil, fmt.Errorf("%w: %s", apperr.ErrInvalidMealType, k)
		}
		out[mt] = partial[k]
	}
	return out, nil
}
