package participation

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mealplanner/internal/domain/apperr"
	"mealplanner/internal/domain/entity"
	"mealplanner/internal/domain/repository"
	"mealplanner/internal/domain/scope"
	"mealplanner/internal/platform/filestore"
)

func newTestRepo(t *testing.T) (*repository.Repository, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := filestore.Open(dir, filestore.Options{RetryBaseDelay: time.Millisecond})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return repository.New(store), dir
}

func fixedClock(t *testing.T, value string) entity.Clock {
	t.Helper()
	now := at(t, time.UTC, value)
	return entity.Clock{Location: time.UTC, NowFunc: func() time.Time { return now }}
}

func seedUsers(t *testing.T, repo *repository.Repository) {
	t.Helper()
	users := []entity.User{
		{ID: 1, Username: "admin", Role: entity.RoleAdmin, Status: entity.StatusApproved},
		{ID: 2, Username: "lead", Role: entity.RoleTeamLead, TeamID: entity.IntPtr(1), Status: entity.StatusApproved},
		{ID: 3, Username: "amy", Role: entity.RoleEmployee, TeamID: entity.IntPtr(1), Status: entity.StatusApproved},
		{ID: 4, Username: "bob", Role: entity.RoleEmployee, TeamID: entity.IntPtr(2), Status: entity.StatusApproved},
		{ID: 5, Username: "ops", Role: entity.RoleLogistics, Status: entity.StatusApproved},
	}
	if err := repo.SaveUsers(context.Background(), users); err != nil {
		t.Fatalf("seed users: %v", err)
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	repo, dir := newTestRepo(t)
	m := NewMaterializer(repo)
	ctx := context.Background()

	first, err := m.Ensure(ctx, 3, "2026-03-10")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	for _, mt := range entity.MealTypes {
		if !first.Meals[mt] {
			t.Fatalf("expected %s opted in", mt)
		}
	}
	path := filepath.Join(dir, repository.Participation+".json")
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	info, _ := os.Stat(path)

	second, err := m.Ensure(ctx, 3, "2026-03-10")
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Fatalf("persisted content changed:\n%s\n---\n%s", before, after)
	}
	info2, _ := os.Stat(path)
	if !info.ModTime().Equal(info2.ModTime()) {
		t.Fatal("expected no rewrite on second ensure")
	}
	if len(second.Meals) != len(entity.MealTypes) {
		t.Fatalf("unexpected meals %v", second.Meals)
	}

	records, err := repo.Participation(ctx)
	if err != nil {
		t.Fatalf("participation: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
}

func TestMergeKeepsAbsentKeys(t *testing.T) {
	repo, _ := newTestRepo(t)
	m := NewMaterializer(repo)
	ctx := context.Background()

	if _, err := m.Merge(ctx, 3, "2026-03-11", map[string]bool{"Lunch": false}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	rec, err := m.Merge(ctx, 3, "2026-03-11", map[string]bool{"Iftar": false, "Snacks": true})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	want := entity.Meals{
		entity.MealLunch:          false,
		entity.MealSnacks:         true,
		entity.MealIftar:          false,
		entity.MealEventDinner:    true,
		entity.MealOptionalDinner: true,
	}
	for mt, value := range want {
		if rec.Meals[mt] != value {
			t.Fatalf("%s: expected %v, got %v", mt, value, rec.Meals[mt])
		}
	}

	stored, err := m.Ensure(ctx, 3, "2026-03-11")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	for mt, value := range want {
		if stored.Meals[mt] != value {
			t.Fatalf("stored %s: expected %v, got %v", mt, value, stored.Meals[mt])
		}
	}
}

func TestMergeRejectsUnknownMealType(t *testing.T) {
	repo, dir := newTestRepo(t)
	m := NewMaterializer(repo)

	_, err := m.Merge(context.Background(), 3, "2026-03-11", map[string]bool{"Lunch": false, "Dinner": true})
	if !errors.Is(err, apperr.ErrInvalidMealType) {
		t.Fatalf("expected invalid meal type, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, repository.Participation+".json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no participation file, got %v", err)
	}
}

func TestUpdateMineCutoff(t *testing.T) {
	repo, _ := newTestRepo(t)
	seedUsers(t, repo)
	ctx := context.Background()
	employee := scope.Actor{ID: 3, Role: entity.RoleEmployee, TeamID: entity.IntPtr(1)}

	open := NewService(repo, Cutoff{Hour: 21}, fixedClock(t, "2026-03-10 20:30:00"))
	rec, err := open.UpdateMine(ctx, employee, "", map[string]bool{"Lunch": false})
	if err != nil {
		t.Fatalf("update before cutoff: %v", err)
	}
	if rec.Date != "2026-03-11" || rec.Meals[entity.MealLunch] {
		t.Fatalf("unexpected record %+v", rec)
	}

	closed := NewService(repo, Cutoff{Hour: 21}, fixedClock(t, "2026-03-10 21:00:00"))
	if _, err := closed.UpdateMine(ctx, employee, "2026-03-11", map[string]bool{"Lunch": true}); !errors.Is(err, apperr.ErrCutoffPassed) {
		t.Fatalf("expected cutoff passed, got %v", err)
	}
	if _, err := closed.UpdateMine(ctx, employee, "2026-03-10", map[string]bool{"Lunch": true}); !errors.Is(err, apperr.ErrCutoffPassed) {
		t.Fatalf("expected cutoff passed for today, got %v", err)
	}
	if _, err := closed.UpdateMine(ctx, employee, "2026-03-12", map[string]bool{"Lunch": false}); err != nil {
		t.Fatalf("expected day after tomorrow open: %v", err)
	}

	stored, err := closed.Mine(ctx, employee, "2026-03-11")
	if err != nil {
		t.Fatalf("mine: %v", err)
	}
	if stored.Meals[entity.MealLunch] {
		t.Fatal("locked update must not change the stored record")
	}

	lead := scope.Actor{ID: 2, Role: entity.RoleTeamLead, TeamID: entity.IntPtr(1)}
	if _, err := closed.UpdateMine(ctx, lead, "2026-03-10", map[string]bool{"Lunch": false}); err != nil {
		t.Fatalf("team lead is not subject to cutoff: %v", err)
	}
}

func TestUpdateMineRejectsBadDate(t *testing.T) {
	repo, _ := newTestRepo(t)
	svc := NewService(repo, Cutoff{}, fixedClock(t, "2026-03-10 10:00:00"))
	_, err := svc.UpdateMine(context.Background(), scope.Actor{ID: 3, Role: entity.RoleEmployee}, "10/03/2026", nil)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMineDefaultsToToday(t *testing.T) {
	repo, _ := newTestRepo(t)
	svc := NewService(repo, Cutoff{}, fixedClock(t, "2026-03-10 10:00:00"))
	rec, err := svc.Mine(context.Background(), scope.Actor{ID: 3, Role: entity.RoleEmployee}, "")
	if err != nil {
		t.Fatalf("mine: %v", err)
	}
	if rec.Date != "2026-03-10" || rec.UserID != 3 {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestUpdateForScope(t *testing.T) {
	repo, _ := newTestRepo(t)
	seedUsers(t, repo)
	ctx := context.Background()
	svc := NewService(repo, Cutoff{}, fixedClock(t, "2026-03-10 10:00:00"))

	tests := []struct {
		name    string
		actor   scope.Actor
		target  int
		wantErr error
	}{
		{name: "admin any user", actor: scope.Actor{ID: 1, Role: entity.RoleAdmin}, target: 4},
		{name: "lead own team", actor: scope.Actor{ID: 2, Role: entity.RoleTeamLead, TeamID: entity.IntPtr(1)}, target: 3},
		{name: "lead other team", actor: scope.Actor{ID: 2, Role: entity.RoleTeamLead, TeamID: entity.IntPtr(1)}, target: 4, wantErr: apperr.ErrForbidden},
		{name: "logistics read only", actor: scope.Actor{ID: 5, Role: entity.RoleLogistics}, target: 3, wantErr: apperr.ErrForbidden},
		{name: "missing user", actor: scope.Actor{ID: 1, Role: entity.RoleAdmin}, target: 42, wantErr: apperr.ErrNotFound},
		{name: "employee today is locked", actor: scope.Actor{ID: 3, Role: entity.RoleEmployee, TeamID: entity.IntPtr(1)}, target: 3, wantErr: apperr.ErrCutoffPassed},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			target, rec, err := svc.UpdateFor(ctx, tc.actor, tc.target, "", map[string]bool{"Snacks": false})
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("update: %v", err)
			}
			if target.ID != tc.target || rec.Date != "2026-03-10" || rec.Meals[entity.MealSnacks] {
				t.Fatalf("unexpected result %+v %+v", target, rec)
			}
		})
	}
}
