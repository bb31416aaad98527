package location

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

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := filestore.Open(dir, filestore.Options{RetryBaseDelay: time.Millisecond})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := entity.Clock{Location: time.UTC, NowFunc: func() time.Time { return now }}
	repo := repository.New(store)
	users := []entity.User{
		{ID: 1, Role: entity.RoleAdmin, Status: entity.StatusApproved},
		{ID: 2, Role: entity.RoleTeamLead, TeamID: entity.IntPtr(1), Status: entity.StatusApproved},
		{ID: 3, Role: entity.RoleEmployee, TeamID: entity.IntPtr(1), Status: entity.StatusApproved},
		{ID: 4, Role: entity.RoleEmployee, TeamID: entity.IntPtr(2), Status: entity.StatusApproved},
		{ID: 5, Role: entity.RoleLogistics, Status: entity.StatusApproved},
	}
	if err := repo.SaveUsers(context.Background(), users); err != nil {
		t.Fatalf("seed users: %v", err)
	}
	return NewService(repo, clock), dir
}

func TestResolveOrder(t *testing.T) {
	snap := Snapshot{
		Records: []entity.WorkLocationRecord{{UserID: 3, Date: "2026-03-12", Location: entity.LocationOffice}},
		Periods: []entity.WFHPeriod{{ID: 1, StartDate: "2026-03-11", EndDate: "2026-03-13"}},
	}
	if got := snap.Resolve(3, "2026-03-12"); got != entity.LocationOffice {
		t.Fatalf("explicit record should win, got %s", got)
	}
	if got := snap.Resolve(4, "2026-03-12"); got != entity.LocationWFH {
		t.Fatalf("period should apply, got %s", got)
	}
	if got := snap.Resolve(4, "2026-03-13"); got != entity.LocationWFH {
		t.Fatalf("period end is inclusive, got %s", got)
	}
	if got := snap.Resolve(4, "2026-03-14"); got != entity.LocationOffice {
		t.Fatalf("expected office fallback, got %s", got)
	}
}

func TestSetMineUpserts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	actor := scope.Actor{ID: 3, Role: entity.RoleEmployee, TeamID: entity.IntPtr(1)}

	if _, err := svc.SetMine(ctx, actor, "2026-03-11", "WFH"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := svc.SetMine(ctx, actor, "2026-03-11", "Office"); err != nil {
		t.Fatalf("set again: %v", err)
	}
	records, err := svc.Repo.WorkLocations(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(records) != 1 || records[0].Location != entity.LocationOffice {
		t.Fatalf("unexpected records %+v", records)
	}

	if _, err := svc.SetMine(ctx, actor, "2026-03-11", "Beach"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.SetMine(ctx, actor, "", "WFH"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for missing date, got %v", err)
	}
}

func TestClosedDayBlocksLocationUpdate(t *testing.T) {
	svc, dir := newTestService(t)
	ctx := context.Background()
	actor := scope.Actor{ID: 3, Role: entity.RoleEmployee, TeamID: entity.IntPtr(1)}

	if _, err := svc.SetMine(ctx, actor, "2026-03-11", "WFH"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := svc.CreateSpecialDay(ctx, "2026-03-12", "Closed", nil); err != nil {
		t.Fatalf("special day: %v", err)
	}
	path := filepath.Join(dir, repository.WorkLocations+".json")
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if _, err := svc.SetMine(ctx, actor, "2026-03-12", "Office"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	admin := scope.Actor{ID: 1, Role: entity.RoleAdmin}
	if _, _, err := svc.SetFor(ctx, admin, 4, "2026-03-12", "WFH"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict for admin, got %v", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Fatal("work location collection changed")
	}
}

func TestSetForScope(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	lead := scope.Actor{ID: 2, Role: entity.RoleTeamLead, TeamID: entity.IntPtr(1)}

	if _, _, err := svc.SetFor(ctx, lead, 3, "2026-03-11", "WFH"); err != nil {
		t.Fatalf("lead own team: %v", err)
	}
	if _, _, err := svc.SetFor(ctx, lead, 4, "2026-03-11", "WFH"); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, _, err := svc.SetFor(ctx, scope.Actor{ID: 5, Role: entity.RoleLogistics}, 3, "2026-03-11", "WFH"); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden for logistics, got %v", err)
	}
	if _, _, err := svc.SetFor(ctx, scope.Actor{ID: 1, Role: entity.RoleAdmin}, 77, "2026-03-11", "WFH"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestWFHPeriods(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreatePeriod(ctx, "2026-03-20", "2026-03-18"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	first, err := svc.CreatePeriod(ctx, "2026-03-18", "2026-03-18")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := svc.CreatePeriod(ctx, "2026-03-01", "2026-03-05")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("unexpected ids %d %d", first.ID, second.ID)
	}

	got, err := svc.Get(ctx, 3, "2026-03-18")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Location != entity.LocationWFH {
		t.Fatalf("expected WFH, got %s", got.Location)
	}

	periods, err := svc.ListPeriods(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(periods) != 2 || periods[0].ID != 2 {
		t.Fatalf("expected ordering by start date, got %+v", periods)
	}

	if err := svc.DeletePeriod(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeletePeriod(ctx, 1); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSpecialDays(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	note := "  board meeting "

	day, err := svc.CreateSpecialDay(ctx, "2026-03-26", "Holiday", &note)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if day.Note == nil || *day.Note != "board meeting" {
		t.Fatalf("unexpected note %v", day.Note)
	}
	if _, err := svc.CreateSpecialDay(ctx, "2026-03-26", "Closed", nil); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict for duplicate date, got %v", err)
	}
	if _, err := svc.CreateSpecialDay(ctx, "2026-03-27", "Party", nil); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	date, closed, err := svc.Check(ctx, "2026-03-26")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if date != "2026-03-26" || closed != nil {
		t.Fatalf("holiday is not a closure, got %v", closed)
	}

	if _, err := svc.CreateSpecialDay(ctx, "2026-03-10", "Closed", nil); err != nil {
		t.Fatalf("create closed: %v", err)
	}
	date, closed, err = svc.Check(ctx, "")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if date != "2026-03-10" || closed == nil {
		t.Fatalf("expected today closed, got %s %v", date, closed)
	}

	if err := svc.DeleteSpecialDay(ctx, day.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteSpecialDay(ctx, day.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
