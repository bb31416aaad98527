package headcount

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"mealplanner/internal/domain/apperr"
	"mealplanner/internal/domain/entity"
	"mealplanner/internal/domain/location"
	"mealplanner/internal/domain/repository"
	"mealplanner/internal/domain/scope"
	"mealplanner/internal/platform/filestore"
)

const day = "2026-03-10"

func fixture() Snapshot {
	return Snapshot{
		Users: []entity.User{
			{ID: 1, Name: "Admin", Role: entity.RoleAdmin, Status: entity.StatusApproved},
			{ID: 2, Name: "Lead", Role: entity.RoleTeamLead, TeamID: entity.IntPtr(1), Status: entity.StatusApproved},
			{ID: 3, Name: "Amy", Role: entity.RoleEmployee, TeamID: entity.IntPtr(1), Status: entity.StatusApproved},
			{ID: 4, Name: "Bob", Role: entity.RoleEmployee, TeamID: entity.IntPtr(2), Status: entity.StatusApproved},
			{ID: 5, Name: "Pat", Role: entity.RoleEmployee, TeamID: entity.IntPtr(1), Status: entity.StatusPending},
		},
		Teams: []entity.Team{
			{ID: 1, Name: "Platform", LeadID: 2},
			{ID: 2, Name: "Payments", LeadID: 99},
			{ID: 3, Name: "Empty", LeadID: 0},
		},
		Participation: []entity.ParticipationRecord{
			{UserID: 3, Date: day, Meals: entity.Meals{entity.MealLunch: false, entity.MealSnacks: true, entity.MealIftar: false, entity.MealEventDinner: true, entity.MealOptionalDinner: true}},
			{UserID: 4, Date: day, Meals: entity.Meals{entity.MealLunch: false, entity.MealSnacks: false, entity.MealIftar: true, entity.MealEventDinner: true, entity.MealOptionalDinner: true}},
			{UserID: 2, Date: "2026-03-09", Meals: entity.Meals{entity.MealLunch: false}},
			{UserID: 5, Date: day, Meals: entity.Meals{entity.MealLunch: false}},
		},
		Locations: location.Snapshot{
			Records: []entity.WorkLocationRecord{{UserID: 3, Date: day, Location: entity.LocationWFH}},
			Periods: []entity.WFHPeriod{{ID: 1, StartDate: "2026-03-10", EndDate: "2026-03-10"}},
		},
	}
}

func mealCount(t *testing.T, s Summary, mt entity.MealType) MealCount {
	t.Helper()
	for _, m := range s.Meals {
		if m.MealType == mt {
			return m
		}
	}
	t.Fatalf("meal %s missing", mt)
	return MealCount{}
}

func TestSummarizeAdmin(t *testing.T) {
	s := Summarize(fixture(), day, scope.Actor{ID: 1, Role: entity.RoleAdmin}, nil)

	if s.TotalEmployees != 4 {
		t.Fatalf("expected 4 approved users, got %d", s.TotalEmployees)
	}
	if len(s.Meals) != len(entity.MealTypes) {
		t.Fatalf("expected every meal type, got %d", len(s.Meals))
	}
	lunch := mealCount(t, s, entity.MealLunch)
	if lunch.OptedIn != 2 || lunch.OptedOut != 2 || lunch.OptedInPct != 50 || lunch.OptedOutPct != 50 {
		t.Fatalf("unexpected lunch %+v", lunch)
	}
	snacks := mealCount(t, s, entity.MealSnacks)
	if snacks.OptedIn != 3 || snacks.OptedInPct != 75 || snacks.OptedOutPct != 25 {
		t.Fatalf("unexpected snacks %+v", snacks)
	}
	if s.WFH != 4 || s.Office != 0 {
		t.Fatalf("the period covers the day, got office=%d wfh=%d", s.Office, s.WFH)
	}
}

func TestSummarizeRoundsToTwoDecimals(t *testing.T) {
	snap := fixture()
	s := Summarize(snap, day, scope.Actor{ID: 2, Role: entity.RoleTeamLead, TeamID: entity.IntPtr(1)}, nil)
	if s.TotalEmployees != 2 {
		t.Fatalf("expected lead's team only, got %d", s.TotalEmployees)
	}

	snap.Users = append(snap.Users, entity.User{ID: 6, Role: entity.RoleEmployee, TeamID: entity.IntPtr(1), Status: entity.StatusApproved})
	s = Summarize(snap, day, scope.Actor{ID: 2, Role: entity.RoleTeamLead, TeamID: entity.IntPtr(1)}, nil)
	lunch := mealCount(t, s, entity.MealLunch)
	if lunch.OptedInPct != 66.67 || lunch.OptedOutPct != 33.33 {
		t.Fatalf("unexpected rounding %+v", lunch)
	}
}

func TestSummarizeEmptyTeam(t *testing.T) {
	s := Summarize(fixture(), day, scope.Actor{ID: 1, Role: entity.RoleAdmin}, entity.IntPtr(3))
	if s.TotalEmployees != 0 {
		t.Fatalf("expected empty team, got %d", s.TotalEmployees)
	}
	for _, m := range s.Meals {
		if m.OptedIn != 0 || m.OptedOut != 0 || m.OptedInPct != 0 || m.OptedOutPct != 0 {
			t.Fatalf("expected zeros, got %+v", m)
		}
	}
}

func TestTeamLeadFilterIgnored(t *testing.T) {
	lead := scope.Actor{ID: 2, Role: entity.RoleTeamLead, TeamID: entity.IntPtr(1)}
	rows := ListParticipation(fixture(), day, lead, entity.IntPtr(2))
	if len(rows) != 2 || rows[0].UserID != 2 || rows[1].UserID != 3 {
		t.Fatalf("expected own team only, got %+v", rows)
	}
	if rows[1].Location != entity.LocationWFH || rows[1].Meals[entity.MealLunch] {
		t.Fatalf("unexpected row %+v", rows[1])
	}
	if !rows[0].Meals[entity.MealLunch] {
		t.Fatal("record from another date must not apply")
	}
}

func TestOptedInOrderedWithTeams(t *testing.T) {
	got := OptedIn(fixture(), day, entity.MealIftar, scope.Actor{ID: 1, Role: entity.RoleAdmin}, nil)
	want := []int{1, 2, 4}
	if got.OptedInCount != len(want) {
		t.Fatalf("expected %d users, got %+v", len(want), got.Users)
	}
	for i, id := range want {
		if got.Users[i].UserID != id {
			t.Fatalf("position %d: expected %d, got %d", i, id, got.Users[i].UserID)
		}
	}
	if got.Users[0].TeamName != nil {
		t.Fatal("admin has no team")
	}
	if got.Users[2].TeamName == nil || *got.Users[2].TeamName != "Payments" {
		t.Fatalf("unexpected team %v", got.Users[2].TeamName)
	}
}

func TestTeamDetails(t *testing.T) {
	lead := scope.Actor{ID: 2, Role: entity.RoleTeamLead, TeamID: entity.IntPtr(1)}
	teams := TeamDetails(fixture(), day, lead)
	if len(teams) != 3 {
		t.Fatalf("expected 3 teams, got %d", len(teams))
	}
	platform, payments := teams[0], teams[1]
	if platform.MemberCount != 2 || platform.LeadName == nil || *platform.LeadName != "Lead" {
		t.Fatalf("unexpected platform %+v", platform)
	}
	if platform.Members[1].Meals == nil || platform.Members[1].Meals[entity.MealLunch] {
		t.Fatalf("own team detail expected, got %+v", platform.Members[1])
	}
	if payments.LeadName != nil {
		t.Fatal("dangling lead should have no name")
	}
	if payments.Members[0].Meals != nil {
		t.Fatal("other team detail must be hidden")
	}
}

func TestServiceDoesNotPersist(t *testing.T) {
	dir := t.TempDir()
	store, err := filestore.Open(dir, filestore.Options{RetryBaseDelay: time.Millisecond})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	repo := repository.New(store)
	ctx := context.Background()
	snap := fixture()
	if err := repo.SaveUsers(ctx, snap.Users); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := repo.SaveParticipation(ctx, nil); err != nil {
		t.Fatalf("seed: %v", err)
	}
	clock := entity.Clock{Location: time.UTC, NowFunc: func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }}
	svc := NewService(repo, location.NewService(repo, clock), clock)

	summary, err := svc.Summary(ctx, scope.Actor{ID: 1, Role: entity.RoleAdmin}, "", nil)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Date != day || mealCount(t, summary, entity.MealLunch).OptedIn != 4 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	data, err := os.ReadFile(filepath.Join(dir, repository.Participation+".json"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(bytes.TrimSpace(data)) != "[]" {
		t.Fatalf("aggregation must not write, got %s", data)
	}

	if _, err := svc.OptedInUsers(ctx, scope.Actor{ID: 1, Role: entity.RoleAdmin}, "", "Dinner", nil); !errors.Is(err, apperr.ErrInvalidMealType) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Summary(ctx, scope.Actor{ID: 1, Role: entity.RoleAdmin}, "yesterday", nil); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExports(t *testing.T) {
	snap := fixture()
	admin := scope.Actor{ID: 1, Role: entity.RoleAdmin}
	report := Report{Summary: Summarize(snap, day, admin, nil)}
	for _, mt := range entity.MealTypes {
		report.Meals = append(report.Meals, OptedIn(snap, day, mt, admin, nil))
	}

	var pdf bytes.Buffer
	if err := WritePDF(&pdf, report); err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(pdf.Bytes(), []byte("%PDF")) {
		t.Fatal("expected pdf header")
	}

	var xlsx bytes.Buffer
	if err := WriteXLSX(&xlsx, report); err != nil {
		t.Fatalf("xlsx: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(xlsx.Bytes()))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	total, err := f.GetCellValue("Summary", "B2")
	if err != nil {
		t.Fatalf("cell: %v", err)
	}
	if total != "4" {
		t.Fatalf("expected 4 employees, got %q", total)
	}
	name, err := f.GetCellValue(string(entity.MealSnacks), "C2")
	if err != nil {
		t.Fatalf("cell: %v", err)
	}
	if name != "Admin" {
		t.Fatalf("expected first snacks user Admin, got %q", name)
	}
}
