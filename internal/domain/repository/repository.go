package repository

import (
	"context"
	"fmt"

	"mealplanner/internal/domain/entity"
	"mealplanner/internal/platform/filestore"
)

const (
	Users         = "users"
	Teams         = "teams"
	Participation = "participation"
	WorkLocations = "work_locations"
	WFHPeriods    = "wfh_periods"
	SpecialDays   = "special_days"
	AuditEvents   = "audit_events"
	JobRuns       = "job_runs"
)

// Repository gives each collection a name and a typed shape. It holds no
// business rules.
type Repository struct {
	store   *filestore.Store
	session filestore.Session
	tx      *filestore.Tx
}

func New(store *filestore.Store) *Repository {
	return &Repository{store: store, session: store}
}

// Transact runs fn with a repository bound to an exclusive section over the
// named collections. Calling Transact on a bound repository reuses the
// section when it already covers the collections.
func (r *Repository) Transact(ctx context.Context, fn func(tx *Repository) error, collections ...string) error {
	if r.tx != nil {
		if !r.tx.Holds(collections...) {
			return fmt.Errorf("%w: nested section needs %v", filestore.ErrNotLocked, collections)
		}
		return fn(r)
	}
	return r.store.Transact(ctx, collections, func(tx *filestore.Tx) error {
		return fn(&Repository{store: r.store, session: tx, tx: tx})
	})
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.store.Check(ctx)
}

func load[T any](ctx context.Context, session filestore.Session, key string) ([]T, error) {
	var out []T
	if err := session.Read(ctx, key, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) Users(ctx context.Context) ([]entity.User, error) {
	return load[entity.User](ctx, r.session, Users)
}

func (r *Repository) SaveUsers(ctx context.Context, users []entity.User) error {
	return r.session.Write(ctx, Users, users)
}

func (r *Repository) Teams(ctx context.Context) ([]entity.Team, error) {
	return load[entity.Team](ctx, r.session, Teams)
}

func (r *Repository) SaveTeams(ctx context.Context, teams []entity.Team) error {
	return r.session.Write(ctx, Teams, teams)
}

func (r *Repository) Participation(ctx context.Context) ([]entity.ParticipationRecord, error) {
	return load[entity.ParticipationRecord](ctx, r.session, Participation)
}

func (r *Repository) SaveParticipation(ctx context.Context, records []entity.ParticipationRecord) error {
	return r.session.Write(ctx, Participation, records)
}

func (r *Repository) WorkLocations(ctx context.Context) ([]entity.WorkLocationRecord, error) {
	return load[entity.WorkLocationRecord](ctx, r.session, WorkLocations)
}

func (r *Repository) SaveWorkLocations(ctx context.Context, records []entity.WorkLocationRecord) error {
	return r.session.Write(ctx, WorkLocations, records)
}

func (r *Repository) WFHPeriods(ctx context.Context) ([]entity.WFHPeriod, error) {
	return load[entity.WFHPeriod](ctx, r.session, WFHPeriods)
}

func (r *Repository) SaveWFHPeriods(ctx context.Context, periods []entity.WFHPeriod) error {
	return r.session.Write(ctx, WFHPeriods, periods)
}

func (r *Repository) SpecialDays(ctx context.Context) ([]entity.SpecialDay, error) {
	return load[entity.SpecialDay](ctx, r.session, SpecialDays)
}

func (r *Repository) SaveSpecialDays(ctx context.Context, days []entity.SpecialDay) error {
	return r.session.Write(ctx, SpecialDays, days)
}

func (r *Repository) AuditEvents(ctx context.Context) ([]entity.AuditEvent, error) {
	return load[entity.AuditEvent](ctx, r.session, AuditEvents)
}

func (r *Repository) SaveAuditEvents(ctx context.Context, events []entity.AuditEvent) error {
	return r.session.Write(ctx, AuditEvents, events)
}

func (r *Repository) JobRuns(ctx context.Context) ([]entity.JobRun, error) {
	return load[entity.JobRun](ctx, r.session, JobRuns)
}

func (r *Repository) SaveJobRuns(ctx context.Context, runs []entity.JobRun) error {
	return r.session.Write(ctx, JobRuns, runs)
}

// Raw decodes a collection without a typed shape.
func (r *Repository) Raw(ctx context.Context, key string, out any) error {
	return r.session.Read(ctx, key, out)
}
