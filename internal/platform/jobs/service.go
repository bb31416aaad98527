package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mealplanner/internal/domain/entity"
	"mealplanner/internal/domain/repository"
	"mealplanner/internal/platform/config"
)

const (
	JobRetention = "retention"

	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

var ErrQueueFull = errors.New("job queue full")

type Service struct {
	Repo  *repository.Repository
	Cfg   config.Config
	Clock entity.Clock
	queue chan job
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

func New(repo *repository.Repository, cfg config.Config, clock entity.Clock) *Service {
	return &Service{
		Repo:  repo,
		Cfg:   cfg,
		Clock: clock,
		queue: make(chan job, 128),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Cfg.RetentionInterval > 0 && s.Cfg.RetentionDays > 0 {
		go s.scheduleRetention(ctx, s.Cfg.RetentionInterval)
	}
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) error {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
		return nil
	default:
		slog.Warn("job queue full", "jobType", jobType)
		return ErrQueueFull
	}
}

// RunNow runs the job on the caller's goroutine and returns its run record.
func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (entity.JobRun, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

// RunRetention compacts participation records older than the retention window.
func (s *Service) RunRetention(ctx context.Context) (entity.JobRun, error) {
	return s.RunNow(ctx, JobRetention, s.retention)
}

// Runs lists recorded runs, newest first.
func (s *Service) Runs(ctx context.Context, limit int) ([]entity.JobRun, error) {
	runs, err := s.Repo.JobRuns(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]entity.JobRun, 0, len(runs))
	for i := len(runs) - 1; i >= 0; i-- {
		out = append(out, runs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (entity.JobRun, error) {
	run := entity.JobRun{
		ID:        uuid.NewString(),
		Type:      j.Type,
		Status:    StatusRunning,
		StartedAt: s.Clock.Now(),
	}
	if err := s.saveRun(ctx, run); err != nil {
		slog.Warn("job run insert failed", "jobType", j.Type, "err", err)
	}

	details, err := j.Run(ctx)
	run.Status = StatusCompleted
	if err != nil {
		run.Status = StatusFailed
		run.Error = err.Error()
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	run.Details = detailsJSON
	completed := s.Clock.Now()
	run.CompletedAt = &completed

	if updErr := s.saveRun(ctx, run); updErr != nil {
		slog.Warn("job run update failed", "jobType", j.Type, "err", updErr)
	}
	return run, err
}

// saveRun inserts run or replaces the stored run with the same id.
func (s *Service) saveRun(ctx context.Context, run entity.JobRun) error {
	return s.Repo.Transact(ctx, func(tx *repository.Repository) error {
		runs, err := tx.JobRuns(ctx)
		if err != nil {
			return err
		}
		for i := range runs {
			if runs[i].ID == run.ID {
				runs[i] = run
				return tx.SaveJobRuns(ctx, runs)
			}
		}
		return tx.SaveJobRuns(ctx, append(runs, run))
	}, repository.JobRuns)
}

func (s *Service) scheduleRetention(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Enqueue(JobRetention, s.retention)
		}
	}
}

type retentionResult struct {
	CutoffDate           string `json:"cutoffDate"`
	ParticipationDeleted int    `json:"participationDeleted"`
}

// retention compacts participation older than the window. Only records that
// still read as all opted in are dropped, since a missing record reads the
// same. Opt-outs and work location overrides are never removed.
func (s *Service) retention(ctx context.Context) (any, error) {
	result := retentionResult{}
	if s.Cfg.RetentionDays <= 0 {
		return result, nil
	}
	cutoff := entity.FormatDate(entity.Day(s.Clock.Now()).AddDate(0, 0, -s.Cfg.RetentionDays))
	result.CutoffDate = cutoff

	err := s.Repo.Transact(ctx, func(tx *repository.Repository) error {
		records, err := tx.Participation(ctx)
		if err != nil {
			return err
		}
		kept := records[:0]
		for _, r := range records {
			if r.Date >= cutoff || !r.Meals.IsDefault() {
				kept = append(kept, r)
			}
		}
		result.ParticipationDeleted = len(records) - len(kept)
		if result.ParticipationDeleted == 0 {
			return nil
		}
		return tx.SaveParticipation(ctx, kept)
	}, repository.Participation)
	return result, err
}
