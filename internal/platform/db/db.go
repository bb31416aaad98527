package db

import (
	"context"
	"encoding/json"
	"log/slog"

	"mealplanner/internal/domain/repository"
	"mealplanner/internal/platform/config"
	"mealplanner/internal/platform/filestore"
)

// Collections lists every collection the service reads, in creation order.
var Collections = []string{
	repository.Users,
	repository.Teams,
	repository.Participation,
	repository.WorkLocations,
	repository.WFHPeriods,
	repository.SpecialDays,
	repository.AuditEvents,
	repository.JobRuns,
}

func Connect(cfg config.Config) (*repository.Repository, error) {
	store, err := filestore.Open(cfg.DataDir, filestore.Options{
		RetryAttempts:  cfg.StoreRetryAttempts,
		RetryBaseDelay: cfg.StoreRetryBaseDelay,
		Logger:         slog.Default().With("component", "filestore"),
	})
	if err != nil {
		return nil, err
	}
	return repository.New(store), nil
}

// Migrate creates every missing collection file and fails on a corrupt one,
// so a bad data directory is reported at startup instead of on first use.
func Migrate(ctx context.Context, repo *repository.Repository) error {
	for _, key := range Collections {
		var raw []json.RawMessage
		if err := repo.Raw(ctx, key, &raw); err != nil {
			return err
		}
		slog.Debug("collection ready", "collection", key, "records", len(raw))
	}
	return nil
}
