package audit

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"mealplanner/internal/domain/entity"
	"mealplanner/internal/domain/repository"
)

type Filter struct {
	Action     string
	EntityType string
	ActorID    int
}

type Service struct {
	Repo  *repository.Repository
	Clock entity.Clock
}

func New(repo *repository.Repository, clock entity.Clock) *Service {
	return &Service{Repo: repo, Clock: clock}
}

func (s *Service) Record(ctx context.Context, actorID int, action, entityType, entityID, requestID, ip string, before, after any) error {
	var beforeJSON, afterJSON []byte
	if before != nil {
		payload, err := json.Marshal(before)
		if err != nil {
			return err
		}
		beforeJSON = payload
	}
	if after != nil {
		payload, err := json.Marshal(after)
		if err != nil {
			return err
		}
		afterJSON = payload
	}

	event := entity.AuditEvent{
		ID:         uuid.NewString(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  requestID,
		IP:         ip,
		CreatedAt:  s.Clock.Now().UTC(),
		Before:     beforeJSON,
		After:      afterJSON,
	}
	return s.Repo.Transact(ctx, func(tx *repository.Repository) error {
		events, err := tx.AuditEvents(ctx)
		if err != nil {
			return err
		}
		return tx.SaveAuditEvents(ctx, append(events, event))
	}, repository.AuditEvents)
}

// List returns matching events newest first and the total match count.
func (s *Service) List(ctx context.Context, filter Filter, includeDetails bool, limit, offset int) ([]entity.AuditEvent, int, error) {
	events, err := s.Repo.AuditEvents(ctx)
	if err != nil {
		return nil, 0, err
	}
	matched := make([]entity.AuditEvent, 0, len(events))
	for _, evt := range events {
		if filter.Action != "" && evt.Action != filter.Action {
			continue
		}
		if filter.EntityType != "" && evt.EntityType != filter.EntityType {
			continue
		}
		if filter.ActorID != 0 && evt.ActorID != filter.ActorID {
			continue
		}
		if !includeDetails {
			evt.Before, evt.After = nil, nil
		}
		matched = append(matched, evt)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	if offset >= total {
		return []entity.AuditEvent{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return matched[offset:end], total, nil
}

// ExportRows flattens every event for CSV export, newest first.
func (s *Service) ExportRows(ctx context.Context) ([][]string, error) {
	events, _, err := s.List(ctx, Filter{}, false, 0, 0)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(events))
	for _, evt := range events {
		rows = append(rows, []string{
			evt.ID,
			strconv.Itoa(evt.ActorID),
			evt.Action,
			evt.EntityType,
			evt.EntityID,
			evt.RequestID,
			evt.IP,
			evt.CreatedAt.Format(time.RFC3339),
		})
	}
	return rows, nil
}
