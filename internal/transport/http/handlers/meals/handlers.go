package mealshandler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"mealplanner/internal/domain/audit"
	"mealplanner/internal/domain/auth"
	"mealplanner/internal/domain/headcount"
	"mealplanner/internal/domain/location"
	"mealplanner/internal/domain/participation"
	"mealplanner/internal/transport/http/api"
	"mealplanner/internal/transport/http/middleware"
	"mealplanner/internal/transport/http/shared"
)

type Handler struct {
	Participation *participation.Service
	Headcount     *headcount.Service
	Locations     *location.Service
	Audit         *audit.Service
	Perms         middleware.PermissionStore
}

func NewHandler(participationService *participation.Service, headcountService *headcount.Service, locations *location.Service, auditService *audit.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{
		Participation: participationService,
		Headcount:     headcountService,
		Locations:     locations,
		Audit:         auditService,
		Perms:         perms,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/meals", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermMealsSelf, h.Perms)).Get("/today", h.handleMine)
		r.With(middleware.RequirePermission(auth.PermMealsSelf, h.Perms)).Put("/participation", h.handleUpdateMine)
	})
	r.Route("/participation", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermParticipationRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermParticipationWrite, h.Perms)).Put("/", h.handleUpdateFor)
	})
}

type updateMineRequest struct {
	Date  string          `json:"date"`
	Meals map[string]bool `json:"meals"`
}

type updateForRequest struct {
	TargetUserID int             `json:"target_user_id"`
	Date         string          `json:"date"`
	Meals        map[string]bool `json:"meals"`
}

func (h *Handler) handleMine(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	date, err := shared.DateQuery(r, "date")
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}

	record, err := h.Participation.Mine(r.Context(), user.Actor(), date)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, record, reqID)
}

func (h *Handler) handleUpdateMine(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload updateMineRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	v := shared.NewValidator()
	if len(payload.Meals) == 0 {
		v.Add("meals", "must contain at least one meal")
	}
	if payload.Date != "" {
		payload.Date, _ = v.Date("date", payload.Date)
	}
	if v.Reject(w, reqID) {
		return
	}

	record, err := h.Participation.UpdateMine(r.Context(), user.Actor(), payload.Date, payload.Meals)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, record, reqID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	date, err := shared.DateQuery(r, "date")
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	teamID, err := shared.OptionalIntQuery(r, "team_id")
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}

	rows, err := h.Headcount.Participation(r.Context(), user.Actor(), date, teamID)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, rows, reqID)
}

func (h *Handler) handleUpdateFor(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload updateForRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	v := shared.NewValidator()
	if payload.TargetUserID <= 0 {
		v.Add("target_user_id", "must be a positive integer")
	}
	if len(payload.Meals) == 0 {
		v.Add("meals", "must contain at least one meal")
	}
	if payload.Date != "" {
		payload.Date, _ = v.Date("date", payload.Date)
	}
	if v.Reject(w, reqID) {
		return
	}

	target, record, err := h.Participation.UpdateFor(r.Context(), user.Actor(), payload.TargetUserID, payload.Date, payload.Meals)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "participation.update", "participation", strconv.Itoa(target.ID)+":"+record.Date, reqID, shared.ClientIP(r), nil, payload.Meals); err != nil {
		slog.Warn("audit participation.update failed", "err", err)
	}

	resolved, err := h.Locations.Get(r.Context(), target.ID, record.Date)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, headcount.UserParticipation{
		UserID:   target.ID,
		Username: target.Username,
		Name:     target.Name,
		Email:    target.Email,
		Role:     target.Role,
		TeamID:   target.TeamID,
		Date:     record.Date,
		Meals:    record.Meals,
		Location: resolved.Location,
	}, reqID)
}
