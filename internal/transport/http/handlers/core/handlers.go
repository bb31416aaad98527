package corehandler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"mealplanner/internal/domain/audit"
	"mealplanner/internal/domain/auth"
	"mealplanner/internal/domain/core"
	"mealplanner/internal/domain/entity"
	"mealplanner/internal/domain/headcount"
	"mealplanner/internal/transport/http/api"
	authhandler "mealplanner/internal/transport/http/handlers/auth"
	"mealplanner/internal/transport/http/middleware"
	"mealplanner/internal/transport/http/shared"
)

type Handler struct {
	Users     *core.Service
	Headcount *headcount.Service
	Audit     *audit.Service
	Perms     middleware.PermissionStore
}

func NewHandler(users *core.Service, headcountService *headcount.Service, auditService *audit.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Users: users, Headcount: headcountService, Audit: auditService, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/teams", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermTeamsRead, h.Perms)).Get("/", h.handleListTeams)
		r.With(middleware.RequirePermission(auth.PermTeamsWrite, h.Perms)).Post("/", h.handleCreateTeam)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermUsersManage, h.Perms))
		r.Get("/admin/pending-users", h.handlePendingUsers)
		r.Get("/admin/users", h.handleListUsers)
		r.Put("/admin/approve-user", h.handleApprove)
		r.Put("/admin/reject-user", h.handleReject)
		r.Post("/admin/register-user", h.handleRegisterUser)
		r.Put("/admin/users/{userID}", h.handleUpdateUser)
		r.Delete("/admin/users/{userID}", h.handleDeleteUser)
	})
}

type createTeamRequest struct {
	Name   string `json:"name"`
	LeadID *int   `json:"lead_id"`
}

type approveRequest struct {
	UserID int     `json:"user_id"`
	Role   *string `json:"role"`
	TeamID *int    `json:"team_id"`
}

type rejectRequest struct {
	UserID int `json:"user_id"`
}

type registerUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	TeamID   *int   `json:"team_id"`
}

type updateUserRequest struct {
	Name   *string            `json:"name"`
	Email  *string            `json:"email"`
	Role   *string            `json:"role"`
	TeamID shared.NullableInt `json:"team_id"`
}

func (h *Handler) handleListTeams(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	date, err := shared.DateQuery(r, "date")
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}

	teams, err := h.Headcount.Teams(r.Context(), user.Actor(), date)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, teams, reqID)
}

func (h *Handler) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload createTeamRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	if len(strings.TrimSpace(payload.Name)) > 100 {
		v.Add("name", "must be at most 100 characters")
	}
	leadID := 0
	if payload.LeadID != nil {
		if *payload.LeadID <= 0 {
			v.Add("lead_id", "must be a positive integer")
		}
		leadID = *payload.LeadID
	}
	if v.Reject(w, reqID) {
		return
	}

	team, err := h.Users.CreateTeam(r.Context(), payload.Name, leadID)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "team.create", "team", strconv.Itoa(team.ID), reqID, shared.ClientIP(r), nil, team); err != nil {
		slog.Warn("audit team.create failed", "err", err)
	}
	api.Created(w, team, reqID)
}

func (h *Handler) handlePendingUsers(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	status := entity.StatusPending
	users, err := h.Users.ListUsers(r.Context(), &status)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, users, reqID)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var status *entity.Status
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		parsed, ok := parseStatus(raw)
		if !ok {
			shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "status", Reason: "must be Pending, Approved or Rejected"}})
			return
		}
		status = &parsed
	}
	users, err := h.Users.ListUsers(r.Context(), status)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, users, reqID)
}

func parseStatus(raw string) (entity.Status, bool) {
	for _, s := range []entity.Status{entity.StatusPending, entity.StatusApproved, entity.StatusRejected} {
		if strings.EqualFold(raw, string(s)) {
			return s, true
		}
	}
	return "", false
}

func parseOptionalRole(v *shared.Validator, raw *string) *entity.Role {
	if raw == nil {
		return nil
	}
	role, err := entity.ParseRole(strings.TrimSpace(*raw))
	if err != nil {
		v.Add("role", "must be one of Employee, TeamLead, Admin, Logistics")
		return nil
	}
	return &role
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload approveRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	v := shared.NewValidator()
	if payload.UserID <= 0 {
		v.Add("user_id", "must be a positive integer")
	}
	role := parseOptionalRole(v, payload.Role)
	if payload.TeamID != nil && *payload.TeamID <= 0 {
		v.Add("team_id", "must be a positive integer")
	}
	if v.Reject(w, reqID) {
		return
	}

	approved, err := h.Users.Approve(r.Context(), payload.UserID, core.ApproveInput{Role: role, TeamID: payload.TeamID})
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "user.approve", "user", strconv.Itoa(approved.ID), reqID, shared.ClientIP(r), nil, approved); err != nil {
		slog.Warn("audit user.approve failed", "err", err)
	}
	api.Success(w, map[string]any{"message": "user approved", "user": approved}, reqID)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload rejectRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	if payload.UserID <= 0 {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "user_id", Reason: "must be a positive integer"}})
		return
	}

	rejected, err := h.Users.Reject(r.Context(), payload.UserID)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "user.reject", "user", strconv.Itoa(rejected.ID), reqID, shared.ClientIP(r), nil, rejected); err != nil {
		slog.Warn("audit user.reject failed", "err", err)
	}
	api.Success(w, map[string]any{"message": "user rejected", "user": rejected}, reqID)
}

func (h *Handler) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload registerUserRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	in, ok := authhandler.ValidateRegistration(w, reqID, payload.Username, payload.Password, payload.Name, payload.Email, payload.Role, payload.TeamID)
	if !ok {
		return
	}

	created, err := h.Users.AdminRegister(r.Context(), in)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "user.create", "user", strconv.Itoa(created.ID), reqID, shared.ClientIP(r), nil, created); err != nil {
		slog.Warn("audit user.create failed", "err", err)
	}
	api.Created(w, created, reqID)
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, err := shared.IntParam("userID", chi.URLParam(r, "userID"))
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	var payload updateUserRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	v := shared.NewValidator()
	if payload.Name != nil && (strings.TrimSpace(*payload.Name) == "" || len(*payload.Name) > 100) {
		v.Add("name", "must be between 1 and 100 characters")
	}
	if payload.Email != nil && (!strings.Contains(*payload.Email, "@") || len(*payload.Email) > 100) {
		v.Add("email", "must be a valid email address")
	}
	role := parseOptionalRole(v, payload.Role)
	if payload.TeamID.Value != nil && *payload.TeamID.Value <= 0 {
		v.Add("team_id", "must be a positive integer")
	}
	if v.Reject(w, reqID) {
		return
	}

	before, err := h.Users.GetUser(r.Context(), id)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	in := core.UpdateInput{
		Name:      payload.Name,
		Email:     payload.Email,
		Role:      role,
		TeamID:    payload.TeamID.Value,
		ClearTeam: payload.TeamID.Set && payload.TeamID.Value == nil,
	}
	updated, err := h.Users.UpdateUser(r.Context(), id, in)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "user.update", "user", strconv.Itoa(id), reqID, shared.ClientIP(r), before, updated); err != nil {
		slog.Warn("audit user.update failed", "err", err)
	}
	api.Success(w, updated, reqID)
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, err := shared.IntParam("userID", chi.URLParam(r, "userID"))
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}

	deleted, err := h.Users.DeleteUser(r.Context(), user.UserID, id)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "user.delete", "user", strconv.Itoa(id), reqID, shared.ClientIP(r), deleted, nil); err != nil {
		slog.Warn("audit user.delete failed", "err", err)
	}
	api.Success(w, map[string]any{"message": "user deleted", "user": deleted}, reqID)
}
