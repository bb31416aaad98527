package jobshandler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mealplanner/internal/domain/audit"
	"mealplanner/internal/domain/auth"
	"mealplanner/internal/platform/jobs"
	"mealplanner/internal/transport/http/api"
	"mealplanner/internal/transport/http/middleware"
	"mealplanner/internal/transport/http/shared"
)

type Handler struct {
	Jobs  *jobs.Service
	Audit *audit.Service
	Perms middleware.PermissionStore
}

func NewHandler(jobService *jobs.Service, auditService *audit.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Jobs: jobService, Audit: auditService, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermJobsRun, h.Perms))
		r.Post("/admin/jobs/retention/run", h.handleRunRetention)
		r.Get("/admin/jobs/runs", h.handleListRuns)
	})
}

func (h *Handler) handleRunRetention(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	run, err := h.Jobs.RunRetention(r.Context())
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "retention.run", "job_run", run.ID, reqID, shared.ClientIP(r), nil, run); err != nil {
		slog.Warn("audit retention.run failed", "err", err)
	}
	api.Success(w, run, reqID)
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 20, 100)
	runs, err := h.Jobs.Runs(r.Context(), page.Limit)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, runs, reqID)
}
