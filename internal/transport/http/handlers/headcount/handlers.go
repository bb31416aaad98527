package headcounthandler

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"mealplanner/internal/domain/apperr"
	"mealplanner/internal/domain/auth"
	"mealplanner/internal/domain/headcount"
	"mealplanner/internal/transport/http/api"
	"mealplanner/internal/transport/http/middleware"
	"mealplanner/internal/transport/http/shared"
)

type Handler struct {
	Service *headcount.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *headcount.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/headcount", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermHeadcountRead, h.Perms))
		r.Get("/", h.handleSummary)
		r.Get("/export", h.handleExport)
		r.Get("/{mealType}", h.handleMealUsers)
	})
}

type query struct {
	Date   string
	TeamID *int
}

func parseQuery(r *http.Request) (query, error) {
	date, err := shared.DateQuery(r, "date")
	if err != nil {
		return query{}, err
	}
	teamID, err := shared.OptionalIntQuery(r, "team_id")
	if err != nil {
		return query{}, err
	}
	return query{Date: date, TeamID: teamID}, nil
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	q, err := parseQuery(r)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}

	summary, err := h.Service.Summary(r.Context(), user.Actor(), q.Date, q.TeamID)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, summary, reqID)
}

func (h *Handler) handleMealUsers(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	q, err := parseQuery(r)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}

	list, err := h.Service.OptedInUsers(r.Context(), user.Actor(), q.Date, chi.URLParam(r, "mealType"), q.TeamID)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, list, reqID)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	q, err := parseQuery(r)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = headcount.FormatPDF
	}
	if format != headcount.FormatPDF && format != headcount.FormatXLSX {
		api.FailError(w, apperr.Validation("format must be pdf or xlsx"), reqID)
		return
	}

	report, err := h.Service.Report(r.Context(), user.Actor(), q.Date, q.TeamID)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}

	var buf bytes.Buffer
	if format == headcount.FormatXLSX {
		err = headcount.WriteXLSX(&buf, report)
	} else {
		err = headcount.WritePDF(&buf, report)
	}
	if err != nil {
		slog.Warn("headcount export failed", "format", format, "err", err)
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to render export", reqID)
		return
	}

	w.Header().Set("Content-Type", headcount.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=headcount-%s.%s", report.Summary.Date, format))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("headcount export write failed", "err", err)
	}
}
