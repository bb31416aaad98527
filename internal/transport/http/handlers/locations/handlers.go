package locationshandler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"mealplanner/internal/domain/audit"
	"mealplanner/internal/domain/auth"
	"mealplanner/internal/domain/entity"
	"mealplanner/internal/domain/location"
	"mealplanner/internal/transport/http/api"
	"mealplanner/internal/transport/http/middleware"
	"mealplanner/internal/transport/http/shared"
)

type Handler struct {
	Service *location.Service
	Audit   *audit.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *location.Service, auditService *audit.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Audit: auditService, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermLocationSelf, h.Perms)).Get("/me/location", h.handleGetMine)
	r.With(middleware.RequirePermission(auth.PermLocationSelf, h.Perms)).Put("/me/location", h.handleSetMine)
	r.With(middleware.RequirePermission(auth.PermLocationWrite, h.Perms)).Put("/work-location", h.handleSetFor)

	r.Route("/wfh-periods", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermCalendarRead, h.Perms)).Get("/", h.handleListPeriods)
		r.With(middleware.RequirePermission(auth.PermCalendarWrite, h.Perms)).Post("/", h.handleCreatePeriod)
		r.With(middleware.RequirePermission(auth.PermCalendarWrite, h.Perms)).Delete("/{periodID}", h.handleDeletePeriod)
	})
	r.Route("/special-days", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermCalendarRead, h.Perms)).Get("/", h.handleListSpecialDays)
		r.With(middleware.RequirePermission(auth.PermCalendarRead, h.Perms)).Get("/check", h.handleCheck)
		r.With(middleware.RequirePermission(auth.PermCalendarWrite, h.Perms)).Post("/", h.handleCreateSpecialDay)
		r.With(middleware.RequirePermission(auth.PermCalendarWrite, h.Perms)).Delete("/{dayID}", h.handleDeleteSpecialDay)
	})
}

type setLocationRequest struct {
	Date     string `json:"date"`
	Location string `json:"location"`
}

type setForRequest struct {
	UserID   int    `json:"user_id"`
	Date     string `json:"date"`
	Location string `json:"location"`
}

type periodRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type specialDayRequest struct {
	Date string  `json:"date"`
	Type string  `json:"type"`
	Note *string `json:"note"`
}

type checkResponse struct {
	Date       string             `json:"date"`
	IsClosed   bool               `json:"is_closed"`
	SpecialDay *entity.SpecialDay `json:"special_day"`
}

func (h *Handler) handleGetMine(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	date, err := shared.DateQuery(r, "date")
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}

	record, err := h.Service.Get(r.Context(), user.UserID, date)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, record, reqID)
}

func (h *Handler) handleSetMine(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload setLocationRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	date, ok := validateLocation(w, reqID, payload.Date, payload.Location)
	if !ok {
		return
	}

	record, err := h.Service.SetMine(r.Context(), user.Actor(), date, payload.Location)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, record, reqID)
}

func (h *Handler) handleSetFor(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload setForRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	if payload.UserID <= 0 {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "user_id", Reason: "must be a positive integer"}})
		return
	}
	date, ok := validateLocation(w, reqID, payload.Date, payload.Location)
	if !ok {
		return
	}

	target, record, err := h.Service.SetFor(r.Context(), user.Actor(), payload.UserID, date, payload.Location)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "location.update", "work_location", strconv.Itoa(target.ID)+":"+record.Date, reqID, shared.ClientIP(r), nil, record); err != nil {
		slog.Warn("audit location.update failed", "err", err)
	}
	api.Success(w, record, reqID)
}

func validateLocation(w http.ResponseWriter, reqID, rawDate, value string) (string, bool) {
	v := shared.NewValidator()
	date, _ := v.Date("date", rawDate)
	if _, ok := entity.ParseWorkLocation(value); !ok {
		v.Add("location", "must be Office or WFH")
	}
	if v.Reject(w, reqID) {
		return "", false
	}
	return date, true
}

func (h *Handler) handleListPeriods(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	periods, err := h.Service.ListPeriods(r.Context())
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, periods, reqID)
}

func (h *Handler) handleCreatePeriod(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload periodRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	v := shared.NewValidator()
	start, _ := v.Date("start_date", payload.StartDate)
	end, _ := v.Date("end_date", payload.EndDate)
	v.DateOrder("start_date", start, "end_date", end)
	if v.Reject(w, reqID) {
		return
	}

	period, err := h.Service.CreatePeriod(r.Context(), start, end)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "wfh_period.create", "wfh_period", strconv.Itoa(period.ID), reqID, shared.ClientIP(r), nil, period); err != nil {
		slog.Warn("audit wfh_period.create failed", "err", err)
	}
	api.Created(w, period, reqID)
}

func (h *Handler) handleDeletePeriod(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, err := shared.IntParam("periodID", chi.URLParam(r, "periodID"))
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	if err := h.Service.DeletePeriod(r.Context(), id); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "wfh_period.delete", "wfh_period", strconv.Itoa(id), reqID, shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit wfh_period.delete failed", "err", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListSpecialDays(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	days, err := h.Service.ListSpecialDays(r.Context())
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, days, reqID)
}

func (h *Handler) handleCreateSpecialDay(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload specialDayRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	v := shared.NewValidator()
	date, _ := v.Date("date", payload.Date)
	if _, ok := entity.ParseSpecialDayType(payload.Type); !ok {
		v.Add("type", "must be Closed, Holiday or Celebration")
	}
	if v.Reject(w, reqID) {
		return
	}

	day, err := h.Service.CreateSpecialDay(r.Context(), date, payload.Type, payload.Note)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "special_day.create", "special_day", strconv.Itoa(day.ID), reqID, shared.ClientIP(r), nil, day); err != nil {
		slog.Warn("audit special_day.create failed", "err", err)
	}
	api.Created(w, day, reqID)
}

func (h *Handler) handleDeleteSpecialDay(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, err := shared.IntParam("dayID", chi.URLParam(r, "dayID"))
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	if err := h.Service.DeleteSpecialDay(r.Context(), id); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "special_day.delete", "special_day", strconv.Itoa(id), reqID, shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit special_day.delete failed", "err", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	date, err := shared.DateQuery(r, "date")
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	day, closed, err := h.Service.Check(r.Context(), date)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, checkResponse{Date: day, IsClosed: closed != nil, SpecialDay: closed}, reqID)
}
