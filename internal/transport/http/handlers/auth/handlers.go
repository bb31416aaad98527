package authhandler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"mealplanner/internal/domain/audit"
	"mealplanner/internal/domain/auth"
	"mealplanner/internal/domain/core"
	"mealplanner/internal/domain/entity"
	"mealplanner/internal/transport/http/api"
	"mealplanner/internal/transport/http/middleware"
	"mealplanner/internal/transport/http/shared"
)

type Handler struct {
	Auth  *auth.Service
	Users *core.Service
	Audit *audit.Service
}

func NewHandler(authService *auth.Service, users *core.Service, auditService *audit.Service) *Handler {
	return &Handler{Auth: authService, Users: users, Audit: auditService}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/register", h.HandleRegister)
	r.With(middleware.RequireUser).Post("/auth/logout", h.HandleLogout)
	r.With(middleware.RequireUser).Get("/auth/me", h.HandleMe)
	r.With(middleware.RequireUser).Get("/me", h.HandleMe)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	TeamID   *int   `json:"team_id"`
}

type loginResponse struct {
	Token     string        `json:"access_token"`
	TokenType string        `json:"token_type"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      core.UserView `json:"user"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	v := shared.NewValidator()
	v.Required("username", payload.Username, "is required")
	v.Required("password", payload.Password, "is required")
	if v.Reject(w, reqID) {
		return
	}

	session, err := h.Auth.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	view, err := h.Users.GetUser(r.Context(), session.User.ID)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, loginResponse{
		Token:     session.Token,
		TokenType: session.TokenType,
		ExpiresAt: session.ExpiresAt,
		User:      view,
	}, reqID)
}

// HandleRegister creates a Pending account that an Admin must approve.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload registerRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	in, ok := ValidateRegistration(w, reqID, payload.Username, payload.Password, payload.Name, payload.Email, payload.Role, payload.TeamID)
	if !ok {
		return
	}

	user, err := h.Users.Register(r.Context(), in)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.ID, "user.register", "user", strconv.Itoa(user.ID), reqID, shared.ClientIP(r), nil, user); err != nil {
		slog.Warn("audit user.register failed", "err", err)
	}
	api.Created(w, map[string]any{
		"message": "registration received, awaiting admin approval",
		"user":    user,
	}, reqID)
}

// HandleLogout is a client-side token discard; tokens expire on their own.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	slog.Info("user logged out", "userId", user.UserID)
	api.Success(w, map[string]string{"message": "logged out"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	view, err := h.Users.GetUser(r.Context(), user.UserID)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, view, reqID)
}

// ValidateRegistration checks the registration fields shared by self and
// admin registration and writes a validation failure when they are invalid.
func ValidateRegistration(w http.ResponseWriter, reqID, username, password, name, email, role string, teamID *int) (core.RegisterInput, bool) {
	v := shared.NewValidator()
	v.Required("username", username, "is required")
	v.Required("name", name, "is required")
	v.Required("email", email, "is required")
	if len(strings.TrimSpace(username)) > 50 {
		v.Add("username", "must be at most 50 characters")
	}
	if len(strings.TrimSpace(name)) > 100 {
		v.Add("name", "must be at most 100 characters")
	}
	if email = strings.TrimSpace(email); email != "" && (len(email) > 100 || !strings.Contains(email, "@")) {
		v.Add("email", "must be a valid email address")
	}
	if len(password) < 8 || len(password) > 100 {
		v.Add("password", "must be between 8 and 100 characters")
	}
	var parsed entity.Role
	if strings.TrimSpace(role) != "" {
		value, err := entity.ParseRole(strings.TrimSpace(role))
		if err != nil {
			v.Add("role", "must be one of Employee, TeamLead, Admin, Logistics")
		}
		parsed = value
	}
	if teamID != nil && *teamID <= 0 {
		v.Add("team_id", "must be a positive integer")
	}
	if v.Reject(w, reqID) {
		return core.RegisterInput{}, false
	}
	return core.RegisterInput{
		Username: username,
		Password: password,
		Name:     name,
		Email:    email,
		Role:     parsed,
		TeamID:   teamID,
	}, true
}
