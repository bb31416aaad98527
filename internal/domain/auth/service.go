package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mealplanner/internal/domain/apperr"
	"mealplanner/internal/domain/entity"
	"mealplanner/internal/domain/repository"
)

const DefaultTokenTTL = 8 * time.Hour

var ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthenticated)

type Service struct {
	Repo   *repository.Repository
	Secret string
	TTL    time.Duration
}

func NewService(repo *repository.Repository, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{Repo: repo, Secret: secret, TTL: ttl}
}

type Session struct {
	Token     string      `json:"access_token"`
	TokenType string      `json:"token_type"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      entity.User `json:"-"`
}

// Login checks the credentials and issues a token. Only Approved users may
// log in.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	users, err := s.Repo.Users(ctx)
	if err != nil {
		return Session{}, err
	}
	i, ok := entity.FindUserByUsername(users, strings.TrimSpace(username))
	if !ok {
		return Session{}, ErrInvalidCredentials
	}
	user := users[i]
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	if err := checkStatus(user); err != nil {
		return Session{}, err
	}

	token, err := GenerateToken(s.Secret, Claims{UserID: user.ID, Role: string(user.Role), TeamID: user.TeamID}, s.TTL)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: token, TokenType: "bearer", ExpiresAt: time.Now().Add(s.TTL), User: user}, nil
}

// Authenticate resolves a bearer token to the user as currently stored, so
// role, team and status changes apply without a new login.
func (s *Service) Authenticate(ctx context.Context, token string) (UserContext, error) {
	claims, err := ParseToken(s.Secret, token)
	if err != nil {
		return UserContext{}, fmt.Errorf("%w: %v", apperr.ErrUnauthenticated, err)
	}
	users, err := s.Repo.Users(ctx)
	if err != nil {
		return UserContext{}, err
	}
	i, ok := entity.FindUser(users, claims.UserID)
	if !ok {
		return UserContext{}, fmt.Errorf("%w: user no longer exists", apperr.ErrUnauthenticated)
	}
	if err := checkStatus(users[i]); err != nil {
		return UserContext{}, err
	}
	return NewUserContext(users[i]), nil
}

func checkStatus(u entity.User) error {
	switch u.Status {
	case entity.StatusApproved:
		return nil
	case entity.StatusPending:
		return apperr.ErrPendingApproval
	case entity.StatusRejected:
		return apperr.Forbidden("account was rejected")
	}
	return fmt.Errorf("%w: unknown account status", apperr.ErrUnauthenticated)
}
