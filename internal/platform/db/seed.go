package db

import (
	"context"
	"strings"

	"mealplanner/internal/domain/auth"
	"mealplanner/internal/domain/entity"
	"mealplanner/internal/domain/repository"
	"mealplanner/internal/platform/config"
)

// Seed makes sure an Approved Admin exists. It never touches other users.
func Seed(ctx context.Context, repo *repository.Repository, cfg config.Config) (bool, error) {
	return ensureAdminUser(ctx, repo, cfg.SeedAdminUsername, cfg.SeedAdminPassword, cfg.SeedAdminEmail, cfg.SeedAdminName)
}

func ensureAdminUser(ctx context.Context, repo *repository.Repository, username, password, email, name string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return false, nil
	}

	created := false
	err := repo.Transact(ctx, func(tx *repository.Repository) error {
		users, err := tx.Users(ctx)
		if err != nil {
			return err
		}
		for _, u := range users {
			if u.Role == entity.RoleAdmin && u.Approved() {
				return nil
			}
		}
		if _, ok := entity.FindUserByUsername(users, username); ok {
			return nil
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		ids := make([]int, 0, len(users))
		for _, u := range users {
			ids = append(ids, u.ID)
		}
		if strings.TrimSpace(name) == "" {
			name = username
		}
		users = append(users, entity.User{
			ID:           entity.NextID(ids...),
			Username:     username,
			PasswordHash: hash,
			Name:         name,
			Email:        strings.TrimSpace(email),
			Role:         entity.RoleAdmin,
			Status:       entity.StatusApproved,
		})
		created = true
		return tx.SaveUsers(ctx, users)
	}, repository.Users)
	return created, err
}
