package core

import (
	"context"
	"sort"
	"strings"

	"mealplanner/internal/domain/apperr"
	"mealplanner/internal/domain/auth"
	"mealplanner/internal/domain/entity"
	"mealplanner/internal/domain/repository"
)

type Service struct {
	Repo *repository.Repository
}

func NewService(repo *repository.Repository) *Service {
	return &Service{Repo: repo}
}

// ListUsers returns users ordered by id, optionally only those in status.
func (s *Service) ListUsers(ctx context.Context, status *entity.Status) ([]UserView, error) {
	users, err := s.Repo.Users(ctx)
	if err != nil {
		return nil, err
	}
	teams, err := s.Repo.Teams(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]entity.User, 0, len(users))
	for _, u := range users {
		if status == nil || u.Status == *status {
			filtered = append(filtered, u)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].ID < filtered[j].ID })
	return UserViews(filtered, teams), nil
}

func (s *Service) GetUser(ctx context.Context, id int) (UserView, error) {
	users, err := s.Repo.Users(ctx)
	if err != nil {
		return UserView{}, err
	}
	i, ok := entity.FindUser(users, id)
	if !ok {
		return UserView{}, apperr.NotFound("user %d", id)
	}
	teams, err := s.Repo.Teams(ctx)
	if err != nil {
		return UserView{}, err
	}
	return NewUserView(users[i], entity.TeamNames(teams)), nil
}

// Register creates a Pending account awaiting Admin approval.
func (s *Service) Register(ctx context.Context, in RegisterInput) (UserView, error) {
	return s.create(ctx, in, entity.StatusPending)
}

// AdminRegister creates an Approved account directly.
func (s *Service) AdminRegister(ctx context.Context, in RegisterInput) (UserView, error) {
	return s.create(ctx, in, entity.StatusApproved)
}

func (s *Service) create(ctx context.Context, in RegisterInput, status entity.Status) (UserView, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if in.Username == "" || in.Email == "" || in.Name == "" || in.Password == "" {
		return UserView{}, apperr.Validation("username, password, name and email are required")
	}
	if in.Role == "" {
		in.Role = entity.RoleEmployee
	}
	role, err := entity.ParseRole(string(in.Role))
	if err != nil {
		return UserView{}, apperr.Validation("%v", err)
	}
	in.Role = role
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return UserView{}, err
	}

	var out UserView
	err = s.Repo.Transact(ctx, func(tx *repository.Repository) error {
		users, err := tx.Users(ctx)
		if err != nil {
			return err
		}
		teams, err := tx.Teams(ctx)
		if err != nil {
			return err
		}
		if err := checkUnique(users, 0, in.Username, in.Email); err != nil {
			return err
		}
		if err := checkTeam(teams, in.TeamID); err != nil {
			return err
		}

		ids := make([]int, 0, len(users))
		for _, u := range users {
			ids = append(ids, u.ID)
		}
		user := entity.User{
			ID:           entity.NextID(ids...),
			Username:     in.Username,
			PasswordHash: hash,
			Name:         in.Name,
			Email:        in.Email,
			Role:         in.Role,
			TeamID:       in.TeamID,
			Status:       status,
		}
		if err := checkSingleLead(users, user); err != nil {
			return err
		}
		if err := tx.SaveUsers(ctx, append(users, user)); err != nil {
			return err
		}
		if err := syncTeamLead(ctx, tx, teams, entity.User{}, user); err != nil {
			return err
		}
		out = NewUserView(user, entity.TeamNames(teams))
		return nil
	}, repository.Users, repository.Teams)
	return out, err
}

// Approve moves a Pending user to Approved, optionally assigning a role and
// team. A second TeamLead for a team is a conflict and changes nothing.
func (s *Service) Approve(ctx context.Context, id int, in ApproveInput) (UserView, error) {
	return s.mutate(ctx, id, func(u *entity.User, teams []entity.Team) error {
		if u.Status != entity.StatusPending {
			return apperr.Conflict("user %d is %s, not Pending", u.ID, u.Status)
		}
		if in.Role != nil {
			u.Role = *in.Role
		}
		if in.TeamID != nil {
			if err := checkTeam(teams, in.TeamID); err != nil {
				return err
			}
			u.TeamID = in.TeamID
		}
		u.Status = entity.StatusApproved
		return nil
	})
}

func (s *Service) Reject(ctx context.Context, id int) (UserView, error) {
	return s.mutate(ctx, id, func(u *entity.User, _ []entity.Team) error {
		if u.Status != entity.StatusPending {
			return apperr.Conflict("user %d is %s, not Pending", u.ID, u.Status)
		}
		u.Status = entity.StatusRejected
		return nil
	})
}

func (s *Service) UpdateUser(ctx context.Context, id int, in UpdateInput) (UserView, error) {
	return s.mutate(ctx, id, func(u *entity.User, teams []entity.Team) error {
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return apperr.Validation("name must not be empty")
			}
			u.Name = name
		}
		if in.Email != nil {
			email := strings.TrimSpace(*in.Email)
			if email == "" {
				return apperr.Validation("email must not be empty")
			}
			u.Email = email
		}
		if in.Role != nil {
			u.Role = *in.Role
		}
		switch {
		case in.ClearTeam:
			u.TeamID = nil
		case in.TeamID != nil:
			if err := checkTeam(teams, in.TeamID); err != nil {
				return err
			}
			u.TeamID = in.TeamID
		}
		return nil
	})
}

// DeleteUser removes the account. Participation and location records are kept
// until the retention job purges them.
func (s *Service) DeleteUser(ctx context.Context, actorID, id int) (UserView, error) {
	if actorID == id {
		return UserView{}, apperr.Conflict("cannot delete your own account")
	}
	var out UserView
	err := s.Repo.Transact(ctx, func(tx *repository.Repository) error {
		users, err := tx.Users(ctx)
		if err != nil {
			return err
		}
		i, ok := entity.FindUser(users, id)
		if !ok {
			return apperr.NotFound("user %d", id)
		}
		teams, err := tx.Teams(ctx)
		if err != nil {
			return err
		}
		removed := users[i]
		if err := tx.SaveUsers(ctx, append(users[:i], users[i+1:]...)); err != nil {
			return err
		}
		if err := syncTeamLead(ctx, tx, teams, removed, entity.User{}); err != nil {
			return err
		}
		out = NewUserView(removed, entity.TeamNames(teams))
		return nil
	}, repository.Users, repository.Teams)
	return out, err
}

// mutate applies change to user id inside one section over users and teams.
// Uniqueness and the single-lead rule are checked before anything is written.
func (s *Service) mutate(ctx context.Context, id int, change func(u *entity.User, teams []entity.Team) error) (UserView, error) {
	var out UserView
	err := s.Repo.Transact(ctx, func(tx *repository.Repository) error {
		users, err := tx.Users(ctx)
		if err != nil {
			return err
		}
		i, ok := entity.FindUser(users, id)
		if !ok {
			return apperr.NotFound("user %d", id)
		}
		teams, err := tx.Teams(ctx)
		if err != nil {
			return err
		}

		before := users[i]
		updated := before
		if err := change(&updated, teams); err != nil {
			return err
		}
		if _, err := entity.ParseRole(string(updated.Role)); err != nil {
			return apperr.Validation("%v", err)
		}
		if err := checkUnique(users, updated.ID, updated.Username, updated.Email); err != nil {
			return err
		}
		if err := checkSingleLead(users, updated); err != nil {
			return err
		}

		users[i] = updated
		if err := tx.SaveUsers(ctx, users); err != nil {
			return err
		}
		// users and teams are separate files; a failure here leaves the user
		// change in place and the team lead stale until the next lead change.
		if err := syncTeamLead(ctx, tx, teams, before, updated); err != nil {
			return err
		}
		out = NewUserView(updated, entity.TeamNames(teams))
		return nil
	}, repository.Users, repository.Teams)
	return out, err
}

func checkUnique(users []entity.User, selfID int, username, email string) error {
	for _, u := range users {
		if u.ID == selfID {
			continue
		}
		if strings.EqualFold(u.Username, username) {
			return apperr.Conflict("username %q is already taken", username)
		}
		if strings.EqualFold(u.Email, email) {
			return apperr.Conflict("email %q is already registered", email)
		}
	}
	return nil
}

func checkTeam(teams []entity.Team, teamID *int) error {
	if teamID == nil {
		return nil
	}
	if _, ok := entity.FindTeam(teams, *teamID); !ok {
		return apperr.NotFound("team %d", *teamID)
	}
	return nil
}

func isLead(u entity.User) bool {
	return u.Approved() && u.Role == entity.RoleTeamLead && u.TeamID != nil
}

// checkSingleLead rejects candidate when it would be a second Approved
// TeamLead of its team.
func checkSingleLead(users []entity.User, candidate entity.User) error {
	if !isLead(candidate) {
		return nil
	}
	for _, u := range users {
		if u.ID != candidate.ID && isLead(u) && *u.TeamID == *candidate.TeamID {
			return apperr.Conflict("team %d already has a team lead (user %d)", *candidate.TeamID, u.ID)
		}
	}
	return nil
}

// syncTeamLead points team.leadId at the new lead and clears it on the team
// the old lead left.
func syncTeamLead(ctx context.Context, tx *repository.Repository, teams []entity.Team, before, after entity.User) error {
	changed := false
	if isLead(before) && (!isLead(after) || *after.TeamID != *before.TeamID) {
		if i, ok := entity.FindTeam(teams, *before.TeamID); ok && teams[i].LeadID == before.ID {
			teams[i].LeadID = 0
			changed = true
		}
	}
	if isLead(after) {
		if i, ok := entity.FindTeam(teams, *after.TeamID); ok && teams[i].LeadID != after.ID {
			teams[i].LeadID = after.ID
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return tx.SaveTeams(ctx, teams)
}
