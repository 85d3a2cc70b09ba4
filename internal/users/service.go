// Package users manages staff accounts.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"physio-backend/internal/auth"
	"physio-backend/internal/models"
	"physio-backend/internal/policy"
	"physio-backend/internal/store"

	"github.com/google/uuid"
)

var (
	ErrProtectedUser = errors.New("protected admin account")
	ErrUsernameTaken = errors.New("username already taken")
)

type Service struct {
	users store.UserRepository
	hash  func(string) (string, error)
	now   func() time.Time
}

func New(users store.UserRepository) *Service {
	return &Service{users: users, hash: auth.HashPassword, now: time.Now}
}

func (s *Service) List(ctx context.Context, actor models.Profile, search string) ([]models.Profile, error) {
	if err := policy.Authorize(actor.Role, policy.ActionList, policy.ResourceUser); err != nil {
		return nil, err
	}
	all, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]models.Profile, 0, len(all))
	for _, u := range all {
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Username), search) &&
			!strings.Contains(strings.ToLower(u.FullName), search) {
			continue
		}
		out = append(out, u.Profile())
	}
	return out, nil
}

type CreateInput struct {
	Username string
	Password string
	FullName string
	Role     models.Role
}

func (s *Service) Create(ctx context.Context, actor models.Profile, in CreateInput) (models.Profile, error) {
	if err := policy.Authorize(actor.Role, policy.ActionCreate, policy.ResourceUser); err != nil {
		return models.Profile{}, err
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return models.Profile{}, models.InvalidField("username", "required")
	}
	if in.Password == "" {
		return models.Profile{}, models.InvalidField("password", "required")
	}
	if !models.IsValidRole(string(in.Role)) {
		return models.Profile{}, models.InvalidField("role", "unknown role")
	}

	hash, err := s.hash(in.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return models.Profile{}, models.InvalidField("password", "too long")
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("hash password: %w", err)
	}
	now := s.now()
	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		FullName:     strings.TrimSpace(in.FullName),
		PasswordHash: hash,
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.Profile{}, ErrUsernameTaken
		}
		return models.Profile{}, fmt.Errorf("create user: %w", err)
	}
	return user.Profile(), nil
}

// UpdateRole changes the role of an account. The change reaches the
// account's sessions on their next login.
func (s *Service) UpdateRole(ctx context.Context, actor models.Profile, id string, role models.Role) (models.Profile, error) {
	if err := policy.Authorize(actor.Role, policy.ActionUpdate, policy.ResourceUser); err != nil {
		return models.Profile{}, err
	}
	if !models.IsValidRole(string(role)) {
		return models.Profile{}, models.InvalidField("role", "unknown role")
	}
	if id == actor.ID && role != models.RoleAdmin {
		return models.Profile{}, ErrProtectedUser
	}
	u, err := s.users.UpdateRole(ctx, id, role, s.now())
	if err != nil {
		return models.Profile{}, err
	}
	return u.Profile(), nil
}

func (s *Service) ResetPassword(ctx context.Context, actor models.Profile, id, password string) error {
	if err := policy.Authorize(actor.Role, policy.ActionUpdate, policy.ResourceUser); err != nil {
		return err
	}
	if password == "" {
		return models.InvalidField("password", "required")
	}
	hash, err := s.hash(password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return models.InvalidField("password", "too long")
	}
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, id, hash, s.now())
}

// Delete removes an account. Admin accounts are refused so that the
// practice always keeps its administrator.
func (s *Service) Delete(ctx context.Context, actor models.Profile, id string) error {
	if err := policy.Authorize(actor.Role, policy.ActionDelete, policy.ResourceUser); err != nil {
		return err
	}
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return err
	}
	if u.Role == models.RoleAdmin {
		return ErrProtectedUser
	}
	return s.users.Delete(ctx, id)
}
