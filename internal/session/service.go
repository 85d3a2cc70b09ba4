// Package session authenticates staff members and issues session tokens.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"physio-backend/internal/auth"
	"physio-backend/internal/models"
	"physio-backend/internal/store"
)

// ErrBadCredentials covers both an unknown username and a wrong password.
var ErrBadCredentials = errors.New("bad credentials")

// BadCredentialsMessage is shown to the user on a failed login.
const BadCredentialsMessage = "Nom d'utilisateur ou mot de passe incorrect."

type Service struct {
	users  store.UserRepository
	tokens *auth.Manager
	delay  time.Duration
}

// New returns a session service. delay is waited before every login
// attempt, successful or not.
func New(users store.UserRepository, tokens *auth.Manager, delay time.Duration) *Service {
	return &Service{users: users, tokens: tokens, delay: delay}
}

// Login checks the credentials and returns the profile with a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (models.Profile, string, error) {
	if s.delay > 0 {
		t := time.NewTimer(s.delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return models.Profile{}, "", ctx.Err()
		case <-t.C:
		}
	}

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.Profile{}, "", ErrBadCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return models.Profile{}, "", ErrBadCredentials
	}
	if err != nil {
		return models.Profile{}, "", fmt.Errorf("find user: %w", err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return models.Profile{}, "", ErrBadCredentials
	}

	profile := user.Profile()
	token, err := s.tokens.NewSessionToken(profile)
	if err != nil {
		return models.Profile{}, "", fmt.Errorf("sign session: %w", err)
	}
	return profile, token, nil
}

// TTL is the lifetime of issued tokens, used for the cookie max age.
func (s *Service) TTL() time.Duration {
	return s.tokens.TTL
}
