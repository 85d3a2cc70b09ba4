package auth

import (
	"errors"
	"time"

	"physio-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// Manager signs and verifies session tokens.
type Manager struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
}

// Claims carry the whole profile so a request can be served without a
// store lookup. A role change only takes effect on the next login.
type Claims struct {
	Username string      `json:"username"`
	FullName string      `json:"full_name"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) Profile() models.Profile {
	return models.Profile{
		ID:       c.Subject,
		Username: c.Username,
		FullName: c.FullName,
		Role:     c.Role,
	}
}

func (m *Manager) NewSessionToken(profile models.Profile) (string, error) {
	if len(m.Secret) == 0 {
		return "", errors.New("missing token secret")
	}
	now := time.Now()
	claims := Claims{
		Username: profile.Username,
		FullName: profile.FullName,
		Role:     profile.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.ID,
			Issuer:    m.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.Secret)
}

func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return m.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" || !models.IsValidRole(string(claims.Role)) {
		return nil, errors.New("incomplete session claims")
	}
	return claims, nil
}
