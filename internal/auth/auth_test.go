package auth

import (
	"strings"
	"testing"
	"time"

	"physio-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	m := &Manager{Secret: []byte("secret"), TTL: time.Hour, Issuer: "physio-backend"}
	profile := models.Profile{ID: "2", Username: "sophie", FullName: "Sophie Kiné", Role: models.RoleTherapist}

	token, err := m.NewSessionToken(profile)
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, profile, claims.Profile())
	assert.Equal(t, "physio-backend", claims.Issuer)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	signer := &Manager{Secret: []byte("one"), TTL: time.Hour}
	verifier := &Manager{Secret: []byte("two"), TTL: time.Hour}

	token, err := signer.NewSessionToken(models.Profile{ID: "1", Username: "admin", Role: models.RoleAdmin})
	require.NoError(t, err)

	_, err = verifier.Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	m := &Manager{Secret: []byte("secret"), TTL: -time.Minute}
	token, err := m.NewSessionToken(models.Profile{ID: "1", Username: "admin", Role: models.RoleAdmin})
	require.NoError(t, err)

	_, err = m.Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsUnknownRole(t *testing.T) {
	m := &Manager{Secret: []byte("secret"), TTL: time.Hour}
	token, err := m.NewSessionToken(models.Profile{ID: "9", Username: "ghost", Role: "root"})
	require.NoError(t, err)

	_, err = m.Parse(token)
	assert.Error(t, err)
}

func TestNewSessionTokenRequiresSecret(t *testing.T) {
	m := &Manager{TTL: time.Hour}
	_, err := m.NewSessionToken(models.Profile{ID: "1", Role: models.RoleAdmin})
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("123")
	require.NoError(t, err)
	assert.NotEqual(t, "123", hash)

	assert.NoError(t, ComparePassword(hash, "123"))
	assert.ErrorIs(t, ComparePassword(hash, "124"), ErrPasswordMismatch)
	assert.ErrorIs(t, ComparePassword("", "123"), ErrPasswordMismatch)

	_, err = HashPassword("")
	assert.ErrorIs(t, err, ErrEmptyPassword)

	_, err = HashPasswordCost(strings.Repeat("x", MaxPasswordBytes+1), bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	cheap, err := HashPasswordCost("123", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(cheap, "123"))
}
