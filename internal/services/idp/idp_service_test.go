package idp

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func signedToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func validClaims(ttl time.Duration) Claims {
	return Claims{
		Email:         "counselor@example.com",
		Name:          "Jamie",
		EmailVerified: true,
		Groups:        []string{"admin"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestVerifyValidToken(t *testing.T) {
	a := NewAdapter(testSecret, "", "", "")
	user, err := a.Verify(signedToken(t, testSecret, validClaims(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "user-123", user.ID)
	assert.Equal(t, "counselor@example.com", user.Email)
	assert.Equal(t, []string{"admin"}, user.Groups)
}

func TestVerifyExpiredToken(t *testing.T) {
	a := NewAdapter(testSecret, "", "", "")
	_, err := a.Verify(signedToken(t, testSecret, validClaims(-time.Hour)))
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyWrongSecret(t *testing.T) {
	a := NewAdapter(testSecret, "", "", "")
	_, err := a.Verify(signedToken(t, "other-secret", validClaims(time.Hour)))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyGarbage(t *testing.T) {
	a := NewAdapter(testSecret, "", "", "")
	_, err := a.Verify("not.a.jwt")
	assert.Error(t, err)
}

func TestVerifyRequiresSubject(t *testing.T) {
	a := NewAdapter(testSecret, "", "", "")
	claims := validClaims(time.Hour)
	claims.Subject = ""
	_, err := a.Verify(signedToken(t, testSecret, claims))
	assert.Error(t, err)
}

func TestHasRole(t *testing.T) {
	admin := &User{Groups: []string{"Admin"}}
	assert.True(t, admin.HasRole("admin"))
	assert.False(t, admin.HasRole("superadmin"))

	super := &User{Groups: []string{"superadmin"}}
	assert.True(t, super.HasRole("admin"))
	assert.True(t, super.HasRole("anything"))

	nobody := &User{}
	assert.False(t, nobody.HasRole("admin"))
}
