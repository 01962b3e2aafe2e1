package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-chars"

func newTestValidator() *TokenValidator {
	return NewTokenValidator(config.JWTConfig{Secret: testSecret, Issuer: "test-issuer"})
}

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims *Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims() *Claims {
	now := time.Now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(15 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
		UserID:   "user-1",
		Username: "maria",
		Roles:    []string{"admin"},
	}
}

func TestValidate_Success(t *testing.T) {
	v := newTestValidator()
	token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims())

	claims, err := v.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.ActorID())
	assert.Equal(t, "maria", claims.Username)
	assert.True(t, claims.HasRole("admin"))
	assert.False(t, claims.HasRole("clerk"))
	assert.True(t, claims.GetExpiresAtTime().After(time.Now()))
}

func TestValidate_SubjectFallback(t *testing.T) {
	v := newTestValidator()
	claims := validClaims()
	claims.UserID = ""
	token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), claims)

	got, err := v.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
}

func TestValidate_Failures(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name   string
		token  func(t *testing.T) string
		expect error
	}{
		{
			name: "expired",
			token: func(t *testing.T) string {
				c := validClaims()
				c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
				return sign(t, jwt.SigningMethodHS256, []byte(testSecret), c)
			},
			expect: ErrExpiredToken,
		},
		{
			name: "not yet valid",
			token: func(t *testing.T) string {
				c := validClaims()
				c.NotBefore = jwt.NewNumericDate(time.Now().Add(time.Hour))
				return sign(t, jwt.SigningMethodHS256, []byte(testSecret), c)
			},
			expect: ErrTokenNotYetValid,
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, []byte("another-secret-key-of-32-characters"), validClaims())
			},
			expect: ErrInvalidToken,
		},
		{
			name: "wrong issuer",
			token: func(t *testing.T) string {
				c := validClaims()
				c.Issuer = "someone-else"
				return sign(t, jwt.SigningMethodHS256, []byte(testSecret), c)
			},
			expect: ErrInvalidToken,
		},
		{
			name: "wrong algorithm",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS512, []byte(testSecret), validClaims())
			},
			expect: ErrInvalidToken,
		},
		{
			name: "no user",
			token: func(t *testing.T) string {
				c := validClaims()
				c.UserID = ""
				c.Subject = ""
				return sign(t, jwt.SigningMethodHS256, []byte(testSecret), c)
			},
			expect: ErrMissingUserID,
		},
		{
			name:   "garbage",
			token:  func(t *testing.T) string { return "not.a.token" },
			expect: ErrInvalidToken,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(tt.token(t))
			assert.ErrorIs(t, err, tt.expect)
		})
	}
}

func TestValidate_NoIssuerConfigured(t *testing.T) {
	v := NewTokenValidator(config.JWTConfig{Secret: testSecret})
	c := validClaims()
	c.Issuer = "anyone"

	_, err := v.Validate(sign(t, jwt.SigningMethodHS256, []byte(testSecret), c))
	assert.NoError(t, err)
}
