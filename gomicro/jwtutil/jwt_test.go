package jwtutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, method jwt.SigningMethod, key any, claims CallerClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims(subject string) CallerClaims {
	return CallerClaims{
		TenantID: "tenant-1",
		Roles:    []string{"LANDLORD_ADMIN"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestValidateToken(t *testing.T) {
	util := NewJWTUtil(&JWTConfig{SigningKey: "secret"})
	require.True(t, util.Enabled())

	token := sign(t, jwt.SigningMethodHS256, []byte("secret"), validClaims("user-1"))
	claims, err := util.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "tenant-1", claims.TenantID)
	assert.Equal(t, []string{"LANDLORD_ADMIN"}, claims.Roles)
}

func TestValidateToken_Rejects(t *testing.T) {
	util := NewJWTUtil(&JWTConfig{SigningKey: "secret"})

	expired := validClaims("user-1")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	tests := map[string]string{
		"wrong key":  sign(t, jwt.SigningMethodHS256, []byte("other"), validClaims("user-1")),
		"expired":    sign(t, jwt.SigningMethodHS256, []byte("secret"), expired),
		"no subject": sign(t, jwt.SigningMethodHS256, []byte("secret"), validClaims("")),
		"garbage":    "not-a-token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := util.ValidateToken(token)
			assert.Error(t, err)
		})
	}
}

func TestValidateToken_Disabled(t *testing.T) {
	var nilUtil *JWTUtil
	assert.False(t, nilUtil.Enabled())
	assert.False(t, NewJWTUtil(&JWTConfig{}).Enabled())

	_, err := NewJWTUtil(&JWTConfig{}).ValidateToken("a.b.c")
	assert.Error(t, err)
}
