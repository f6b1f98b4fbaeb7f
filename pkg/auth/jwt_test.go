package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService("secret", "clinic-scheduler", time.Hour)

	token, err := svc.GenerateAccessToken("front-desk", "scheduler")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "front-desk", claims.Subject)
	assert.Equal(t, "scheduler", claims.Role)
}

func TestJWTRejectsForeignSecret(t *testing.T) {
	token, err := NewJWTService("one", "clinic-scheduler", time.Hour).GenerateAccessToken("x", "")
	require.NoError(t, err)

	_, err = NewJWTService("two", "clinic-scheduler", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTRejectsExpired(t *testing.T) {
	svc := NewJWTService("secret", "clinic-scheduler", -time.Minute)
	token, err := svc.GenerateAccessToken("x", "")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
