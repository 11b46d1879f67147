package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	token, err := GenerateToken("u1", "alice@example.com", "secret", "go-cloudbox", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "go-cloudbox", claims.Issuer)

	_, err = ParseToken(token, "other-secret")
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	t.Parallel()

	token, err := GenerateToken("u1", "alice@example.com", "secret", "go-cloudbox", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(token, "secret")
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("hunter22", hash))
	assert.False(t, CheckPasswordHash("hunter23", hash))
}

func TestPasswordTooLong(t *testing.T) {
	t.Parallel()

	_, err := HashPassword(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
	assert.False(t, CheckPasswordHash("x", "not-a-hash"))
}
