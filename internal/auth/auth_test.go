package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	require.Contains(t, hash, "$argon2id$")

	ok, err := ComparePassword("hunter2", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = ComparePassword("wrong", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestComparePassword_MalformedHash(t *testing.T) {
	_, err := ComparePassword("x", "not-a-hash")
	require.ErrorIs(t, err, ErrInvalidHash)
}

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	token, err := tm.Generate("user-1")
	require.NoError(t, err)

	claims, err := tm.Validate(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", -time.Minute)

	token, err := tm.Generate("user-1")
	require.NoError(t, err)

	_, err = tm.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("secret-a", time.Hour)
	other := NewTokenManager("secret-b", time.Hour)

	token, err := tm.Generate("user-1")
	require.NoError(t, err)

	_, err = other.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}
