package jwthelper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	key := []byte("secret")

	token, err := GenerateToken(key, 42, "curl/8.0")
	require.NoError(t, err)

	id, claims, err := ParseToken(key, token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, "curl/8.0", claims.UserAgent)
}

func TestParseToken_WrongKey(t *testing.T) {
	token, err := GenerateToken([]byte("secret"), 1, "")
	require.NoError(t, err)

	_, _, err = ParseToken([]byte("other"), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_Garbage(t *testing.T) {
	_, _, err := ParseToken([]byte("secret"), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
