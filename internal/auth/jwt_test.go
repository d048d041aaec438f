package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewManager("secret")

	token, err := m.GenerateAccessToken(42)
	require.NoError(t, err)

	userID, err := m.VerifyToken(token, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
}

func TestVerifyRejectsWrongTokenType(t *testing.T) {
	m := NewManager("secret")

	access, err := m.GenerateAccessToken(42)
	require.NoError(t, err)

	_, err = m.VerifyToken(access, TokenTypeRefresh)
	assert.Error(t, err)

	refresh, err := m.GenerateRefreshToken(42)
	require.NoError(t, err)

	_, err = m.VerifyToken(refresh, TokenTypeAccess)
	assert.Error(t, err)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewManager("secret-a").GenerateAccessToken(42)
	require.NoError(t, err)

	_, err = NewManager("secret-b").VerifyToken(token, TokenTypeAccess)
	assert.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := NewManager("secret").VerifyToken("not.a.jwt", TokenTypeAccess)
	assert.Error(t, err)
}
