// internal/auth/session_test.go
package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	Init()

	clientID := uuid.New().String()
	token, err := CreateJWT(clientID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	sub, err := AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, clientID, sub)
}

func TestTamperedTokenRejected(t *testing.T) {
	Init()

	token, err := CreateJWT(uuid.New().String())
	require.NoError(t, err)

	_, err = AuthenticateJWT(token + "x")
	require.Error(t, err)

	_, err = AuthenticateJWT("not-a-token")
	require.Error(t, err)
}

func TestTokenFromOtherKeyRejected(t *testing.T) {
	Init()
	token, err := CreateJWT(uuid.New().String())
	require.NoError(t, err)

	// A restart rotates the in-memory key pair, invalidating old tokens.
	Init()
	_, err = AuthenticateJWT(token)
	require.Error(t, err)
}
