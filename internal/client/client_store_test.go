// internal/client/client_store_test.go
package client

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndGet(t *testing.T) {
	s := NewStore()

	c, err := s.Register("conn-1")
	require.NoError(t, err)
	assert.Equal(t, "conn-1", c.ID)
	assert.Empty(t, c.Username())
	assert.Equal(t, uuid.Nil, c.LobbyID())

	got, ok := s.Get("conn-1")
	require.True(t, ok)
	assert.Same(t, c, got)
}

func TestRegisterDuplicateFails(t *testing.T) {
	s := NewStore()
	_, err := s.Register("conn-1")
	require.NoError(t, err)

	_, err = s.Register("conn-1")
	require.Error(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestSetUsername(t *testing.T) {
	s := NewStore()
	s.Register("conn-1")

	require.True(t, s.SetUsername("conn-1", "ada"))
	c, _ := s.Get("conn-1")
	assert.Equal(t, "ada", c.Username())

	assert.False(t, s.SetUsername("missing", "x"))
}

func TestSetCurrentLobby(t *testing.T) {
	s := NewStore()
	s.Register("conn-1")
	lobbyID := uuid.New()

	require.True(t, s.SetCurrentLobby("conn-1", lobbyID))
	c, _ := s.Get("conn-1")
	assert.Equal(t, lobbyID, c.LobbyID())

	require.True(t, s.SetCurrentLobby("conn-1", uuid.Nil))
	assert.Equal(t, uuid.Nil, c.LobbyID())

	assert.False(t, s.SetCurrentLobby("missing", lobbyID))
}

func TestRemove(t *testing.T) {
	s := NewStore()
	s.Register("conn-1")

	s.Remove("conn-1")
	_, ok := s.Get("conn-1")
	assert.False(t, ok)
	assert.Zero(t, s.Len())

	// Register is possible again once the old record is gone.
	_, err := s.Register("conn-1")
	require.NoError(t, err)
}
