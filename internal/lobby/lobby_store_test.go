// internal/lobby/lobby_store_test.go
package lobby

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreCreate(t *testing.T) {
	s := NewStore()

	l := s.Create("a")
	require.NotEqual(t, uuid.Nil, l.ID)
	assert.Equal(t, []string{"a"}, l.Players)
	assert.Equal(t, "a", l.AdminID)
	assert.Equal(t, StateIdle, l.State())

	got, ok := s.Get(l.ID)
	require.True(t, ok)
	assert.Same(t, l, got)
}

func TestStoreUniqueIDs(t *testing.T) {
	s := NewStore()
	seen := make(map[uuid.UUID]bool)
	for i := 0; i < 100; i++ {
		l := s.Create("a")
		require.False(t, seen[l.ID])
		seen[l.ID] = true
	}
	assert.Equal(t, 100, s.Len())
}

func TestStoreDelete(t *testing.T) {
	s := NewStore()
	l := s.Create("a")

	s.Delete(l.ID)
	_, ok := s.Get(l.ID)
	assert.False(t, ok)
	assert.Zero(t, s.Len())

	// Deleting again is harmless.
	s.Delete(l.ID)
}

func TestStoreAll(t *testing.T) {
	s := NewStore()
	a := s.Create("a")
	b := s.Create("b")

	all := s.All()
	assert.Len(t, all, 2)
	assert.Contains(t, all, a)
	assert.Contains(t, all, b)
}
