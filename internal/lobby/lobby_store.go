// internal/lobby/lobby_store.go
package lobby

import (
	"sync"

	"github.com/google/uuid"
)

// Store manages all live lobbies in memory, keyed by lobby id. It is pure
// storage: membership changes and broadcasts are the coordinator's job.
type Store struct {
	mu      sync.Mutex
	lobbies map[uuid.UUID]*Lobby
}

// NewStore returns an empty in-memory lobby store.
func NewStore() *Store {
	return &Store{
		lobbies: make(map[uuid.UUID]*Lobby),
	}
}

// Create builds a lobby with a fresh id, the creator as its sole player and
// admin, and registers it. Lobby ids end up in invite links, so the generated
// id is checked against every currently-live lobby before use.
func (s *Store) Create(initialPlayerID string) *Lobby {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	for {
		if _, taken := s.lobbies[id]; !taken {
			break
		}
		id = uuid.New()
	}

	l := &Lobby{
		ID:      id,
		Players: []string{initialPlayerID},
		AdminID: initialPlayerID,
	}
	s.lobbies[id] = l
	return l
}

// Get retrieves a lobby by id.
func (s *Store) Get(id uuid.UUID) (*Lobby, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lobbies[id]
	return l, ok
}

// Delete removes a lobby from the store. Called by the coordinator the
// moment a lobby's roster empties.
func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lobbies, id)
}

// All returns a snapshot slice of the live lobbies. Used for the listing
// endpoint; callers must lock each lobby before reading its mutable state.
func (s *Store) All() []*Lobby {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Lobby, 0, len(s.lobbies))
	for _, l := range s.lobbies {
		out = append(out, l)
	}
	return out
}

// Len reports the number of live lobbies.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lobbies)
}
