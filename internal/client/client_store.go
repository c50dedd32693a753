// internal/client/client_store.go
package client

import (
	"fmt"

	"sync"

	"github.com/google/uuid"
)

// Store is the process-wide registry of live connections, keyed by
// connection id. Records exist exactly as long as the connection: the ws
// handler registers on accept and removes on close. Pure storage; all
// cross-client notification is the coordinator's responsibility.
type Store struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewStore returns an empty client registry.
func NewStore() *Store {
	return &Store{
		clients: make(map[string]*Client),
	}
}

// Register creates a record for a newly opened connection. Registering an id
// twice is a programming invariant violation; the caller aborts that
// connection, never the process.
func (s *Store) Register(id string) (*Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.clients[id]; exists {
		return nil, fmt.Errorf("client %s already registered", id)
	}
	c := &Client{ID: id}
	s.clients[id] = c
	return c, nil
}

// Get retrieves a client by connection id.
func (s *Store) Get(id string) (*Client, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	return c, ok
}

// SetUsername updates a client's display name. Reports whether the client
// was found.
func (s *Store) SetUsername(id, name string) bool {
	c, ok := s.Get(id)
	if !ok {
		return false
	}
	c.SetUsername(name)
	return true
}

// SetCurrentLobby updates a client's lobby pointer; uuid.Nil clears it.
// Reports whether the client was found.
func (s *Store) SetCurrentLobby(id string, lobbyID uuid.UUID) bool {
	c, ok := s.Get(id)
	if !ok {
		return false
	}
	c.SetLobbyID(lobbyID)
	return true
}

// Remove deletes a client record on connection close.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, id)
}

// Len reports the number of live connections.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}
