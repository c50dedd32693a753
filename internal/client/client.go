// internal/client/client.go
package client

import (
	"sync"

	"github.com/google/uuid"
)

// Client is the server-side record for one live connection: its connection
// id, its chosen display name, and a pointer to the lobby it currently sits
// in (uuid.Nil when none). A client belongs to at most one lobby at a time.
type Client struct {
	ID string

	// OpMu serializes lobby-membership operations (join/leave/create) acting
	// on behalf of this client. Those operations may touch two lobbies in
	// sequence, so per-lobby locking alone is not enough to keep the
	// client-side of the relationship consistent.
	OpMu sync.Mutex

	mu       sync.Mutex
	username string
	lobbyID  uuid.UUID
}

// Username returns the current display name.
func (c *Client) Username() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.username
}

// SetUsername replaces the display name.
func (c *Client) SetUsername(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.username = name
}

// LobbyID returns the current lobby reference, uuid.Nil when not in a lobby.
func (c *Client) LobbyID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lobbyID
}

// SetLobbyID updates the current lobby reference. Pass uuid.Nil to clear.
func (c *Client) SetLobbyID(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lobbyID = id
}
