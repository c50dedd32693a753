// internal/games/catalog.go
package games

import (
	"encoding/json"
	"fmt"
	"os"
)

// GameType describes one playable game the matchmaker can queue a lobby for.
// The coordinator only consumes the player-count bounds; gameplay rules live
// entirely in the game modules.
type GameType struct {
	Type        string `json:"type"`
	DisplayName string `json:"displayName"`
	MinPlayers  int    `json:"minPlayers"`
	MaxPlayers  int    `json:"maxPlayers"`
}

// Catalog is the immutable set of game types known to this process. It is
// built once at startup and read concurrently without locking.
type Catalog struct {
	types map[string]GameType
	order []string
}

// NewCatalog builds a catalog from the given definitions, validating each.
func NewCatalog(defs ...GameType) (*Catalog, error) {
	c := &Catalog{types: make(map[string]GameType, len(defs))}
	for _, gt := range defs {
		if gt.Type == "" {
			return nil, fmt.Errorf("game type with empty id")
		}
		if gt.MinPlayers < 1 || gt.MaxPlayers < gt.MinPlayers {
			return nil, fmt.Errorf("game type %q: bad player bounds [%d, %d]", gt.Type, gt.MinPlayers, gt.MaxPlayers)
		}
		if _, exists := c.types[gt.Type]; exists {
			return nil, fmt.Errorf("duplicate game type %q", gt.Type)
		}
		c.types[gt.Type] = gt
		c.order = append(c.order, gt.Type)
	}
	return c, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := NewCatalog(
		GameType{Type: "draw-it", DisplayName: "Draw It", MinPlayers: 3, MaxPlayers: 10},
	)
	if err != nil {
		panic(err) // built-in definitions are static
	}
	return c
}

// LoadFile reads a catalog from a JSON array of GameType definitions.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read game catalog: %w", err)
	}
	var defs []GameType
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parse game catalog %s: %w", path, err)
	}
	return NewCatalog(defs...)
}

// Get looks up a game type by id.
func (c *Catalog) Get(typ string) (GameType, bool) {
	gt, ok := c.types[typ]
	return gt, ok
}

// List returns all game types in definition order.
func (c *Catalog) List() []GameType {
	out := make([]GameType, 0, len(c.order))
	for _, t := range c.order {
		out = append(out, c.types[t])
	}
	return out
}
