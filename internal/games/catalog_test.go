// internal/games/catalog_test.go
package games

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	gt, ok := c.Get("draw-it")
	require.True(t, ok)
	assert.Equal(t, "Draw It", gt.DisplayName)
	assert.GreaterOrEqual(t, gt.MinPlayers, 1)
	assert.GreaterOrEqual(t, gt.MaxPlayers, gt.MinPlayers)
}

func TestNewCatalogValidation(t *testing.T) {
	_, err := NewCatalog(GameType{Type: "", MinPlayers: 1, MaxPlayers: 2})
	require.Error(t, err)

	_, err = NewCatalog(GameType{Type: "g", MinPlayers: 0, MaxPlayers: 2})
	require.Error(t, err)

	_, err = NewCatalog(GameType{Type: "g", MinPlayers: 4, MaxPlayers: 2})
	require.Error(t, err)

	_, err = NewCatalog(
		GameType{Type: "g", MinPlayers: 1, MaxPlayers: 2},
		GameType{Type: "g", MinPlayers: 1, MaxPlayers: 2},
	)
	require.Error(t, err)
}

func TestCatalogListOrder(t *testing.T) {
	c, err := NewCatalog(
		GameType{Type: "b", MinPlayers: 2, MaxPlayers: 4},
		GameType{Type: "a", MinPlayers: 2, MaxPlayers: 4},
	)
	require.NoError(t, err)

	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].Type)
	assert.Equal(t, "a", list[1].Type)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	data := `[{"type":"quiz","displayName":"Quiz Night","minPlayers":2,"maxPlayers":12}]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)

	gt, ok := c.Get("quiz")
	require.True(t, ok)
	assert.Equal(t, 12, gt.MaxPlayers)

	_, ok = c.Get("draw-it")
	assert.False(t, ok)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err = LoadFile(path)
	require.Error(t, err)
}
