// internal/lobby/lobby_test.go
package lobby

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webminigames/lobbyd/internal/games"
)

var drawIt = games.GameType{Type: "draw-it", DisplayName: "Draw It", MinPlayers: 3, MaxPlayers: 8}

func newTestLobby(players ...string) *Lobby {
	l := &Lobby{Players: append([]string{}, players...)}
	if len(players) > 0 {
		l.AdminID = players[0]
	}
	return l
}

func TestAddPlayerIdleOnly(t *testing.T) {
	l := newTestLobby("a", "b", "c")

	require.NoError(t, l.AddPlayer("d"))
	assert.Equal(t, []string{"a", "b", "c", "d"}, l.Players)

	require.NoError(t, l.EnterQueue(drawIt, "a"))
	err := l.AddPlayer("e")
	require.ErrorIs(t, err, ErrAlreadyInSession)
	assert.Len(t, l.Players, 4)

	require.NoError(t, l.StartSession())
	err = l.AddPlayer("e")
	require.ErrorIs(t, err, ErrAlreadyInSession)
}

func TestAddPlayerDuplicate(t *testing.T) {
	l := newTestLobby("a")
	err := l.AddPlayer("a")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAdminSuccessionByJoinOrder(t *testing.T) {
	l := newTestLobby("a", "b", "c")

	empty := l.RemovePlayer("a")
	assert.False(t, empty)
	assert.Equal(t, "b", l.AdminID)

	empty = l.RemovePlayer("b")
	assert.False(t, empty)
	assert.Equal(t, "c", l.AdminID)

	empty = l.RemovePlayer("c")
	assert.True(t, empty)
}

func TestRemoveNonAdminKeepsAdmin(t *testing.T) {
	l := newTestLobby("a", "b", "c")
	l.RemovePlayer("b")
	assert.Equal(t, "a", l.AdminID)
	assert.Equal(t, []string{"a", "c"}, l.Players)
}

func TestKickPlayerAuthorization(t *testing.T) {
	l := newTestLobby("a", "b", "c")

	err := l.KickPlayer("c", "b")
	require.ErrorIs(t, err, ErrForbidden)
	assert.Len(t, l.Players, 3)

	err = l.KickPlayer("a", "a")
	require.ErrorIs(t, err, ErrInvalidTarget)

	err = l.KickPlayer("nobody", "a")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, l.KickPlayer("b", "a"))
	assert.Equal(t, []string{"a", "c"}, l.Players)
	assert.Equal(t, "a", l.AdminID)
}

func TestAppendMessage(t *testing.T) {
	l := newTestLobby("a")

	_, err := l.AppendMessage("a", "")
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = l.AppendMessage("a", "   ")
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Empty(t, l.Messages)

	msg, err := l.AppendMessage("a", "hello")
	require.NoError(t, err)
	assert.Equal(t, "a", msg.AuthorID)
	assert.Equal(t, "hello", msg.Text)
	assert.NotZero(t, msg.Timestamp)
	assert.Len(t, l.Messages, 1)
}

func TestEnterQueueBounds(t *testing.T) {
	l := newTestLobby("a", "b")

	err := l.EnterQueue(drawIt, "a")
	require.ErrorIs(t, err, ErrInvalidPlayerCount)
	assert.Nil(t, l.Queue)

	require.NoError(t, l.AddPlayer("c"))
	require.NoError(t, l.EnterQueue(drawIt, "a"))
	require.NotNil(t, l.Queue)
	assert.Equal(t, "draw-it", l.Queue.GameType)
	assert.Equal(t, StateQueued, l.State())
}

func TestEnterQueueAdminOnly(t *testing.T) {
	l := newTestLobby("a", "b", "c")
	err := l.EnterQueue(drawIt, "b")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestEnterQueueTwice(t *testing.T) {
	l := newTestLobby("a", "b", "c")
	require.NoError(t, l.EnterQueue(drawIt, "a"))
	err := l.EnterQueue(drawIt, "a")
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestLeaveQueue(t *testing.T) {
	l := newTestLobby("a", "b", "c")

	err := l.LeaveQueue("a")
	require.ErrorIs(t, err, ErrNotQueued)

	require.NoError(t, l.EnterQueue(drawIt, "a"))
	err = l.LeaveQueue("b")
	require.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, l.LeaveQueue("a"))
	assert.Nil(t, l.Queue)
	assert.Equal(t, StateIdle, l.State())
}

func TestSessionLifecycle(t *testing.T) {
	l := newTestLobby("a", "b", "c")

	err := l.StartSession()
	require.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, l.EnterQueue(drawIt, "a"))
	require.NoError(t, l.StartSession())
	assert.Nil(t, l.Queue)
	require.NotNil(t, l.Session)
	assert.Equal(t, "draw-it", l.Session.GameType)
	assert.Equal(t, StateInSession, l.State())

	l.EndSession()
	assert.Equal(t, StateIdle, l.State())
}
