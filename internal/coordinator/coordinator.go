// internal/coordinator/coordinator.go
package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/webminigames/lobbyd/internal/client"
	"github.com/webminigames/lobbyd/internal/games"
	"github.com/webminigames/lobbyd/internal/journal"
	"github.com/webminigames/lobbyd/internal/lobby"
	"github.com/webminigames/lobbyd/internal/matchmaker"
	"github.com/webminigames/lobbyd/internal/protocol"
)

// Emitter delivers an outbound event to one named connection. Delivery is
// best-effort and fire-and-forget: if the connection is already closed the
// event is silently dropped and that connection's own cleanup proceeds
// independently.
type Emitter interface {
	Emit(clientID string, ev protocol.Outbound)
}

// Coordinator owns every mutation of the client and lobby registries and
// the broadcast fan-out that follows each one. Each operation runs as a
// critical section scoped to the affected lobby's mutex; join/leave/create
// additionally hold the acting client's OpMu since they may touch two
// lobbies in sequence. The leave inside join completes fully, broadcast
// included, before the join begins.
type Coordinator struct {
	clients *client.Store
	lobbies *lobby.Store
	catalog *games.Catalog
	emitter Emitter
	mm      *matchmaker.Matchmaker
	journal *journal.Publisher // nil when journaling is disabled
	logger  *logrus.Logger
}

// New wires a coordinator. journalPub may be nil.
func New(clients *client.Store, lobbies *lobby.Store, catalog *games.Catalog, emitter Emitter, mm *matchmaker.Matchmaker, journalPub *journal.Publisher, logger *logrus.Logger) *Coordinator {
	return &Coordinator{
		clients: clients,
		lobbies: lobbies,
		catalog: catalog,
		emitter: emitter,
		mm:      mm,
		journal: journalPub,
		logger:  logger,
	}
}

// Lobbies exposes the lobby registry for read-only listing endpoints.
func (c *Coordinator) Lobbies() *lobby.Store {
	return c.lobbies
}

// Register creates the client record for a newly opened connection.
// Duplicate registration is a programming invariant violation; the caller
// aborts the offending connection only.
func (c *Coordinator) Register(clientID string) (*client.Client, error) {
	return c.clients.Register(clientID)
}

// Disconnect runs the connection-close path: the same cleanup as an
// explicit leave, then removal of the client record.
func (c *Coordinator) Disconnect(clientID string) {
	if err := c.Leave(clientID); err != nil {
		c.logger.Warnf("Disconnect cleanup for client %s: %v", clientID, err)
	}
	c.clients.Remove(clientID)
}

// Leave removes the client from its current lobby, if any. A client with no
// lobby is a no-op, which makes the leave-first step of join and create
// idempotent.
func (c *Coordinator) Leave(clientID string) error {
	cl, ok := c.clients.Get(clientID)
	if !ok {
		return fmt.Errorf("client %s: %w", clientID, lobby.ErrNotFound)
	}
	cl.OpMu.Lock()
	defer cl.OpMu.Unlock()
	c.leaveCurrent(cl)
	return nil
}

// leaveCurrent fully executes the departure of cl from its current lobby,
// broadcast included. Caller must hold cl.OpMu.
func (c *Coordinator) leaveCurrent(cl *client.Client) {
	lobbyID := cl.LobbyID()
	if lobbyID == uuid.Nil {
		return
	}

	l, ok := c.lobbies.Get(lobbyID)
	if !ok {
		cl.SetLobbyID(uuid.Nil)
		return
	}

	l.Mu.Lock()
	if !l.Contains(cl.ID) {
		// A racing kick already removed us; only the back-reference is left.
		l.Mu.Unlock()
		cl.SetLobbyID(uuid.Nil)
		return
	}

	empty := l.RemovePlayer(cl.ID)
	cl.SetLobbyID(uuid.Nil)

	if empty {
		l.CancelQueueTimer()
		c.lobbies.Delete(l.ID)
		l.Mu.Unlock()
		c.logger.Infof("Deleted empty lobby %s after client %s left", lobbyID, cl.ID)
		c.publish(l.ID, cl.ID, "lobby_deleted", nil)
		return
	}

	c.dropQueueIfUnderfilled(l)

	depart := protocol.Outbound{
		Type: protocol.EventLobbyLeave,
		Data: protocol.DeparturePayload{Username: cl.Username()},
	}
	c.broadcast(l, depart)
	l.Mu.Unlock()

	c.publish(l.ID, cl.ID, "player_left", nil)
}

// Join moves the client into the target lobby, leaving any previous lobby
// first. The two lobbies are two separate critical sections executed in
// order, never one cross-lobby transaction.
func (c *Coordinator) Join(clientID string, lobbyID uuid.UUID) error {
	cl, ok := c.clients.Get(clientID)
	if !ok {
		return fmt.Errorf("client %s: %w", clientID, lobby.ErrNotFound)
	}
	if _, ok := c.lobbies.Get(lobbyID); !ok {
		return fmt.Errorf("lobby %s: %w", lobbyID, lobby.ErrNotFound)
	}

	cl.OpMu.Lock()
	defer cl.OpMu.Unlock()
	c.leaveCurrent(cl)

	// Re-resolve: the lobby may have emptied and been deleted while the
	// leave was completing.
	l, ok := c.lobbies.Get(lobbyID)
	if !ok {
		return fmt.Errorf("lobby %s: %w", lobbyID, lobby.ErrNotFound)
	}

	l.Mu.Lock()
	if len(l.Players) == 0 {
		// Being torn down concurrently.
		l.Mu.Unlock()
		return fmt.Errorf("lobby %s: %w", lobbyID, lobby.ErrNotFound)
	}
	if err := l.AddPlayer(cl.ID); err != nil {
		l.Mu.Unlock()
		return err
	}
	cl.SetLobbyID(l.ID)

	roster := c.rosterLocked(l)
	c.broadcast(l, protocol.Outbound{Type: protocol.EventLobbyJoin, Data: roster})
	l.Mu.Unlock()

	c.logger.Infof("Client %s joined lobby %s", clientID, lobbyID)
	c.publish(l.ID, cl.ID, "player_joined", nil)
	return nil
}

// Create leaves any current lobby, then builds a new lobby with the client
// as sole member and admin. The initial roster goes back to the creator
// only; no other members exist yet.
func (c *Coordinator) Create(clientID string) (uuid.UUID, error) {
	cl, ok := c.clients.Get(clientID)
	if !ok {
		return uuid.Nil, fmt.Errorf("client %s: %w", clientID, lobby.ErrNotFound)
	}

	cl.OpMu.Lock()
	defer cl.OpMu.Unlock()
	c.leaveCurrent(cl)

	l := c.lobbies.Create(cl.ID)
	cl.SetLobbyID(l.ID)

	l.Mu.Lock()
	roster := c.rosterLocked(l)
	l.Mu.Unlock()
	c.emitter.Emit(cl.ID, protocol.Outbound{Type: protocol.EventLobbyJoin, Data: roster})

	c.logger.Infof("Created lobby %s for client %s", l.ID, clientID)
	c.publish(l.ID, cl.ID, "lobby_created", nil)
	return l.ID, nil
}

// UpdateUsername sets the display name and, if the client sits in a lobby,
// pushes the refreshed roster to every member so the change is visible
// everywhere immediately, chat author lines included.
func (c *Coordinator) UpdateUsername(clientID, name string) error {
	if name == "" {
		return fmt.Errorf("empty username: %w", lobby.ErrInvalidArgument)
	}
	cl, ok := c.clients.Get(clientID)
	if !ok {
		return fmt.Errorf("client %s: %w", clientID, lobby.ErrNotFound)
	}
	cl.SetUsername(name)

	lobbyID := cl.LobbyID()
	if lobbyID == uuid.Nil {
		return nil
	}
	l, ok := c.lobbies.Get(lobbyID)
	if !ok {
		return nil
	}

	l.Mu.Lock()
	if l.Contains(cl.ID) {
		roster := c.rosterLocked(l)
		c.broadcast(l, protocol.Outbound{Type: protocol.EventUpdateUsername, Data: roster})
	}
	l.Mu.Unlock()
	return nil
}

// Kick removes targetID from the caller's lobby. The target gets a direct
// removal notice; the remaining members get the updated roster.
func (c *Coordinator) Kick(clientID, targetID string) error {
	cl, l, err := c.resolve(clientID)
	if err != nil {
		return err
	}

	l.Mu.Lock()
	if err := l.KickPlayer(targetID, cl.ID); err != nil {
		l.Mu.Unlock()
		return err
	}
	if target, ok := c.clients.Get(targetID); ok {
		target.SetLobbyID(uuid.Nil)
	}
	c.dropQueueIfUnderfilled(l)

	roster := c.rosterLocked(l)
	c.broadcast(l, protocol.Outbound{Type: protocol.EventLobbyJoin, Data: roster})
	l.Mu.Unlock()

	c.emitter.Emit(targetID, protocol.Outbound{Type: protocol.EventKickPlayer})
	c.logger.Infof("Client %s kicked from lobby %s by admin %s", targetID, l.ID, clientID)
	c.publish(l.ID, clientID, "player_kicked", map[string]interface{}{"target_id": targetID})
	return nil
}

// SendMessage appends a chat entry and relays it to every current member,
// the author included. The author id is resolved to a display name by the
// receiving end from the roster it already holds.
func (c *Coordinator) SendMessage(clientID, text string) error {
	cl, l, err := c.resolve(clientID)
	if err != nil {
		return err
	}

	l.Mu.Lock()
	msg, err := l.AppendMessage(cl.ID, text)
	if err != nil {
		l.Mu.Unlock()
		return err
	}
	c.broadcast(l, protocol.Outbound{
		Type: protocol.EventSendMessage,
		Data: protocol.ChatMessagePayload{
			AuthorID:  msg.AuthorID,
			Text:      msg.Text,
			Timestamp: msg.Timestamp,
		},
	})
	l.Mu.Unlock()

	c.publish(l.ID, clientID, "chat_message", nil)
	return nil
}

// StartGameSearch enters the matchmaking queue for the given game type and
// hands the lobby to the matchmaker.
func (c *Coordinator) StartGameSearch(clientID, gameType string) error {
	cl, l, err := c.resolve(clientID)
	if err != nil {
		return err
	}
	gt, ok := c.catalog.Get(gameType)
	if !ok {
		return fmt.Errorf("unknown game type %q: %w", gameType, lobby.ErrInvalidArgument)
	}

	l.Mu.Lock()
	if err := l.EnterQueue(gt, cl.ID); err != nil {
		l.Mu.Unlock()
		return err
	}
	c.broadcast(l, protocol.Outbound{
		Type: protocol.EventStartGameSearch,
		Data: protocol.QueuePayload{GameType: gt.Type},
	})
	c.mm.Admit(l, c.startSessionLocked)
	l.Mu.Unlock()

	c.publish(l.ID, clientID, "queue_entered", map[string]interface{}{"game_type": gt.Type})
	return nil
}

// LeaveGameSearch abandons the matchmaking queue.
func (c *Coordinator) LeaveGameSearch(clientID string) error {
	cl, l, err := c.resolve(clientID)
	if err != nil {
		return err
	}

	l.Mu.Lock()
	if err := l.LeaveQueue(cl.ID); err != nil {
		l.Mu.Unlock()
		return err
	}
	c.broadcast(l, protocol.Outbound{Type: protocol.EventLeaveGameSearch})
	l.Mu.Unlock()

	c.publish(l.ID, clientID, "queue_left", nil)
	return nil
}

// EndSession returns a lobby to idle. Called by the game module's
// completion signal, not by clients.
func (c *Coordinator) EndSession(lobbyID uuid.UUID) error {
	l, ok := c.lobbies.Get(lobbyID)
	if !ok {
		return fmt.Errorf("lobby %s: %w", lobbyID, lobby.ErrNotFound)
	}

	l.Mu.Lock()
	if l.Session == nil {
		l.Mu.Unlock()
		return fmt.Errorf("lobby %s has no session: %w", lobbyID, lobby.ErrInvalidState)
	}
	l.EndSession()
	c.broadcast(l, protocol.Outbound{Type: protocol.EventGameEnd})
	l.Mu.Unlock()

	c.publish(lobbyID, "", "session_ended", nil)
	return nil
}

// startSessionLocked performs queue -> session and announces the game
// start. Invoked by the matchmaker with l.Mu held.
func (c *Coordinator) startSessionLocked(l *lobby.Lobby) {
	if err := l.StartSession(); err != nil {
		c.logger.Warnf("Session start for lobby %s: %v", l.ID, err)
		return
	}
	c.broadcast(l, protocol.Outbound{
		Type: protocol.EventGameStart,
		Data: protocol.QueuePayload{GameType: l.Session.GameType},
	})
	c.logger.Infof("Lobby %s started %s session", l.ID, l.Session.GameType)
	c.publish(l.ID, "", "session_started", map[string]interface{}{"game_type": l.Session.GameType})
}

// resolve looks up the client and the lobby it currently sits in.
func (c *Coordinator) resolve(clientID string) (*client.Client, *lobby.Lobby, error) {
	cl, ok := c.clients.Get(clientID)
	if !ok {
		return nil, nil, fmt.Errorf("client %s: %w", clientID, lobby.ErrNotFound)
	}
	lobbyID := cl.LobbyID()
	if lobbyID == uuid.Nil {
		return nil, nil, fmt.Errorf("client %s is not in a lobby: %w", clientID, lobby.ErrNotFound)
	}
	l, ok := c.lobbies.Get(lobbyID)
	if !ok {
		return nil, nil, fmt.Errorf("lobby %s: %w", lobbyID, lobby.ErrNotFound)
	}
	return cl, l, nil
}

// rosterLocked builds the ordered client-visible roster. Caller holds l.Mu.
func (c *Coordinator) rosterLocked(l *lobby.Lobby) protocol.RosterPayload {
	players := make([]protocol.PlayerInfo, 0, len(l.Players))
	for _, id := range l.Players {
		username := ""
		if member, ok := c.clients.Get(id); ok {
			username = member.Username()
		}
		players = append(players, protocol.PlayerInfo{
			ID:       id,
			Username: username,
			Admin:    id == l.AdminID,
		})
	}
	return protocol.RosterPayload{LobbyID: l.ID.String(), Players: players}
}

// broadcast fans an event out to every current member. Caller holds l.Mu,
// so the recipient set is always the membership after the mutation, never a
// cached pre-mutation list.
func (c *Coordinator) broadcast(l *lobby.Lobby, ev protocol.Outbound) {
	for _, id := range l.Players {
		c.emitter.Emit(id, ev)
	}
}

// dropQueueIfUnderfilled clears the queue when a departure shrinks the
// roster below the queued game type's minimum, keeping the queue reference
// consistent with the player count. Caller holds l.Mu.
func (c *Coordinator) dropQueueIfUnderfilled(l *lobby.Lobby) {
	if l.Queue == nil {
		return
	}
	gameType := l.Queue.GameType
	if gt, ok := c.catalog.Get(gameType); ok && len(l.Players) >= gt.MinPlayers {
		return
	}
	l.Queue = nil
	l.CancelQueueTimer()
	c.broadcast(l, protocol.Outbound{Type: protocol.EventLeaveGameSearch})
	c.logger.Infof("Lobby %s dropped out of %s queue, roster below minimum", l.ID, gameType)
}

// publish journals a lobby event, fire-and-forget. No-op when journaling is
// disabled.
func (c *Coordinator) publish(lobbyID uuid.UUID, actorID, eventType string, payload map[string]interface{}) {
	if c.journal == nil {
		return
	}
	rec := journal.Record{
		LobbyID:   lobbyID,
		ActorID:   actorID,
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := c.journal.Publish(ctx, rec); err != nil {
			c.logger.Warnf("Journal publish %s for lobby %s: %v", eventType, lobbyID, err)
		}
	}()
}
