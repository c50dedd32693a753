// internal/protocol/protocol.go
package protocol

import "encoding/json"

// Event names shared by both directions of the wire protocol. Inbound events
// map one-to-one onto coordinator operations; several names double as the
// server-side push for the same concern (e.g. LOBBY_JOIN carries the roster).
const (
	EventLobbyCreate     = "LOBBY_CREATE"
	EventLobbyJoin       = "LOBBY_JOIN"
	EventLobbyLeave      = "LOBBY_LEAVE"
	EventUpdateUsername  = "UPDATE_USERNAME"
	EventKickPlayer      = "KICK_PLAYER"
	EventSendMessage     = "SEND_MESSAGE"
	EventStartGameSearch = "START_GAME_SEARCH"
	EventLeaveGameSearch = "LEAVE_GAME_SEARCH"
	EventGameStart       = "GAME_START"
	EventGameEnd         = "GAME_END"
	EventError           = "ERROR"
)

// Envelope is the wire frame: a tag plus the tag's payload. The dispatch
// layer decodes Data into the payload type fixed for the tag; unknown tags
// are rejected, never routed dynamically.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Outbound is a server-to-client event ready for marshaling.
type Outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Inbound payloads, one fixed shape per event tag.

type JoinPayload struct {
	LobbyID string `json:"lobbyId"`
}

type UsernamePayload struct {
	Username string `json:"username"`
}

type KickPayload struct {
	TargetID string `json:"targetId"`
}

type ChatPayload struct {
	Text string `json:"text"`
}

type GameSearchPayload struct {
	GameType string `json:"gameType"`
}

// Outbound payloads.

// PlayerInfo is the client-visible projection of a lobby member. Connection
// handles and lobby back-references never cross the wire.
type PlayerInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
}

// RosterPayload is the full ordered roster, pushed after every membership
// or display-name mutation.
type RosterPayload struct {
	LobbyID string       `json:"lobbyId"`
	Players []PlayerInfo `json:"players"`
}

// DeparturePayload notifies remaining members that a player left.
type DeparturePayload struct {
	Username string `json:"username"`
}

// ChatMessagePayload relays one chat entry. The author id is resolved to a
// display name by the receiving end from the roster it already holds.
type ChatMessagePayload struct {
	AuthorID  string `json:"authorId"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// QueuePayload reflects a queue-state change or a session start.
type QueuePayload struct {
	GameType string `json:"gameType"`
}

// ErrorPayload is the rejection notice sent to the originating connection
// only; no broadcast accompanies a failed operation.
type ErrorPayload struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}
