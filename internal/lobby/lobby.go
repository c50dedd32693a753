// internal/lobby/lobby.go
package lobby

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/webminigames/lobbyd/internal/games"
)

// State labels a lobby's position in its lifecycle. A lobby always starts
// idle, and only ever returns to idle between queue/session cycles.
type State string

const (
	StateIdle      State = "idle"
	StateQueued    State = "queued"
	StateInSession State = "in_session"
)

// Message is one chat entry. The log is append-only and unbounded.
type Message struct {
	AuthorID  string `json:"authorId"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// Queue marks a lobby waiting to start a game of the given type.
type Queue struct {
	GameType string    `json:"gameType"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Session marks a lobby with a game instance in progress.
type Session struct {
	GameType  string    `json:"gameType"`
	StartedAt time.Time `json:"startedAt"`
}

// Lobby is an ephemeral grouping of clients sharing a roster, a chat log and
// one queue/session cycle at a time. Players holds client ids in join order;
// that order decides admin succession. A lobby is never retained empty: the
// coordinator deletes it the moment the last player is removed.
//
// Mu guards all mutable fields. Entity methods assume the caller holds Mu;
// the coordinator scopes each operation to one lobby's lock.
type Lobby struct {
	ID       uuid.UUID `json:"id"`
	Players  []string  `json:"players"`
	AdminID  string    `json:"adminId"`
	Messages []Message `json:"-"`
	Queue    *Queue    `json:"-"`
	Session  *Session  `json:"-"`

	// QueueTimer references a pending matchmaker countdown, if any.
	QueueTimer *time.Timer `json:"-"`

	Mu sync.Mutex `json:"-"`
}

// State reports the lifecycle phase.
func (l *Lobby) State() State {
	switch {
	case l.Session != nil:
		return StateInSession
	case l.Queue != nil:
		return StateQueued
	default:
		return StateIdle
	}
}

// Contains reports whether clientID is currently a member.
func (l *Lobby) Contains(clientID string) bool {
	for _, p := range l.Players {
		if p == clientID {
			return true
		}
	}
	return false
}

// AddPlayer appends clientID to the roster. Joins are only permitted while
// the lobby is idle so the matchmaking composition stays stable.
func (l *Lobby) AddPlayer(clientID string) error {
	if l.Queue != nil || l.Session != nil {
		return fmt.Errorf("lobby %s: %w", l.ID, ErrAlreadyInSession)
	}
	if l.Contains(clientID) {
		return fmt.Errorf("client %s already in lobby %s: %w", clientID, l.ID, ErrInvalidArgument)
	}
	l.Players = append(l.Players, clientID)
	return nil
}

// RemovePlayer removes clientID from the roster. If the departing player was
// the admin, the next remaining player in join order is promoted, so
// succession is deterministic. Returns whether the lobby is now empty, which
// is the signal for the caller to delete it.
func (l *Lobby) RemovePlayer(clientID string) (empty bool) {
	for i, p := range l.Players {
		if p == clientID {
			l.Players = append(l.Players[:i], l.Players[i+1:]...)
			break
		}
	}
	if len(l.Players) == 0 {
		return true
	}
	if l.AdminID == clientID {
		l.AdminID = l.Players[0]
	}
	return false
}

// KickPlayer removes clientID on behalf of requestedBy. Only the admin may
// kick, and never themselves; the admin leaves through the normal leave path.
func (l *Lobby) KickPlayer(clientID, requestedBy string) error {
	if requestedBy != l.AdminID {
		return fmt.Errorf("client %s is not admin of lobby %s: %w", requestedBy, l.ID, ErrForbidden)
	}
	if clientID == requestedBy {
		return fmt.Errorf("admin cannot kick self: %w", ErrInvalidTarget)
	}
	if !l.Contains(clientID) {
		return fmt.Errorf("client %s not in lobby %s: %w", clientID, l.ID, ErrNotFound)
	}
	l.RemovePlayer(clientID)
	return nil
}

// AppendMessage appends a chat entry with a server-assigned timestamp.
func (l *Lobby) AppendMessage(authorID, text string) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, fmt.Errorf("empty chat message: %w", ErrInvalidArgument)
	}
	msg := Message{
		AuthorID:  authorID,
		Text:      text,
		Timestamp: time.Now().Unix(),
	}
	l.Messages = append(l.Messages, msg)
	return msg, nil
}

// EnterQueue places the lobby in the matchmaking queue for gt. Admin-only,
// and the roster size must fall within the game type's declared bounds;
// out-of-bounds attempts are rejected, never clamped.
func (l *Lobby) EnterQueue(gt games.GameType, requestedBy string) error {
	if requestedBy != l.AdminID {
		return fmt.Errorf("client %s is not admin of lobby %s: %w", requestedBy, l.ID, ErrForbidden)
	}
	if l.Queue != nil || l.Session != nil {
		return fmt.Errorf("lobby %s is %s: %w", l.ID, l.State(), ErrInvalidState)
	}
	if n := len(l.Players); n < gt.MinPlayers || n > gt.MaxPlayers {
		return fmt.Errorf("%s needs %d-%d players, lobby has %d: %w",
			gt.Type, gt.MinPlayers, gt.MaxPlayers, len(l.Players), ErrInvalidPlayerCount)
	}
	l.Queue = &Queue{GameType: gt.Type, JoinedAt: time.Now()}
	return nil
}

// LeaveQueue abandons the matchmaking queue. Admin-only.
func (l *Lobby) LeaveQueue(requestedBy string) error {
	if requestedBy != l.AdminID {
		return fmt.Errorf("client %s is not admin of lobby %s: %w", requestedBy, l.ID, ErrForbidden)
	}
	if l.Queue == nil {
		return fmt.Errorf("lobby %s: %w", l.ID, ErrNotQueued)
	}
	l.Queue = nil
	l.CancelQueueTimer()
	return nil
}

// StartSession transitions queue -> session. Driven by the matchmaker once
// the admission rule holds, never by clients directly.
func (l *Lobby) StartSession() error {
	if l.Queue == nil {
		return fmt.Errorf("lobby %s has no queue: %w", l.ID, ErrInvalidState)
	}
	l.Session = &Session{GameType: l.Queue.GameType, StartedAt: time.Now()}
	l.Queue = nil
	return nil
}

// EndSession returns the lobby to idle so a new cycle can begin.
func (l *Lobby) EndSession() {
	l.Session = nil
}

// CancelQueueTimer stops a pending matchmaker countdown, if any. A timer
// that already fired is left to discover its own staleness.
func (l *Lobby) CancelQueueTimer() {
	if l.QueueTimer != nil {
		l.QueueTimer.Stop()
		l.QueueTimer = nil
	}
}
