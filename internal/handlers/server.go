// internal/handlers/server.go
package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/webminigames/lobbyd/internal/client"
	"github.com/webminigames/lobbyd/internal/coordinator"
	"github.com/webminigames/lobbyd/internal/games"
	"github.com/webminigames/lobbyd/internal/journal"
	"github.com/webminigames/lobbyd/internal/lobby"
	"github.com/webminigames/lobbyd/internal/matchmaker"
	"github.com/webminigames/lobbyd/internal/protocol"
)

// Server owns the live websocket sessions and the coordinator they feed.
// It is the coordinator's Emitter: outbound events are resolved to a
// session's buffered out-channel here, with a non-blocking send so a stuck
// or closing connection never stalls a broadcast.
type Server struct {
	Coordinator *coordinator.Coordinator
	logger      *logrus.Logger

	mu       sync.Mutex
	sessions map[string]*wsSession
}

// wsSession is one connection's server-side plumbing.
type wsSession struct {
	clientID string
	out      chan protocol.Outbound
	cancel   func()
}

// NewServer wires the registries, the coordinator and the session table.
// journalPub may be nil to disable event journaling.
func NewServer(catalog *games.Catalog, mm *matchmaker.Matchmaker, journalPub *journal.Publisher, logger *logrus.Logger) *Server {
	s := &Server{
		logger:   logger,
		sessions: make(map[string]*wsSession),
	}
	s.Coordinator = coordinator.New(client.NewStore(), lobby.NewStore(), catalog, s, mm, journalPub, logger)
	return s
}

// Emit pushes an event onto the named session's out-channel. Dropped
// silently if the session is gone or its channel is full; cleanup for a
// closed connection proceeds independently of in-flight broadcasts.
func (s *Server) Emit(clientID string, ev protocol.Outbound) {
	s.mu.Lock()
	sess, ok := s.sessions[clientID]
	s.mu.Unlock()
	if !ok {
		return
	}
	select {
	case sess.out <- ev:
	default:
		s.logger.Warnf("Out channel for client %s full, dropped %s", clientID, ev.Type)
	}
}

func (s *Server) addSession(sess *wsSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.clientID] = sess
}

func (s *Server) removeSession(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, clientID)
}

// lobbySummary is the debug/listing projection of a lobby.
type lobbySummary struct {
	ID          string      `json:"id"`
	State       lobby.State `json:"state"`
	PlayerCount int         `json:"playerCount"`
	AdminID     string      `json:"adminId"`
}

// ListLobbiesHandler returns the live lobbies, primarily for dashboards and
// debugging.
func ListLobbiesHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all := s.Coordinator.Lobbies().All()
		summaries := make([]lobbySummary, 0, len(all))
		for _, l := range all {
			l.Mu.Lock()
			summaries = append(summaries, lobbySummary{
				ID:          l.ID.String(),
				State:       l.State(),
				PlayerCount: len(l.Players),
				AdminID:     l.AdminID,
			})
			l.Mu.Unlock()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summaries)
	}
}

// HealthzHandler reports liveness.
func HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}
