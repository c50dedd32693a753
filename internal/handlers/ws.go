// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/webminigames/lobbyd/internal/lobby"
	"github.com/webminigames/lobbyd/internal/middleware"
	"github.com/webminigames/lobbyd/internal/protocol"
)

// WSHandler runs the per-connection lifecycle: guest session resolution,
// client registration, the websocket upgrade, the read/write pumps, and the
// leave-plus-deregister cleanup on close.
func WSHandler(logger *logrus.Logger, s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr

		// Cookie must be settled before Accept hijacks the connection.
		clientID, err := EnsureGuestSession(w, r)
		if err != nil {
			logger.Warnf("Guest session setup failed for %s: %v", remoteAddr, err)
			http.Error(w, "failed to establish guest session", http.StatusInternalServerError)
			return
		}

		if _, err := s.Coordinator.Register(clientID); err != nil {
			// Same id already live, e.g. a second tab sharing the cookie.
			// This aborts only the offending connection.
			logger.Warnf("Registration rejected for client %s: %v", clientID, err)
			http.Error(w, "a session for this client is already open", http.StatusConflict)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"lobby"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			s.Coordinator.Disconnect(clientID)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "lobby" {
			c.Close(BadSubprotocolError, "client must speak the lobby subprotocol")
			s.Coordinator.Disconnect(clientID)
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		sess := &wsSession{
			clientID: clientID,
			out:      make(chan protocol.Outbound, 16),
			cancel:   cancel,
		}
		s.addSession(sess)
		middleware.LogWebSocketConnect(logger, remoteAddr, clientID)

		go writePump(ctx, c, sess, logger)

		readErr := readPump(ctx, c, s, sess, logger)

		s.removeSession(clientID)
		s.Coordinator.Disconnect(clientID)
		middleware.LogWebSocketDisconnect(logger, remoteAddr, clientID, readErr)
	}
}

// readPump reads inbound frames until the connection dies and forwards each
// decoded event to the coordinator. Operation failures are answered with an
// ERROR event to this connection only; they never terminate the session.
func readPump(ctx context.Context, c *websocket.Conn, s *Server, sess *wsSession, logger *logrus.Logger) error {
	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			logger.Warnf("Client %s sent non-text message type %d, ignoring", sess.clientID, typ)
			continue
		}

		var env protocol.Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			logger.Warnf("Invalid json from client %s: %v", sess.clientID, err)
			s.Emit(sess.clientID, errorEvent("", "invalid JSON frame"))
			continue
		}

		if err := s.dispatch(sess.clientID, env); err != nil {
			logger.WithFields(logrus.Fields{
				"client_id": sess.clientID,
				"event":     env.Type,
			}).Warnf("Rejected: %v", err)
			s.Emit(sess.clientID, errorEvent(env.Type, rejectionMessage(err)))
		}
	}
}

// dispatch is the closed mapping from event tag to coordinator operation.
// It only validates payload shape; every invariant check lives below the
// coordinator boundary.
func (s *Server) dispatch(clientID string, env protocol.Envelope) error {
	switch env.Type {
	case protocol.EventLobbyCreate:
		_, err := s.Coordinator.Create(clientID)
		return err

	case protocol.EventLobbyJoin:
		var p protocol.JoinPayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		lobbyID, err := uuid.Parse(p.LobbyID)
		if err != nil {
			return fmt.Errorf("malformed lobbyId %q: %w", p.LobbyID, lobby.ErrInvalidArgument)
		}
		return s.Coordinator.Join(clientID, lobbyID)

	case protocol.EventLobbyLeave:
		return s.Coordinator.Leave(clientID)

	case protocol.EventUpdateUsername:
		var p protocol.UsernamePayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		return s.Coordinator.UpdateUsername(clientID, p.Username)

	case protocol.EventKickPlayer:
		var p protocol.KickPayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		return s.Coordinator.Kick(clientID, p.TargetID)

	case protocol.EventSendMessage:
		var p protocol.ChatPayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		return s.Coordinator.SendMessage(clientID, p.Text)

	case protocol.EventStartGameSearch:
		var p protocol.GameSearchPayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		return s.Coordinator.StartGameSearch(clientID, p.GameType)

	case protocol.EventLeaveGameSearch:
		return s.Coordinator.LeaveGameSearch(clientID)

	default:
		return fmt.Errorf("unknown event %q: %w", env.Type, lobby.ErrInvalidArgument)
	}
}

// decode unmarshals a payload, treating an absent body as malformed.
func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("missing payload: %w", lobby.ErrInvalidArgument)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("malformed payload: %w", lobby.ErrInvalidArgument)
	}
	return nil
}

func errorEvent(event, message string) protocol.Outbound {
	return protocol.Outbound{
		Type: protocol.EventError,
		Data: protocol.ErrorPayload{Event: event, Message: message},
	}
}

// rejectionMessage maps a coordinator error to the client-facing reason.
func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, lobby.ErrNotFound):
		return "not found"
	case errors.Is(err, lobby.ErrForbidden):
		return "only the lobby admin may do that"
	case errors.Is(err, lobby.ErrAlreadyInSession):
		return "lobby is already queued or in a game"
	case errors.Is(err, lobby.ErrInvalidPlayerCount):
		return "player count outside the game's bounds"
	case errors.Is(err, lobby.ErrNotQueued):
		return "lobby is not searching for a game"
	case errors.Is(err, lobby.ErrInvalidTarget):
		return "invalid kick target"
	case errors.Is(err, lobby.ErrInvalidState):
		return "operation not valid in the lobby's current state"
	case errors.Is(err, lobby.ErrInvalidArgument):
		return "invalid request payload"
	default:
		return "request rejected"
	}
}

// writePump serializes outbound events for one connection and keeps the
// socket alive with periodic pings.
func writePump(ctx context.Context, c *websocket.Conn, sess *wsSession, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-sess.out:
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Warnf("Failed to marshal %s for client %s: %v", ev.Type, sess.clientID, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				// Broken connection; readPump notices and runs cleanup.
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("Ping to client %s failed, assuming disconnect: %v", sess.clientID, err)
				return
			}
		}
	}
}
