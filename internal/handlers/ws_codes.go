// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the lobby handler. These provide
// more specific reasons for closure than the standard codes.
const (
	BadSubprotocolError      = 3000 // Client connected with an unsupported subprotocol.
	InvalidSessionTokenError = 3001 // Guest session token was present but unusable.
	DuplicateSessionError    = 3002 // A connection with this client id is already registered.
)
