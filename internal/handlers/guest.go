// internal/handlers/guest.go
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/webminigames/lobbyd/internal/auth"
)

const guestCookieName = "guest_session"

// EnsureGuestSession resolves the client id for a handshake. A valid guest
// session cookie keeps the id from a previous connection; otherwise a fresh
// id is minted and a new cookie set. Must run before the websocket upgrade,
// since the cookie cannot be written after the connection is hijacked.
func EnsureGuestSession(w http.ResponseWriter, r *http.Request) (string, error) {
	cookieHeader := r.Header.Get("Cookie")
	if strings.Contains(cookieHeader, guestCookieName+"=") {
		token := extractCookieToken(cookieHeader, guestCookieName)
		if clientID, err := auth.AuthenticateJWT(token); err == nil {
			if _, parseErr := uuid.Parse(clientID); parseErr == nil {
				return clientID, nil
			}
		}
		// Unusable token: fall through and mint a replacement.
	}

	clientID := uuid.New().String()
	token, err := auth.CreateJWT(clientID)
	if err != nil {
		return "", fmt.Errorf("failed to create guest session token: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     guestCookieName,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})
	return clientID, nil
}
