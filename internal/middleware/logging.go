// internal/middleware/logging.go

package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// LogMiddleware is an HTTP middleware that logs incoming requests using
// Logrus: method, path, duration and remote address.
func LogMiddleware(logger *logrus.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
				"remote":   r.RemoteAddr,
			}).Info("HTTP Request")
		})
	}
}

// LogWebSocketConnect logs a client's websocket upgrade once accepted.
func LogWebSocketConnect(logger *logrus.Logger, remoteAddr, clientID string) {
	logger.WithFields(logrus.Fields{
		"remote":    remoteAddr,
		"client_id": clientID,
	}).Info("WebSocket connected")
}

// LogWebSocketDisconnect logs a websocket teardown, with the closing error
// if the connection did not end cleanly.
func LogWebSocketDisconnect(logger *logrus.Logger, remoteAddr, clientID string, err error) {
	fields := logrus.Fields{
		"remote":    remoteAddr,
		"client_id": clientID,
	}
	if err != nil {
		fields["error"] = err
	}
	logger.WithFields(fields).Info("WebSocket disconnected")
}
