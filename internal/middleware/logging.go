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
			path := r.URL.Path
			method := r.Method

			next.ServeHTTP(w, r)

			duration := time.Since(start)
			logger.WithFields(logrus.Fields{
				"method":   method,
				"path":     path,
				"duration": duration,
				"remote":   r.RemoteAddr,
			}).Info("HTTP Request")
		})
	}
}

// wsFields builds the field set shared by every log line about one
// table connection, keyed by the connection id so a socket's lifecycle
// can be correlated with its seat's room events.
func wsFields(connID, remoteAddr, path string) logrus.Fields {
	return logrus.Fields{
		"conn":   connID,
		"remote": remoteAddr,
		"path":   path,
	}
}

// LogWebSocketConnect logs the accepted upgrade together with the
// ephemeral connection id just assigned to it.
func LogWebSocketConnect(logger *logrus.Logger, connID, remoteAddr, path string) {
	logger.WithFields(wsFields(connID, remoteAddr, path)).Info("table connection opened")
}

// LogWebSocketDisconnect logs a connection going away, with the read
// error that ended it when the close was not clean.
func LogWebSocketDisconnect(logger *logrus.Logger, connID, remoteAddr, path string, err error) {
	fields := wsFields(connID, remoteAddr, path)
	if err != nil {
		fields["error"] = err
	}
	logger.WithFields(fields).Info("table connection closed")
}
