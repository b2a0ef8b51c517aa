// internal/middleware/logging.go

package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// LogMiddleware logs method, path, status and duration of each request using Logrus.
func LogMiddleware(logger logrus.FieldLogger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				// hijacked (websocket) or nothing written
				status = http.StatusOK
			}
			fields := logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   status,
				"duration": time.Since(start),
				"remote":   r.RemoteAddr,
			}
			if reqID := chimw.GetReqID(r.Context()); reqID != "" {
				fields["request_id"] = reqID
			}
			entry := logger.WithFields(fields)
			if status >= http.StatusInternalServerError {
				entry.Warn("HTTP Request")
				return
			}
			entry.Info("HTTP Request")
		})
	}
}

// LogWebSocketConnect logs a message when a room session connects.
func LogWebSocketConnect(logger logrus.FieldLogger, remoteAddr, roomID, sessionID string) {
	logger.WithFields(logrus.Fields{
		"remote":     remoteAddr,
		"room_id":    roomID,
		"session_id": sessionID,
	}).Info("WebSocket connected")
}

// LogWebSocketDisconnect logs a message when a room session disconnects.
func LogWebSocketDisconnect(logger logrus.FieldLogger, remoteAddr, roomID, sessionID string, err error) {
	fields := logrus.Fields{
		"remote":     remoteAddr,
		"room_id":    roomID,
		"session_id": sessionID,
	}
	if err != nil {
		fields["error"] = err
	}
	logger.WithFields(fields).Info("WebSocket disconnected")
}
