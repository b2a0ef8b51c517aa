// internal/handlers/server.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jason-s-yu/peekmatch/internal/auth"
	"github.com/jason-s-yu/peekmatch/internal/broadcast"
	"github.com/jason-s-yu/peekmatch/internal/game"
	"github.com/jason-s-yu/peekmatch/internal/middleware"
	"github.com/jason-s-yu/peekmatch/internal/models"
	"github.com/sirupsen/logrus"
)

// Server holds what the HTTP and WebSocket handlers share.
type Server struct {
	Rooms       *game.RoomStore
	Coordinator *game.Coordinator
	Hub         *broadcast.Hub
	Signer      *auth.Signer
	Logger      logrus.FieldLogger

	// DefaultSettings seeds new rooms before the creator's overrides apply.
	DefaultSettings models.RoomSettings
	// OriginPatterns is passed to websocket.Accept; empty allows same-origin only.
	OriginPatterns []string
}

// NewRouter mounts the room API.
func (s *Server) NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.LogMiddleware(s.Logger))
	r.Use(chimw.Heartbeat("/ping"))

	r.Post("/user/guest", s.GuestHandler)
	r.Route("/room", func(r chi.Router) {
		r.Post("/create", s.CreateRoomHandler)
		r.Get("/list", s.ListRoomsHandler)
		r.Get("/ws/{id}", s.RoomWSHandler)
	})
	return r
}
