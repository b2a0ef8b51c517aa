// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jason-s-yu/peekmatch/internal/broadcast"
	"github.com/jason-s-yu/peekmatch/internal/game"
	"github.com/jason-s-yu/peekmatch/internal/middleware"
	"github.com/jason-s-yu/peekmatch/internal/models"
	"github.com/sirupsen/logrus"
)

const roomSubprotocol = "room"

const teardownTimeout = 5 * time.Second

// Inbound room actions.
const (
	actionPing                 = "ping"
	actionStartMatch           = "start_match"
	actionCompletedInitialPeek = "completed_initial_peek"
	actionUpdateSettings       = "update_settings"
	actionSyncState            = "sync_state"
)

// roomUpdate is broadcast whenever membership or settings change.
type roomUpdate struct {
	Type string   `json:"type"`
	Room roomView `json:"room"`
}

type pong struct {
	Type string `json:"type"`
}

// RoomWSHandler upgrades to the room subprotocol, seats the user and pumps room actions
// into the coordinator until the connection closes.
func (s *Server) RoomWSHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	room, ok := s.Rooms.GetRoom(roomID)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	claims, err := s.authenticate(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{roomSubprotocol},
		OriginPatterns: s.OriginPatterns,
	})
	if err != nil {
		s.Logger.WithError(err).Warn("websocket accept error")
		return
	}
	defer c.CloseNow()

	if c.Subprotocol() != roomSubprotocol {
		c.Close(BadSubprotocolError, "client must speak the room subprotocol")
		return
	}

	userID := claims.Subject
	name := claims.Name
	if name == "" {
		name = "Guest"
	}
	sessionID := uuid.NewString()
	log := s.Logger.WithFields(logrus.Fields{"room_id": room.ID, "user_id": userID, "session_id": sessionID})

	if _, err := room.Join(userID, name, sessionID); err != nil {
		code := InvalidRoomIDError
		if errors.Is(err, game.ErrMatchAlreadyStarted) {
			code = RoomClosedToJoinError
		}
		c.Close(code, err.Error())
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sess := broadcast.NewSession(sessionID, room.ID, userID, c, 0)
	s.Hub.Register(sess)
	go func() {
		if err := s.Hub.WriteLoop(ctx, sess); err != nil && ctx.Err() == nil {
			cancel()
		}
	}()
	middleware.LogWebSocketConnect(s.Logger, r.RemoteAddr, room.ID, sessionID)

	if room.Started() {
		if err := s.Coordinator.BindSession(ctx, room, userID, sessionID); err != nil {
			log.WithError(err).Warn("Failed to rebind session")
		}
		if err := s.Coordinator.SyncState(ctx, room, sessionID); err != nil {
			log.WithError(err).Warn("Failed to sync state on reconnect")
		}
	}
	s.broadcastRoom(room)

	readErr := s.readLoop(ctx, log, c, room, sess)

	s.Hub.Unregister(sessionID)
	room.Leave(userID, sessionID)
	if s.Hub.RoomSize(room.ID) == 0 && (room.Started() || room.JoinedCount() == 0) {
		// r.Context is already done once the client hung up
		tctx, tcancel := context.WithTimeout(context.Background(), teardownTimeout)
		if err := s.Coordinator.Teardown(tctx, s.Rooms, room); err != nil {
			log.WithError(err).Warn("Failed to delete room state")
		}
		tcancel()
		log.Info("Room empty, removed")
	} else {
		s.broadcastRoom(room)
	}
	middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, room.ID, sessionID, readErr)
	c.Close(websocket.StatusNormalClosure, "")
}

// readLoop decodes inbound actions until the connection or ctx ends. Normal closures return nil.
func (s *Server) readLoop(ctx context.Context, log logrus.FieldLogger, c *websocket.Conn, room *game.Room, sess *broadcast.Session) error {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			log.Warnf("Ignoring non-text message type %d", typ)
			continue
		}

		var action models.RoomAction
		if err := json.Unmarshal(data, &action); err != nil {
			s.Hub.SendToSession(sess.ID, game.NewErrorEvent(game.EventRoomError, room.ID, fmt.Errorf("invalid JSON format")))
			continue
		}
		s.handleAction(ctx, log, room, sess, action)
	}
}

func (s *Server) handleAction(ctx context.Context, log logrus.FieldLogger, room *game.Room, sess *broadcast.Session, action models.RoomAction) {
	switch action.ActionType {
	case actionPing:
		s.Hub.SendToSession(sess.ID, pong{Type: "pong"})

	case actionStartMatch:
		if _, err := s.Coordinator.StartMatch(ctx, room); err != nil {
			log.WithError(err).Warn("Start match rejected")
			s.Hub.SendToSession(sess.ID, game.NewErrorEvent(game.EventStartMatchErr, room.ID, err))
			return
		}
		s.broadcastRoom(room)

	case actionCompletedInitialPeek:
		ids, err := stringList(action.Payload["card_ids"])
		if err != nil {
			s.Hub.SendToSession(sess.ID, game.NewErrorEvent(game.EventCompletedInitialPeekErr, room.ID, err))
			return
		}
		// The coordinator reports rejections to the session itself.
		_ = s.Coordinator.HandleCompletedInitialPeek(ctx, room, sess.ID, ids)

	case actionUpdateSettings:
		if _, err := room.UpdateSettings(action.Payload); err != nil {
			s.Hub.SendToSession(sess.ID, game.NewErrorEvent(game.EventRoomError, room.ID, err))
			return
		}
		s.broadcastRoom(room)

	case actionSyncState:
		if err := s.Coordinator.SyncState(ctx, room, sess.ID); err != nil {
			s.Hub.SendToSession(sess.ID, game.NewErrorEvent(game.EventRoomError, room.ID, err))
		}

	default:
		s.Hub.SendToSession(sess.ID, game.NewErrorEvent(game.EventRoomError, room.ID,
			fmt.Errorf("unknown action_type %q", action.ActionType)))
	}
}

func (s *Server) broadcastRoom(room *game.Room) {
	s.Hub.BroadcastToRoom(room.ID, roomUpdate{Type: "room_update", Room: viewOf(room)})
}

// stringList converts a decoded JSON array of strings.
func stringList(v interface{}) ([]string, error) {
	raw, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: card_ids must be an array", game.ErrInvalidPeekSelection)
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: card_ids must hold strings", game.ErrInvalidPeekSelection)
		}
		out = append(out, s)
	}
	return out, nil
}
