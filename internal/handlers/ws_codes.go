// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Custom WebSocket close codes used by the room handler.
const (
	BadSubprotocolError   websocket.StatusCode = 3000 // Client connected with an unsupported subprotocol.
	InvalidAuthTokenError websocket.StatusCode = 3001 // Provided auth token was invalid or expired.
	InvalidRoomIDError    websocket.StatusCode = 3003 // Target room does not exist or was torn down.
	RoomClosedToJoinError websocket.StatusCode = 3004 // Match already running and the user holds no seat.
)
