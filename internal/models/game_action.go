package models

// RoomAction captures an inbound room message after decoding.
type RoomAction struct {
	ActionType string                 `json:"action_type"`
	Payload    map[string]interface{} `json:"payload"`
}
