package game

import "errors"

var (
	// ErrInvalidPeekSelection is returned when a peek submission is not exactly two cards of the player's own hand.
	ErrInvalidPeekSelection = errors.New("initial peek requires exactly two cards from your own hand")
	ErrCardNotFound         = errors.New("card not found in original deck")
	ErrPlayerNotFound       = errors.New("no player bound to this session")
	ErrNoGameState          = errors.New("room has no game state")
	ErrWrongPhase           = errors.New("action not allowed in current phase")
	ErrRoomNotFound         = errors.New("room not found")
	ErrMatchAlreadyStarted  = errors.New("match already started")
)
