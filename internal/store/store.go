// Package store is the shared game-state store rooms read and replace their state in.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jason-s-yu/peekmatch/internal/models"
)

// ErrNotFound is returned when a room has no game state.
var ErrNotFound = errors.New("game state not found")

// Store has read/replace semantics: every write replaces the whole sub-structure it owns.
type Store interface {
	GetState(ctx context.Context, roomID string) (*models.MatchState, error)
	SetGameState(ctx context.Context, roomID string, state *models.MatchState) error
	// MergeRoot merges top-level room fields stored alongside the game state.
	MergeRoot(ctx context.Context, roomID string, root map[string]interface{}) error
	GetRoot(ctx context.Context, roomID string) (map[string]interface{}, error)
	Delete(ctx context.Context, roomID string) error
}

func encodeState(state *models.MatchState) ([]byte, error) {
	if state == nil {
		return nil, errors.New("nil game state")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal game state: %w", err)
	}
	return data, nil
}

func decodeState(data []byte) (*models.MatchState, error) {
	var st models.MatchState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("unmarshal game state: %w", err)
	}
	return &st, nil
}
