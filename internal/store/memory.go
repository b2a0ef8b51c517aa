package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jason-s-yu/peekmatch/internal/models"
)

// MemoryStore keeps encoded states in process. Reads decode a fresh copy so callers
// never share structures with the store, matching the Redis backend.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string][]byte
	roots  map[string]map[string]interface{}
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[string][]byte),
		roots:  make(map[string]map[string]interface{}),
	}
}

func (s *MemoryStore) GetState(ctx context.Context, roomID string) (*models.MatchState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	data, ok := s.states[roomID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decodeState(data)
}

func (s *MemoryStore) SetGameState(ctx context.Context, roomID string, state *models.MatchState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeState(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.states[roomID] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) MergeRoot(ctx context.Context, roomID string, root map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.roots[roomID]
	if !ok {
		cur = make(map[string]interface{}, len(root))
		s.roots[roomID] = cur
	}
	for k, v := range root {
		// normalize through JSON so values read back with the same types as from Redis
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal root field %s: %w", k, err)
		}
		var norm interface{}
		if err := json.Unmarshal(b, &norm); err != nil {
			return fmt.Errorf("unmarshal root field %s: %w", k, err)
		}
		cur[k] = norm
	}
	return nil
}

func (s *MemoryStore) GetRoot(ctx context.Context, roomID string) (map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]interface{}, len(s.roots[roomID]))
	for k, v := range s.roots[roomID] {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, roomID string) error {
	s.mu.Lock()
	delete(s.states, roomID)
	delete(s.roots, roomID)
	s.mu.Unlock()
	return nil
}
