package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/peekmatch/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each room's game state as a JSON string and its root fields as a hash.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps a connected client. ttl of 0 keeps keys until Delete.
func NewRedisStore(rdb *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "room"
	}
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) stateKey(roomID string) string {
	return fmt.Sprintf("%s:%s:game_state", s.prefix, roomID)
}

func (s *RedisStore) rootKey(roomID string) string {
	return fmt.Sprintf("%s:%s:root", s.prefix, roomID)
}

func (s *RedisStore) GetState(ctx context.Context, roomID string) (*models.MatchState, error) {
	data, err := s.rdb.Get(ctx, s.stateKey(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get state for room %s: %w", roomID, err)
	}
	return decodeState(data)
}

func (s *RedisStore) SetGameState(ctx context.Context, roomID string, state *models.MatchState) error {
	data, err := encodeState(state)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.stateKey(roomID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set state for room %s: %w", roomID, err)
	}
	return nil
}

// MergeRoot stores each field JSON encoded so GetRoot can restore the value types.
func (s *RedisStore) MergeRoot(ctx context.Context, roomID string, root map[string]interface{}) error {
	if len(root) == 0 {
		return nil
	}
	fields := make(map[string]interface{}, len(root))
	for k, v := range root {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal root field %s: %w", k, err)
		}
		fields[k] = string(b)
	}
	key := s.rootKey(roomID)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis merge root for room %s: %w", roomID, err)
	}
	return nil
}

func (s *RedisStore) GetRoot(ctx context.Context, roomID string) (map[string]interface{}, error) {
	raw, err := s.rdb.HGetAll(ctx, s.rootKey(roomID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get root for room %s: %w", roomID, err)
	}
	out := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		var val interface{}
		if err := json.Unmarshal([]byte(v), &val); err != nil {
			return nil, fmt.Errorf("unmarshal root field %s: %w", k, err)
		}
		out[k] = val
	}
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, roomID string) error {
	if err := s.rdb.Del(ctx, s.stateKey(roomID), s.rootKey(roomID)).Err(); err != nil {
		return fmt.Errorf("redis delete room %s: %w", roomID, err)
	}
	return nil
}
