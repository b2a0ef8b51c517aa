package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRecord(t *testing.T) {
	rec, err := DecodeRecord(`{"game_id":"g1","room_id":"r1","action_index":2,"actor_id":"p1","action_type":"match_started","action_payload":{"seats":4},"timestamp":10}`)
	require.NoError(t, err)
	assert.Equal(t, "g1", rec.GameID)
	assert.Equal(t, 2, rec.ActionIndex)
	assert.Equal(t, float64(4), rec.ActionPayload["seats"])

	_, err = DecodeRecord("not json")
	assert.Error(t, err)
}

func TestNewPublisherDefaultsQueue(t *testing.T) {
	assert.Equal(t, DefaultQueueName, NewPublisher(nil, "").Queue())
	assert.Equal(t, "custom", NewPublisher(nil, "custom").Queue())
}

func TestPublishGameAction(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	queue := "peekmatch_test_" + time.Now().Format("150405.000000")
	defer rdb.Del(ctx, queue)

	p := NewPublisher(rdb, queue)
	require.NoError(t, p.PublishGameAction(ctx, ActionRecord{GameID: "g1", ActionType: "match_started", Timestamp: 1}))

	raw, err := rdb.LPop(ctx, queue).Result()
	require.NoError(t, err)
	rec, err := DecodeRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, "match_started", rec.ActionType)
}

func TestConsumerPop(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	queue := "peekmatch_test_pop_" + time.Now().Format("150405.000000")
	defer rdb.Del(ctx, queue)

	c := NewConsumer(rdb, queue)
	_, ok, err := c.Pop(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok, "empty queue times out")

	require.NoError(t, NewPublisher(rdb, queue).PublishGameAction(ctx, ActionRecord{GameID: "g2", ActionIndex: 7}))
	rec, ok, err := c.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "g2", rec.GameID)
	assert.Equal(t, 7, rec.ActionIndex)

	require.NoError(t, rdb.RPush(ctx, queue, "garbage").Err())
	_, ok, err = c.Pop(ctx, time.Second)
	assert.Error(t, err)
	assert.False(t, ok)
}
