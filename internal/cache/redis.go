// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list the historian drains match action records from.
const DefaultQueueName = "peekmatch_actions"

// ActionRecord holds the minimal info the historian needs to persist one match action.
type ActionRecord struct {
	GameID        string                 `json:"game_id"`
	RoomID        string                 `json:"room_id"`
	ActionIndex   int                    `json:"action_index"`
	ActorID       string                 `json:"actor_id"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}

// Connect opens a Redis client and pings it.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Publisher pushes action records onto the historian queue.
type Publisher struct {
	rdb   redis.Cmdable
	queue string
}

// NewPublisher returns a publisher writing to queue, or DefaultQueueName when empty.
func NewPublisher(rdb redis.Cmdable, queue string) *Publisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Publisher{rdb: rdb, queue: queue}
}

// Queue returns the list name records are pushed to.
func (p *Publisher) Queue() string {
	return p.queue
}

// PublishGameAction serializes the record to JSON and pushes it to the queue.
func (p *Publisher) PublishGameAction(ctx context.Context, record ActionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal ActionRecord: %w", err)
	}
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}

// DecodeRecord parses one queued record.
func DecodeRecord(raw string) (ActionRecord, error) {
	var rec ActionRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return rec, fmt.Errorf("failed to unmarshal ActionRecord: %w", err)
	}
	return rec, nil
}

// Consumer pops action records off the historian queue.
type Consumer struct {
	rdb   redis.Cmdable
	queue string
}

func NewConsumer(rdb redis.Cmdable, queue string) *Consumer {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Consumer{rdb: rdb, queue: queue}
}

// Pop blocks up to timeout for the next record. ok is false when the queue stayed empty.
// A record that fails to decode is returned as an error and is not requeued.
func (c *Consumer) Pop(ctx context.Context, timeout time.Duration) (rec ActionRecord, ok bool, err error) {
	res, err := c.rdb.BLPop(ctx, timeout, c.queue).Result()
	if errors.Is(err, redis.Nil) {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, fmt.Errorf("BLPop %s: %w", c.queue, err)
	}
	if len(res) < 2 {
		return rec, false, nil
	}
	// res[0] is the queue name and res[1] the payload.
	rec, err = DecodeRecord(res[1])
	if err != nil {
		return rec, false, err
	}
	return rec, true, nil
}
