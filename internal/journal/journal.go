// Package journal pushes outbound session events onto a Redis queue for
// out-of-process consumers (replay, analytics). It is strictly best-effort:
// a missing or failing Redis never affects session play.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quipset/quipset/internal/game"
)

// DefaultQueueName is the Redis list events are pushed to.
const DefaultQueueName = "quipset_events"

// EventRecord is the serialized form of one journaled session event.
type EventRecord struct {
	RoomCode  string                 `json:"room_code"`
	EventType string                 `json:"event_type"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

// Journal wraps the Redis client. A nil *Journal is a valid no-op journal.
type Journal struct {
	rdb   *redis.Client
	queue string
}

// Connect dials Redis and verifies the connection. queue defaults to
// DefaultQueueName when empty.
func Connect(addr, queue string) (*Journal, error) {
	if queue == "" {
		queue = DefaultQueueName
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return &Journal{rdb: rdb, queue: queue}, nil
}

// Publish serializes the event and RPUSHes it onto the queue.
func (j *Journal) Publish(ctx context.Context, roomCode string, ev game.Event) error {
	if j == nil {
		return nil
	}
	record := EventRecord{
		RoomCode:  roomCode,
		EventType: string(ev.Type),
		Payload:   ev.Payload,
		Timestamp: time.Now().Unix(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal event record: %w", err)
	}
	if err := j.rdb.RPush(ctx, j.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", j.queue, err)
	}
	return nil
}
