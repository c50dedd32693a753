// internal/journal/journal.go
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list the coordinator pushes lobby events to.
var DefaultQueueName = "lobbyd_events"

// Record holds one lobby lifecycle event for the historian service. The
// coordinator never reads these back; the journal is a fire-and-forget
// analytics feed, not coordinator state.
type Record struct {
	LobbyID   uuid.UUID              `json:"lobby_id"`
	ActorID   string                 `json:"actor_id"`
	EventType string                 `json:"event_type"`
	Payload   map[string]interface{} `json:"payload"`
	Timestamp int64                  `json:"timestamp"`
}

// Publisher pushes lobby event records onto a Redis list.
type Publisher struct {
	rdb   *redis.Client
	queue string
}

// Connect dials Redis and verifies the connection with a short ping.
// queue may be empty to use DefaultQueueName.
func Connect(addr string, db int, queue string) (*Publisher, error) {
	if queue == "" {
		queue = DefaultQueueName
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return &Publisher{rdb: rdb, queue: queue}, nil
}

// Publish serializes the record to JSON and pushes it to the queue. This
// does not block the calling logic beyond a quick network send.
func (p *Publisher) Publish(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal journal record: %w", err)
	}
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to push journal record: %w", err)
	}
	return nil
}

// Close releases the underlying Redis client.
func (p *Publisher) Close() error {
	return p.rdb.Close()
}
