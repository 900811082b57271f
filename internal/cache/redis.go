// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/playtable/coordinator/internal/config"
)

// Rdb is the global Redis client. Connect it once at application
// startup; when nil, journaling is disabled and publishes are dropped.
var Rdb *redis.Client

// DefaultQueueName is the Redis list (queue) name for room event records.
var DefaultQueueName = "table_room_events"

// RoomEventRecord holds the minimal info an external consumer needs to
// reconstruct what happened at a table. The coordinator itself never
// reads these back; room state lives only in process memory.
type RoomEventRecord struct {
	RoomCode    string                 `json:"room_code"`
	EventIndex  int                    `json:"event_index"`
	ActorConnID string                 `json:"actor_conn_id,omitempty"`
	EventType   string                 `json:"event_type"`
	Payload     map[string]interface{} `json:"payload"`
	Timestamp   int64                  `json:"timestamp"`
}

// ConnectRedis initializes the global Redis client with environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func ConnectRedis() error {
	addr := config.GetEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := config.GetEnvInt("REDIS_DB", 0)

	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		Rdb = nil
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// PublishRoomEvent serializes the given record to JSON, then pushes it
// onto the journal queue. Fire and forget from the caller's view; only
// a quick network send blocks here.
func PublishRoomEvent(ctx context.Context, record RoomEventRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal RoomEventRecord: %w", err)
	}

	queueName := config.GetEnv("JOURNAL_QUEUE_NAME", DefaultQueueName)
	if err := Rdb.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", queueName, err)
	}
	return nil
}
