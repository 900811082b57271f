// internal/room/journal.go
package room

import (
	"context"
	"log"
	"time"

	"github.com/playtable/coordinator/internal/cache"
)

// publishEvent pushes a room event record to the Redis journal
// asynchronously. A nil cache.Rdb (Redis not configured) disables
// journaling silently; the coordinator never depends on the journal.
func publishEvent(roomCode, actorConnID, eventType string, payload map[string]interface{}) {
	publishEventIndexed(roomCode, actorConnID, eventType, payload, 0)
}

func publishEventIndexed(roomCode, actorConnID, eventType string, payload map[string]interface{}, index int) {
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.RoomEventRecord{
		RoomCode:    roomCode,
		EventIndex:  index,
		ActorConnID: actorConnID,
		EventType:   eventType,
		Payload:     payload,
		Timestamp:   time.Now().UnixMilli(),
	}
	go func(rec cache.RoomEventRecord) {
		if cache.Rdb == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishRoomEvent(ctx, rec); err != nil {
			log.Printf("Error publishing room event %q for room %s: %v", rec.EventType, rec.RoomCode, err)
		}
	}(record)
}

// logEventUnsafe journals an event with the room's ordering counter.
// Assumes lock is held.
func (r *Room) logEventUnsafe(actorConnID, eventType string, payload map[string]interface{}) {
	r.eventIndex++
	publishEventIndexed(r.Code, actorConnID, eventType, payload, r.eventIndex)
}
