// internal/room/registry.go
package room

import (
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Registry manages active rooms in memory, keyed by normalized room
// code. It provides thread-safe access to create, retrieve, and delete
// rooms; per-room state is guarded by each room's own mutex.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room

	gracePeriod time.Duration
	logger      *logrus.Logger
}

// NewRegistry initializes an empty Registry.
func NewRegistry(logger *logrus.Logger, gracePeriod time.Duration) *Registry {
	return &Registry{
		rooms:       make(map[string]*Room),
		gracePeriod: gracePeriod,
		logger:      logger,
	}
}

// NormalizeCode trims and upper-cases a room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GetOrCreate returns the room for code, creating an empty shell if none
// exists. Creation is idempotent; host and game type are fixed by the
// first seat to join, not here.
func (reg *Registry) GetOrCreate(code string) *Room {
	code = NormalizeCode(code)
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[code]
	if !ok {
		r = NewRoom(code, reg.gracePeriod, reg.logger)
		r.OnEmpty = reg.DeleteRoom
		reg.rooms[code] = r
		reg.logger.WithField("room", code).Info("room created")
		publishEvent(code, "", "room_created", nil)
	}
	return r
}

// Get retrieves a room without creating it.
func (reg *Registry) Get(code string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[NormalizeCode(code)]
	return r, ok
}

// DeleteRoom removes a room and everything it owns (pending requests,
// seat-state blobs go with the room object). Deleting a missing code is
// a no-op, so stale OnEmpty callbacks are harmless. The empty check is
// repeated under the room's own lock: a join that raced the OnEmpty
// trigger keeps the room alive, and a room that is unlinked is marked
// closed so a join still holding its pointer cannot seat anyone in it.
func (reg *Registry) DeleteRoom(code string) {
	code = NormalizeCode(code)
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[code]
	if !ok {
		return
	}
	r.Mu.Lock()
	if !r.emptyUnsafe() {
		r.Mu.Unlock()
		return
	}
	r.closed = true
	r.Mu.Unlock()
	delete(reg.rooms, code)
	reg.logger.WithField("room", code).Info("room deleted")
	publishEvent(code, "", "room_deleted", nil)
}

// Rooms returns a snapshot copy of the active room map, primarily for
// diagnostics. The copy keeps callers from iterating a map the registry
// is mutating.
func (reg *Registry) Rooms() map[string]*Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	out := make(map[string]*Room, len(reg.rooms))
	for k, v := range reg.rooms {
		out[k] = v
	}
	return out
}
