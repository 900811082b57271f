// internal/room/room.go
package room

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// GameType distinguishes a standard remote table from a local table with
// companion devices. Fixed when the first seat joins.
type GameType string

const (
	GameTypeStandard   GameType = "standard"
	GameTypeLocalTable GameType = "local_table"
)

// JoinRequest is a queued approval-gated join (game already started).
type JoinRequest struct {
	Applicant *Client
	Name      string
	Color     string
	UserID    uuid.UUID
	Token     string
}

// SlotClaim is a companion device's pending request to occupy a labeled
// slot at a local table.
type SlotClaim struct {
	Applicant   *Client
	SlotID      string
	Deck        interface{}
	Tokens      interface{}
	DisplayName string
}

// SeatBackup is an opaque state blob stored per seat index, tagged with
// the durable id of the seat that pushed it.
type SeatBackup struct {
	UserID uuid.UUID
	State  interface{}
}

// Room is an isolated table instance: the unit of membership and
// broadcast scope. All mutation happens under Mu; methods suffixed
// Unsafe assume the caller holds the lock.
type Room struct {
	Code     string
	GameType GameType
	Started  bool

	// HostConnID is the connection currently holding host authority. It
	// is rewritten on every host reconnect; hostUserID carries the
	// durable identity the authority actually belongs to.
	HostConnID string
	hostUserID uuid.UUID

	// Seats is ordered: seat order is the host-failover priority.
	Seats []*Seat

	pendingJoins  map[string]*JoinRequest // applicant conn id -> request
	pendingClaims map[string]*SlotClaim   // applicant conn id -> claim
	seatState     map[int]SeatBackup      // seat index -> latest blob

	GracePeriod time.Duration

	// OnEmpty is called (outside the lock) once the room has no live
	// seats left. Typically wired to Registry.DeleteRoom.
	OnEmpty func(code string)

	// closed is set by the registry when it unlinks the room. A caller
	// still holding the pointer must not seat anyone in it.
	closed bool

	eventIndex int

	logger *logrus.Entry
	Mu     sync.Mutex
}

// NewRoom builds an empty room shell. GameType and host are fixed by the
// first successful join, not here.
func NewRoom(code string, grace time.Duration, logger *logrus.Logger) *Room {
	return &Room{
		Code:          code,
		GracePeriod:   grace,
		pendingJoins:  make(map[string]*JoinRequest),
		pendingClaims: make(map[string]*SlotClaim),
		seatState:     make(map[int]SeatBackup),
		logger:        logger.WithField("room", code),
	}
}

// seatByUserID finds the live (non-removed) seat for a durable id. Assumes lock is held.
func (r *Room) seatByUserID(userID uuid.UUID) *Seat {
	for _, s := range r.Seats {
		if s.UserID == userID && s.State != SeatRemoved {
			return s
		}
	}
	return nil
}

// seatByConnID finds the live seat bound to a connection id. Assumes lock is held.
func (r *Room) seatByConnID(connID string) *Seat {
	for _, s := range r.Seats {
		if s.ConnID == connID && s.State != SeatRemoved {
			return s
		}
	}
	return nil
}

// hostSeatUnsafe returns the seat holding host authority, if any. Assumes lock is held.
func (r *Room) hostSeatUnsafe() *Seat {
	if r.HostConnID == "" {
		return nil
	}
	return r.seatByConnID(r.HostConnID)
}

// emptyUnsafe reports whether the room should be torn down. A room
// where every seat is disconnected survives only until its grace timers
// remove the last seat. Assumes lock is held.
func (r *Room) emptyUnsafe() bool {
	return len(r.Seats) == 0
}

// BroadcastAllUnsafe sends msg to every connected seat. Assumes lock is
// held; Client.Write is non-blocking so this never stalls the caller.
func (r *Room) BroadcastAllUnsafe(msg map[string]interface{}) {
	for _, s := range r.Seats {
		if s.Connected() && s.client != nil {
			s.client.Write(msg)
		}
	}
}

// BroadcastOthersUnsafe sends msg to every connected seat except the
// named connection. Assumes lock is held.
func (r *Room) BroadcastOthersUnsafe(exceptConnID string, msg map[string]interface{}) {
	for _, s := range r.Seats {
		if s.Connected() && s.client != nil && s.ConnID != exceptConnID {
			s.client.Write(msg)
		}
	}
}

// notifyUnsafe broadcasts a human-readable notification. Assumes lock is held.
func (r *Room) notifyUnsafe(format string, args ...interface{}) {
	r.BroadcastAllUnsafe(map[string]interface{}{
		"type":    "notification",
		"message": fmt.Sprintf(format, args...),
	})
}

// rosterPayloadUnsafe builds the room_players_update message. Assumes lock is held.
func (r *Room) rosterPayloadUnsafe() map[string]interface{} {
	players := make([]map[string]interface{}, 0, len(r.Seats))
	for _, s := range r.Seats {
		players = append(players, map[string]interface{}{
			"connectionId": s.ConnID,
			"userId":       s.UserID.String(),
			"name":         s.Name,
			"color":        s.Color,
			"connected":    s.Connected(),
			"isHost":       s.ConnID == r.HostConnID,
		})
	}
	return map[string]interface{}{
		"type":    "room_players_update",
		"players": players,
		"hostId":  r.HostConnID,
	}
}

// broadcastRosterUnsafe pushes the updated seat list to everyone. Assumes lock is held.
func (r *Room) broadcastRosterUnsafe() {
	r.BroadcastAllUnsafe(r.rosterPayloadUnsafe())
}

// SendRoster replies with the current roster to a single client.
func (r *Room) SendRoster(c *Client) {
	r.Mu.Lock()
	payload := r.rosterPayloadUnsafe()
	r.Mu.Unlock()
	c.Write(payload)
}

// finishMutation runs the empty-room check after the lock has been
// released and fires OnEmpty if the room is done.
func (r *Room) finishMutation() {
	r.Mu.Lock()
	empty := r.emptyUnsafe()
	onEmpty := r.OnEmpty
	r.Mu.Unlock()
	if empty && onEmpty != nil {
		onEmpty(r.Code)
	}
}
