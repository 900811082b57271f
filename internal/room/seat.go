// internal/room/seat.go
package room

import (
	"time"

	"github.com/google/uuid"
)

// SeatState is the lifecycle state of a seat.
type SeatState int

const (
	// SeatActive means the seat has a live connection.
	SeatActive SeatState = iota
	// SeatGrace means the connection dropped and a removal timer is pending.
	SeatGrace
	// SeatRemoved is terminal; a removed seat is never resurrected.
	SeatRemoved
)

func (s SeatState) String() string {
	switch s {
	case SeatActive:
		return "active"
	case SeatGrace:
		return "grace"
	case SeatRemoved:
		return "removed"
	}
	return "unknown"
}

// Seat is one player's membership record in a room. UserID is durable
// across reconnects; ConnID is replaced on every reconnect.
type Seat struct {
	ConnID         string
	UserID         uuid.UUID
	Name           string
	Color          string
	State          SeatState
	DisconnectedAt time.Time

	client     *Client     // nil while in SeatGrace
	graceTimer *time.Timer // pending removal timer, nil while SeatActive
}

// Connected reports whether the seat currently has a live connection.
func (s *Seat) Connected() bool {
	return s.State == SeatActive
}

// markDisconnected transitions SeatActive -> SeatGrace. Returns false if
// the seat was not active (disconnect observed twice, or already removed).
func (s *Seat) markDisconnected(now time.Time) bool {
	if s.State != SeatActive {
		return false
	}
	s.State = SeatGrace
	s.DisconnectedAt = now
	s.client = nil
	return true
}

// markReconnected binds a new connection to the seat and transitions back
// to SeatActive. Valid from SeatGrace, and from SeatActive when the old
// connection died silently and is being replaced. Returns false once removed.
func (s *Seat) markReconnected(c *Client) bool {
	if s.State == SeatRemoved {
		return false
	}
	s.State = SeatActive
	s.ConnID = c.ConnID
	s.DisconnectedAt = time.Time{}
	s.client = c
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}
	return true
}

// markRemoved transitions to the terminal SeatRemoved state.
func (s *Seat) markRemoved() {
	s.State = SeatRemoved
	s.client = nil
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}
}
