// internal/room/presence.go
package room

import (
	"time"

	"github.com/google/uuid"
)

// HandleDisconnect marks a connection's seat as disconnected, starts the
// grace timer, and migrates host authority if needed. Pending requests
// queued by the connection are discarded. Call on any connection drop.
func (r *Room) HandleDisconnect(connID string) {
	r.Mu.Lock()
	delete(r.pendingJoins, connID)
	delete(r.pendingClaims, connID)

	seat := r.seatByConnID(connID)
	if seat == nil || !seat.markDisconnected(time.Now()) {
		r.Mu.Unlock()
		return
	}

	r.logger.WithFields(map[string]interface{}{
		"user": seat.UserID, "conn": connID,
	}).Info("player disconnected, grace timer started")
	r.logEventUnsafe(connID, "player_disconnected", map[string]interface{}{"user_id": seat.UserID.String()})

	if r.HostConnID == connID {
		r.reassignHostUnsafe()
	}

	// The timer is scoped to the connection id at time of disconnect;
	// a reconnect rewrites the seat's ConnID, so a stale timer that
	// still fires re-validates and no-ops.
	userID := seat.UserID
	staleConnID := connID
	seat.graceTimer = time.AfterFunc(r.GracePeriod, func() {
		r.expireGrace(userID, staleConnID)
	})

	r.broadcastRosterUnsafe()
	r.notifyUnsafe("%s disconnected, %d minutes to reconnect", seat.Name, int(r.GracePeriod.Minutes()))
	r.Mu.Unlock()

	r.finishMutation()
}

// expireGrace runs when a grace timer fires. It re-checks the seat by
// durable id rather than trusting the snapshot taken at disconnect: a
// reconnect that landed in the meantime always wins.
func (r *Room) expireGrace(userID uuid.UUID, staleConnID string) {
	r.Mu.Lock()
	seat := r.seatByUserID(userID)
	if seat == nil || seat.State != SeatGrace || seat.ConnID != staleConnID {
		r.Mu.Unlock()
		return
	}
	name := seat.Name
	r.logger.WithField("user", userID).Info("grace period expired, removing seat")
	r.logEventUnsafe(staleConnID, "seat_expired", map[string]interface{}{"user_id": userID.String()})
	r.removeSeatUnsafe(seat)
	r.broadcastRosterUnsafe()
	r.notifyUnsafe("%s left the game", name)
	r.Mu.Unlock()

	r.finishMutation()
}

// Leave removes the sender's own seat immediately, bypassing grace.
func (r *Room) Leave(connID string) {
	r.Mu.Lock()
	delete(r.pendingJoins, connID)
	delete(r.pendingClaims, connID)
	seat := r.seatByConnID(connID)
	if seat == nil {
		r.Mu.Unlock()
		return
	}
	name := seat.Name
	wasHost := r.HostConnID == connID
	r.logEventUnsafe(connID, "player_left", map[string]interface{}{"user_id": seat.UserID.String()})
	r.removeSeatUnsafe(seat)
	if wasHost {
		r.reassignHostUnsafe()
	}
	r.broadcastRosterUnsafe()
	r.notifyUnsafe("%s left the game", name)
	r.Mu.Unlock()

	r.finishMutation()
}

// Kick removes a target seat immediately. Host only; anything else is dropped.
func (r *Room) Kick(senderConnID, targetConnID string) {
	r.Mu.Lock()
	if senderConnID != r.HostConnID {
		r.logger.WithField("conn", senderConnID).Warn("non-host attempted to kick a player")
		r.Mu.Unlock()
		return
	}
	seat := r.seatByConnID(targetConnID)
	if seat == nil {
		r.Mu.Unlock()
		return
	}
	name := seat.Name
	kicked := seat.client
	wasHost := r.HostConnID == targetConnID
	r.logEventUnsafe(senderConnID, "player_kicked", map[string]interface{}{"target": targetConnID})
	r.removeSeatUnsafe(seat)
	if wasHost {
		r.reassignHostUnsafe()
	}
	r.broadcastRosterUnsafe()
	r.notifyUnsafe("%s was removed from the game", name)
	r.Mu.Unlock()

	if kicked != nil {
		kicked.Write(map[string]interface{}{
			"type":    "notification",
			"message": "you were removed from the game by the host",
		})
	}
	r.finishMutation()
}

// removeSeatUnsafe deletes a seat from the ordered list and marks it
// terminal. Seat-state blobs stay with the room for admin reseating.
// Assumes lock is held.
func (r *Room) removeSeatUnsafe(seat *Seat) {
	seat.markRemoved()
	for i, s := range r.Seats {
		if s == seat {
			r.Seats = append(r.Seats[:i], r.Seats[i+1:]...)
			break
		}
	}
}

// reassignHostUnsafe moves host authority to the first connected seat in
// seat order. Seat order is the stable tie-break, not reconnection
// recency. Assumes lock is held.
func (r *Room) reassignHostUnsafe() {
	for _, s := range r.Seats {
		if s.Connected() {
			if r.HostConnID == s.ConnID {
				return
			}
			r.HostConnID = s.ConnID
			r.hostUserID = s.UserID
			r.logger.WithFields(map[string]interface{}{
				"user": s.UserID, "conn": s.ConnID,
			}).Info("host authority reassigned")
			r.logEventUnsafe(s.ConnID, "host_changed", map[string]interface{}{"user_id": s.UserID.String()})
			r.notifyUnsafe("%s is now the host", s.Name)
			return
		}
	}
	// Nobody connected: keep the recorded host identity so a
	// reconnecting host gets authority back.
}

// UpdatePlayerOrder replaces the seat order. Host only: seat order is
// the failover priority and turn-order default, so reordering is a
// roster mutation like any other. Unknown ids are ignored; seats not
// named keep their relative order at the end.
func (r *Room) UpdatePlayerOrder(senderConnID string, orderedUserIDs []uuid.UUID) {
	r.Mu.Lock()
	if senderConnID != r.HostConnID {
		r.logger.WithField("conn", senderConnID).Warn("non-host attempted to reorder players")
		r.Mu.Unlock()
		return
	}
	reordered := make([]*Seat, 0, len(r.Seats))
	taken := make(map[*Seat]bool)
	for _, id := range orderedUserIDs {
		if seat := r.seatByUserID(id); seat != nil && !taken[seat] {
			reordered = append(reordered, seat)
			taken[seat] = true
		}
	}
	for _, s := range r.Seats {
		if !taken[s] {
			reordered = append(reordered, s)
		}
	}
	r.Seats = reordered
	r.logEventUnsafe(senderConnID, "players_reordered", nil)
	r.broadcastRosterUnsafe()
	r.Mu.Unlock()
}
