// internal/room/join.go
package room

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

// JoinOutcome tells the transport layer how a join resolved, so it can
// track which room a connection belongs to.
type JoinOutcome int

const (
	JoinSeated JoinOutcome = iota
	JoinReconnected
	JoinPending
	JoinRejected
	// JoinRoomClosed means the registry tore the room down while this
	// join was in flight; the caller should resolve the code again.
	JoinRoomClosed
)

// fallbackPalette is tried in order when a requested color is already
// held by a connected seat.
var fallbackPalette = []string{
	"#ef4444", "#3b82f6", "#22c55e", "#eab308",
	"#a855f7", "#ec4899", "#14b8a6", "#f97316",
}

// Join processes a join_room request: reconnection by durable id, direct
// seating, or approval queueing when the game has already started.
// token is the signed durable token to echo back to the client; userID
// is the identity it encodes.
func (r *Room) Join(c *Client, name, color string, userID uuid.UUID, token string, isTable bool) JoinOutcome {
	r.Mu.Lock()

	// The registry unlinked this room between lookup and join. Seating
	// anyone here would strand them in a room no message can reach.
	if r.closed {
		r.Mu.Unlock()
		return JoinRoomClosed
	}

	// Reconnection path: a durable id matching a live seat needs no
	// approval, even mid-game.
	if seat := r.seatByUserID(userID); seat != nil {
		outcome := r.reconnectUnsafe(seat, c, token)
		r.Mu.Unlock()
		return outcome
	}

	// First seat fixes the room's game type and host.
	if len(r.Seats) == 0 {
		if isTable {
			r.GameType = GameTypeLocalTable
		} else {
			r.GameType = GameTypeStandard
		}
	}

	// Approval-gated path: game started, not a local table.
	if r.Started && r.GameType != GameTypeLocalTable {
		host := r.hostSeatUnsafe()
		if host == nil || !host.Connected() {
			// Stalled room: nobody can approve.
			r.Mu.Unlock()
			c.Write(map[string]interface{}{
				"type":    "join_error",
				"room":    r.Code,
				"message": "game in progress and no connected host to approve the join",
			})
			return JoinRejected
		}
		r.pendingJoins[c.ConnID] = &JoinRequest{
			Applicant: c,
			Name:      name,
			Color:     color,
			UserID:    userID,
			Token:     token,
		}
		host.client.Write(map[string]interface{}{
			"type":        "host_approval_request",
			"room":        r.Code,
			"applicantId": c.ConnID,
			"name":        name,
		})
		r.logEventUnsafe(c.ConnID, "join_queued", map[string]interface{}{"name": name})
		r.Mu.Unlock()
		c.Write(map[string]interface{}{
			"type": "join_pending",
			"room": r.Code,
		})
		return JoinPending
	}

	r.seatPlayerUnsafe(c, name, color, userID, token)
	r.Mu.Unlock()
	return JoinSeated
}

// reconnectUnsafe rebinds an existing seat to a fresh connection,
// restores host authority when the durable id still holds it, and
// privately redelivers any backed-up state. Assumes lock is held.
func (r *Room) reconnectUnsafe(seat *Seat, c *Client, token string) JoinOutcome {
	// Replace a silently dead connection if one is still attached.
	if seat.client != nil && seat.client != c {
		old := seat.client
		if old.Cancel != nil {
			old.Cancel()
		}
	}
	oldConnID := seat.ConnID
	if !seat.markReconnected(c) {
		return JoinRejected
	}

	if r.hostUserID == seat.UserID {
		// Host identity is tracked by durable id; the stored connection
		// id is rewritten on every reconnect.
		r.HostConnID = seat.ConnID
	} else if host := r.hostSeatUnsafe(); host == nil || !host.Connected() {
		// The recorded host is still offline; someone connected must
		// hold authority before the next broadcast.
		r.reassignHostUnsafe()
	}

	r.logger.WithFields(map[string]interface{}{
		"user": seat.UserID, "conn": seat.ConnID, "oldConn": oldConnID,
	}).Info("player reconnected")
	r.logEventUnsafe(seat.ConnID, "player_reconnected", map[string]interface{}{"user_id": seat.UserID.String()})

	c.Write(map[string]interface{}{
		"type":         "join_success",
		"room":         r.Code,
		"reconnected":  true,
		"userId":       token,
		"connectionId": seat.ConnID,
		"name":         seat.Name,
		"color":        seat.Color,
		"isHost":       seat.ConnID == r.HostConnID,
		"gameType":     string(r.GameType),
		"started":      r.Started,
	})

	// Distinct from player_joined so clients can map old identity to new.
	r.BroadcastOthersUnsafe(seat.ConnID, map[string]interface{}{
		"type":            "player_reconnected",
		"userId":          seat.UserID.String(),
		"connectionId":    seat.ConnID,
		"oldConnectionId": oldConnID,
		"name":            seat.Name,
	})
	r.broadcastRosterUnsafe()
	r.notifyUnsafe("%s reconnected", seat.Name)

	// Private redelivery of the seat's backed-up state, if any. A
	// durable id can own blobs at several indexes after a reseat; the
	// lowest index wins so redelivery does not depend on map order.
	bestIdx := -1
	for idx, backup := range r.seatState {
		if backup.UserID == seat.UserID && (bestIdx < 0 || idx < bestIdx) {
			bestIdx = idx
		}
	}
	if bestIdx >= 0 {
		c.Write(map[string]interface{}{
			"type":      "load_state",
			"seatIndex": bestIdx,
			"state":     r.seatState[bestIdx].State,
		})
	}
	return JoinReconnected
}

// seatPlayerUnsafe creates a seat with a deconflicted color, fixes the
// host on first join, replies join_success and broadcasts the roster.
// Assumes lock is held.
func (r *Room) seatPlayerUnsafe(c *Client, name, color string, userID uuid.UUID, token string) *Seat {
	seat := &Seat{
		ConnID: c.ConnID,
		UserID: userID,
		Name:   name,
		Color:  r.deconflictColorUnsafe(color),
		State:  SeatActive,
		client: c,
	}
	r.Seats = append(r.Seats, seat)

	if r.HostConnID == "" {
		r.HostConnID = seat.ConnID
		r.hostUserID = seat.UserID
	}

	r.logger.WithFields(map[string]interface{}{
		"user": userID, "conn": seat.ConnID, "name": name,
	}).Info("player joined")
	r.logEventUnsafe(seat.ConnID, "player_joined", map[string]interface{}{
		"user_id": userID.String(), "name": name,
	})

	c.Write(map[string]interface{}{
		"type":         "join_success",
		"room":         r.Code,
		"reconnected":  false,
		"userId":       token,
		"connectionId": seat.ConnID,
		"name":         seat.Name,
		"color":        seat.Color,
		"isHost":       seat.ConnID == r.HostConnID,
		"gameType":     string(r.GameType),
		"started":      r.Started,
	})
	r.BroadcastOthersUnsafe(seat.ConnID, map[string]interface{}{
		"type":         "player_joined",
		"connectionId": seat.ConnID,
		"userId":       seat.UserID.String(),
		"name":         seat.Name,
		"color":        seat.Color,
	})
	r.broadcastRosterUnsafe()
	return seat
}

// ResolveJoinRequest completes a pending approval-gated join. Host only;
// unauthorized or stale resolutions are dropped.
func (r *Room) ResolveJoinRequest(senderConnID, applicantConnID string, approved bool) {
	r.Mu.Lock()
	if senderConnID != r.HostConnID {
		r.logger.WithField("conn", senderConnID).Warn("non-host attempted to resolve a join request")
		r.Mu.Unlock()
		return
	}
	req, ok := r.pendingJoins[applicantConnID]
	if !ok {
		r.Mu.Unlock()
		return
	}
	delete(r.pendingJoins, applicantConnID)

	if approved {
		r.seatPlayerUnsafe(req.Applicant, req.Name, req.Color, req.UserID, req.Token)
		r.Mu.Unlock()
		return
	}
	r.logEventUnsafe(applicantConnID, "join_denied", nil)
	r.Mu.Unlock()
	req.Applicant.Write(map[string]interface{}{
		"type":    "join_error",
		"room":    r.Code,
		"message": "the host denied your request to join",
	})
}

// DropPendingRequests discards any join or slot-claim requests queued by
// a connection that went away before the host decided.
func (r *Room) DropPendingRequests(connID string) {
	r.Mu.Lock()
	delete(r.pendingJoins, connID)
	delete(r.pendingClaims, connID)
	r.Mu.Unlock()
}

// deconflictColorUnsafe returns the requested color unless a connected
// seat already holds it; disconnected seats do not block reuse. Falls
// back to the palette, then to a pseudo-random color. Assumes lock is held.
func (r *Room) deconflictColorUnsafe(requested string) string {
	inUse := make(map[string]bool)
	for _, s := range r.Seats {
		if s.Connected() {
			inUse[s.Color] = true
		}
	}
	if requested != "" && !inUse[requested] {
		return requested
	}
	for _, c := range fallbackPalette {
		if !inUse[c] {
			return c
		}
	}
	return fmt.Sprintf("#%02x%02x%02x", rand.Intn(256), rand.Intn(256), rand.Intn(256))
}

// UpdatePlayerColor reassigns the sender's own color if no connected
// seat holds it already.
func (r *Room) UpdatePlayerColor(connID, color string) {
	r.Mu.Lock()
	seat := r.seatByConnID(connID)
	if seat == nil || !seat.Connected() {
		r.Mu.Unlock()
		return
	}
	for _, s := range r.Seats {
		if s != seat && s.Connected() && s.Color == color {
			client := seat.client
			r.Mu.Unlock()
			client.WriteError("that color is already taken")
			return
		}
	}
	seat.Color = color
	r.broadcastRosterUnsafe()
	r.Mu.Unlock()
}
