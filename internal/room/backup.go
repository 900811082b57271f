// internal/room/backup.go
package room

// BackupState stores the latest opaque blob for a seat index, tagged
// with the sender's own durable id. A second push to the same index
// overwrites rather than duplicates.
func (r *Room) BackupState(senderConnID string, seatIndex int, state interface{}) {
	r.Mu.Lock()
	seat := r.seatByConnID(senderConnID)
	if seat == nil || !seat.Connected() {
		r.Mu.Unlock()
		return
	}
	r.seatState[seatIndex] = SeatBackup{
		UserID: seat.UserID,
		State:  state,
	}
	r.logEventUnsafe(senderConnID, "state_backed_up", map[string]interface{}{"seat_index": seatIndex})
	r.Mu.Unlock()
}

// RequestState replies load_state with the blob at seatIndex, if one is
// stored. No blob means no reply.
func (r *Room) RequestState(c *Client, seatIndex int) {
	r.Mu.Lock()
	backup, ok := r.seatState[seatIndex]
	r.Mu.Unlock()
	if !ok {
		return
	}
	c.Write(map[string]interface{}{
		"type":      "load_state",
		"seatIndex": seatIndex,
		"state":     backup.State,
	})
}

// AdminAssignState lets the host push the blob stored at seatIndex to an
// arbitrary target connection, used to reseat a player after a table
// reorganization. The registry deliberately does not check that the
// target owns the blob; authorization here is "you are host", so every
// use is logged.
func (r *Room) AdminAssignState(senderConnID, targetConnID string, seatIndex int) {
	r.Mu.Lock()
	if senderConnID != r.HostConnID {
		r.logger.WithField("conn", senderConnID).Warn("non-host attempted admin state assignment")
		r.Mu.Unlock()
		return
	}
	backup, ok := r.seatState[seatIndex]
	target := r.seatByConnID(targetConnID)
	if !ok || target == nil || !target.Connected() || target.client == nil {
		r.Mu.Unlock()
		return
	}
	r.logger.WithFields(map[string]interface{}{
		"host": senderConnID, "target": targetConnID, "seatIndex": seatIndex, "owner": backup.UserID,
	}).Warn("host reseated a player onto a stored state blob")
	r.logEventUnsafe(senderConnID, "admin_assign_state", map[string]interface{}{
		"target": targetConnID, "seat_index": seatIndex,
	})
	client := target.client
	r.Mu.Unlock()
	client.Write(map[string]interface{}{
		"type":      "load_state",
		"seatIndex": seatIndex,
		"state":     backup.State,
	})
}
