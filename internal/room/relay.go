// internal/room/relay.go
package room

// StartGameAction is the only relayed action the coordinator inspects:
// it flips the room's started flag as a side effect.
const StartGameAction = "START_GAME"

// RelayGameAction forwards an opaque game action to every other
// connected seat, tagged with the sender's connection id. The payload is
// never interpreted beyond the START_GAME side effect.
func (r *Room) RelayGameAction(senderConnID, action string, data interface{}) {
	r.Mu.Lock()
	seat := r.seatByConnID(senderConnID)
	if seat == nil || !seat.Connected() {
		r.Mu.Unlock()
		return
	}
	if action == StartGameAction && !r.Started {
		r.Started = true
		r.logger.Info("game started")
		r.logEventUnsafe(senderConnID, "game_started", nil)
	}
	r.logEventUnsafe(senderConnID, "game_action", map[string]interface{}{"action": action})
	r.BroadcastOthersUnsafe(senderConnID, map[string]interface{}{
		"type":     "game_action",
		"action":   action,
		"data":     data,
		"senderId": senderConnID,
	})
	r.Mu.Unlock()
}

// RelayToHost forwards a gameplay sidechannel message (hand updates,
// life and counter deltas, card-play intents) to the room's current host
// connection only. The host process is the authority for private state;
// companion devices just report intents.
func (r *Room) RelayToHost(senderConnID, msgType string, payload map[string]interface{}) {
	r.Mu.Lock()
	seat := r.seatByConnID(senderConnID)
	host := r.hostSeatUnsafe()
	if seat == nil || host == nil || !host.Connected() || host.client == nil {
		r.Mu.Unlock()
		return
	}
	msg := make(map[string]interface{}, len(payload)+2)
	for k, v := range payload {
		msg[k] = v
	}
	msg["type"] = msgType
	msg["senderId"] = senderConnID
	host.client.Write(msg)
	r.Mu.Unlock()
}
