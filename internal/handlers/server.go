// internal/handlers/server.go
package handlers

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/playtable/coordinator/internal/auth"
	"github.com/playtable/coordinator/internal/room"
)

// Server owns the room registry and dispatches decoded client packets
// to it. One Server serves every connection.
type Server struct {
	Registry *room.Registry
	Logger   *logrus.Logger
}

func NewServer(logger *logrus.Logger, registry *room.Registry) *Server {
	return &Server{
		Registry: registry,
		Logger:   logger,
	}
}

// session tracks what the coordinator knows about one live connection
// across messages: its client handle and the room it joined (or is
// pending approval for), so a connection drop can be routed.
type session struct {
	client   *room.Client
	roomCode string
}

// hostRelayTypes are gameplay sidechannel messages delivered to the
// room's host connection only, never broadcast room-wide.
var hostRelayTypes = map[string]bool{
	"send_hand_update":      true,
	"play_card":             true,
	"mulligan_decision":     true,
	"mobile_update_life":    true,
	"mobile_update_counter": true,
}

// HandleMessage interprets the "type" field of a decoded packet. All
// failures are local to the message: a stale room or seat reference is
// a silent no-op, and user-visible errors go back as targeted packets.
func (s *Server) HandleMessage(sess *session, pkt map[string]interface{}) {
	msgType, _ := pkt["type"].(string)

	if hostRelayTypes[msgType] {
		if rm, ok := s.resolveRoom(sess, pkt); ok {
			rm.RelayToHost(sess.client.ConnID, msgType, pkt)
		}
		return
	}

	switch msgType {
	case "join_room":
		s.handleJoin(sess, pkt)

	case "resolve_join_request":
		if rm, ok := s.resolveRoom(sess, pkt); ok {
			applicantID, _ := pkt["applicantId"].(string)
			approved, _ := pkt["approved"].(bool)
			rm.ResolveJoinRequest(sess.client.ConnID, applicantID, approved)
		}

	case "get_players":
		if rm, ok := s.resolveRoom(sess, pkt); ok {
			rm.SendRoster(sess.client)
		}

	case "update_player_order":
		if rm, ok := s.resolveRoom(sess, pkt); ok {
			rm.UpdatePlayerOrder(sess.client.ConnID, parseUserIDList(pkt["players"]))
		}

	case "update_player_color":
		if rm, ok := s.resolveRoom(sess, pkt); ok {
			color, _ := pkt["color"].(string)
			rm.UpdatePlayerColor(sess.client.ConnID, color)
		}

	case "kick_player":
		if rm, ok := s.resolveRoom(sess, pkt); ok {
			targetID, _ := pkt["targetId"].(string)
			rm.Kick(sess.client.ConnID, targetID)
		}

	case "leave_room":
		if rm, ok := s.resolveRoom(sess, pkt); ok {
			rm.Leave(sess.client.ConnID)
			sess.roomCode = ""
		}

	case "backup_state":
		if rm, ok := s.resolveRoom(sess, pkt); ok {
			if idx, ok := intField(pkt, "seatIndex"); ok {
				rm.BackupState(sess.client.ConnID, idx, pkt["state"])
			}
		}

	case "request_state":
		if rm, ok := s.resolveRoom(sess, pkt); ok {
			if idx, ok := intField(pkt, "seatIndex"); ok {
				rm.RequestState(sess.client, idx)
			}
		}

	case "admin_assign_state":
		if rm, ok := s.resolveRoom(sess, pkt); ok {
			targetID, _ := pkt["targetId"].(string)
			if idx, ok := intField(pkt, "seatIndex"); ok {
				rm.AdminAssignState(sess.client.ConnID, targetID, idx)
			}
		}

	case "game_action":
		if rm, ok := s.resolveRoom(sess, pkt); ok {
			action, _ := pkt["action"].(string)
			if action != "" {
				rm.RelayGameAction(sess.client.ConnID, action, pkt["data"])
			}
		}

	case "request_claim_slot":
		if rm, ok := s.resolveRoom(sess, pkt); ok {
			slotID, _ := pkt["slotId"].(string)
			displayName, _ := pkt["displayName"].(string)
			rm.RequestClaimSlot(sess.client, slotID, pkt["deck"], pkt["tokens"], displayName)
			if sess.roomCode == "" {
				sess.roomCode = rm.Code
			}
		}

	case "confirm_slot_claim":
		if rm, ok := s.resolveRoom(sess, pkt); ok {
			applicantID, _ := pkt["applicantId"].(string)
			approved, _ := pkt["approved"].(bool)
			reason, _ := pkt["reason"].(string)
			rm.ResolveSlotClaim(sess.client.ConnID, applicantID, approved, reason)
		}

	default:
		s.Logger.WithFields(logrus.Fields{
			"conn": sess.client.ConnID,
			"msg":  msgType,
		}).Warn("unknown message type")
		sess.client.WriteError("unknown message type: " + msgType)
	}
}

// handleJoin verifies or mints the durable token, then runs the join
// protocol. The minted token rides back on join_success for the client
// to cache.
func (s *Server) handleJoin(sess *session, pkt map[string]interface{}) {
	code, _ := pkt["room"].(string)
	if room.NormalizeCode(code) == "" {
		sess.client.Write(map[string]interface{}{
			"type":    "join_error",
			"message": "missing room code",
		})
		return
	}
	name, _ := pkt["name"].(string)
	color, _ := pkt["color"].(string)
	isTable, _ := pkt["isTable"].(bool)

	token, _ := pkt["userId"].(string)
	userID, err := auth.VerifyUserToken(token)
	if err != nil {
		// Absent or invalid token: mint a fresh identity.
		userID = uuid.New()
		token, err = auth.MintUserToken(userID)
		if err != nil {
			s.Logger.WithError(err).Error("failed to mint durable user token")
			sess.client.WriteError("internal error")
			return
		}
	}

	// A room can be torn down between GetOrCreate and Join (last seat
	// leaves on another connection); a closed room asks us to resolve
	// the code again, which creates a fresh one.
	rm := s.Registry.GetOrCreate(code)
	outcome := rm.Join(sess.client, name, color, userID, token, isTable)
	for outcome == room.JoinRoomClosed {
		rm = s.Registry.GetOrCreate(code)
		outcome = rm.Join(sess.client, name, color, userID, token, isTable)
	}
	if outcome != room.JoinRejected {
		sess.roomCode = rm.Code
	}
}

// resolveRoom finds the room a packet addresses, preferring its "room"
// field and falling back to the session's joined room. A missing room
// is a silent no-op per the stale-reference policy.
func (s *Server) resolveRoom(sess *session, pkt map[string]interface{}) (*room.Room, bool) {
	code, _ := pkt["room"].(string)
	if room.NormalizeCode(code) == "" {
		code = sess.roomCode
	}
	if code == "" {
		return nil, false
	}
	return s.Registry.Get(code)
}

// intField reads a JSON number field as an int.
func intField(pkt map[string]interface{}, key string) (int, bool) {
	f, ok := pkt[key].(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// parseUserIDList accepts either bare user id strings or player objects
// with a userId field, matching what the board UI sends.
func parseUserIDList(raw interface{}) []uuid.UUID {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		var s string
		switch v := item.(type) {
		case string:
			s = v
		case map[string]interface{}:
			s, _ = v["userId"].(string)
		}
		if id, err := uuid.Parse(s); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
