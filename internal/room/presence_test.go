// internal/room/presence_test.go
package room

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisconnectEntersGraceAndBroadcasts(t *testing.T) {
	reg := testRegistry(time.Minute)
	ann, _ := joinPlayer(reg, "ABCD", "Ann", "#ef4444")
	bo, _ := joinPlayer(reg, "ABCD", "Bo", "#3b82f6")
	rm, _ := reg.Get("ABCD")
	drain(bo)

	rm.HandleDisconnect(bo.ConnID)

	seat := rm.Seats[1]
	assert.Equal(t, SeatGrace, seat.State)
	assert.False(t, seat.Connected())
	assert.False(t, seat.DisconnectedAt.IsZero())
	require.NotNil(t, seat.graceTimer, "a disconnected seat has a pending removal timer")

	msgs := drain(ann)
	roster := lastOfType(msgs, "room_players_update")
	require.NotNil(t, roster)
	players := roster["players"].([]map[string]interface{})
	require.Len(t, players, 2)
	assert.Equal(t, false, players[1]["connected"])
	require.NotNil(t, lastOfType(msgs, "notification"))
}

func TestDuplicateDisconnectIsNoOp(t *testing.T) {
	reg := testRegistry(time.Minute)
	ann, _ := joinPlayer(reg, "ABCD", "Ann", "#ef4444")
	bo, _ := joinPlayer(reg, "ABCD", "Bo", "#3b82f6")
	rm, _ := reg.Get("ABCD")

	rm.HandleDisconnect(bo.ConnID)
	drain(ann)
	rm.HandleDisconnect(bo.ConnID)
	assert.Empty(t, drain(ann), "second disconnect for the same connection broadcasts nothing")
}

func TestGraceExpiryRemovesSeat(t *testing.T) {
	reg := testRegistry(20 * time.Millisecond)
	ann, _ := joinPlayer(reg, "ABCD", "Ann", "#ef4444")
	bo, _ := joinPlayer(reg, "ABCD", "Bo", "#3b82f6")
	rm, _ := reg.Get("ABCD")
	drain(ann)

	rm.HandleDisconnect(bo.ConnID)
	time.Sleep(100 * time.Millisecond)

	assert.Len(t, rm.Seats, 1, "seat is purged after the grace window")
	msgs := drain(ann)
	require.NotNil(t, lastOfType(msgs, "room_players_update"))
	_, ok := reg.Get("ABCD")
	assert.True(t, ok, "room survives while a seat remains")
}

func TestGraceExpiryOfLastSeatDeletesRoom(t *testing.T) {
	reg := testRegistry(20 * time.Millisecond)
	ann, _ := joinPlayer(reg, "ABCD", "Ann", "#ef4444")
	rm, _ := reg.Get("ABCD")

	rm.HandleDisconnect(ann.ConnID)
	_, ok := reg.Get("ABCD")
	assert.True(t, ok, "room is held for the grace window")

	time.Sleep(100 * time.Millisecond)
	_, ok = reg.Get("ABCD")
	assert.False(t, ok, "last seat's expiry tears the room down")
}

func TestReconnectWithinGraceCancelsRemoval(t *testing.T) {
	reg := testRegistry(20 * time.Millisecond)
	ann := newTestClient()
	annID := uuid.New()
	rm := reg.GetOrCreate("ABCD")
	rm.Join(ann, "Ann", "#ef4444", annID, "token-ann", false)
	joinPlayer(reg, "ABCD", "Bo", "#3b82f6")

	rm.HandleDisconnect(ann.ConnID)
	ann2 := newTestClient()
	require.Equal(t, JoinReconnected, rm.Join(ann2, "Ann", "#ef4444", annID, "token-ann", false))

	time.Sleep(100 * time.Millisecond)
	require.Len(t, rm.Seats, 2)
	seat := rm.seatByUserID(annID)
	require.NotNil(t, seat, "reconnect within grace preserves the seat")
	assert.Equal(t, SeatActive, seat.State)
}

func TestGraceExpiryRevalidatesBeforeRemoving(t *testing.T) {
	reg := testRegistry(time.Minute)
	ann := newTestClient()
	annID := uuid.New()
	rm := reg.GetOrCreate("ABCD")
	rm.Join(ann, "Ann", "#ef4444", annID, "token-ann", false)
	joinPlayer(reg, "ABCD", "Bo", "#3b82f6")

	oldConnID := ann.ConnID
	rm.HandleDisconnect(ann.ConnID)
	ann2 := newTestClient()
	rm.Join(ann2, "Ann", "#ef4444", annID, "token-ann", false)

	// Simulate the stale timer firing at exactly the deadline: the
	// reconnect that already landed must win.
	rm.expireGrace(annID, oldConnID)

	require.Len(t, rm.Seats, 2)
	seat := rm.seatByUserID(annID)
	require.NotNil(t, seat)
	assert.Equal(t, SeatActive, seat.State)
}

func TestHostFailoverFollowsSeatOrder(t *testing.T) {
	reg := testRegistry(time.Minute)
	ann, _ := joinPlayer(reg, "ABCD", "Ann", "#ef4444")
	bo, _ := joinPlayer(reg, "ABCD", "Bo", "#3b82f6")
	cid, _ := joinPlayer(reg, "ABCD", "Cid", "#22c55e")
	rm, _ := reg.Get("ABCD")
	drain(bo)
	drain(cid)

	// Cid disconnects and reconnects first, then the host drops: the
	// failover tie-break is seat order, not reconnection recency.
	rm.HandleDisconnect(cid.ConnID)
	cid2 := newTestClient()
	rm.Join(cid2, "Cid", "#22c55e", rm.Seats[2].UserID, "token-cid", false)
	rm.HandleDisconnect(ann.ConnID)

	assert.Equal(t, bo.ConnID, rm.HostConnID, "first connected seat in order takes over")

	msgs := drain(bo)
	roster := lastOfType(msgs, "room_players_update")
	require.NotNil(t, roster)
	assert.Equal(t, bo.ConnID, roster["hostId"], "broadcast roster never names a disconnected host")
}

func TestHostReconnectRegainsAuthority(t *testing.T) {
	reg := testRegistry(time.Minute)
	ann := newTestClient()
	annID := uuid.New()
	rm := reg.GetOrCreate("ABCD")
	rm.Join(ann, "Ann", "#ef4444", annID, "token-ann", false)
	bo, _ := joinPlayer(reg, "ABCD", "Bo", "#3b82f6")

	// Everyone drops; the recorded host identity is kept.
	rm.HandleDisconnect(bo.ConnID)
	rm.HandleDisconnect(ann.ConnID)

	ann2 := newTestClient()
	rm.Join(ann2, "Ann", "#ef4444", annID, "token-ann", false)
	assert.Equal(t, ann2.ConnID, rm.HostConnID, "host identity is durable; the stored conn id is rewritten")
}

func TestNonHostReconnectTakesOverFromOfflineHost(t *testing.T) {
	reg := testRegistry(time.Minute)
	ann, _ := joinPlayer(reg, "ABCD", "Ann", "#ef4444")
	bo := newTestClient()
	boID := uuid.New()
	rm, _ := reg.Get("ABCD")
	rm.Join(bo, "Bo", "#3b82f6", boID, "token-bo", false)

	rm.HandleDisconnect(bo.ConnID)
	rm.HandleDisconnect(ann.ConnID)

	bo2 := newTestClient()
	rm.Join(bo2, "Bo", "#3b82f6", boID, "token-bo", false)
	assert.Equal(t, bo2.ConnID, rm.HostConnID, "a connected seat must hold authority before the next broadcast")
}

func TestLeaveBypassesGrace(t *testing.T) {
	reg := testRegistry(time.Minute)
	ann, _ := joinPlayer(reg, "ABCD", "Ann", "#ef4444")
	bo, _ := joinPlayer(reg, "ABCD", "Bo", "#3b82f6")
	rm, _ := reg.Get("ABCD")
	drain(ann)

	rm.Leave(bo.ConnID)
	assert.Len(t, rm.Seats, 1, "explicit leave removes the seat immediately")
	require.NotNil(t, lastOfType(drain(ann), "room_players_update"))
}

func TestKickIsHostOnly(t *testing.T) {
	reg := testRegistry(time.Minute)
	joinPlayer(reg, "ABCD", "Ann", "#ef4444")
	bo, _ := joinPlayer(reg, "ABCD", "Bo", "#3b82f6")
	cid, _ := joinPlayer(reg, "ABCD", "Cid", "#22c55e")
	rm, _ := reg.Get("ABCD")

	rm.Kick(bo.ConnID, cid.ConnID)
	assert.Len(t, rm.Seats, 3, "non-host kick is dropped")
}

func TestKickOfHostRunsFailover(t *testing.T) {
	reg := testRegistry(time.Minute)
	ann, _ := joinPlayer(reg, "ABCD", "Ann", "#ef4444")
	bo, _ := joinPlayer(reg, "ABCD", "Bo", "#3b82f6")
	rm, _ := reg.Get("ABCD")

	// Host removes their own seat via kick; authority must migrate.
	rm.Kick(ann.ConnID, ann.ConnID)
	require.Len(t, rm.Seats, 1)
	assert.Equal(t, bo.ConnID, rm.HostConnID)
}

func TestSeatIsNeverResurrected(t *testing.T) {
	reg := testRegistry(time.Minute)
	ann, _ := joinPlayer(reg, "ABCD", "Ann", "#ef4444")
	bo := newTestClient()
	boID := uuid.New()
	rm, _ := reg.Get("ABCD")
	rm.Join(bo, "Bo", "#3b82f6", boID, "token-bo", false)

	rm.Kick(ann.ConnID, bo.ConnID)
	require.Len(t, rm.Seats, 1)

	bo2 := newTestClient()
	outcome := rm.Join(bo2, "Bo", "#3b82f6", boID, "token-bo", false)
	assert.Equal(t, JoinSeated, outcome, "a removed seat's durable id creates a fresh seat, not a reconnection")
	require.Len(t, rm.Seats, 2)
	assert.Equal(t, SeatActive, rm.Seats[1].State)
}

func TestUpdatePlayerOrderIsHostGated(t *testing.T) {
	reg := testRegistry(time.Minute)
	ann, annID := joinPlayer(reg, "ABCD", "Ann", "#ef4444")
	bo, boID := joinPlayer(reg, "ABCD", "Bo", "#3b82f6")
	rm, _ := reg.Get("ABCD")

	rm.UpdatePlayerOrder(bo.ConnID, []uuid.UUID{boID, annID})
	assert.Equal(t, annID, rm.Seats[0].UserID, "non-host reorder is dropped")

	rm.UpdatePlayerOrder(ann.ConnID, []uuid.UUID{boID, annID})
	require.Len(t, rm.Seats, 2)
	assert.Equal(t, boID, rm.Seats[0].UserID)
	assert.Equal(t, annID, rm.Seats[1].UserID)
}

func TestUpdatePlayerOrderKeepsUnnamedSeats(t *testing.T) {
	reg := testRegistry(time.Minute)
	ann, annID := joinPlayer(reg, "ABCD", "Ann", "#ef4444")
	_, boID := joinPlayer(reg, "ABCD", "Bo", "#3b82f6")
	_, cidID := joinPlayer(reg, "ABCD", "Cid", "#22c55e")
	rm, _ := reg.Get("ABCD")

	rm.UpdatePlayerOrder(ann.ConnID, []uuid.UUID{cidID, uuid.New()})
	require.Len(t, rm.Seats, 3)
	assert.Equal(t, cidID, rm.Seats[0].UserID)
	assert.Equal(t, annID, rm.Seats[1].UserID, "unnamed seats keep their relative order")
	assert.Equal(t, boID, rm.Seats[2].UserID)
}

func TestSeatStateTransitions(t *testing.T) {
	seat := &Seat{State: SeatActive}

	assert.True(t, seat.markDisconnected(time.Now()))
	assert.Equal(t, SeatGrace, seat.State)
	assert.False(t, seat.markDisconnected(time.Now()), "grace to grace is invalid")

	c := newTestClient()
	assert.True(t, seat.markReconnected(c))
	assert.Equal(t, SeatActive, seat.State)
	assert.Equal(t, c.ConnID, seat.ConnID)
	assert.True(t, seat.DisconnectedAt.IsZero())

	seat.markRemoved()
	assert.Equal(t, SeatRemoved, seat.State)
	assert.False(t, seat.markReconnected(newTestClient()), "removed is terminal")
	assert.False(t, seat.markDisconnected(time.Now()))
}
