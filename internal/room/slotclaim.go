// internal/room/slotclaim.go
package room

// RequestClaimSlot forwards a companion device's request to occupy a
// labeled slot to the room's host. The claim does not mutate the seat
// list; it only gates whether the companion may attempt a normal join.
func (r *Room) RequestClaimSlot(applicant *Client, slotID string, deck, tokens interface{}, displayName string) {
	r.Mu.Lock()
	if r.GameType != GameTypeLocalTable {
		r.Mu.Unlock()
		applicant.WriteError("slot claims are only available at a local table")
		return
	}
	host := r.hostSeatUnsafe()
	if host == nil || !host.Connected() || host.client == nil {
		r.Mu.Unlock()
		applicant.WriteError("no connected host to approve the slot claim")
		return
	}
	r.pendingClaims[applicant.ConnID] = &SlotClaim{
		Applicant:   applicant,
		SlotID:      slotID,
		Deck:        deck,
		Tokens:      tokens,
		DisplayName: displayName,
	}
	r.logEventUnsafe(applicant.ConnID, "slot_claim_requested", map[string]interface{}{"slot_id": slotID})
	host.client.Write(map[string]interface{}{
		"type":        "slot_claim_request",
		"room":        r.Code,
		"applicantId": applicant.ConnID,
		"slotId":      slotID,
		"deck":        deck,
		"tokens":      tokens,
		"displayName": displayName,
	})
	r.Mu.Unlock()
}

// ResolveSlotClaim completes a pending slot claim. Host only. The
// pending entry is deleted before the applicant is notified, so a
// double resolution (the host round-trip is not atomic) is a no-op.
func (r *Room) ResolveSlotClaim(senderConnID, applicantConnID string, approved bool, reason string) {
	r.Mu.Lock()
	if senderConnID != r.HostConnID {
		r.logger.WithField("conn", senderConnID).Warn("non-host attempted to resolve a slot claim")
		r.Mu.Unlock()
		return
	}
	claim, ok := r.pendingClaims[applicantConnID]
	if !ok {
		r.Mu.Unlock()
		return
	}
	delete(r.pendingClaims, applicantConnID)
	r.logEventUnsafe(senderConnID, "slot_claim_resolved", map[string]interface{}{
		"applicant": applicantConnID, "approved": approved,
	})
	r.Mu.Unlock()

	if approved {
		claim.Applicant.Write(map[string]interface{}{
			"type":     "slot_claimed",
			"room":     r.Code,
			"slotId":   claim.SlotID,
			"approved": true,
		})
		return
	}
	if reason == "" {
		reason = "the host denied your slot claim"
	}
	claim.Applicant.Write(map[string]interface{}{
		"type":     "slot_claimed",
		"room":     r.Code,
		"slotId":   claim.SlotID,
		"approved": false,
		"reason":   reason,
	})
}
