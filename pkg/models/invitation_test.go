package models

import (
	"testing"
	"time"
)

func TestInvitation_IsExpired(t *testing.T) {
	now := time.Now()

	inv := &Invitation{ExpiresAt: now.Add(InvitationTTL)}
	if inv.IsExpired(now) {
		t.Error("invitation within TTL should not be expired")
	}

	if !inv.IsExpired(now.Add(25 * time.Hour)) {
		t.Error("invitation past its deadline should be expired")
	}
}

func TestInvitation_IsPending(t *testing.T) {
	for _, status := range []string{InvitationAccepted, InvitationExpired} {
		inv := &Invitation{Status: status}
		if inv.IsPending() {
			t.Errorf("status %q should not be pending", status)
		}
	}

	inv := &Invitation{Status: InvitationPending}
	if !inv.IsPending() {
		t.Error("pending invitation should report pending")
	}
}
