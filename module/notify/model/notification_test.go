package model

import "testing"

func TestMatchesContext(t *testing.T) {
	n := &Notification{
		ID:      "msg-1:kim_minsoo_school_kr",
		Message: "Kim Minsoo sent you a message",
		Action:  "open-room",
		ActionData: map[string]string{
			"roomId": "r42",
		},
	}

	if !n.MatchesContext("roomId", "r42") {
		t.Fatalf("notification bound to r42 should match that context")
	}
	if n.MatchesContext("roomId", "r43") {
		t.Fatalf("different room must not match")
	}
	if n.MatchesContext("userId", "r42") {
		t.Fatalf("different context kind must not match")
	}

	bare := &Notification{ID: "n2", Message: "tax due"}
	if bare.MatchesContext("roomId", "r42") {
		t.Fatalf("notification without action data never matches")
	}
}
