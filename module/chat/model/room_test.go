package model

import "testing"

// 未读口径：lastTimestamp > readStatus[p] 或手动标了未读
func TestIsUnreadFor(t *testing.T) {
	room := &ChatRoom{
		Participants:  []string{"kim_minsoo", "lee_jiwoo"},
		LastTimestamp: 1000,
		ReadStatus:    map[string]int64{"kim_minsoo": 1000, "lee_jiwoo": 500},
	}

	if room.IsUnreadFor("kim_minsoo") {
		t.Fatalf("read up to last message, should not be unread")
	}
	if !room.IsUnreadFor("lee_jiwoo") {
		t.Fatalf("read watermark behind last message, should be unread")
	}

	// 从未读过的成员：watermark 缺失按 0 算
	room.Participants = append(room.Participants, "park_junho")
	if !room.IsUnreadFor("park_junho") {
		t.Fatalf("never-read participant should be unread")
	}

	// 手动未读压过已读水位
	room.ManualUnread = map[string]bool{"kim_minsoo": true}
	if !room.IsUnreadFor("kim_minsoo") {
		t.Fatalf("manual unread should win even when fully read")
	}
}

func TestOverlayViews(t *testing.T) {
	room := &ChatRoom{
		Participants: []string{"kim_minsoo", "lee_jiwoo"},
		DeletedBy:    map[string]int64{"lee_jiwoo": 900},
		MutedBy:      []string{"kim_minsoo"},
		PinnedBy:     map[string]int64{"kim_minsoo": 2},
	}

	if room.IsDeletedFor("kim_minsoo") || !room.IsDeletedFor("lee_jiwoo") {
		t.Fatalf("soft delete must be per participant")
	}
	if !room.IsMutedFor("kim_minsoo") || room.IsMutedFor("lee_jiwoo") {
		t.Fatalf("mute must be per participant")
	}
	if rank, ok := room.PinRankFor("kim_minsoo"); !ok || rank != 2 {
		t.Fatalf("pin rank lost: %d %v", rank, ok)
	}
	if _, ok := room.PinRankFor("lee_jiwoo"); ok {
		t.Fatalf("unpinned participant should report not pinned")
	}
}

func TestCanEditMetadata(t *testing.T) {
	// 无 owner：成员都能改
	open := &ChatRoom{Participants: []string{"A", "B"}}
	if !open.CanEditMetadata("A") || open.CanEditMetadata("C") {
		t.Fatalf("ownerless room: any member edits, outsiders do not")
	}

	// 有 owner：只有 owner/admins
	team := &ChatRoom{
		Participants: []string{"A", "B", "C"},
		TeamOwner:    "A",
		TeamAdmins:   []string{"B"},
	}
	if !team.CanEditMetadata("A") || !team.CanEditMetadata("B") {
		t.Fatalf("owner and admin must be allowed")
	}
	if team.CanEditMetadata("C") {
		t.Fatalf("plain member must be rejected")
	}
}

func TestSameParticipants(t *testing.T) {
	a := []string{"kim_minsoo", "lee_jiwoo"}
	b := []string{"lee_jiwoo", "kim_minsoo"}
	if !SameParticipants(a, b) {
		t.Fatalf("order must not matter")
	}
	if SameParticipants(a, []string{"kim_minsoo"}) {
		t.Fatalf("different sizes are different sets")
	}
	if SameParticipants(a, []string{"kim_minsoo", "park_junho"}) {
		t.Fatalf("different members are different sets")
	}
	// 原切片不能被排序副作用污染
	if a[0] != "kim_minsoo" || b[0] != "lee_jiwoo" {
		t.Fatalf("inputs must not be mutated")
	}
}

func TestTombstone(t *testing.T) {
	msg := &ChatMessage{
		ID:        "123",
		RoomID:    "r1",
		Sender:    "kim_minsoo",
		Text:      "secret",
		Timestamp: 42,
		Attach:    &Attachment{Kind: AttachImage, URL: "http://x/y.png"},
	}
	tomb := msg.Tombstone()
	if tomb.Text != TombstoneText || !tomb.IsDeleted {
		t.Fatalf("tombstone must replace text and flag deletion")
	}
	if tomb.Attach != nil {
		t.Fatalf("tombstone must drop the attachment")
	}
	if tomb.ID != msg.ID || tomb.Timestamp != msg.Timestamp {
		t.Fatalf("tombstone keeps id and timestamp for ordering")
	}
}
