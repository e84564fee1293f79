package model

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

// 数组形状：现代客户端写入的格式
func TestUnmarshalArrayShape(t *testing.T) {
	raw, err := bson.Marshal(bson.M{
		"_id":         "kim_minsoo_school_kr",
		"email":       "kim.minsoo@school.kr",
		"balance_krw": int64(5000),
		"transactions": bson.A{
			bson.M{"id": "t2", "kind": "transfer", "amount": int64(200), "currency": "KRW", "timestamp": int64(200)},
			bson.M{"id": "t1", "kind": "deposit", "amount": int64(100), "currency": "KRW", "timestamp": int64(100)},
		},
		"linked_accounts": bson.A{"partner_a"},
	})
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}

	var rec UserRecord
	if err := bson.Unmarshal(raw, &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rec.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(rec.Transactions))
	}
	if rec.Transactions[0].ID != "t1" || rec.Transactions[1].ID != "t2" {
		t.Fatalf("transactions should be sorted by timestamp, got %+v", rec.Transactions)
	}
	if len(rec.LinkedAccounts) != 1 || rec.LinkedAccounts[0] != "partner_a" {
		t.Fatalf("linked accounts: %+v", rec.LinkedAccounts)
	}
}

// map 形状：早期客户端写成 {pushKey: entry}，读边界要归一成数组
func TestUnmarshalLegacyMapShape(t *testing.T) {
	raw, err := bson.Marshal(bson.M{
		"_id":   "kim_minsoo_school_kr",
		"email": "kim.minsoo@school.kr",
		"transactions": bson.M{
			"-Nabc123": bson.M{"id": "t2", "kind": "transfer", "amount": int64(200), "currency": "KRW", "timestamp": int64(200)},
			"-Nxyz789": bson.M{"id": "t1", "kind": "deposit", "amount": int64(100), "currency": "KRW", "timestamp": int64(100)},
		},
		"notifications": bson.M{
			"-Nnnn": bson.M{"id": "n1", "message": "welcome", "created_at": int64(50)},
		},
		"linked_accounts": bson.M{"partner_a": true, "partner_b": true},
	})
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}

	var rec UserRecord
	if err := bson.Unmarshal(raw, &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rec.Transactions) != 2 {
		t.Fatalf("map-shaped transactions should normalize to 2 entries, got %d", len(rec.Transactions))
	}
	if rec.Transactions[0].ID != "t1" {
		t.Fatalf("normalized entries should sort by timestamp, got %+v", rec.Transactions)
	}
	if len(rec.Notifications) != 1 || rec.Notifications[0].Message != "welcome" {
		t.Fatalf("notifications: %+v", rec.Notifications)
	}
	if len(rec.LinkedAccounts) != 2 {
		t.Fatalf("map-shaped key set should normalize to 2 keys, got %+v", rec.LinkedAccounts)
	}
}

// 字段整个缺失时给空值，不报错
func TestUnmarshalMissingCollections(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"_id": "lee_jiwoo_school_kr", "name": "Lee Jiwoo"})
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	var rec UserRecord
	if err := bson.Unmarshal(raw, &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.Transactions != nil || rec.Notifications != nil || rec.LinkedAccounts != nil {
		t.Fatalf("missing collections should decode to nil slices")
	}
}

func TestStatusRank(t *testing.T) {
	if StatusRank(StatusClosed) <= StatusRank(StatusFrozen) {
		t.Fatalf("closed should outrank frozen")
	}
	if StatusRank(StatusFrozen) <= StatusRank(StatusActive) {
		t.Fatalf("frozen should outrank active")
	}
	if StatusRank(StatusActive) <= StatusRank(StatusPending) {
		t.Fatalf("active should outrank pending")
	}
	if StatusRank("") != -1 {
		t.Fatalf("empty status is weakest")
	}
	if StatusRank("legacy-odd-status") != StatusRank(StatusActive) {
		t.Fatalf("unknown non-empty status ranks like active")
	}
}
