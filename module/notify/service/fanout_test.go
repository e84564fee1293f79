package service

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// 广播写入计划：每个收件人一条、ID 确定、重跑同一 broadcastID 覆盖写。
func TestBroadcastWrites(t *testing.T) {
	keys := []string{"kim_minsoo", "lee_jiwoo", "park_junho"}
	in := Input{Message: "interest posted", Persistent: true}

	writes := broadcastWrites("7001", keys, in, 1000)
	if len(writes) != len(keys) {
		t.Fatalf("expected one write per recipient, got %d", len(writes))
	}

	for i, w := range writes {
		rep, ok := w.(*mongo.ReplaceOneModel)
		if !ok {
			t.Fatalf("write %d is not a replace model: %T", i, w)
		}
		if rep.Upsert == nil || !*rep.Upsert {
			t.Fatalf("write %d must be an upsert", i)
		}
		wantID := "7001:" + keys[i]
		if got := rep.Filter.(bson.M)["_id"]; got != wantID {
			t.Fatalf("write %d filter id = %v, want %s", i, got, wantID)
		}
	}

	// 同一 broadcastID 重跑出一模一样的 ID 集合
	again := broadcastWrites("7001", keys, in, 2000)
	for i := range writes {
		a := writes[i].(*mongo.ReplaceOneModel).Filter.(bson.M)["_id"]
		b := again[i].(*mongo.ReplaceOneModel).Filter.(bson.M)["_id"]
		if a != b {
			t.Fatalf("rerun changed id %d: %v vs %v", i, a, b)
		}
	}
}

// 裁剪边界：同一毫秒的条目按 _id 再切，窗口内的不被连坐。
func TestPruneFilterTieBreak(t *testing.T) {
	f := pruneFilter("kim_minsoo", 1000, "500")

	if f["owner_key"] != "kim_minsoo" {
		t.Fatalf("filter must be scoped to the owner")
	}
	or, ok := f["$or"].(bson.A)
	if !ok || len(or) != 2 {
		t.Fatalf("expected two-branch cutoff, got %v", f["$or"])
	}

	older := or[0].(bson.M)["created_at"].(bson.M)
	if older["$lt"] != int64(1000) {
		t.Fatalf("older branch must cut strictly below the edge timestamp")
	}

	tie := or[1].(bson.M)
	if tie["created_at"] != int64(1000) {
		t.Fatalf("tie branch must pin the edge timestamp")
	}
	if tie["_id"].(bson.M)["$lte"] != "500" {
		t.Fatalf("tie branch must cut by id at the edge")
	}
}
