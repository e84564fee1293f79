package cache

import (
	"testing"

	"ClassBank/module/identity/model"
)

func fullLocal() *model.UserRecord {
	return &model.UserRecord{
		Key:        "kim_minsoo_school_kr",
		Email:      "kim.minsoo@school.kr",
		Name:       "Kim Minsoo",
		Status:     model.StatusActive,
		BalanceKRW: 5000,
		Transactions: []model.Transaction{
			{ID: "t1", Kind: "deposit", Amount: 5000, Currency: "KRW", Timestamp: 100},
		},
		Notifications: []model.Notification{
			{ID: "n1", Message: "welcome", CreatedAt: 100},
		},
	}
}

func TestIsDiet(t *testing.T) {
	local := fullLocal()
	diet := &model.UserRecord{Key: local.Key, Name: local.Name}
	if !IsDiet(local, diet) {
		t.Fatalf("fresh without transactions against a loaded local should be diet")
	}
	full := fullLocal()
	if IsDiet(local, full) {
		t.Fatalf("fresh with transactions is not diet")
	}
	if IsDiet(nil, diet) || IsDiet(local, nil) {
		t.Fatalf("nil side never counts as diet")
	}
}

// diet 投影绝不能抹掉本地已加载的重型字段
func TestReconcileDietKeepsHeavyFields(t *testing.T) {
	local := fullLocal()
	diet := &model.UserRecord{
		Key:    local.Key,
		Name:   "Kim M.", // 轻字段照常采纳
		Status: model.StatusFrozen,
	}

	out := Reconcile(local, diet)
	if len(out.Transactions) != 1 || out.Transactions[0].ID != "t1" {
		t.Fatalf("transactions lost on diet merge: %+v", out.Transactions)
	}
	if len(out.Notifications) != 1 {
		t.Fatalf("notifications lost on diet merge")
	}
	if out.Name != "Kim M." {
		t.Fatalf("light field from fresh should win, got %q", out.Name)
	}
	if out.Status != model.StatusFrozen {
		t.Fatalf("status from fresh should win, got %q", out.Status)
	}
}

func TestReconcileEmptyScalarFallsBack(t *testing.T) {
	local := fullLocal()
	diet := &model.UserRecord{Key: local.Key}

	out := Reconcile(local, diet)
	if out.Email != local.Email {
		t.Fatalf("empty fresh email should fall back to local, got %q", out.Email)
	}
	if out.Name != local.Name {
		t.Fatalf("empty fresh name should fall back to local, got %q", out.Name)
	}
}

func TestReconcileFullRefreshWins(t *testing.T) {
	local := fullLocal()
	fresh := fullLocal()
	fresh.BalanceKRW = 9000
	fresh.Transactions = append(fresh.Transactions,
		model.Transaction{ID: "t2", Kind: "transfer", Amount: 4000, Currency: "KRW", Timestamp: 200})

	out := Reconcile(local, fresh)
	if out.BalanceKRW != 9000 {
		t.Fatalf("full refresh balance should win, got %d", out.BalanceKRW)
	}
	if len(out.Transactions) != 2 {
		t.Fatalf("full refresh transactions should win, got %d", len(out.Transactions))
	}
}

func TestReconcileNilSides(t *testing.T) {
	fresh := fullLocal()
	if out := Reconcile(nil, fresh); out != fresh {
		t.Fatalf("nil local should adopt fresh as-is")
	}
	local := fullLocal()
	if out := Reconcile(local, nil); out != local {
		t.Fatalf("nil fresh should keep local")
	}
}
