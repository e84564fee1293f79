package service

import (
	"testing"
	"time"

	"ClassBank/module/identity/model"
)

func TestGroupDuplicates(t *testing.T) {
	records := []*model.UserRecord{
		{Key: "kim_minsoo_school_kr", Email: "kim.minsoo@school.kr"},
		{Key: "kim-minsoo-old", Email: "Kim.Minsoo@School.KR"}, // 大小写漂移，同一组
		{Key: "lee_jiwoo_school_kr", Email: "lee.jiwoo@school.kr"},
		{Key: "no-email-legacy"}, // 无邮箱，无从判定
	}

	groups := GroupDuplicates(records)
	if len(groups) != 1 {
		t.Fatalf("expected exactly one duplicate group, got %d", len(groups))
	}
	g, ok := groups["kim_minsoo_school_kr"]
	if !ok || len(g) != 2 {
		t.Fatalf("expected kim group of 2, got %+v", groups)
	}
}

// 余额取最大值而不是求和：副本是漂移，不是独立资金
func TestBuildMergedRecordBalancesMaxNotSum(t *testing.T) {
	group := []*model.UserRecord{
		{Key: "kim_minsoo_school_kr", Email: "kim.minsoo@school.kr", BalanceKRW: 3000, BalanceUSD: 10},
		{Key: "kim-minsoo-old", Email: "kim.minsoo@school.kr", BalanceKRW: 5000, BalanceUSD: 4},
	}

	merged := BuildMergedRecord("kim_minsoo_school_kr", group)
	if merged.BalanceKRW != 5000 {
		t.Fatalf("KRW should be max(3000,5000)=5000, got %d", merged.BalanceKRW)
	}
	if merged.BalanceUSD != 10 {
		t.Fatalf("USD should be max(10,4)=10, got %d", merged.BalanceUSD)
	}
}

func TestBuildMergedRecordConcatAndDedup(t *testing.T) {
	group := []*model.UserRecord{
		{
			Key: "kim_minsoo_school_kr", Email: "kim.minsoo@school.kr",
			Transactions: []model.Transaction{
				{ID: "t2", Timestamp: 200},
				{ID: "t1", Timestamp: 100},
			},
		},
		{
			Key: "kim-minsoo-old", Email: "kim.minsoo@school.kr",
			Transactions: []model.Transaction{
				{ID: "t1", Timestamp: 100}, // 两边都有，只留一份
				{ID: "t3", Timestamp: 300},
			},
			LinkedAccounts: []string{"partner_a", "kim_minsoo_school_kr"}, // 自指链接要剔除
		},
	}

	merged := BuildMergedRecord("kim_minsoo_school_kr", group)
	if len(merged.Transactions) != 3 {
		t.Fatalf("expected 3 distinct transactions, got %d", len(merged.Transactions))
	}
	for i := 1; i < len(merged.Transactions); i++ {
		if merged.Transactions[i-1].Timestamp > merged.Transactions[i].Timestamp {
			t.Fatalf("transactions not sorted by timestamp: %+v", merged.Transactions)
		}
	}
	if len(merged.LinkedAccounts) != 1 || merged.LinkedAccounts[0] != "partner_a" {
		t.Fatalf("self link should be dropped, got %+v", merged.LinkedAccounts)
	}
}

func TestBuildMergedRecordStatusMostSpecific(t *testing.T) {
	group := []*model.UserRecord{
		{Key: "a", Email: "x@y.z", Status: model.StatusPending},
		{Key: "b", Email: "x@y.z", Status: model.StatusFrozen},
		{Key: "c", Email: "x@y.z", Status: model.StatusActive},
	}
	merged := BuildMergedRecord("a", group)
	if merged.Status != model.StatusFrozen {
		t.Fatalf("frozen beats active beats pending, got %q", merged.Status)
	}
}

// canonical key 上已有的记录标量优先
func TestBuildMergedRecordCanonicalScalarsFirst(t *testing.T) {
	early := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	group := []*model.UserRecord{
		{Key: "kim-minsoo-old", Email: "kim.minsoo@school.kr", Name: "Old Kim", Role: "clerk", CreateTime: early},
		{Key: "kim_minsoo_school_kr", Email: "kim.minsoo@school.kr", Name: "Kim Minsoo", CreateTime: late},
	}

	merged := BuildMergedRecord("kim_minsoo_school_kr", group)
	if merged.Name != "Kim Minsoo" {
		t.Fatalf("canonical record's name should win, got %q", merged.Name)
	}
	if merged.Role != "clerk" {
		t.Fatalf("empty canonical scalar should fall back to other copy, got %q", merged.Role)
	}
	if !merged.CreateTime.Equal(early) {
		t.Fatalf("earliest create time should be kept, got %v", merged.CreateTime)
	}
}

// 归并是幂等的：归并结果再分一次组，分不出任何重复。
func TestMergeIdempotent(t *testing.T) {
	records := []*model.UserRecord{
		{Key: "kim-minsoo-old", Email: "kim.minsoo@school.kr", BalanceKRW: 300},
		{Key: "kim_minsoo_school_kr", Email: "kim.minsoo@school.kr", BalanceKRW: 500},
		{Key: "Kim.Minsoo@School.KR", Email: "Kim.Minsoo@School.KR", BalanceKRW: 200},
		{Key: "lee_jiwoo_school_kr", Email: "lee.jiwoo@school.kr", BalanceKRW: 100},
	}

	groups := GroupDuplicates(records)
	if len(groups) != 1 {
		t.Fatalf("expected one duplicate group, got %d", len(groups))
	}

	var survivors []*model.UserRecord
	for canonKey, group := range groups {
		survivors = append(survivors, BuildMergedRecord(canonKey, group))
	}
	survivors = append(survivors, records[3]) // 没进组的照旧保留

	if again := GroupDuplicates(survivors); len(again) != 0 {
		t.Fatalf("merged output must not regroup, got %d groups", len(again))
	}

	// 再归并一条单独的合并结果也不改变它
	merged := survivors[0]
	twice := BuildMergedRecord(merged.Key, []*model.UserRecord{merged})
	if twice.BalanceKRW != merged.BalanceKRW || twice.Email != merged.Email {
		t.Fatalf("re-merging a merged record must be a no-op")
	}
}

func TestMatchesIdentifier(t *testing.T) {
	rec := &model.UserRecord{
		Key:     "kim_minsoo_school_kr",
		LoginID: "kimbank",
		Email:   "kim.minsoo@school.kr",
		Name:    "Kim Minsoo",
	}

	cases := []struct {
		identifier string
		want       bool
	}{
		{"KIM.MINSOO@SCHOOL.KR", true}, // 邮箱不分大小写
		{"KimBank", true},              // 登录ID不分大小写
		{"Kim Minsoo", true},           // 姓名精确匹配
		{"kim minsoo", false},          // 姓名大小写敏感
		{"someone@else.kr", false},
		{"", false},
	}
	for _, c := range cases {
		if got := MatchesIdentifier(rec, c.identifier); got != c.want {
			t.Fatalf("MatchesIdentifier(%q) = %v, want %v", c.identifier, got, c.want)
		}
	}
}
