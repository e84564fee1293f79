package gateway

import (
	"fmt"
	"testing"
	"time"
)

func testClient(connID, userKey string, created time.Time) *Client {
	c := NewClient(connID, userKey, nil, 4)
	c.CreatedAt = created
	return c
}

func TestConnManagerAddRemove(t *testing.T) {
	m := NewConnManager("node-1", ManagerConf{})
	defer m.Close()

	now := time.Now()
	m.Add(testClient("c1", "kim_minsoo_school_kr", now))
	m.Add(testClient("c2", "kim_minsoo_school_kr", now)) // 同一用户第二台设备
	m.Add(testClient("c3", "lee_jiwoo_school_kr", now))

	if got := m.CountOf("kim_minsoo_school_kr"); got != 2 {
		t.Fatalf("expected 2 connections for kim, got %d", got)
	}
	if got := len(m.All()); got != 3 {
		t.Fatalf("expected 3 total connections, got %d", got)
	}

	if !m.Remove("c1") {
		t.Fatalf("removing a registered conn should report true")
	}
	if m.Remove("c1") {
		t.Fatalf("double remove should report false")
	}
	if got := m.CountOf("kim_minsoo_school_kr"); got != 1 {
		t.Fatalf("expected 1 connection left for kim, got %d", got)
	}
}

func TestConnManagerEvictsOldestOverLimit(t *testing.T) {
	m := NewConnManager("node-1", ManagerConf{MaxPerUser: 2})
	defer m.Close()

	base := time.Now()
	m.Add(testClient("old", "kim_minsoo_school_kr", base))
	m.Add(testClient("mid", "kim_minsoo_school_kr", base.Add(time.Second)))
	m.Add(testClient("new", "kim_minsoo_school_kr", base.Add(2*time.Second)))

	if got := m.CountOf("kim_minsoo_school_kr"); got != 2 {
		t.Fatalf("limit 2 must hold, got %d", got)
	}
	for _, c := range m.ClientsOf("kim_minsoo_school_kr") {
		if c.ConnID == "old" {
			t.Fatalf("oldest connection should have been evicted")
		}
	}
}

func TestConnManagerSweepsExpired(t *testing.T) {
	clock := time.Now()
	m := NewConnManager("node-1", ManagerConf{
		SessionTTL: time.Minute,
		SweepEvery: 5 * time.Millisecond,
		Clock:      func() time.Time { return clock },
	})
	defer m.Close()

	c := testClient("c1", "kim_minsoo_school_kr", clock)
	m.Add(c)
	c.ExpireAt = clock.Add(-time.Second) // 直接标成过期

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if m.CountOf("kim_minsoo_school_kr") == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expired connection was not swept")
}

// 分发和断连并发跑：摘除连接不许影响在途的 Send 写入。
func TestDispatchRacesDisconnect(t *testing.T) {
	m := NewConnManager("node-1", ManagerConf{})
	defer m.Close()
	f := NewFanout(2, 64)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			id := fmt.Sprintf("c%d", i)
			c := testClient(id, "kim_minsoo_school_kr", time.Now())
			m.Add(c)
			f.Dispatch([]*Client{c}, []byte("room_event"))
			m.Remove(id)
			// 摘除后仍可能有在途分发任务指向这条连接
			f.Dispatch([]*Client{c}, []byte("room_event"))
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("dispatch/disconnect loop did not finish")
	}
}
