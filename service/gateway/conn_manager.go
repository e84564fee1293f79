package gateway

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ===== 配置 =====

type ManagerConf struct {
	SessionTTL time.Duration    // 已授权连接的 TTL
	SweepEvery time.Duration    // 清理周期
	MaxPerUser int              // 每用户最大连接数（<=0 不限制）
	Clock      func() time.Time // 可注入时钟（单测用）；nil => time.Now
}

func (c *ManagerConf) norm() {
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.SweepEvery <= 0 {
		c.SweepEvery = 30 * time.Second
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 12 * time.Hour
	}
	if c.MaxPerUser <= 0 {
		c.MaxPerUser = 8
	}
}

// ConnManager 连接登记表。主索引 connID，辅助索引 userKey -> 多端连接。
type ConnManager struct {
	mu     sync.RWMutex
	byConn map[string]*Client
	byUser map[string]map[string]*Client // userKey -> (connID -> client)

	conf     ManagerConf
	stopOnce sync.Once
	stopCh   chan struct{}
	nodeID   string
}

func NewConnManager(nodeID string, conf ManagerConf) *ConnManager {
	conf.norm()
	m := &ConnManager{
		byConn: make(map[string]*Client),
		byUser: make(map[string]map[string]*Client),
		conf:   conf,
		nodeID: nodeID,
		stopCh: make(chan struct{}),
	}
	go m.sweeper()
	return m
}

func (m *ConnManager) NodeID() string { return m.nodeID }

// Add 登记一条已鉴权连接。超过 MaxPerUser 时淘汰该用户最老的一条。
func (m *ConnManager) Add(c *Client) {
	now := m.conf.Clock()
	c.ExpireAt = now.Add(m.conf.SessionTTL)

	m.mu.Lock()
	defer m.mu.Unlock()

	set := m.byUser[c.UserKey]
	if set == nil {
		set = make(map[string]*Client)
		m.byUser[c.UserKey] = set
	}
	if len(set) >= m.conf.MaxPerUser {
		var oldest *Client
		for _, x := range set {
			if oldest == nil || x.CreatedAt.Before(oldest.CreatedAt) {
				oldest = x
			}
		}
		if oldest != nil {
			m.dropLocked(oldest)
		}
	}
	set[c.ConnID] = c
	m.byConn[c.ConnID] = c
}

// Remove 注销（读循环退出时调用）。返回是否真的摘掉了。
func (m *ConnManager) Remove(connID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byConn[connID]
	if !ok {
		return false
	}
	m.dropLocked(c)
	return true
}

// ClientsOf 某个用户当前的所有连接快照。
func (m *ConnManager) ClientsOf(userKey string) []*Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := m.byUser[userKey]
	if len(set) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(set))
	for _, c := range set {
		out = append(out, c)
	}
	return out
}

// All 全部在线连接快照。
func (m *ConnManager) All() []*Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Client, 0, len(m.byConn))
	for _, c := range m.byConn {
		out = append(out, c)
	}
	return out
}

// CountOf 某个用户的在线连接数（0 表示不在线）。
func (m *ConnManager) CountOf(userKey string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byUser[userKey])
}

func (m *ConnManager) Close() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byConn {
		closeQuiet(c)
	}
	m.byConn = map[string]*Client{}
	m.byUser = map[string]map[string]*Client{}
}

// dropLocked 摘索引并关底层连接；调用方持写锁。
func (m *ConnManager) dropLocked(c *Client) {
	delete(m.byConn, c.ConnID)
	if set := m.byUser[c.UserKey]; set != nil {
		delete(set, c.ConnID)
		if len(set) == 0 {
			delete(m.byUser, c.UserKey)
		}
	}
	closeQuiet(c)
}

func (m *ConnManager) sweeper() {
	t := time.NewTicker(m.conf.SweepEvery)
	defer t.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case now := <-t.C:
			m.mu.Lock()
			for _, c := range m.byConn {
				if now.After(c.ExpireAt) {
					m.dropLocked(c)
				}
			}
			m.mu.Unlock()
		}
	}
}

// closeQuiet 只关底层连接，不动 Send 队列：
// 分发 worker 可能正在往 Send 写，关了队列会炸。
// writePump 在写或 ping 失败后自行退出。
func closeQuiet(c *Client) {
	if c.WS == nil {
		return
	}
	_ = c.WS.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
		time.Now().Add(time.Second))
	_ = c.WS.Close()
}
