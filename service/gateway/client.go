package gateway

import (
	"time"

	"github.com/gorilla/websocket"
)

// Client 网关上的一条用户会话。网关只做单向推送，
// 一个用户可以有多端连接，各自独立维护。
type Client struct {
	ConnID  string          // 连接 ID（节点内唯一，雪花串）
	UserKey string          // 规范键（鉴权后确定）
	WS      *websocket.Conn // WebSocket 连接对象
	Send    chan []byte     // 出站队列（单写协程消费）

	CreatedAt time.Time
	ExpireAt  time.Time // 到期由 sweeper 清理
}

func NewClient(connID, userKey string, ws *websocket.Conn, sendQueueSize int) *Client {
	now := time.Now()
	return &Client{
		ConnID:    connID,
		UserKey:   userKey,
		WS:        ws,
		Send:      make(chan []byte, sendQueueSize),
		CreatedAt: now,
	}
}

// writePump 单写协程。连接被管理器关掉后，
// 下一次写或 ping 报错即退出，Send 队列不关闭。
func (c *Client) writePump(pingEvery time.Duration) {
	ticker := time.NewTicker(pingEvery)
	defer func() {
		ticker.Stop()
		_ = c.WS.Close()
	}()
	for {
		select {
		case payload := <-c.Send:
			_ = c.WS.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.WS.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.WS.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.WS.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
