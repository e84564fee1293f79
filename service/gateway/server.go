package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"ClassBank/logger"
	chatstore "ClassBank/module/chat/store"
	"ClassBank/service/natsx"
	"ClassBank/service/storage"
	"ClassBank/tools/ids"
	"ClassBank/tools/security"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server 推送网关：订阅 natsx 的房间事件和通知信号，
// 按名单分发到本节点的在线连接。连接只收推送，入站帧一律忽略。
type Server struct {
	mgr    *ConnManager
	fanout *Fanout
	jwt    security.Options

	pingEvery   time.Duration
	presenceTTL time.Duration
}

func NewServer(nodeID string, jwt security.Options, workers, queue int) *Server {
	s := &Server{
		mgr:         NewConnManager(nodeID, ManagerConf{}),
		fanout:      NewFanout(workers, queue),
		jwt:         jwt,
		pingEvery:   30 * time.Second,
		presenceTTL: 90 * time.Second,
	}
	natsx.RegisterHandler(natsx.BizRoomEvent, s.onRoomEvent)
	natsx.RegisterHandler(natsx.BizNotifyUser, s.onNotifyUser)
	natsx.RegisterHandler(natsx.BizNotifyAll, s.onNotifyAll)
	return s
}

func (s *Server) Mgr() *ConnManager { return s.mgr }

func (s *Server) Close() { s.mgr.Close() }

// HandleWS 握手：token 走 query 参数，校验通过才升级。
func (s *Server) HandleWS(c *gin.Context) {
	token := c.Query("token")
	claims, err := security.Verify(s.jwt, token)
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	userKey := claims.Subject()
	if userKey == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[gateway] upgrade failed: %v", err)
		return
	}

	client := NewClient(ids.GenerateString(), userKey, ws, 64)
	s.mgr.Add(client)
	go client.writePump(s.pingEvery)

	{
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = storage.PresenceOnline(ctx, userKey, s.mgr.NodeID(), s.presenceTTL)
		cancel()
	}
	logger.Infof("[gateway] online user=%s conn=%s", userKey, client.ConnID)

	// 读循环只消化控制帧，出错即注销
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(s.pingEvery * 2))
	})
	_ = ws.SetReadDeadline(time.Now().Add(s.pingEvery * 2))
	for {
		if _, _, rerr := ws.ReadMessage(); rerr != nil {
			if !websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[gateway] read err user=%s conn=%s err=%v", userKey, client.ConnID, rerr)
			}
			break
		}
	}

	s.mgr.Remove(client.ConnID)
	if s.mgr.CountOf(userKey) == 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = storage.PresenceOffline(ctx, userKey)
		cancel()
	}
	logger.Infof("[gateway] offline user=%s conn=%s", userKey, client.ConnID)
}

// onRoomEvent 房间事件：有名单按名单发，软删过的人不发；
// 没名单（比如硬删后的 room_deleted）退化为全员广播。
func (s *Server) onRoomEvent(subject string, data []byte) {
	var ev chatstore.RoomEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		logger.Warn("room event decode failed", zap.String("subject", subject), zap.Error(err))
		return
	}

	recipients := ev.Participants
	if len(recipients) == 0 && ev.Room != nil {
		recipients = ev.Room.Participants
	}
	if len(recipients) == 0 {
		s.fanout.Dispatch(s.mgr.All(), data)
		return
	}

	var conns []*Client
	for _, p := range recipients {
		if ev.Room != nil && ev.Room.IsDeletedFor(p) {
			continue
		}
		conns = append(conns, s.mgr.ClientsOf(p)...)
	}
	s.fanout.Dispatch(conns, data)
}

// onNotifyUser 主题尾段就是用户键：classbank.notify.<userKey>。
func (s *Server) onNotifyUser(subject string, data []byte) {
	idx := strings.LastIndex(subject, ".")
	if idx < 0 || idx == len(subject)-1 {
		return
	}
	userKey := subject[idx+1:]
	if userKey == "all" {
		return // 全员信号走 onNotifyAll
	}
	s.fanout.Dispatch(s.mgr.ClientsOf(userKey), data)
}

func (s *Server) onNotifyAll(subject string, data []byte) {
	s.fanout.Dispatch(s.mgr.All(), data)
}
