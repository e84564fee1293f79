package natsx

import (
	"errors"
	"sync"

	"ClassBank/logger"
)

// 预定义 Biz
const (
	BizNotifyUser = "notify.user" // classbank.notify.<key> 定向临时信号
	BizNotifyAll  = "notify.all"  // classbank.notify.all 广播临时信号
	BizRoomEvent  = "room.events" // classbank.room.<roomId> 房间事件转发给网关
)

var (
	globalCli *NatsxClient
	startOnce sync.Once

	mu              sync.Mutex
	pendingHandlers = make(map[string][]NatsxHandler) // 启动前缓存的订阅回调
)

func defaultRoutes() []NatsxRoute {
	return []NatsxRoute{
		{Biz: BizNotifyUser, Subject: "classbank.notify.%s"},
		{Biz: BizNotifyAll, Subject: "classbank.notify.all"},
		{Biz: BizRoomEvent, Subject: "classbank.room.%s"},
	}
}

// StartNats 启动全局 NATS（只会执行一次），应用启动前缓存的订阅。
func StartNats(cfg NatsxConfig) error {
	var outErr error
	startOnce.Do(func() {
		cli, err := NewNatsxClient(cfg)
		if err != nil {
			outErr = err
			return
		}
		for _, r := range defaultRoutes() {
			_ = cli.RegisterRoute(r)
		}

		mu.Lock()
		defer mu.Unlock()
		globalCli = cli
		for biz, hs := range pendingHandlers {
			for _, h := range hs {
				if err := cli.Subscribe(biz, h); err != nil {
					logger.Errorf("nats subscribe failed (biz=%s): %v", biz, err)
				}
			}
		}
		pendingHandlers = make(map[string][]NatsxHandler)
	})
	return outErr
}

// StopNats 优雅关闭
func StopNats() error {
	mu.Lock()
	defer mu.Unlock()
	if globalCli == nil {
		return nil
	}
	err := globalCli.Close()
	globalCli = nil
	return err
}

// RegisterHandler 为某个 Biz 注册订阅处理器；启动前调用会先缓存。
func RegisterHandler(biz string, h NatsxHandler) error {
	mu.Lock()
	defer mu.Unlock()
	if globalCli == nil {
		pendingHandlers[biz] = append(pendingHandlers[biz], h)
		return nil
	}
	return globalCli.Subscribe(biz, h)
}

// Publish 对外发布（需要已启动）
func Publish(biz string, data []byte) error {
	mu.Lock()
	c := globalCli
	mu.Unlock()
	if c == nil {
		return errors.New("nats not started")
	}
	return c.Publish(biz, data)
}

// PublishTo 带 subject 占位参数的发布
func PublishTo(biz, arg string, data []byte) error {
	mu.Lock()
	c := globalCli
	mu.Unlock()
	if c == nil {
		return errors.New("nats not started")
	}
	return c.PublishTo(biz, arg, data)
}
