package natsx

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NatsxRoute 路由配置（按 Biz 维度注册）。
// 这里只用 Core 模式：通知的临时信号和房间事件转发都不要求持久化，
// 离线客户端靠重连后的全量拉取补齐，不靠 JetStream 回放。
type NatsxRoute struct {
	Biz     string // 业务名，如 notify.user / notify.all / room.events
	Subject string // 实际 subject，可带 %s 占位（PublishTo 填充）
	Queue   string // 队列组（为空则广播给所有订阅者）
}

// NatsxConfig 客户端配置
type NatsxConfig struct {
	Servers       []string
	Name          string
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// NatsxHandler 订阅回调
type NatsxHandler func(subject string, data []byte)

// NatsxClient 统一客户端
type NatsxClient struct {
	cfg NatsxConfig
	nc  *nats.Conn

	mu     sync.RWMutex
	routes map[string]NatsxRoute         // biz -> route
	subs   map[string]*nats.Subscription // biz -> sub
}

// NewNatsxClient 连接 NATS
func NewNatsxClient(cfg NatsxConfig) (*NatsxClient, error) {
	if len(cfg.Servers) == 0 {
		return nil, errors.New("nats servers missing")
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 500 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}

	nc, err := nats.Connect(strings.Join(cfg.Servers, ","),
		nats.Name(cfg.Name),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}

	return &NatsxClient{
		cfg:    cfg,
		nc:     nc,
		routes: make(map[string]NatsxRoute),
		subs:   make(map[string]*nats.Subscription),
	}, nil
}

// RegisterRoute 注册/覆盖一条 Biz 路由
func (c *NatsxClient) RegisterRoute(r NatsxRoute) error {
	if r.Biz == "" || r.Subject == "" {
		return errors.New("biz and subject are required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes[r.Biz] = r
	return nil
}

func (c *NatsxClient) route(biz string) (NatsxRoute, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.routes[biz]
	return r, ok
}

// Publish 按 Biz 路由发送
func (c *NatsxClient) Publish(biz string, data []byte) error {
	r, ok := c.route(biz)
	if !ok {
		return fmt.Errorf("route not found: %s", biz)
	}
	return c.nc.Publish(r.Subject, data)
}

// PublishTo 带占位 subject 的发送（如 classbank.notify.%s → 具体用户）
func (c *NatsxClient) PublishTo(biz string, arg string, data []byte) error {
	r, ok := c.route(biz)
	if !ok {
		return fmt.Errorf("route not found: %s", biz)
	}
	subject := r.Subject
	if strings.Contains(subject, "%s") {
		subject = fmt.Sprintf(subject, arg)
	}
	return c.nc.Publish(subject, data)
}

// Subscribe 按 Biz 订阅；占位 subject 用通配符订阅
func (c *NatsxClient) Subscribe(biz string, h NatsxHandler) error {
	r, ok := c.route(biz)
	if !ok {
		return fmt.Errorf("route not found: %s", biz)
	}
	subject := strings.ReplaceAll(r.Subject, "%s", "*")

	cb := func(m *nats.Msg) { h(m.Subject, m.Data) }

	var (
		sub *nats.Subscription
		err error
	)
	if r.Queue != "" {
		sub, err = c.nc.QueueSubscribe(subject, r.Queue, cb)
	} else {
		sub, err = c.nc.Subscribe(subject, cb)
	}
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.subs[biz] = sub
	c.mu.Unlock()
	return nil
}

// Unsubscribe 取消某个 Biz 的订阅
func (c *NatsxClient) Unsubscribe(biz string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sub, ok := c.subs[biz]; ok {
		delete(c.subs, biz)
		return sub.Unsubscribe()
	}
	return nil
}

// Close 断开连接
func (c *NatsxClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for biz, sub := range c.subs {
		_ = sub.Unsubscribe()
		delete(c.subs, biz)
	}
	c.nc.Close()
	return nil
}
