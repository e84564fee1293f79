package redis

import (
	"context"
	"sync"
	"time"

	"ClassBank/logger"

	"github.com/redis/go-redis/v9"
)

// 未读快照 / 会话缓存 / 在线状态都挂在这一个连接池上。
var (
	redisOnce sync.Once
	redisMgr  *RedisManager
)

const pingTimeout = 3 * time.Second

type RedisManager struct {
	client *redis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
	PoolSize int // 0 走 go-redis 默认
}

// InitRedis 建池并 ping 一次确认可达（单例，重复调用无效果）。
func InitRedis(c Config) error {
	var initErr error
	redisOnce.Do(func() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.Addr,
			Password: c.Password,
			DB:       c.DB,
			PoolSize: c.PoolSize,
		})

		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()

		if err := rdb.Ping(ctx).Err(); err != nil {
			initErr = err
			return
		}

		logger.Infof("[redis] connected %s db=%d", c.Addr, c.DB)
		redisMgr = &RedisManager{client: rdb}
	})
	return initErr
}

func GetRedis() *redis.Client {
	if redisMgr == nil {
		panic("redis not initialized, call InitRedis first")
	}
	return redisMgr.client
}

func CloseRedis() error {
	if redisMgr != nil && redisMgr.client != nil {
		return redisMgr.client.Close()
	}
	return nil
}
