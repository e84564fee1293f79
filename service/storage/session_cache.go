package storage

import (
	"context"
	"encoding/json"
	"time"

	"ClassBank/module/identity/model"
	rds "ClassBank/service/storage/redis"

	"github.com/redis/go-redis/v9"
)

// —— "我的账户"明细缓存 ——
//
// 客户端每次全量刷新拿到的可能是 diet 投影；合并结果（见 identity/cache.Reconcile）
// 落在这里，作为下一轮合并的 local 端。按登录会话隔离，登出即过期。

const selfTTL = 12 * time.Hour

func selfKey(userKey string) string { return "cb:self:" + userKey }

// LoadSelf 取出缓存的明细记录；没有缓存返回 nil（首轮刷新时 local 为空是合法状态）。
func LoadSelf(ctx context.Context, userKey string) (*model.UserRecord, error) {
	raw, err := rds.GetRedis().Get(ctx, selfKey(userKey)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec model.UserRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		// 缓存损坏按缓存缺失处理，不让一条坏记录卡死刷新
		return nil, nil
	}
	return &rec, nil
}

// StoreSelf 覆盖缓存（只有过了 Reconcile 的结果才允许进来）。
func StoreSelf(ctx context.Context, userKey string, rec *model.UserRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return rds.GetRedis().Set(ctx, selfKey(userKey), raw, selfTTL).Err()
}

// DropSelf 登出时清理。
func DropSelf(ctx context.Context, userKey string) error {
	return rds.GetRedis().Del(ctx, selfKey(userKey)).Err()
}
