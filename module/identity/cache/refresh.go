package cache

import (
	"context"

	"ClassBank/logger"
	"ClassBank/module/identity/model"
	"ClassBank/service/storage"

	"go.uber.org/zap"
)

// FetchFunc 一次全量刷新的取数端：可能给回完整明细，也可能给回 diet 投影。
type FetchFunc func(ctx context.Context) (*model.UserRecord, error)

// RefreshSelf "我的账户"全量刷新入口：取数 → 和会话缓存里的本地明细合并 →
// 回写缓存 → 返回合并结果。Reconcile 永不报错；取数失败才向上抛。
func RefreshSelf(ctx context.Context, userKey string, fetch FetchFunc) (*model.UserRecord, error) {
	fresh, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	local, err := storage.LoadSelf(ctx, userKey)
	if err != nil {
		// 缓存读不到只影响合并质量，不影响刷新本身
		logger.Warn("session cache read failed, treating local as empty",
			zap.String("key", userKey), zap.Error(err))
		local = nil
	}

	merged := Reconcile(local, fresh)

	if IsDiet(local, fresh) {
		logger.Debug("diet projection detected, heavy fields kept from local",
			zap.String("key", userKey))
	}

	if err := storage.StoreSelf(ctx, userKey, merged); err != nil {
		logger.Warn("session cache write failed", zap.String("key", userKey), zap.Error(err))
	}
	return merged, nil
}
