package storage

import (
	"context"

	rds "ClassBank/service/storage/redis"
)

// —— 未读角标计数（best-effort）——
//
// 权威口径永远是 lastTimestamp vs readStatus 的推导（chat store.IsUnreadFor），
// 这里只是给列表页省一轮扫描的计数器，丢了可以随时重算。

func unreadKey(participant string) string { return "cb:unread:" + participant }

// BumpUnread 新消息到达时给除发送者外的成员 +1。
func BumpUnread(ctx context.Context, participant, roomID string) error {
	return rds.GetRedis().HIncrBy(ctx, unreadKey(participant), roomID, 1).Err()
}

// ClearUnread 已读后清零该房间的计数。
func ClearUnread(ctx context.Context, participant, roomID string) error {
	return rds.GetRedis().HDel(ctx, unreadKey(participant), roomID).Err()
}

// UnreadCounts 列表页一次取全；错误时返回空表，调用方回落到推导口径。
func UnreadCounts(ctx context.Context, participant string) map[string]string {
	m, err := rds.GetRedis().HGetAll(ctx, unreadKey(participant)).Result()
	if err != nil {
		return map[string]string{}
	}
	return m
}

// DropUnread 房间硬删除时连计数一起清。
func DropUnread(ctx context.Context, participant, roomID string) error {
	return rds.GetRedis().HDel(ctx, unreadKey(participant), roomID).Err()
}
