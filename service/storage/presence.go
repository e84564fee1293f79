package storage

import (
	"context"
	"time"

	rds "ClassBank/service/storage/redis"
)

// presence key: cb:presence:<user>
// Value: gateway node id, TTL controls the online validity period.

func presenceKey(user string) string { return "cb:presence:" + user }

// PresenceOnline sets the user as online and renews the TTL.
func PresenceOnline(ctx context.Context, user, nodeID string, ttl time.Duration) error {
	return rds.GetRedis().Set(ctx, presenceKey(user), nodeID, ttl).Err()
}

// PresenceOffline actively sets the user offline (deletes the key).
func PresenceOffline(ctx context.Context, user string) error {
	return rds.GetRedis().Del(ctx, presenceKey(user)).Err()
}

// PresenceGet returns the gateway node the user is attached to, "" if offline.
func PresenceGet(ctx context.Context, user string) string {
	v, err := rds.GetRedis().Get(ctx, presenceKey(user)).Result()
	if err != nil {
		return ""
	}
	return v
}
