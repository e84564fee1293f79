package model

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// 历史数据同一个逻辑字段存在两种形状：早期客户端把 transactions/notifications
// 写成 {pushKey: entry} 的 map，后来才统一成数组。读边界在这里归一成 slice，
// 业务代码里不允许再出现按形状分支。

type userDoc struct {
	Key      string `bson:"_id"`
	LoginID  string `bson:"login_id"`
	Email    string `bson:"email"`
	Name     string `bson:"name"`
	Type     string `bson:"type"`
	Role     string `bson:"role"`
	JobTitle string `bson:"job_title"`
	Status   string `bson:"status"`
	PinHash  string `bson:"pin_hash"`

	BalanceKRW int64 `bson:"balance_krw"`
	BalanceUSD int64 `bson:"balance_usd"`

	Transactions   bson.RawValue `bson:"transactions"`
	Notifications  bson.RawValue `bson:"notifications"`
	Products       bson.RawValue `bson:"products"`
	LinkedAccounts bson.RawValue `bson:"linked_accounts"`

	CreateTime time.Time `bson:"create_time"`
	UpdateTime time.Time `bson:"update_time"`
}

func (u *UserRecord) UnmarshalBSON(data []byte) error {
	var d userDoc
	if err := bson.Unmarshal(data, &d); err != nil {
		return err
	}
	*u = UserRecord{
		Key:        d.Key,
		LoginID:    d.LoginID,
		Email:      d.Email,
		Name:       d.Name,
		Type:       d.Type,
		Role:       d.Role,
		JobTitle:   d.JobTitle,
		Status:     d.Status,
		PinHash:    d.PinHash,
		BalanceKRW: d.BalanceKRW,
		BalanceUSD: d.BalanceUSD,
		CreateTime: d.CreateTime,
		UpdateTime: d.UpdateTime,
	}

	u.Transactions = normalizeEntries[Transaction](d.Transactions)
	sort.Slice(u.Transactions, func(i, j int) bool {
		return u.Transactions[i].Timestamp < u.Transactions[j].Timestamp
	})

	u.Notifications = normalizeEntries[Notification](d.Notifications)
	sort.Slice(u.Notifications, func(i, j int) bool {
		return u.Notifications[i].CreatedAt < u.Notifications[j].CreatedAt
	})

	u.Products = normalizeEntries[Product](d.Products)
	u.LinkedAccounts = normalizeKeySet(d.LinkedAccounts)
	return nil
}

// normalizeEntries 数组原样解；map 取 values（key 是历史 push id，丢弃）。
func normalizeEntries[T any](raw bson.RawValue) []T {
	switch raw.Type {
	case bsontype.Array:
		var out []T
		if err := raw.Unmarshal(&out); err != nil {
			return nil
		}
		return out
	case bsontype.EmbeddedDocument:
		var m map[string]T
		if err := raw.Unmarshal(&m); err != nil {
			return nil
		}
		out := make([]T, 0, len(m))
		for _, v := range m {
			out = append(out, v)
		}
		return out
	default:
		return nil
	}
}

// normalizeKeySet linked_accounts 的两种形状：["key1","key2"] 或 {"key1":true}。
func normalizeKeySet(raw bson.RawValue) []string {
	switch raw.Type {
	case bsontype.Array:
		var out []string
		if err := raw.Unmarshal(&out); err != nil {
			return nil
		}
		return out
	case bsontype.EmbeddedDocument:
		var m map[string]bool
		if err := raw.Unmarshal(&m); err != nil {
			return nil
		}
		out := make([]string, 0, len(m))
		for k, on := range m {
			if on {
				out = append(out, k)
			}
		}
		sort.Strings(out)
		return out
	default:
		return nil
	}
}
