package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	mongoutil "ClassBank/data/database/mgo/mongoutil"
	"ClassBank/global/config"
	"ClassBank/module/identity/model"
	"ClassBank/tools/errs"
	"ClassBank/tools/ids"
	"ClassBank/tools/keys"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateUser 建档。key 一律从邮箱（缺省则登录ID）派生，别处不允许再造 key。
func (r *Resolver) CreateUser(ctx context.Context, rec *model.UserRecord) (string, error) {
	src := rec.Email
	if src == "" {
		src = rec.LoginID
	}
	key := keys.Canonical(src)
	if key == "" {
		return "", errs.New("cannot derive a key: email and login id both empty")
	}
	rec.Key = key
	if rec.Status == "" {
		rec.Status = model.StatusPending
	}
	now := time.Now()
	rec.CreateTime = now
	rec.UpdateTime = now

	_, err := r.Coll.InsertOne(ctx, rec)
	if mongo.IsDuplicateKeyError(err) {
		return key, nil // 已建档，按幂等处理
	}
	if err != nil {
		return "", errs.ErrStoreUnavailable.WrapMsg("create user", "err", err)
	}
	return key, nil
}

// Login 解析 + 验口令。"账户不存在"和"口令错误"必须是两个不同的错误，
// 前端要分别提示，不许混成一句。
func (r *Resolver) Login(ctx context.Context, identifier, pin string) (*model.UserRecord, error) {
	rec, err := r.ResolveRecord(ctx, identifier)
	if err != nil {
		return nil, err // ErrUserNotFound / ErrAmbiguousUser 原样上抛
	}
	if rec.PinHash != "" {
		if subtle.ConstantTimeCompare([]byte(HashPin(pin)), []byte(rec.PinHash)) != 1 {
			return nil, errs.ErrWrongCredentials.Wrap()
		}
	}
	return rec, nil
}

func HashPin(pin string) string {
	sum := sha256.Sum256([]byte(pin))
	return hex.EncodeToString(sum[:])
}

// AppendTransaction 记一笔流水：余额用 $inc 原子增减（绝不做读-改-写），
// 流水 $push + $slice 只留最近 N 条。单次 update，多端并发转账不丢更新。
func (r *Resolver) AppendTransaction(ctx context.Context, userKey string, tx model.Transaction) error {
	if tx.ID == "" {
		tx.ID = ids.GenerateString()
	}
	if tx.Timestamp == 0 {
		tx.Timestamp = time.Now().UnixMilli()
	}

	balanceField := "balance_krw"
	if tx.Currency == "USD" {
		balanceField = "balance_usd"
	}
	cap := config.Global.TxLogCap
	if cap <= 0 {
		cap = model.TxLogCap
	}

	res, err := r.Coll.UpdateOne(ctx,
		bson.M{"_id": userKey},
		bson.M{
			"$inc": bson.M{balanceField: tx.Amount},
			"$push": bson.M{"transactions": bson.M{
				"$each":  []model.Transaction{tx},
				"$slice": -cap, // 只保留最近 cap 条
			}},
			"$set": bson.M{"update_time": time.Now()},
		},
	)
	if err != nil {
		return errs.ErrStoreUnavailable.WrapMsg("append transaction", "err", err)
	}
	if res.MatchedCount == 0 {
		return errs.ErrUserNotFound.WrapMsg("append transaction", "key", userKey)
	}
	return nil
}

// LinkAccounts 关联账户，对称写：A→B 和 B→A 同一事务，$addToSet 天然幂等。
func LinkAccounts(ctx context.Context, cli *mongoutil.Client, keyA, keyB string) error {
	if keyA == "" || keyB == "" || keyA == keyB {
		return errs.New("link needs two distinct keys", "a", keyA, "b", keyB)
	}
	u := model.UserRecord{}
	coll := cli.GetDB().Collection(u.GetTableName())

	return cli.WithTransaction(ctx, func(sc mongo.SessionContext) error {
		for _, pair := range [][2]string{{keyA, keyB}, {keyB, keyA}} {
			res, err := coll.UpdateOne(sc,
				bson.M{"_id": pair[0]},
				bson.M{
					"$addToSet": bson.M{"linked_accounts": pair[1]},
					"$set":      bson.M{"update_time": time.Now()},
				},
			)
			if err != nil {
				return err
			}
			if res.MatchedCount == 0 {
				return errs.ErrUserNotFound.WithDetail(pair[0])
			}
		}
		return nil
	})
}

// ListUserKeys 广播扇出用：全量 key 枚举（只投影 _id）。
func (r *Resolver) ListUserKeys(ctx context.Context) ([]string, error) {
	cur, err := r.Coll.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("list user keys", "err", err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var out []string
	for cur.Next(ctx) {
		var doc struct {
			Key string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err == nil && doc.Key != "" {
			out = append(out, doc.Key)
		}
	}
	return out, errs.Wrap(cur.Err())
}
