package service

import (
	"context"
	"regexp"
	"strings"

	"ClassBank/module/identity/model"
	"ClassBank/tools/errs"
	"ClassBank/tools/keys"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Resolver 把用户在任何表单里敲进来的标识（登录ID/邮箱/显示名/历史key）
// 解析成唯一的 canonical key。三级查找，命中即停：
//  1. 直查：canonicalize 后查 _id
//  2. 索引查：login_id / email（不区分大小写）/ name（精确）
//  3. 全表兜底扫描：老账户的 key 可能跟自身任何属性都对不上
//     （canonicalize 规则变更之前建的号、或先建号后补邮箱）
//
// 查不到返回 ErrUserNotFound；扫描命中多个返回 ErrAmbiguousUser——
// 宁可报错也不替调用方猜一个"最接近的"。
type Resolver struct {
	Coll *mongo.Collection
}

func NewResolver(db *mongo.Database) *Resolver {
	u := model.UserRecord{}
	return &Resolver{Coll: db.Collection(u.GetTableName())}
}

// Resolve 返回 canonical key。
func (r *Resolver) Resolve(ctx context.Context, identifier string) (string, error) {
	rec, err := r.ResolveRecord(ctx, identifier)
	if err != nil {
		return "", err
	}
	return rec.Key, nil
}

// ResolveRecord 同 Resolve，但带回整条记录（调用方往往马上就要读它）。
func (r *Resolver) ResolveRecord(ctx context.Context, identifier string) (*model.UserRecord, error) {
	key := keys.Canonical(identifier)
	if key == "" {
		return nil, errs.ErrUserNotFound.WrapMsg("empty identifier")
	}

	// 1) 直查
	var rec model.UserRecord
	err := r.Coll.FindOne(ctx, bson.M{"_id": key}).Decode(&rec)
	if err == nil {
		return &rec, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, errs.ErrStoreUnavailable.WrapMsg("resolver direct lookup", "err", err)
	}

	// 2) 索引查：二级属性
	matches, err := r.findByAttributes(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	if len(matches) > 1 {
		return nil, errs.ErrAmbiguousUser.WrapMsg("indexed lookup", "identifier", identifier)
	}

	// 3) 全表兜底扫描
	return r.scanFallback(ctx, identifier)
}

func (r *Resolver) findByAttributes(ctx context.Context, identifier string) ([]*model.UserRecord, error) {
	ci := primitive.Regex{Pattern: "^" + regexp.QuoteMeta(strings.TrimSpace(identifier)) + "$", Options: "i"}
	cur, err := r.Coll.Find(ctx, bson.M{"$or": []bson.M{
		{"login_id": ci},
		{"email": ci},
		{"name": strings.TrimSpace(identifier)},
	}}, options.Find().SetLimit(2))
	if err != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("resolver indexed lookup", "err", err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var out []*model.UserRecord
	for cur.Next(ctx) {
		var rec model.UserRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, errs.Wrap(err)
		}
		out = append(out, &rec)
	}
	return out, errs.Wrap(cur.Err())
}

func (r *Resolver) scanFallback(ctx context.Context, identifier string) (*model.UserRecord, error) {
	cur, err := r.Coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("resolver fallback scan", "err", err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var hit *model.UserRecord
	for cur.Next(ctx) {
		var rec model.UserRecord
		if err := cur.Decode(&rec); err != nil {
			continue // 坏文档不挡路，留给数据修复
		}
		if !MatchesIdentifier(&rec, identifier) {
			continue
		}
		if hit != nil && hit.Key != rec.Key {
			return nil, errs.ErrAmbiguousUser.WrapMsg("fallback scan", "identifier", identifier)
		}
		cp := rec
		hit = &cp
	}
	if err := cur.Err(); err != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("resolver fallback scan", "err", err)
	}
	if hit == nil {
		return nil, errs.ErrUserNotFound.WrapMsg("no record matches", "identifier", identifier)
	}
	return hit, nil
}

// MatchesIdentifier 兜底扫描的匹配口径：邮箱/登录ID不区分大小写，显示名精确。
func MatchesIdentifier(rec *model.UserRecord, identifier string) bool {
	id := strings.TrimSpace(identifier)
	if id == "" {
		return false
	}
	if rec.Email != "" && strings.EqualFold(rec.Email, id) {
		return true
	}
	if rec.LoginID != "" && strings.EqualFold(rec.LoginID, id) {
		return true
	}
	return rec.Name != "" && rec.Name == id
}

// EnsureIndexes 二级属性索引（email/login_id 建了大小写不敏感 collation，
// 正则前缀锚定也能吃到索引）。启动时调用一次。
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	u := model.UserRecord{}
	coll := db.Collection(u.GetTableName())
	ciCollation := &options.Collation{Locale: "en", Strength: 2}
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetCollation(ciCollation)},
		{Keys: bson.D{{Key: "login_id", Value: 1}}, Options: options.Index().SetCollation(ciCollation)},
		{Keys: bson.D{{Key: "name", Value: 1}}},
	})
	return errs.Wrap(err)
}
