package service

import (
	"context"
	"encoding/json"
	"time"

	"ClassBank/logger"
	"ClassBank/module/notify/model"
	"ClassBank/service/natsx"
	"ClassBank/tools/errs"
	"ClassBank/tools/ids"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// TargetAll 广播目标。
const TargetAll = "ALL"

// Fanout 通知扇出：一条逻辑事件 → 每个收件人一条独立落库 + 一个 NATS 临时信号。
// 广播没有跨收件人的原子性（无中心事务协调器），见 Broadcast。
type Fanout struct {
	Coll     *mongo.Collection
	ListKeys func(ctx context.Context) ([]string, error) // 广播时枚举全量用户 key
}

func NewFanout(db *mongo.Database, listKeys func(ctx context.Context) ([]string, error)) *Fanout {
	n := model.Notification{}
	return &Fanout{Coll: db.Collection(n.GetTableName()), ListKeys: listKeys}
}

// Input 一次 notify 的入参。
type Input struct {
	Message     string
	Persistent  bool
	Action      string
	ActionData  map[string]string
	BroadcastID string // 留空自动生成；重跑时带上上次的 ID 变成 upsert
}

// Notify target 是已解析的 canonical key，或 TargetAll。
func (f *Fanout) Notify(ctx context.Context, target string, in Input) error {
	if target == TargetAll {
		_, err := f.Broadcast(ctx, in)
		return err
	}

	n := buildNotification(ids.GenerateString(), target, in)
	if _, err := f.Coll.InsertOne(ctx, n); err != nil {
		return errs.ErrStoreUnavailable.WrapMsg("notify", "target", target, "err", err)
	}
	f.signal(target, n)
	return nil
}

// Broadcast 给每个已知用户各写一条。一次无序 BulkWrite：at-least-once、
// 非事务，被中断时可能写了一部分——不自动回滚也不自动重试，返回
// ErrPartialBroadcast 让操作员重跑（确定性 id 保证重跑是 upsert 不是重复投递）。
func (f *Fanout) Broadcast(ctx context.Context, in Input) (string, error) {
	keys, err := f.ListKeys(ctx)
	if err != nil {
		return "", err
	}

	broadcastID := in.BroadcastID
	if broadcastID == "" {
		broadcastID = ids.GenerateString()
	}
	if len(keys) == 0 {
		return broadcastID, nil
	}

	writes := broadcastWrites(broadcastID, keys, in, time.Now().UnixMilli())
	res, err := f.Coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		written := int64(0)
		if res != nil {
			written = res.UpsertedCount + res.ModifiedCount
		}
		logger.Error("broadcast partially delivered",
			zap.String("broadcast", broadcastID),
			zap.Int64("written", written), zap.Int("recipients", len(keys)), zap.Error(err))
		return broadcastID, errs.ErrPartialBroadcast.WrapMsg("broadcast", "id", broadcastID, "err", err)
	}

	f.signalAll(in)
	return broadcastID, nil
}

// broadcastWrites 每个收件人一条 replace-upsert。通知 ID 是
// broadcastID+":"+key 的确定性拼接，同一 broadcastID 重跑只会覆盖不会翻倍。
func broadcastWrites(broadcastID string, keys []string, in Input, createdAt int64) []mongo.WriteModel {
	writes := make([]mongo.WriteModel, 0, len(keys))
	for _, k := range keys {
		n := buildNotification(broadcastID+":"+k, k, in)
		n.CreatedAt = createdAt
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": n.ID}).
			SetReplacement(n).
			SetUpsert(true))
	}
	return writes
}

// MarkRead 收件人侧的已读翻转。
func (f *Fanout) MarkRead(ctx context.Context, ownerKey, notificationID string) error {
	res, err := f.Coll.UpdateOne(ctx,
		bson.M{"_id": notificationID, "owner_key": ownerKey},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return errs.ErrStoreUnavailable.WrapMsg("mark read", "id", notificationID, "err", err)
	}
	if res.MatchedCount == 0 {
		return errs.ErrUserNotFound.WrapMsg("notification not found", "id", notificationID)
	}
	return nil
}

// Inbox 取收件箱（新→旧），上限 limit。
func (f *Fanout) Inbox(ctx context.Context, ownerKey string, limit int64) ([]*model.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	cur, err := f.Coll.Find(ctx, bson.M{"owner_key": ownerKey},
		options.Find().SetSort(bson.M{"created_at": -1}).SetLimit(limit))
	if err != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("inbox", "owner", ownerKey, "err", err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var out []*model.Notification
	for cur.Next(ctx) {
		var n model.Notification
		if err := cur.Decode(&n); err != nil {
			continue
		}
		cp := n
		out = append(out, &cp)
	}
	return out, errs.Wrap(cur.Err())
}

// Prune 收件箱超过 keep 条时删掉最旧的。客户端按自己的上限调用。
func (f *Fanout) Prune(ctx context.Context, ownerKey string, keep int64) error {
	if keep <= 0 {
		return nil
	}
	// 找出第 keep+1 新的那条，它和更旧的全删。排序带 _id 兜底，
	// 同一毫秒落库的条目不会把保留窗口内的误删掉。
	cur, err := f.Coll.Find(ctx, bson.M{"owner_key": ownerKey},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
			SetSkip(keep).SetLimit(1).
			SetProjection(bson.M{"created_at": 1}))
	if err != nil {
		return errs.Wrap(err)
	}
	defer func() { _ = cur.Close(ctx) }()
	if !cur.Next(ctx) {
		return nil // 还没超
	}
	var edge struct {
		ID        string `bson:"_id"`
		CreatedAt int64  `bson:"created_at"`
	}
	if err := cur.Decode(&edge); err != nil {
		return errs.Wrap(err)
	}
	_, err = f.Coll.DeleteMany(ctx, pruneFilter(ownerKey, edge.CreatedAt, edge.ID))
	return errs.Wrap(err)
}

// pruneFilter 删边界条和更旧的。相同时间戳的按 _id 再切一刀
//（排序时 _id 同向），保留窗口内的同毫秒条目不受波及。
func pruneFilter(ownerKey string, edgeCreatedAt int64, edgeID string) bson.M {
	return bson.M{
		"owner_key": ownerKey,
		"$or": bson.A{
			bson.M{"created_at": bson.M{"$lt": edgeCreatedAt}},
			bson.M{"created_at": edgeCreatedAt, "_id": bson.M{"$lte": edgeID}},
		},
	}
}

// AutoClear 打开某个上下文（如进入一个会话）时，把 action_data 引用同一
// 上下文的条目删掉。这是显式用户操作之外唯一的删除路径。
func (f *Fanout) AutoClear(ctx context.Context, ownerKey, contextKind, contextID string) error {
	_, err := f.Coll.DeleteMany(ctx, bson.M{
		"owner_key":                 ownerKey,
		"action_data." + contextKind: contextID,
	})
	return errs.Wrap(err)
}

func buildNotification(id, ownerKey string, in Input) *model.Notification {
	return &model.Notification{
		ID:         id,
		OwnerKey:   ownerKey,
		Message:    in.Message,
		Persistent: in.Persistent,
		Action:     in.Action,
		ActionData: in.ActionData,
		CreatedAt:  time.Now().UnixMilli(),
	}
}

// signal NATS 临时信号。落库成功与否已成事实，信号只负责"在线的端立刻弹出来"；
// 发送端用什么形式呈现（系统通知还是页面内 toast）不影响落库条目。
func (f *Fanout) signal(target string, n *model.Notification) {
	b, _ := json.Marshal(n)
	if err := natsx.PublishTo(natsx.BizNotifyUser, target, b); err != nil {
		logger.Warn("notify signal failed", zap.String("target", target), zap.Error(err))
	}
}

func (f *Fanout) signalAll(in Input) {
	b, _ := json.Marshal(map[string]any{"message": in.Message, "action": in.Action})
	if err := natsx.Publish(natsx.BizNotifyAll, b); err != nil {
		logger.Warn("broadcast signal failed", zap.Error(err))
	}
}
