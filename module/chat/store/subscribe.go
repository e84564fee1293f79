package store

import (
	"context"
	"time"

	"ClassBank/logger"
	chatmodel "ClassBank/module/chat/model"
	"ClassBank/service/natsx"
	"ClassBank/tools/safe"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// 房间文档的变更（overlay 写、群名修改、硬删）不经过 SendMessage 的主动 publish，
// 由 change stream 兜着：别的客户端写了共享文档，这边的订阅端也要收到推送。
// 消息插入已经在 SendMessage 里主动推过，这里只看房间集合。
//
// 网关侧消费 natsx 的 room.events，再按成员过滤下发 websocket。

// StartRoomWatcher 启动 chat_rooms 的 change stream 转发循环；断流自动重开。
// 随 ctx 取消退出（进程退出时显式停掉订阅）。
func (s *Store) StartRoomWatcher(ctx context.Context) {
	safe.SafeGo("room-watcher", func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if err := s.watchRooms(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("room change stream interrupted, reopening", zap.Error(err))
				time.Sleep(time.Second)
			}
		}
	})
}

func (s *Store) watchRooms(ctx context.Context) error {
	cs, err := s.RoomColl.Watch(ctx, mongo.Pipeline{},
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return err
	}
	defer func() { _ = cs.Close(ctx) }()

	for cs.Next(ctx) {
		var change struct {
			OperationType string             `bson:"operationType"`
			FullDocument  chatmodel.ChatRoom `bson:"fullDocument"`
			DocumentKey   struct {
				ID string `bson:"_id"`
			} `bson:"documentKey"`
		}
		if err := cs.Decode(&change); err != nil {
			continue
		}

		var ev *RoomEvent
		switch change.OperationType {
		case "insert", "update", "replace":
			room := change.FullDocument
			ev = &RoomEvent{Kind: "room", RoomID: room.ID, Room: &room}
		case "delete":
			ev = &RoomEvent{Kind: "room_deleted", RoomID: change.DocumentKey.ID}
		default:
			continue
		}
		if err := natsx.PublishTo(natsx.BizRoomEvent, ev.RoomID, ev.Marshal()); err != nil {
			logger.Warn("room event relay failed", zap.String("room", ev.RoomID), zap.Error(err))
		}
	}
	return cs.Err()
}

// RoomSnapshot 订阅建立时的初始快照：房间 + 最近一页消息。
// 推送流只保证"之后的变化"，打开会话先走这里。
func (s *Store) RoomSnapshot(ctx context.Context, roomID, viewer string, pageSize int64) (*chatmodel.ChatRoom, []*chatmodel.ChatMessage, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := s.Messages(ctx, roomID, viewer, 0, pageSize)
	if err != nil {
		return nil, nil, err
	}
	return room, msgs, nil
}

// 确保消息集合有 room_id+timestamp 的复合索引（时间线分页走它）。
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	msg := chatmodel.ChatMessage{}
	_, err := db.Collection(msg.GetTableName()).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "timestamp", Value: 1}},
	})
	return err
}
