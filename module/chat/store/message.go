package store

import (
	"context"
	"time"

	"ClassBank/logger"
	chatmodel "ClassBank/module/chat/model"
	"ClassBank/service/natsx"
	"ClassBank/service/storage"
	"ClassBank/tools/errs"
	"ClassBank/tools/ids"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// SendMessage 追加消息 + 刷新房间头（last_message/last_sender/last_timestamp），
// 两笔写在同一事务里，是一个逻辑单元。发消息不碰任何人的 deleted_by
// （软删不因新消息自动恢复，见 overlay.SoftDelete）。
func (s *Store) SendMessage(ctx context.Context, roomID, sender, text string, attach *chatmodel.Attachment) (*chatmodel.ChatMessage, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(sender) {
		return nil, errs.ErrNotRoomMember.WithDetail(sender).Wrap()
	}

	msg := &chatmodel.ChatMessage{
		ID:        ids.GenerateString(), // 雪花串：字典序 == 创建序
		RoomID:    roomID,
		Sender:    sender,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
		Attach:    attach,
	}

	err = s.cli.WithTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := s.MsgColl.InsertOne(sc, msg); err != nil {
			return err
		}
		_, err := s.RoomColl.UpdateOne(sc,
			bson.M{"_id": roomID},
			bson.M{"$set": bson.M{
				"last_message":   previewText(msg),
				"last_sender":    sender,
				"last_timestamp": msg.Timestamp,
			}},
		)
		return err
	})
	if err != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("send message", "room", roomID, "err", err)
	}

	// 角标缓存：发送者之外的成员 +1（best-effort，权威口径是推导）
	for _, p := range room.Participants {
		if p != sender {
			_ = storage.BumpUnread(ctx, p, roomID)
		}
	}

	s.publish(&RoomEvent{Kind: "message", RoomID: roomID, Participants: room.Participants, Message: msg})
	return msg, nil
}

// Messages 拉一段时间线：timestamp < before 的最近 limit 条，升序返回。
// before 传 0 表示从最新开始。
func (s *Store) Messages(ctx context.Context, roomID, viewer string, before int64, limit int64) ([]*chatmodel.ChatMessage, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(viewer) {
		return nil, errs.ErrNotRoomMember.WithDetail(viewer).Wrap()
	}
	if limit <= 0 {
		limit = 50
	}
	filter := bson.M{"room_id": roomID}
	if before > 0 {
		filter["timestamp"] = bson.M{"$lt": before}
	}

	cur, err := s.MsgColl.Find(ctx, filter,
		options.Find().SetSort(bson.M{"timestamp": -1}).SetLimit(limit))
	if err != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("messages", "room", roomID, "err", err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var desc []*chatmodel.ChatMessage
	for cur.Next(ctx) {
		var m chatmodel.ChatMessage
		if err := cur.Decode(&m); err != nil {
			continue
		}
		cp := m
		desc = append(desc, &cp)
	}
	if err := cur.Err(); err != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("messages", "room", roomID, "err", err)
	}

	// 倒序取、正序给
	out := make([]*chatmodel.ChatMessage, len(desc))
	for i, m := range desc {
		out[len(desc)-1-i] = m
	}
	return out, nil
}

// DeleteMessage 墓碑化：正文替换、附件清空、id 和时间戳保留。只有发送者能删自己的。
func (s *Store) DeleteMessage(ctx context.Context, roomID, msgID, requester string) error {
	res, err := s.MsgColl.UpdateOne(ctx,
		bson.M{"_id": msgID, "room_id": roomID, "sender": requester},
		bson.M{
			"$set":   bson.M{"text": chatmodel.TombstoneText, "is_deleted": true},
			"$unset": bson.M{"attachment": ""},
		},
	)
	if err != nil {
		return errs.ErrStoreUnavailable.WrapMsg("delete message", "msg", msgID, "err", err)
	}
	if res.MatchedCount == 0 {
		return errs.ErrRoomNotFound.WrapMsg("message not found or not the sender", "msg", msgID)
	}

	var msg chatmodel.ChatMessage
	if err := s.MsgColl.FindOne(ctx, bson.M{"_id": msgID}).Decode(&msg); err == nil {
		ev := &RoomEvent{Kind: "message_deleted", RoomID: roomID, Message: &msg}
		if room, rerr := s.GetRoom(ctx, roomID); rerr == nil {
			ev.Participants = room.Participants
		}
		s.publish(ev)
	}
	return nil
}

func (s *Store) publish(ev *RoomEvent) {
	if err := natsx.PublishTo(natsx.BizRoomEvent, ev.RoomID, ev.Marshal()); err != nil {
		// 推送失败不影响已落库的写；订阅端靠全量拉取兜底
		logger.Warn("room event publish failed", zap.String("room", ev.RoomID), zap.Error(err))
	}
}

// previewText 列表页摘要：墓碑显示占位；带附件但没正文时显示附件种类。
func previewText(m *chatmodel.ChatMessage) string {
	if m.IsDeleted {
		return chatmodel.TombstoneText
	}
	if m.Text == "" && m.Attach != nil {
		return "[" + m.Attach.Kind + "]"
	}
	return m.Text
}
