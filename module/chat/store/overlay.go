package store

import (
	"context"
	"time"

	"ClassBank/service/storage"
	"ClassBank/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// 每个操作只碰调用者自己的 overlay 格子。房间级字段一概不动。

// MarkRead 已读推进到现在，同时清掉手动未读和软删——读一个房间永远意味着
// "重新可见 + 不再标未读"。一次 update 落三个字段。
func (s *Store) MarkRead(ctx context.Context, roomID, participant string) error {
	err := s.overlayWrite(ctx, roomID, participant, bson.M{
		"$set": bson.M{"read_status." + participant: time.Now().UnixMilli()},
		"$unset": bson.M{
			"manual_unread." + participant: "",
			"deleted_by." + participant:    "",
		},
	})
	if err != nil {
		return err
	}
	_ = storage.ClearUnread(ctx, participant, roomID) // best-effort 角标
	return nil
}

// MarkManualUnread 手动标未读：独立于 ReadStatus 的一个标志位。
func (s *Store) MarkManualUnread(ctx context.Context, roomID, participant string) error {
	return s.overlayWrite(ctx, roomID, participant, bson.M{
		"$set": bson.M{"manual_unread." + participant: true},
	})
}

// TogglePin rank 传 nil 表示取消置顶。
func (s *Store) TogglePin(ctx context.Context, roomID, participant string, rank *int64) error {
	if rank == nil {
		return s.overlayWrite(ctx, roomID, participant, bson.M{
			"$unset": bson.M{"pinned_by." + participant: ""},
		})
	}
	return s.overlayWrite(ctx, roomID, participant, bson.M{
		"$set": bson.M{"pinned_by." + participant: *rank},
	})
}

// Mute 免打扰开关。
func (s *Store) Mute(ctx context.Context, roomID, participant string, on bool) error {
	if on {
		return s.overlayWrite(ctx, roomID, participant, bson.M{
			"$addToSet": bson.M{"muted_by": participant},
		})
	}
	return s.overlayWrite(ctx, roomID, participant, bson.M{
		"$pull": bson.M{"muted_by": participant},
	})
}

// SoftDelete 对自己隐藏房间；其他成员不受影响。新消息到达不会自动恢复可见，
// 只有 Restore 或 MarkRead 才会。
func (s *Store) SoftDelete(ctx context.Context, roomID, participant string) error {
	return s.overlayWrite(ctx, roomID, participant, bson.M{
		"$set": bson.M{"deleted_by." + participant: time.Now().UnixMilli()},
	})
}

// Restore 软删的逆操作。
func (s *Store) Restore(ctx context.Context, roomID, participant string) error {
	return s.overlayWrite(ctx, roomID, participant, bson.M{
		"$unset": bson.M{"deleted_by." + participant: ""},
	})
}

// HardDelete 对所有成员不可逆地删掉房间和全部消息。房间文档和消息集合
// 在同一事务里落地，订阅端看不到"房间没了但消息还在"的中间态。
func (s *Store) HardDelete(ctx context.Context, roomID, requester string) error {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.HasParticipant(requester) {
		return errs.ErrNotRoomMember.WithDetail(requester).Wrap()
	}

	err = s.cli.WithTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := s.RoomColl.DeleteOne(sc, bson.M{"_id": roomID}); err != nil {
			return err
		}
		_, err := s.MsgColl.DeleteMany(sc, bson.M{"room_id": roomID})
		return err
	})
	if err != nil {
		return errs.ErrStoreUnavailable.WrapMsg("hard delete", "room", roomID, "err", err)
	}

	s.dropRoomCounters(ctx, room)
	return nil
}
