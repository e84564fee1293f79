package store

import (
	"context"
	"sort"
	"time"

	chatmodel "ClassBank/module/chat/model"
	"ClassBank/service/storage"
	"ClassBank/tools/errs"
	"ClassBank/tools/ids"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CreateRoom 建房间。direct 类型先查同一对成员的既有私聊，命中就复用——
// ["alice","bob"] 和 ["bob","alice"] 必须落在同一个房间上。
func (s *Store) CreateRoom(ctx context.Context, participants []string, typ, groupName string) (*chatmodel.ChatRoom, error) {
	if len(participants) < 2 {
		return nil, errs.New("room needs at least two participants")
	}
	if typ == "" {
		typ = chatmodel.RoomGroup
	}

	if typ == chatmodel.RoomDirect {
		existing, err := s.FindExistingPrivateChat(ctx, participants)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	room := &chatmodel.ChatRoom{
		ID:           ids.GenerateString(),
		Participants: append([]string(nil), participants...),
		Type:         typ,
		GroupName:    groupName,
		CreateTime:   time.Now(),
	}
	if _, err := s.RoomColl.InsertOne(ctx, room); err != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("create room", "err", err)
	}
	return room, nil
}

// FindExistingPrivateChat 成员集按排序后相等比较（与顺序无关）。没有返回 nil。
func (s *Store) FindExistingPrivateChat(ctx context.Context, participants []string) (*chatmodel.ChatRoom, error) {
	cur, err := s.RoomColl.Find(ctx, bson.M{
		"type":         chatmodel.RoomDirect,
		"participants": bson.M{"$all": participants, "$size": len(participants)},
	})
	if err != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("find private chat", "err", err)
	}
	defer func() { _ = cur.Close(ctx) }()

	for cur.Next(ctx) {
		var room chatmodel.ChatRoom
		if err := cur.Decode(&room); err != nil {
			continue
		}
		// $all 不管重名成员的次数，落地前再按集合口径确认一次
		if chatmodel.SameParticipants(room.Participants, participants) {
			return &room, nil
		}
	}
	return nil, errs.Wrap(cur.Err())
}

// GetRoom
func (s *Store) GetRoom(ctx context.Context, roomID string) (*chatmodel.ChatRoom, error) {
	var room chatmodel.ChatRoom
	err := s.RoomColl.FindOne(ctx, bson.M{"_id": roomID}).Decode(&room)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrRoomNotFound.WithDetail(roomID).Wrap()
	}
	if err != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("get room", "err", err)
	}
	return &room, nil
}

// ListTab 列表页的三个页签。
const (
	TabAll     = "all"
	TabUnread  = "unread"
	TabDeleted = "deleted"
)

// RoomsForParticipant 某成员的房间列表快照：置顶优先（rank 升序），
// 其余按最后消息时间倒序。页签过滤在内存里做——overlay 是按成员切片的，
// 没法变成一个对所有人都成立的 mongo 排序。
func (s *Store) RoomsForParticipant(ctx context.Context, name, tab string) ([]*chatmodel.ChatRoom, error) {
	cur, err := s.RoomColl.Find(ctx, bson.M{"participants": name})
	if err != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("list rooms", "err", err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var out []*chatmodel.ChatRoom
	for cur.Next(ctx) {
		var room chatmodel.ChatRoom
		if err := cur.Decode(&room); err != nil {
			continue
		}
		switch tab {
		case TabDeleted:
			if !room.IsDeletedFor(name) {
				continue
			}
		case TabUnread:
			if room.IsDeletedFor(name) || !room.IsUnreadFor(name) {
				continue
			}
		default: // TabAll
			if room.IsDeletedFor(name) {
				continue
			}
		}
		cp := room
		out = append(out, &cp)
	}
	if err := cur.Err(); err != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("list rooms", "err", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		ri, iPinned := out[i].PinRankFor(name)
		rj, jPinned := out[j].PinRankFor(name)
		if iPinned != jPinned {
			return iPinned
		}
		if iPinned && ri != rj {
			return ri < rj
		}
		return out[i].LastTimestamp > out[j].LastTimestamp
	})
	return out, nil
}

// RenameGroup 群名是共享元数据，团队房间只有 owner/admins 能改。
func (s *Store) RenameGroup(ctx context.Context, roomID, editor, newName string) error {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.CanEditMetadata(editor) {
		return errs.ErrNotTeamAdmin.WithDetail(editor).Wrap()
	}
	_, err = s.RoomColl.UpdateOne(ctx,
		bson.M{"_id": roomID},
		bson.M{"$set": bson.M{"group_name": newName}},
	)
	return errs.Wrap(err)
}

// SetLocalName 成员给房间起的备注名，只写自己那一格。
func (s *Store) SetLocalName(ctx context.Context, roomID, member, name string) error {
	update := bson.M{"$set": bson.M{"local_names." + member: name}}
	if name == "" {
		update = bson.M{"$unset": bson.M{"local_names." + member: ""}}
	}
	return s.overlayWrite(ctx, roomID, member, update)
}

// overlayWrite 所有 overlay 写共用的门禁：filter 带上成员名，
// 非成员写不进去；matched==0 时再区分"房间没了"和"不是成员"。
func (s *Store) overlayWrite(ctx context.Context, roomID, member string, update bson.M) error {
	res, err := s.RoomColl.UpdateOne(ctx,
		bson.M{"_id": roomID, "participants": member},
		update,
	)
	if err != nil {
		return errs.ErrStoreUnavailable.WrapMsg("overlay write", "room", roomID, "err", err)
	}
	if res.MatchedCount == 0 {
		if _, err := s.GetRoom(ctx, roomID); err != nil {
			return err // ErrRoomNotFound
		}
		return errs.ErrNotRoomMember.WithDetail(member).Wrap()
	}
	return nil
}

// dropRoomCounters 硬删时清掉所有成员的角标缓存。
func (s *Store) dropRoomCounters(ctx context.Context, room *chatmodel.ChatRoom) {
	for _, p := range room.Participants {
		_ = storage.DropUnread(ctx, p, room.ID)
	}
}
