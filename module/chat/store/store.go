package store

import (
	"encoding/json"

	mongoutil "ClassBank/data/database/mgo/mongoutil"
	chatmodel "ClassBank/module/chat/model"

	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	cli      *mongoutil.Client
	RoomColl *mongo.Collection // chat_rooms
	MsgColl  *mongo.Collection // chat_messages
}

func NewStore(cli *mongoutil.Client) *Store {
	room := chatmodel.ChatRoom{}
	msg := chatmodel.ChatMessage{}
	db := cli.GetDB()
	return &Store{
		cli:      cli,
		RoomColl: db.Collection(room.GetTableName()),
		MsgColl:  db.Collection(msg.GetTableName()),
	}
}

// RoomEvent 推给订阅端的事件。消费端一律按 Message.Timestamp 排序，
// 不信任订阅到达顺序。
type RoomEvent struct {
	Kind         string                 `json:"kind"` // message / message_deleted / room / room_deleted
	RoomID       string                 `json:"roomId"`
	Participants []string               `json:"participants,omitempty"` // 网关按这个名单分发
	Message      *chatmodel.ChatMessage `json:"message,omitempty"`
	Room         *chatmodel.ChatRoom    `json:"room,omitempty"`
}

func (e *RoomEvent) Marshal() []byte {
	b, _ := json.Marshal(e)
	return b
}
