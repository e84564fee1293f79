package model

import (
	mgo "ClassBank/service/mgo"

	"go.mongodb.org/mongo-driver/mongo"
)

// AttachmentKind
const (
	AttachImage           = "image"
	AttachApplicationForm = "application-form" // 开户/贷款申请单
	AttachProposal        = "proposal"         // 商户提案
	AttachIDCard          = "id-card"          // 电子身份证
)

// 墓碑占位文案：删除的消息保留 id 和时间戳参与排序，正文替换、附件清空。
const TombstoneText = "(deleted)"

// ChatMessage 消息。只追加；"编辑"只有墓碑化一种，绝不物理删除单条消息——
// 订阅进行中的观察者依赖 id 集合稳定。_id 用雪花串，字典序即创建序，
// 消费端按 Timestamp 排序而不是按订阅到达顺序。
type ChatMessage struct {
	ID        string      `bson:"_id" json:"id"`
	RoomID    string      `bson:"room_id" json:"roomId"`
	Sender    string      `bson:"sender" json:"sender"` // 发送者 canonical key
	Text      string      `bson:"text" json:"text"`
	Timestamp int64       `bson:"timestamp" json:"timestamp"` // Unix ms
	Attach    *Attachment `bson:"attachment,omitempty" json:"attachment,omitempty"`
	IsDeleted bool        `bson:"is_deleted,omitempty" json:"isDeleted,omitempty"`
}

// Attachment 类型化附件负载。
type Attachment struct {
	Kind    string            `bson:"kind" json:"kind"` // image/application-form/proposal/id-card
	URL     string            `bson:"url,omitempty" json:"url,omitempty"`
	Payload map[string]string `bson:"payload,omitempty" json:"payload,omitempty"`
}

func (m *ChatMessage) GetTableName() string {
	return "chat_messages"
}

func (m *ChatMessage) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(m.GetTableName())
}

// Tombstone 返回墓碑化之后的样子（纯函数，store 落库时用同样口径）。
func (m *ChatMessage) Tombstone() *ChatMessage {
	cp := *m
	cp.Text = TombstoneText
	cp.Attach = nil
	cp.IsDeleted = true
	return &cp
}
