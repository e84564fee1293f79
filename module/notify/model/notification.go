package model

import (
	mgo "ClassBank/service/mgo"

	"go.mongodb.org/mongo-driver/mongo"
)

// Notification 收件箱条目。寻址：users/<ownerKey>/notifications/<id>，
// 落在独立集合上以 (owner_key, _id) 定位。
//
// 广播产生的条目 _id = <broadcastId>:<ownerKey>，确定性 id 让操作员在
// 部分失败后重跑同一个广播时 upsert 而不是重复投递。
type Notification struct {
	ID         string            `bson:"_id" json:"id"`
	OwnerKey   string            `bson:"owner_key" json:"-"` // 收件人 canonical key
	Message    string            `bson:"message" json:"message"`
	Read       bool              `bson:"read" json:"read"`
	Persistent bool              `bson:"persistent" json:"persistent"`
	Action     string            `bson:"action,omitempty" json:"action,omitempty"`
	ActionData map[string]string `bson:"action_data,omitempty" json:"actionData,omitempty"`
	CreatedAt  int64             `bson:"created_at" json:"createdAt"` // Unix ms
}

func (n *Notification) GetTableName() string {
	return "notifications"
}

func (n *Notification) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(n.GetTableName())
}

// MatchesContext 客户端打开某个上下文（如一个会话）时的自动清理口径：
// action_data 里引用了同一上下文的条目被过滤掉。
func (n *Notification) MatchesContext(kind, id string) bool {
	if n.ActionData == nil {
		return false
	}
	return n.ActionData[kind] == id
}
