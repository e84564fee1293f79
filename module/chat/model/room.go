package model

import (
	"sort"
	"time"

	mgo "ClassBank/service/mgo"

	"go.mongodb.org/mongo-driver/mongo"
)

// RoomType
const (
	RoomDirect   = "direct"
	RoomGroup    = "group"
	RoomFeedback = "feedback" // 市民→政府 意见箱
)

// ChatRoom 会话房间。成员按 canonical key 寻址（弱引用：渲染时再查用户主档，不是从属关系）。
//
// 四张 overlay map 都以成员名为 key，各成员只写自己那一格——两个成员并发改
// 各自的置顶/免打扰永远落在不同的 map key 上，天然无冲突。同一格被同一人的
// 两台设备并发写时按 last-write-wins，不做合并。
type ChatRoom struct {
	ID           string   `bson:"_id" json:"id"`
	Participants []string `bson:"participants" json:"participants"` // canonical key 列表
	Type         string   `bson:"type" json:"type"`                 // direct/group/feedback
	GroupName    string   `bson:"group_name,omitempty" json:"groupName,omitempty"`

	// 每个成员自己看到的房间备注名（只影响自己）
	LocalNames map[string]string `bson:"local_names,omitempty" json:"localNames,omitempty"`

	// 团队归属：有 owner 时，群名等元数据只有 owner/admins 能改
	TeamOwner  string   `bson:"team_owner,omitempty" json:"teamOwner,omitempty"`
	TeamAdmins []string `bson:"team_admins,omitempty" json:"teamAdmins,omitempty"`

	// —— per-participant overlay ——
	ReadStatus   map[string]int64 `bson:"read_status,omitempty" json:"readStatus,omitempty"`     // 成员 → 最后已读 Unix ms
	ManualUnread map[string]bool  `bson:"manual_unread,omitempty" json:"manualUnread,omitempty"` // 手动标未读（独立于 ReadStatus）
	PinnedBy     map[string]int64 `bson:"pinned_by,omitempty" json:"pinnedBy,omitempty"`         // 成员 → 置顶序（缺失=未置顶）
	MutedBy      []string         `bson:"muted_by,omitempty" json:"mutedBy,omitempty"`           // 免打扰成员集合
	DeletedBy    map[string]int64 `bson:"deleted_by,omitempty" json:"deletedBy,omitempty"`       // 成员 → 软删时间（缺失=可见）

	// 列表页冗余（随 SendMessage 同事务更新）
	LastMessage   string `bson:"last_message,omitempty" json:"lastMessage,omitempty"`
	LastSender    string `bson:"last_sender,omitempty" json:"lastSender,omitempty"`
	LastTimestamp int64  `bson:"last_timestamp,omitempty" json:"lastTimestamp,omitempty"`

	CreateTime time.Time `bson:"create_time" json:"createTime"`
}

func (r *ChatRoom) GetTableName() string {
	return "chat_rooms"
}

func (r *ChatRoom) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(r.GetTableName())
}

// IsUnreadFor 未读口径 = (lastTimestamp > readStatus[p]) OR manualUnread[p]。
// 角标计数只是缓存，权威口径永远可以由这两个字段重算出来。
func (r *ChatRoom) IsUnreadFor(participant string) bool {
	if r.ManualUnread[participant] {
		return true
	}
	return r.LastTimestamp > r.ReadStatus[participant]
}

// IsDeletedFor 软删对各成员独立生效。
func (r *ChatRoom) IsDeletedFor(participant string) bool {
	_, ok := r.DeletedBy[participant]
	return ok
}

// IsMutedFor
func (r *ChatRoom) IsMutedFor(participant string) bool {
	for _, m := range r.MutedBy {
		if m == participant {
			return true
		}
	}
	return false
}

// PinRankFor 返回置顶序；第二个返回值表示是否置顶。
func (r *ChatRoom) PinRankFor(participant string) (int64, bool) {
	rank, ok := r.PinnedBy[participant]
	return rank, ok
}

// HasParticipant
func (r *ChatRoom) HasParticipant(name string) bool {
	for _, p := range r.Participants {
		if p == name {
			return true
		}
	}
	return false
}

// CanEditMetadata 团队房间的元数据编辑门禁。
func (r *ChatRoom) CanEditMetadata(name string) bool {
	if r.TeamOwner == "" {
		return r.HasParticipant(name)
	}
	if r.TeamOwner == name {
		return true
	}
	for _, a := range r.TeamAdmins {
		if a == name {
			return true
		}
	}
	return false
}

// SameParticipants 成员集相等：排序后逐项比较，与传入顺序无关。
// 私聊去重（findExistingPrivateChat）用这个口径。
func SameParticipants(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
