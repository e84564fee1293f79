package model

import (
	"time"

	mgo "ClassBank/service/mgo"

	"go.mongodb.org/mongo-driver/mongo"
)

// AccountType
const (
	TypeCitizen    = "citizen"    // 学生-市民
	TypeMerchant   = "merchant"   // 学生-商户
	TypeGovernment = "government" // 教师-政府
	TypeBank       = "bank"       // 教师-银行
)

// Status 越靠后越"具体"；重复账户合并时取最具体的非 pending 值。
const (
	StatusPending  = "pending"
	StatusActive   = "active"
	StatusFrozen   = "frozen"
	StatusClosed   = "closed"
)

// TxLogCap 用户主档内嵌的流水条数上限（只留最近 N 条，控制文档体积）。
const TxLogCap = 50

// UserRecord 用户主档。_id 是 canonical key（keys.Canonical 派生，唯一寻址）。
// 历史脏数据（key 与自身任何属性都对不上的老账户）靠 resolver 的全表兜底扫描找回，
// 靠 MergeDuplicates 归并，绝不允许一个身份悬在两个 key 下。
type UserRecord struct {
	Key      string `bson:"_id" json:"id"`                          // canonical key（主键）
	LoginID  string `bson:"login_id,omitempty" json:"loginId"`      // 登录ID
	Email    string `bson:"email,omitempty" json:"email"`           // 邮箱
	Name     string `bson:"name,omitempty" json:"name"`             // 显示名（仅渲染用，寻址统一走 canonical key）
	Type     string `bson:"type,omitempty" json:"type"`             // citizen/merchant/government/bank
	Role     string `bson:"role,omitempty" json:"role"`             // 干部职务等
	JobTitle string `bson:"job_title,omitempty" json:"jobTitle"`    // 职业
	Status   string `bson:"status,omitempty" json:"status"`         // pending/active/frozen/closed
	PinHash  string `bson:"pin_hash,omitempty" json:"-"`            // 登录口令hash（错误口令≠账户不存在）

	BalanceKRW int64 `bson:"balance_krw" json:"balanceKRW"`
	BalanceUSD int64 `bson:"balance_usd" json:"balanceUSD"`

	// 重型字段：diet 投影会缺失，合并时绝不能被空值覆盖（见 identity/cache.Reconcile）
	Transactions  []Transaction  `bson:"transactions,omitempty" json:"transactions"`
	Notifications []Notification `bson:"notifications,omitempty" json:"notifications"`
	Products      []Product      `bson:"products,omitempty" json:"products"`

	// 关联账户（对称：A→B 必然伴随 B→A）
	LinkedAccounts []string `bson:"linked_accounts,omitempty" json:"linkedAccounts"`

	CreateTime time.Time `bson:"create_time,omitempty" json:"createTime"`
	UpdateTime time.Time `bson:"update_time,omitempty" json:"updateTime"`
}

// Transaction 流水条目（内嵌，capped）。
type Transaction struct {
	ID           string `bson:"id" json:"id"` // 雪花ID，按时间可排序
	Kind         string `bson:"kind" json:"kind"` // transfer/purchase/loan/deposit/tax...
	Amount       int64  `bson:"amount" json:"amount"`
	Currency     string `bson:"currency" json:"currency"` // KRW/USD
	Counterparty string `bson:"counterparty,omitempty" json:"counterparty"`
	Memo         string `bson:"memo,omitempty" json:"memo"`
	Timestamp    int64  `bson:"timestamp" json:"timestamp"` // Unix ms
}

// Notification 收件箱条目的用户档内投影（权威存储见 notify 模块的独立集合）。
type Notification struct {
	ID         string            `bson:"id" json:"id"`
	Message    string            `bson:"message" json:"message"`
	Read       bool              `bson:"read" json:"read"`
	Persistent bool              `bson:"persistent" json:"persistent"`
	Action     string            `bson:"action,omitempty" json:"action,omitempty"`
	ActionData map[string]string `bson:"action_data,omitempty" json:"actionData,omitempty"`
	CreatedAt  int64             `bson:"created_at" json:"createdAt"` // Unix ms
}

// Product 商户在售商品（合并时与流水一样做拼接）。
type Product struct {
	ID    string `bson:"id" json:"id"`
	Name  string `bson:"name" json:"name"`
	Price int64  `bson:"price" json:"price"`
	Stock int64  `bson:"stock" json:"stock"`
}

func (u *UserRecord) GetTableName() string {
	return "users"
}

func (u *UserRecord) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(u.GetTableName())
}

// StatusRank 合并用：数值越大越具体。pending 最弱，任何显式状态都压过它。
func StatusRank(s string) int {
	switch s {
	case StatusClosed:
		return 3
	case StatusFrozen:
		return 2
	case StatusActive:
		return 1
	case StatusPending:
		return 0
	default:
		if s == "" {
			return -1
		}
		return 1 // 未知但非空的老状态按 active 档对待
	}
}
