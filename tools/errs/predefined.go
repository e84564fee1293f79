package errs

// 业务码分段：11xx 身份，12xx 会话，13xx 通知，15xx 传输/基础设施。
const (
	CodeUserNotFound     = 1101
	CodeAmbiguousUser    = 1102
	CodeWrongCredentials = 1103

	CodeRoomNotFound  = 1201
	CodeNotRoomMember = 1202
	CodeNotTeamAdmin  = 1203

	CodePartialBroadcast = 1301

	CodeTokenExpired = 1401

	CodeStoreUnavailable    = 1501
	CodeTimeout             = 1502
	CodeServerInternalError = 1500
)

// 域错误：调用方不得重试，不得自动替换为"最接近的匹配"。
var (
	ErrUserNotFound     = NewCodeError(CodeUserNotFound, "user not found")
	ErrAmbiguousUser    = NewCodeError(CodeAmbiguousUser, "identifier matches more than one account")
	ErrWrongCredentials = NewCodeError(CodeWrongCredentials, "wrong credentials")

	ErrRoomNotFound  = NewCodeError(CodeRoomNotFound, "chat room not found")
	ErrNotRoomMember = NewCodeError(CodeNotRoomMember, "not a member of this room")
	ErrNotTeamAdmin  = NewCodeError(CodeNotTeamAdmin, "team metadata can only be edited by owner or admins")

	ErrPartialBroadcast = NewCodeError(CodePartialBroadcast, "broadcast partially delivered, re-run to complete")

	ErrTokenExpired = NewCodeError(CodeTokenExpired, "token missing or expired")
)

// 传输类错误：可重试。
var (
	ErrStoreUnavailable = NewCodeError(CodeStoreUnavailable, "document store unavailable")
	ErrTimeout          = NewCodeError(CodeTimeout, "operation timed out")
	ErrInternal         = NewCodeError(CodeServerInternalError, "internal server error")
)

// IsDomain 区分域错误与传输错误：域错误在 11xx~14xx 段。
func IsDomain(err error) bool {
	code := CodeOf(err)
	return code >= 1100 && code < 1500
}
