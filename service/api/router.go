package api

import (
	"ClassBank/middleware"
	"ClassBank/service/gateway"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes 挂全部路由。登录和建档无需鉴权，其余都要带 token。
func RegisterRoutes(r *gin.Engine, s *Server, ws *gateway.Server, wsPath string) {
	auth := middleware.RouteOpt{IsAuth: true}
	open := middleware.RouteOpt{IsAuth: false}

	// 账户
	middleware.POST(r, "/api/login", s.HandleLogin, open)
	middleware.POST(r, "/api/users", s.HandleCreateUser, open)
	middleware.GET(r, "/api/users/resolve", s.HandleResolve, auth)
	middleware.POST(r, "/api/users/link", s.HandleLinkAccounts, auth)
	middleware.GET(r, "/api/self", s.HandleSelf, auth)
	middleware.POST(r, "/api/transactions", s.HandleAppendTransaction, auth)
	middleware.POST(r, "/api/admin/merge-duplicates", s.HandleMergeDuplicates, auth)

	// 房间
	middleware.POST(r, "/api/rooms", s.HandleCreateRoom, auth)
	middleware.GET(r, "/api/rooms", s.HandleRooms, auth)
	middleware.GET(r, "/api/rooms/:id", s.HandleRoomSnapshot, auth)
	middleware.POST(r, "/api/rooms/:id/rename", s.HandleRenameGroup, auth)
	middleware.POST(r, "/api/rooms/:id/local-name", s.HandleSetLocalName, auth)
	middleware.POST(r, "/api/rooms/:id/read", s.HandleMarkRead, auth)
	middleware.POST(r, "/api/rooms/:id/unread", s.HandleMarkManualUnread, auth)
	middleware.POST(r, "/api/rooms/:id/pin", s.HandleTogglePin, auth)
	middleware.POST(r, "/api/rooms/:id/mute", s.HandleMute, auth)
	middleware.POST(r, "/api/rooms/:id/restore", s.HandleRestoreRoom, auth)
	middleware.DELETE(r, "/api/rooms/:id", s.HandleDeleteRoom, auth)

	// 消息
	middleware.POST(r, "/api/rooms/:id/messages", s.HandleSendMessage, auth)
	middleware.GET(r, "/api/rooms/:id/messages", s.HandleMessages, auth)
	middleware.DELETE(r, "/api/rooms/:id/messages/:msgId", s.HandleDeleteMessage, auth)
	middleware.GET(r, "/api/unread", s.HandleUnreadCounts, auth)

	// 通知
	middleware.POST(r, "/api/notifications", s.HandleNotify, auth)
	middleware.GET(r, "/api/notifications", s.HandleInbox, auth)
	middleware.POST(r, "/api/notifications/:id/read", s.HandleNotificationRead, auth)
	middleware.POST(r, "/api/notifications/prune", s.HandlePrune, auth)
	middleware.POST(r, "/api/notifications/auto-clear", s.HandleAutoClear, auth)

	// 推送网关：token 走 query 参数，握手时自行校验
	if wsPath == "" {
		wsPath = "/ws"
	}
	r.GET(wsPath, ws.HandleWS)
}
