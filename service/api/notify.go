package api

import (
	"net/http"
	"strconv"

	midsec "ClassBank/middleware/security"
	notifysvc "ClassBank/module/notify/service"
	"ClassBank/tools/errs"

	"github.com/gin-gonic/gin"
)

type notifyReq struct {
	Target      string            `json:"target" binding:"required"` // 任意标识符，或 ALL
	Message     string            `json:"message" binding:"required"`
	Persistent  bool              `json:"persistent"`
	Action      string            `json:"action"`
	ActionData  map[string]string `json:"actionData"`
	BroadcastID string            `json:"broadcastId"` // 广播重跑时回填
}

// HandleNotify target 是 ALL 走广播；其余先解析成规范键再投递。
// 广播半途失败返回 1301，带上同一个 broadcastId 重发即可补齐
//（通知 ID 是确定性的，重跑是覆盖写）。
func (s *Server) HandleNotify(c *gin.Context) {
	var req notifyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": errs.CodeServerInternalError, "msg": err.Error()})
		return
	}
	ctx := c.Request.Context()
	in := notifysvc.Input{
		Message:     req.Message,
		Persistent:  req.Persistent,
		Action:      req.Action,
		ActionData:  req.ActionData,
		BroadcastID: req.BroadcastID,
	}

	if req.Target == notifysvc.TargetAll {
		id, err := s.Notify.Broadcast(ctx, in)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, gin.H{"broadcastId": id})
		return
	}

	key, err := s.Res.Resolve(ctx, req.Target)
	if err != nil {
		fail(c, err)
		return
	}
	if err := s.Notify.Notify(ctx, key, in); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"target": key})
}

func (s *Server) HandleInbox(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "100"), 10, 64)
	items, err := s.Notify.Inbox(c.Request.Context(), midsec.UserKey(c), limit)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, items)
}

func (s *Server) HandleNotificationRead(c *gin.Context) {
	if err := s.Notify.MarkRead(c.Request.Context(), midsec.UserKey(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

type pruneReq struct {
	Keep int64 `json:"keep"`
}

func (s *Server) HandlePrune(c *gin.Context) {
	var req pruneReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": errs.CodeServerInternalError, "msg": err.Error()})
		return
	}
	if err := s.Notify.Prune(c.Request.Context(), midsec.UserKey(c), req.Keep); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

type autoClearReq struct {
	ContextKind string `json:"contextKind" binding:"required"`
	ContextID   string `json:"contextId" binding:"required"`
}

// HandleAutoClear 进了对应上下文（比如打开某个房间）就清掉挂在上面的通知。
func (s *Server) HandleAutoClear(c *gin.Context) {
	var req autoClearReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": errs.CodeServerInternalError, "msg": err.Error()})
		return
	}
	if err := s.Notify.AutoClear(c.Request.Context(), midsec.UserKey(c), req.ContextKind, req.ContextID); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}
