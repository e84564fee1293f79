package api

import (
	"net/http"
	"strconv"

	midsec "ClassBank/middleware/security"
	chatmodel "ClassBank/module/chat/model"
	"ClassBank/service/storage"
	"ClassBank/tools/errs"

	"github.com/gin-gonic/gin"
)

type createRoomReq struct {
	Participants []string `json:"participants" binding:"required"` // 任意标识符，逐个解析
	Type         string   `json:"type"`
	GroupName    string   `json:"groupName"`
}

// HandleCreateRoom 建房。成员给的是任意标识符，先全部解析成规范键；
// 私聊撞到同一对成员时直接复用旧房。
func (s *Server) HandleCreateRoom(c *gin.Context) {
	var req createRoomReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": errs.CodeServerInternalError, "msg": err.Error()})
		return
	}
	ctx := c.Request.Context()
	me := midsec.UserKey(c)

	seen := map[string]bool{me: true}
	members := []string{me}
	for _, id := range req.Participants {
		key, err := s.Res.Resolve(ctx, id)
		if err != nil {
			fail(c, err)
			return
		}
		if !seen[key] {
			seen[key] = true
			members = append(members, key)
		}
	}

	room, err := s.Store.CreateRoom(ctx, members, req.Type, req.GroupName)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, room)
}

// HandleRooms 列表页：tab 取 all / unread / deleted，置顶在前、再按时间倒序。
func (s *Server) HandleRooms(c *gin.Context) {
	me := midsec.UserKey(c)
	rooms, err := s.Store.RoomsForParticipant(c.Request.Context(), me, c.DefaultQuery("tab", "all"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, rooms)
}

// HandleRoomSnapshot 单房快照：房间头 + 最近一页消息（升序）。
func (s *Server) HandleRoomSnapshot(c *gin.Context) {
	me := midsec.UserKey(c)
	pageSize, _ := strconv.ParseInt(c.DefaultQuery("pageSize", "50"), 10, 64)
	room, msgs, err := s.Store.RoomSnapshot(c.Request.Context(), c.Param("id"), me, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"room": room, "messages": msgs})
}

type nameReq struct {
	Name string `json:"name" binding:"required"`
}

// HandleRenameGroup 群名是共享字段，只有群主/管理员能改。
func (s *Server) HandleRenameGroup(c *gin.Context) {
	var req nameReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": errs.CodeServerInternalError, "msg": err.Error()})
		return
	}
	if err := s.Store.RenameGroup(c.Request.Context(), c.Param("id"), midsec.UserKey(c), req.Name); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// HandleSetLocalName 备注名是个人视角字段，成员都能改自己的。
func (s *Server) HandleSetLocalName(c *gin.Context) {
	var req nameReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": errs.CodeServerInternalError, "msg": err.Error()})
		return
	}
	if err := s.Store.SetLocalName(c.Request.Context(), c.Param("id"), midsec.UserKey(c), req.Name); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

func (s *Server) HandleMarkRead(c *gin.Context) {
	if err := s.Store.MarkRead(c.Request.Context(), c.Param("id"), midsec.UserKey(c)); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

func (s *Server) HandleMarkManualUnread(c *gin.Context) {
	if err := s.Store.MarkManualUnread(c.Request.Context(), c.Param("id"), midsec.UserKey(c)); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

type pinReq struct {
	Rank *int64 `json:"rank"` // null 表示取消置顶
}

func (s *Server) HandleTogglePin(c *gin.Context) {
	var req pinReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": errs.CodeServerInternalError, "msg": err.Error()})
		return
	}
	if err := s.Store.TogglePin(c.Request.Context(), c.Param("id"), midsec.UserKey(c), req.Rank); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

type muteReq struct {
	On bool `json:"on"`
}

func (s *Server) HandleMute(c *gin.Context) {
	var req muteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": errs.CodeServerInternalError, "msg": err.Error()})
		return
	}
	if err := s.Store.Mute(c.Request.Context(), c.Param("id"), midsec.UserKey(c), req.On); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// HandleDeleteRoom 默认软删（只影响自己的视图）；?hard=true 整房抹掉。
func (s *Server) HandleDeleteRoom(c *gin.Context) {
	me := midsec.UserKey(c)
	var err error
	if c.Query("hard") == "true" {
		err = s.Store.HardDelete(c.Request.Context(), c.Param("id"), me)
	} else {
		err = s.Store.SoftDelete(c.Request.Context(), c.Param("id"), me)
	}
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

func (s *Server) HandleRestoreRoom(c *gin.Context) {
	if err := s.Store.Restore(c.Request.Context(), c.Param("id"), midsec.UserKey(c)); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

type sendMessageReq struct {
	Text   string                `json:"text"`
	Attach *chatmodel.Attachment `json:"attachment"`
}

func (s *Server) HandleSendMessage(c *gin.Context) {
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": errs.CodeServerInternalError, "msg": err.Error()})
		return
	}
	if req.Text == "" && req.Attach == nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": errs.CodeServerInternalError, "msg": "empty message"})
		return
	}
	msg, err := s.Store.SendMessage(c.Request.Context(), c.Param("id"), midsec.UserKey(c), req.Text, req.Attach)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, msg)
}

func (s *Server) HandleMessages(c *gin.Context) {
	before, _ := strconv.ParseInt(c.DefaultQuery("before", "0"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	msgs, err := s.Store.Messages(c.Request.Context(), c.Param("id"), midsec.UserKey(c), before, limit)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, msgs)
}

func (s *Server) HandleDeleteMessage(c *gin.Context) {
	if err := s.Store.DeleteMessage(c.Request.Context(), c.Param("id"), c.Param("msgId"), midsec.UserKey(c)); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// HandleUnreadCounts 角标缓存的快速口径；权威口径是房间文档推导。
func (s *Server) HandleUnreadCounts(c *gin.Context) {
	ok(c, storage.UnreadCounts(c.Request.Context(), midsec.UserKey(c)))
}
