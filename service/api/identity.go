package api

import (
	"context"
	"net/http"
	"time"

	midsec "ClassBank/middleware/security"
	"ClassBank/module/identity/cache"
	"ClassBank/module/identity/model"
	identity "ClassBank/module/identity/service"
	"ClassBank/service/storage"
	"ClassBank/tools/errs"
	"ClassBank/tools/ids"
	"ClassBank/tools/security"

	"github.com/gin-gonic/gin"
)

type loginReq struct {
	Identifier string `json:"identifier" binding:"required"`
	Pin        string `json:"pin"`
}

// HandleLogin 标识符可以是邮箱、登录ID或姓名，按三段式解析。
// "账户不存在"和"口令错误"给不同的业务码。
func (s *Server) HandleLogin(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": errs.CodeServerInternalError, "msg": err.Error()})
		return
	}
	rec, err := s.Res.Login(c.Request.Context(), req.Identifier, req.Pin)
	if err != nil {
		fail(c, err)
		return
	}
	token, expireAt, err := security.Generate(s.Jwt, rec.Key, rec.Name)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{
		"token":    token,
		"expireAt": expireAt.UnixMilli(),
		"user":     gin.H{"key": rec.Key, "name": rec.Name, "type": rec.Type, "role": rec.Role},
	})
}

type createUserReq struct {
	LoginID  string `json:"loginId"`
	Email    string `json:"email"`
	Name     string `json:"name" binding:"required"`
	Type     string `json:"type"`
	Role     string `json:"role"`
	JobTitle string `json:"jobTitle"`
	Pin      string `json:"pin"`
}

// HandleCreateUser 建档；重复提交按幂等处理，返回同一个 key。
func (s *Server) HandleCreateUser(c *gin.Context) {
	var req createUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": errs.CodeServerInternalError, "msg": err.Error()})
		return
	}
	rec := &model.UserRecord{
		LoginID:  req.LoginID,
		Email:    req.Email,
		Name:     req.Name,
		Type:     req.Type,
		Role:     req.Role,
		JobTitle: req.JobTitle,
	}
	if req.Pin != "" {
		rec.PinHash = identity.HashPin(req.Pin)
	}
	key, err := s.Res.CreateUser(c.Request.Context(), rec)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"key": key})
}

// HandleResolve 任意标识符换规范键；找不到 404，撞到多个账户 409。
func (s *Server) HandleResolve(c *gin.Context) {
	identifier := c.Query("identifier")
	if identifier == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": errs.CodeServerInternalError, "msg": "identifier required"})
		return
	}
	key, err := s.Res.Resolve(c.Request.Context(), identifier)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"key": key})
}

// HandleSelf "我的账户"刷新：权威库取数，和会话缓存合并后返回。
// diet 投影绝不冲掉本地明细，见 cache.Reconcile。
func (s *Server) HandleSelf(c *gin.Context) {
	userKey := midsec.UserKey(c)
	merged, err := cache.RefreshSelf(c.Request.Context(), userKey, func(ctx context.Context) (*model.UserRecord, error) {
		return s.Res.ResolveRecord(ctx, userKey)
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, merged)
}

type txReq struct {
	Identifier   string  `json:"identifier"` // 缺省记到自己账上
	Kind         string `json:"kind" binding:"required"`
	Amount       int64  `json:"amount" binding:"required"`
	Currency     string `json:"currency"`
	Counterparty string `json:"counterparty"`
	Memo         string `json:"memo"`
}

// HandleAppendTransaction 记流水；目标可以是任意标识符，先解析再入账。
func (s *Server) HandleAppendTransaction(c *gin.Context) {
	var req txReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": errs.CodeServerInternalError, "msg": err.Error()})
		return
	}
	ctx := c.Request.Context()
	target := midsec.UserKey(c)
	if req.Identifier != "" {
		key, err := s.Res.Resolve(ctx, req.Identifier)
		if err != nil {
			fail(c, err)
			return
		}
		target = key
	}
	if req.Currency == "" {
		req.Currency = "KRW"
	}
	tx := model.Transaction{
		ID:           ids.GenerateString(),
		Kind:         req.Kind,
		Amount:       req.Amount,
		Currency:     req.Currency,
		Counterparty: req.Counterparty,
		Memo:         req.Memo,
		Timestamp:    time.Now().UnixMilli(),
	}
	if err := s.Res.AppendTransaction(ctx, target, tx); err != nil {
		fail(c, err)
		return
	}
	// 入账后对方的会话缓存已经过期，踢掉等下次刷新重建
	_ = storage.DropSelf(ctx, target)
	ok(c, gin.H{"txId": tx.ID})
}

type linkReq struct {
	IdentifierA string `json:"identifierA" binding:"required"`
	IdentifierB string `json:"identifierB" binding:"required"`
}

// HandleLinkAccounts 双向挂链接，两边一个事务写完。
func (s *Server) HandleLinkAccounts(c *gin.Context) {
	var req linkReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": errs.CodeServerInternalError, "msg": err.Error()})
		return
	}
	ctx := c.Request.Context()
	keyA, err := s.Res.Resolve(ctx, req.IdentifierA)
	if err != nil {
		fail(c, err)
		return
	}
	keyB, err := s.Res.Resolve(ctx, req.IdentifierB)
	if err != nil {
		fail(c, err)
		return
	}
	if err := identity.LinkAccounts(ctx, s.Cli, keyA, keyB); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"keyA": keyA, "keyB": keyB})
}

// HandleMergeDuplicates 运维入口：全库扫重、逐组合并。可重复执行。
func (s *Server) HandleMergeDuplicates(c *gin.Context) {
	report, err := identity.MergeDuplicates(c.Request.Context(), s.Cli)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, report)
}
