package api

import (
	"net/http"

	mongoutil "ClassBank/data/database/mgo/mongoutil"
	chatstore "ClassBank/module/chat/store"
	identity "ClassBank/module/identity/service"
	notifysvc "ClassBank/module/notify/service"
	"ClassBank/tools/errs"
	"ClassBank/tools/security"

	"github.com/gin-gonic/gin"
)

// Server HTTP 侧入口，把各模块的服务对象聚在一起。
type Server struct {
	Cli    *mongoutil.Client
	Res    *identity.Resolver
	Store  *chatstore.Store
	Notify *notifysvc.Fanout
	Jwt    security.Options
}

func NewServer(cli *mongoutil.Client, res *identity.Resolver, store *chatstore.Store, notify *notifysvc.Fanout, jwt security.Options) *Server {
	return &Server{Cli: cli, Res: res, Store: store, Notify: notify, Jwt: jwt}
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"code": 0, "data": data})
}

// fail 业务码翻成 HTTP 状态。账号歧义对调用方就是没找到
//（绝不自动挑一个），也归 404，业务码 1102 留给客户端区分提示文案。
func fail(c *gin.Context, err error) {
	code := errs.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case errs.CodeUserNotFound, errs.CodeRoomNotFound, errs.CodeAmbiguousUser:
		status = http.StatusNotFound
	case errs.CodeWrongCredentials, errs.CodeTokenExpired:
		status = http.StatusUnauthorized
	case errs.CodeNotRoomMember, errs.CodeNotTeamAdmin:
		status = http.StatusForbidden
	case errs.CodePartialBroadcast:
		status = http.StatusBadGateway
	case errs.CodeStoreUnavailable, errs.CodeTimeout:
		status = http.StatusServiceUnavailable
	}
	if code == 0 {
		code = errs.CodeServerInternalError
	}
	c.JSON(status, gin.H{"code": code, "msg": err.Error()})
}
