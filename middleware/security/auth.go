package security

import (
	"net/http"
	"strings"

	"ClassBank/global/config"
	"ClassBank/tools/errs"
	"ClassBank/tools/security"

	"github.com/gin-gonic/gin"
)

// —— context key ——
// 后续 handler 统一用这俩 key 读取
const (
	CtxUserKey     = "userKey"     // string，规范键
	CtxDisplayName = "displayName" // string
)

type Options struct {
	Jwt security.Options

	// 读取哪个请求头
	HeaderToken               string // 默认 "authorization"
	EnableAuthorizationBearer bool   // 默认 true
}

func DefaultOptions() *Options {
	return &Options{
		Jwt:                       security.DefaultOptions(config.GetJwtSecret()),
		HeaderToken:               "authorization",
		EnableAuthorizationBearer: true,
	}
}

func Middleware(opts *Options) gin.HandlerFunc {
	if opts == nil {
		opts = DefaultOptions()
	}
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(opts.HeaderToken))

		// 兼容 Authorization: Bearer xxx
		if token == "" && opts.EnableAuthorizationBearer {
			if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
				if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
					token = strings.TrimSpace(authz[len("bearer "):])
				}
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": errs.CodeTokenExpired, "msg": "missing token",
			})
			return
		}

		claims, err := security.Verify(opts.Jwt, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": errs.CodeTokenExpired, "msg": "invalid or expired token",
			})
			return
		}

		c.Set(CtxUserKey, claims.Subject())
		c.Set(CtxDisplayName, claims.DisplayName())
		c.Next()
	}
}

// UserKey 从 context 取鉴权后的规范键，没有返回空串。
func UserKey(c *gin.Context) string {
	return c.GetString(CtxUserKey)
}
