// Package middleware 提供了开发后端处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"

	"cfs-assistant-go/internal/repository"
	"cfs-assistant-go/pkg/log"
	"cfs-assistant-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// ClaimsKey 是会话 claims 在 gin 上下文中的键。
const ClaimsKey = "claims"

// InvalidSessionDetail 是会话无效时返回给客户端的提示。
const InvalidSessionDetail = "Invalid or expired session. Please login again."

type tokenCarrier struct {
	Token string `json:"token"`
}

// TokenAuth 校验会话 token。token 可以来自查询参数 token，也可以来自 JSON 请求体的 token 字段；
// 请求体通过 ShouldBindBodyWith 缓存，后续处理函数仍可再次绑定。
func TokenAuth(jwtManager *token.JWTManager, blacklist repository.TokenBlacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if tokenString == "" && c.Request.Body != nil && c.Request.ContentLength != 0 {
			var carrier tokenCarrier
			if err := c.ShouldBindBodyWith(&carrier, binding.JSON); err == nil {
				tokenString = carrier.Token
			}
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": InvalidSessionDetail})
			return
		}

		claims, err := jwtManager.VerifyToken(tokenString)
		if err != nil {
			log.Debugf("TokenAuth: token 校验失败: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": InvalidSessionDetail})
			return
		}
		if blacklist.IsRevoked(claims.ID) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": InvalidSessionDetail})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// Claims 取出 TokenAuth 注入的 claims。
func Claims(c *gin.Context) (*token.CustomClaims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*token.CustomClaims)
	return claims, ok
}
