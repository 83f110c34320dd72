package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"urlshort-go/internal/apperrors"
)

// OwnerKey 上下文里的用户 ID 键
const OwnerKey = "ownerID"

// OwnerMiddleware 从上游认证网关注入的 X-User-ID 头里取用户身份。
// 令牌签发和校验不在本服务内做
func OwnerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-ID")
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			_ = c.Error(apperrors.BusinessError(http.StatusUnauthorized, "error.unauthorized"))
			c.Abort()
			return
		}
		c.Set(OwnerKey, uint(id))
		c.Next()
	}
}

// OwnerID 取当前请求的用户 ID
func OwnerID(c *gin.Context) uint {
	return c.GetUint(OwnerKey)
}
