package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"urlshort-go/internal/apperrors"
	"urlshort-go/internal/i18n"
	"urlshort-go/response"
)

// GlobalErrorMiddleware 全局错误中间件。AppError 的消息键统一在这里本地化
func GlobalErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			for _, err := range c.Errors {
				var appErr *apperrors.AppError
				if errors.As(err.Err, &appErr) {
					msg := appErr.Message
					if strings.HasPrefix(msg, "error.") {
						msg = i18n.T(c.Request.Context(), msg, nil)
					}
					c.AbortWithStatusJSON(appErr.Code, response.Error(msg))
					return
				}
			}

			// 默认处理未定义的错误
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				response.Error(i18n.T(c.Request.Context(), "error.system", nil)))
			return
		}
	}
}
