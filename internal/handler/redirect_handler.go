package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"urlshort-go/internal/apperrors"
	"urlshort-go/internal/i18n"
	"urlshort-go/internal/service"
	"urlshort-go/response"
)

// RedirectHandler 短链重定向入口，挂在 NoRoute 上兜住所有非 API 路径。
// 成功 302，找不到/停用/过期统一 404，存储故障 5xx。
// 响应不等埋点：埋点早在 service 层就异步投递出去了
func RedirectHandler(c *gin.Context) {
	if c.Request.Method != http.MethodGet {
		c.Status(http.StatusNotFound)
		return
	}

	shortCode := strings.TrimPrefix(c.Request.URL.Path, "/")
	if shortCode == "" || strings.Contains(shortCode, "/") {
		c.JSON(http.StatusNotFound,
			response.Error(i18n.T(c.Request.Context(), "error.link_not_found", nil)))
		return
	}

	originalURL, err := service.ResolveAndRecord(
		c.Request.Context(),
		shortCode,
		c.ClientIP(),
		c.Request.UserAgent(),
		c.Request.Referer(),
	)
	if err != nil {
		status := http.StatusInternalServerError
		msg := "error.system"
		if appErr, ok := err.(*apperrors.AppError); ok {
			status = appErr.Code
			msg = appErr.Message
		}
		c.JSON(status, response.Error(i18n.T(c.Request.Context(), msg, nil)))
		return
	}

	// 302 不让中间层缓存，停用/过期要立刻生效
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Redirect(http.StatusFound, originalURL)
}
