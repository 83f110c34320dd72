package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"urlshort-go/internal/apperrors"
	"urlshort-go/internal/dto"
	"urlshort-go/internal/middleware"
	"urlshort-go/internal/service"
	"urlshort-go/response"
)

// LinkAnalyticsHandler 单条链接的聚合统计
func LinkAnalyticsHandler(c *gin.Context) {
	var q dto.AnalyticsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(apperrors.InvalidRequestErrorDefault())
		return
	}

	analytics, err := service.LinkAnalytics(c.Request.Context(), middleware.OwnerID(c), c.Param("code"), q)
	if err != nil {
		zap.L().Warn("Link analytics query failed",
			zap.Error(err),
			zap.String("short_code", c.Param("code")),
		)
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.OK(analytics, "success"))
}

// DashboardAnalyticsHandler 用户看板汇总
func DashboardAnalyticsHandler(c *gin.Context) {
	var q dto.AnalyticsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(apperrors.InvalidRequestErrorDefault())
		return
	}

	analytics, err := service.DashboardAnalytics(c.Request.Context(), middleware.OwnerID(c), q)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.OK(analytics, "success"))
}

// BatchGeoHandler 批量 IP 地理解析。单个 IP 失败不影响整批
func BatchGeoHandler(c *gin.Context) {
	var req dto.BatchGeoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.InvalidRequestErrorDefault())
		return
	}

	results := service.LookupGeoBatch(c.Request.Context(), req.IPs)
	c.JSON(http.StatusOK, response.OK(results, "success"))
}
