package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"urlshort-go/internal/apperrors"
	"urlshort-go/internal/dto"
	"urlshort-go/internal/middleware"
	"urlshort-go/internal/service"
	"urlshort-go/response"
)

func CreateLinkHandler(c *gin.Context) {
	var req dto.CreateLinkRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		zap.L().Warn("Request body binding failed",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		_ = c.Error(apperrors.InvalidRequestErrorDefault())
		return
	}

	link, err := service.CreateLink(c.Request.Context(), middleware.OwnerID(c), req)
	if err != nil {
		zap.L().Warn("Link creation failed",
			zap.Error(err),
			zap.String("custom_alias", req.CustomAlias),
		)
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, response.OK(service.ToLinkView(link), "Short URL created successfully"))
}

// ListLinksHandler 分页查询当前用户的短链列表
func ListLinksHandler(c *gin.Context) {
	pageStr := c.DefaultQuery("page", "1")
	sizeStr := c.DefaultQuery("size", "10")
	search := c.Query("search")

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		_ = c.Error(apperrors.InvalidRequestError("error.invalid_page"))
		return
	}

	size, err := strconv.Atoi(sizeStr)
	if err != nil || size < 1 || size > 100 {
		_ = c.Error(apperrors.InvalidRequestError("error.invalid_page_size"))
		return
	}

	pageResp, err := service.ListLinks(c.Request.Context(), middleware.OwnerID(c), page, size, search)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.OK(pageResp, "success"))
}

// GetLinkHandler 按 ID 查询详情
func GetLinkHandler(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	link, svcErr := service.GetLink(c.Request.Context(), middleware.OwnerID(c), id)
	if svcErr != nil {
		_ = c.Error(svcErr)
		return
	}

	c.JSON(http.StatusOK, response.OK(service.ToLinkView(link), "success"))
}

// GetLinkByCodeHandler 按 code 查询快照（详情类只读，走缓存旁路）
func GetLinkByCodeHandler(c *gin.Context) {
	snap, err := service.GetLinkSnapshotByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.OK(snap, "success"))
}

// UpdateLinkHandler 编辑描述/标签/启停/过期时间
func UpdateLinkHandler(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req dto.UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zap.L().Warn("Request body binding failed",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		_ = c.Error(apperrors.InvalidRequestErrorDefault())
		return
	}

	link, svcErr := service.UpdateLink(c.Request.Context(), middleware.OwnerID(c), id, req)
	if svcErr != nil {
		zap.L().Warn("Link update failed",
			zap.Error(svcErr),
			zap.Uint("id", id),
		)
		_ = c.Error(svcErr)
		return
	}

	c.JSON(http.StatusOK, response.OK(service.ToLinkView(link), "URL updated successfully"))
}

// DeleteLinkHandler 删除短链（级联删除埋点数据）
func DeleteLinkHandler(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := service.DeleteLink(c.Request.Context(), middleware.OwnerID(c), id); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.OK(struct{}{}, "URL deleted successfully"))
}

// LinkQRHandler 输出短链二维码 PNG
func LinkQRHandler(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	size, _ := strconv.Atoi(c.DefaultQuery("size", "256"))

	png, svcErr := service.LinkQRCode(c.Request.Context(), middleware.OwnerID(c), id, size)
	if svcErr != nil {
		_ = c.Error(svcErr)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// DailyStatsHandler 查询某条链接的日统计
func DailyStatsHandler(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	// 先做归属校验
	link, svcErr := service.GetLink(c.Request.Context(), middleware.OwnerID(c), id)
	if svcErr != nil {
		_ = c.Error(svcErr)
		return
	}

	stats, statsErr := service.GetDailyStats(c.Request.Context(), link.ID)
	if statsErr != nil {
		_ = c.Error(apperrors.SystemErrorDefault())
		return
	}

	c.JSON(http.StatusOK, response.OK(stats, "success"))
}

func parseID(c *gin.Context) (uint, *apperrors.AppError) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.InvalidRequestError("error.invalid_id")
	}
	return uint(id), nil
}
