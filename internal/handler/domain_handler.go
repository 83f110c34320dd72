package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"urlshort-go/internal/apperrors"
	"urlshort-go/internal/dto"
	"urlshort-go/internal/service"
	"urlshort-go/response"
)

func CreateAllowedDomainHandler(c *gin.Context) {
	var req dto.CreateAllowedDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.InvalidRequestErrorDefault())
		return
	}

	if err := service.CreateAllowedDomain(c.Request.Context(), req.Domain); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.OK("", "Domain added successfully"))
}

func ListAllowedDomainsHandler(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		_ = c.Error(apperrors.InvalidRequestError("error.invalid_page"))
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil || size < 1 || size > 100 {
		_ = c.Error(apperrors.InvalidRequestError("error.invalid_page_size"))
		return
	}

	pageResp, err := service.ListAllowedDomains(c.Request.Context(), page, size, c.Query("domain"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.OK(pageResp, "success"))
}

func DeleteAllowedDomainHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		_ = c.Error(apperrors.InvalidRequestError("error.invalid_id"))
		return
	}

	if err := service.DeleteAllowedDomain(c.Request.Context(), uint(id)); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.OK(struct{}{}, "Domain deleted successfully"))
}
