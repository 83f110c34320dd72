package service

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"urlshort-go/internal/apperrors"
	"urlshort-go/internal/model"
	"urlshort-go/internal/repository"
	"urlshort-go/pkg/logging"
	"urlshort-go/response"
)

// CreateAllowedDomain 新增目标域名白名单
func CreateAllowedDomain(ctx context.Context, domain string) error {
	domain = normalizeDomain(domain)
	if domain == "" {
		return apperrors.BusinessError(http.StatusBadRequest, "error.domain_invalid")
	}

	var existing model.AllowedDomain
	if err := repository.DB.WithContext(ctx).
		Where("domain = ?", domain).
		First(&existing).Error; err == nil {
		return apperrors.BusinessError(http.StatusConflict, "error.domain_exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.SystemErrorDefault()
	}

	if err := repository.DB.WithContext(ctx).
		Create(&model.AllowedDomain{Domain: domain}).Error; err != nil {
		logging.Logger.Warn("创建白名单域名失败", zap.Error(err))
		return apperrors.SystemErrorDefault()
	}
	return nil
}

// ListAllowedDomains 分页查询白名单
func ListAllowedDomains(ctx context.Context, page, size int, search string) (*response.PageResponse[model.AllowedDomain], error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 10
	}

	db := repository.DB.WithContext(ctx).Model(&model.AllowedDomain{})
	if search != "" {
		db = db.Where("domain LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, apperrors.SystemError("统计白名单记录数失败: " + err.Error())
	}

	if total == 0 {
		return &response.PageResponse[model.AllowedDomain]{
			Page: page,
			Size: size,
			List: []model.AllowedDomain{},
		}, nil
	}

	var domains []model.AllowedDomain
	if err := db.
		Limit(size).
		Offset((page - 1) * size).
		Order("id DESC").
		Find(&domains).Error; err != nil {
		return nil, apperrors.SystemError("查询域名白名单失败: " + err.Error())
	}

	totalPage := (int(total) + size - 1) / size

	return &response.PageResponse[model.AllowedDomain]{
		Page:      page,
		Size:      size,
		Total:     int(total),
		TotalPage: totalPage,
		List:      domains,
	}, nil
}

// DeleteAllowedDomain 删除白名单域名
func DeleteAllowedDomain(ctx context.Context, id uint) error {
	if err := repository.DB.WithContext(ctx).
		Delete(&model.AllowedDomain{}, id).Error; err != nil {
		return apperrors.SystemError("删除域名白名单失败: " + err.Error())
	}
	return nil
}

// DestinationAllowed 校验目标地址的域名。白名单为空时不限制；
// 有记录时要求 host 精确匹配或是白名单域名的子域
func DestinationAllowed(ctx context.Context, originalURL string) (bool, error) {
	var total int64
	if err := repository.DB.WithContext(ctx).
		Model(&model.AllowedDomain{}).
		Count(&total).Error; err != nil {
		return false, err
	}
	if total == 0 {
		return true, nil
	}

	u, err := url.Parse(originalURL)
	if err != nil {
		return false, nil
	}
	host := strings.ToLower(u.Hostname())

	var domains []model.AllowedDomain
	if err := repository.DB.WithContext(ctx).Find(&domains).Error; err != nil {
		return false, err
	}

	for _, d := range domains {
		if host == d.Domain || strings.HasSuffix(host, "."+d.Domain) {
			return true, nil
		}
	}
	return false, nil
}

// normalizeDomain 接受裸域名或完整 URL，统一成小写 host
func normalizeDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return ""
	}

	if strings.Contains(domain, "://") {
		u, err := url.Parse(domain)
		if err != nil {
			return ""
		}
		domain = u.Hostname()
	}

	domain = strings.TrimPrefix(domain, "www.")
	if strings.ContainsAny(domain, "/ \t") || !strings.Contains(domain, ".") {
		return ""
	}
	return domain
}
