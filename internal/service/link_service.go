package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"urlshort-go/internal/apperrors"
	"urlshort-go/internal/cache"
	"urlshort-go/internal/dto"
	"urlshort-go/internal/model"
	"urlshort-go/internal/repository"
	"urlshort-go/pkg/logging"
	"urlshort-go/pkg/utils"
	"urlshort-go/response"
)

const maxGenerateAttempts = 5

// CreateLink 创建短链。自定义别名和随机 code 在同一个命名空间里查重
func CreateLink(ctx context.Context, ownerID uint, req dto.CreateLinkRequest) (*model.Link, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.InvalidRequestError(err.Error())
	}

	allowed, err := DestinationAllowed(ctx, req.OriginalURL)
	if err != nil {
		return nil, apperrors.SystemErrorDefault()
	}
	if !allowed {
		return nil, apperrors.BusinessError(http.StatusBadRequest, "error.domain_not_allowed")
	}

	shortCode := req.CustomAlias
	if shortCode != "" {
		// 别名占用检查
		var existing model.Link
		if err := repository.DB.WithContext(ctx).
			Where("short_code = ?", shortCode).
			First(&existing).Error; err == nil {
			return nil, apperrors.BusinessError(http.StatusConflict, "error.alias_taken")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			logging.Logger.Warn("查询短链失败", zap.Error(err))
			return nil, apperrors.SystemErrorDefault()
		}
	} else {
		shortCode, err = generateUniqueCode(ctx)
		if err != nil {
			logging.Logger.Error("生成短码失败", zap.Error(err))
			return nil, apperrors.SystemErrorDefault()
		}
	}

	link := &model.Link{
		ShortCode:   shortCode,
		OriginalURL: strings.TrimSpace(req.OriginalURL),
		OwnerID:     ownerID,
		IsActive:    true,
		ExpiresAt:   req.ExpiresAt,
		CustomAlias: req.CustomAlias != "",
		Description: strings.TrimSpace(req.Description),
		Tags:        joinTags(req.Tags),
	}

	if err := repository.DB.WithContext(ctx).Create(link).Error; err != nil {
		// 唯一索引兜底：并发建链撞到同一个 code
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.BusinessError(http.StatusConflict, "error.alias_taken")
		}
		logging.Logger.Warn("数据库操作失败", zap.Error(err))
		return nil, apperrors.SystemErrorDefault()
	}

	// 建好就预热缓存，后续详情读可以直接命中
	cache.PutLink(&cache.LinkSnapshot{
		ID:          link.ID,
		ShortCode:   link.ShortCode,
		OriginalURL: link.OriginalURL,
		IsActive:    link.IsActive,
		ExpiresAt:   link.ExpiresAt,
	})

	return link, nil
}

// generateUniqueCode 随机生成并查重，连续撞车就加长
func generateUniqueCode(ctx context.Context) (string, error) {
	length := viper.GetInt("shortlink.code_length")
	if length <= 0 {
		length = utils.DefaultCodeLength
	}

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code, err := utils.GenerateShortCode(length)
		if err != nil {
			return "", err
		}

		var existing model.Link
		err = repository.DB.WithContext(ctx).
			Where("short_code = ?", code).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}

		if attempt >= maxGenerateAttempts-2 {
			length++
		}
	}
	return "", errors.New("unable to generate unique short code")
}

// ListLinks 分页查询当前用户的短链，支持模糊搜索
func ListLinks(ctx context.Context, ownerID uint, page, size int, search string) (*response.PageResponse[model.Link], error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 10
	}

	db := repository.DB.WithContext(ctx).Model(&model.Link{}).Where("owner_id = ?", ownerID)
	if search != "" {
		pattern := "%" + search + "%"
		db = db.Where("original_url LIKE ? OR description LIKE ? OR short_code LIKE ?",
			pattern, pattern, pattern)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, apperrors.SystemError("统计短链记录数失败: " + err.Error())
	}

	if total == 0 {
		return &response.PageResponse[model.Link]{
			Page: page,
			Size: size,
			List: []model.Link{},
		}, nil
	}

	var links []model.Link
	if err := db.
		Limit(size).
		Offset((page - 1) * size).
		Order("id DESC").
		Find(&links).Error; err != nil {
		logging.Logger.Warn("数据库操作失败", zap.Error(err))
		return nil, apperrors.SystemErrorDefault()
	}

	totalPage := (int(total) + size - 1) / size

	return &response.PageResponse[model.Link]{
		Page:      page,
		Size:      size,
		Total:     int(total),
		TotalPage: totalPage,
		List:      links,
	}, nil
}

// GetLink 按 ID 查询，校验归属
func GetLink(ctx context.Context, ownerID, id uint) (*model.Link, error) {
	var link model.Link
	if err := repository.DB.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundError()
		}
		logging.Logger.Warn("查询短链失败", zap.Uint("id", id), zap.Error(err))
		return nil, apperrors.SystemErrorDefault()
	}
	return &link, nil
}

// GetLinkSnapshotByCode 详情类只读查询，走缓存旁路。
// 这里允许读到 TTL 窗口内的旧快照，重定向判定不经过这条路
func GetLinkSnapshotByCode(ctx context.Context, shortCode string) (*cache.LinkSnapshot, error) {
	if err := utils.ValidateShortCode(shortCode); err != nil {
		return nil, apperrors.NotFoundError()
	}

	if snap, hit := cache.GetLink(shortCode); hit {
		if snap == nil {
			// 空值缓存命中
			return nil, apperrors.NotFoundError()
		}
		return snap, nil
	}

	var link model.Link
	if err := repository.DB.WithContext(ctx).
		Where("short_code = ?", shortCode).
		First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			cache.PutEmpty(shortCode)
			return nil, apperrors.NotFoundError()
		}
		return nil, apperrors.SystemErrorDefault()
	}

	snap := &cache.LinkSnapshot{
		ID:          link.ID,
		ShortCode:   link.ShortCode,
		OriginalURL: link.OriginalURL,
		IsActive:    link.IsActive,
		ExpiresAt:   link.ExpiresAt,
	}
	cache.PutLink(snap)
	return snap, nil
}

// UpdateLink 编辑描述/标签/启停/过期时间。改完必须使缓存失效
func UpdateLink(ctx context.Context, ownerID, id uint, req dto.UpdateLinkRequest) (*model.Link, error) {
	link, err := GetLink(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Tags != nil {
		updates["tags"] = joinTags(*req.Tags)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.ExpiresAt != nil {
		updates["expires_at"] = *req.ExpiresAt
	}

	if len(updates) == 0 {
		return link, nil
	}

	if err := repository.DB.WithContext(ctx).
		Model(link).
		Updates(updates).Error; err != nil {
		logging.Logger.Warn("更新短链失败",
			zap.Uint("id", id),
			zap.Error(err))
		return nil, apperrors.SystemErrorDefault()
	}

	// active/expiry/目标地址变了，旧快照不能再被读到
	cache.InvalidateLink(link.ShortCode)

	return link, nil
}

// DeleteLink 删除短链，级联删掉埋点事件和日统计，并使缓存失效
func DeleteLink(ctx context.Context, ownerID, id uint) error {
	link, err := GetLink(ctx, ownerID, id)
	if err != nil {
		return err
	}

	err = repository.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("link_id = ?", link.ID).Delete(&model.AnalyticsEvent{}).Error; err != nil {
			return err
		}
		if err := tx.Where("link_id = ?", link.ID).Delete(&model.DailyStat{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Link{}, link.ID).Error
	})
	if err != nil {
		logging.Logger.Warn("删除短链失败", zap.Uint("id", id), zap.Error(err))
		return apperrors.SystemErrorDefault()
	}

	cache.InvalidateLink(link.ShortCode)
	return nil
}

// LinkQRCode 生成短链地址的二维码 PNG
func LinkQRCode(ctx context.Context, ownerID, id uint, size int) ([]byte, error) {
	link, err := GetLink(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if size <= 0 || size > 1024 {
		size = 256
	}

	png, err := qrcode.Encode(ShortURL(link.ShortCode), qrcode.Medium, size)
	if err != nil {
		logging.Logger.Warn("生成二维码失败",
			zap.String("short_code", link.ShortCode),
			zap.Error(err))
		return nil, apperrors.SystemErrorDefault()
	}
	return png, nil
}

// ShortURL 拼出完整的短链地址
func ShortURL(shortCode string) string {
	base := strings.TrimRight(viper.GetString("server.base_url"), "/")
	if base == "" {
		base = "http://localhost:8080"
	}
	return base + "/" + shortCode
}

// ToLinkView 模型转对外视图
func ToLinkView(link *model.Link) dto.LinkView {
	return dto.LinkView{
		ID:          link.ID,
		OriginalURL: link.OriginalURL,
		ShortCode:   link.ShortCode,
		ShortURL:    ShortURL(link.ShortCode),
		ClickCount:  link.ClickCount,
		IsActive:    link.IsActive,
		CustomAlias: link.CustomAlias,
		Description: link.Description,
		Tags:        splitTags(link.Tags),
		ExpiresAt:   link.ExpiresAt,
		CreatedAt:   link.CreatedAt,
		UpdatedAt:   link.UpdatedAt,
	}
}

func joinTags(tags []string) string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	return strings.Join(cleaned, ",")
}

func splitTags(tags string) []string {
	if tags == "" {
		return []string{}
	}
	return strings.Split(tags, ",")
}
