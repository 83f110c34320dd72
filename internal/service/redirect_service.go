package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"urlshort-go/internal/apperrors"
	"urlshort-go/internal/cache"
	"urlshort-go/internal/model"
	"urlshort-go/internal/repository"
	"urlshort-go/pkg/logging"
	"urlshort-go/pkg/utils"
)

// ResolveAndRecord 重定向核心契约：命中则原子地把点击数 +1 并返回目标地址，
// 同时异步投递一条埋点任务；未命中返回统一的 NotFound。
//
// 匹配 + 自增必须是对数据库的单条条件 UPDATE，绝不能拆成先查再改，
// 否则并发点击会丢计数，过期/停用的瞬间还可能多计。
// 不存在、已停用、已过期对外是同一个 NotFound，不区分。
// 埋点失败绝不影响已经提交的计数和本次重定向结果
func ResolveAndRecord(ctx context.Context, shortCode, clientIP, rawUserAgent, referrer string) (string, error) {
	// 非法 code 在碰数据库之前就拒绝
	if err := utils.ValidateShortCode(shortCode); err != nil {
		logging.Logger.Info("无效的 short_code",
			zap.String("short_code", shortCode),
			zap.String("action", "validate_short_code"))
		return "", apperrors.NotFoundError()
	}

	// 原子操作：匹配 active 且未过期的记录并自增计数，一条 SQL 完成。
	// 重定向判定永远打到权威存储，缓存在这条路径上说了不算
	result := repository.DB.WithContext(ctx).
		Model(&model.Link{}).
		Where("short_code = ? AND is_active = ? AND (expires_at IS NULL OR expires_at > ?)",
			shortCode, true, time.Now()).
		UpdateColumn("click_count", gorm.Expr("click_count + ?", 1))

	if result.Error != nil {
		logging.Logger.Error("重定向计数更新失败",
			zap.String("short_code", shortCode),
			zap.Error(result.Error))
		return "", apperrors.SystemErrorDefault()
	}

	if result.RowsAffected == 0 {
		// 缓存空值，防穿透
		cache.PutEmpty(shortCode)
		return "", apperrors.NotFoundError()
	}

	// 计数已提交，取目标地址。MySQL 没有 UPDATE..RETURNING，这里补一次读；
	// 如果记录在两条语句之间被删掉，宁可报 5xx 也不重定向到任何过期地址
	var link model.Link
	if err := repository.DB.WithContext(ctx).
		Where("short_code = ?", shortCode).
		First(&link).Error; err != nil {
		logging.Logger.Error("重定向记录读取失败",
			zap.String("short_code", shortCode),
			zap.Error(err))
		return "", apperrors.SystemErrorDefault()
	}

	// 异步埋点：投递即返回，不等待地理解析、UA 解析和事件落库
	SubmitClick(ClickTask{
		LinkID:    link.ID,
		ShortCode: link.ShortCode,
		IP:        clientIP,
		UserAgent: rawUserAgent,
		Referrer:  referrer,
		Snapshot: &cache.LinkSnapshot{
			ID:          link.ID,
			ShortCode:   link.ShortCode,
			OriginalURL: link.OriginalURL,
			IsActive:    link.IsActive,
			ExpiresAt:   link.ExpiresAt,
		},
	})

	return link.OriginalURL, nil
}
