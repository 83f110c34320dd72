package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"urlshort-go/internal/apperrors"
	"urlshort-go/internal/cache"
	"urlshort-go/internal/dto"
	"urlshort-go/internal/model"
	"urlshort-go/internal/repository"
	"urlshort-go/pkg/logging"
)

const (
	topLinksLimit       = 10
	recentActivityLimit = 15
	breakdownLimit      = 10
)

type dateRange struct {
	Start time.Time
	End   time.Time
}

// buildDateRange 解析统计区间：显式起止时间优先，否则按 period 预设
func buildDateRange(q dto.AnalyticsQuery) (dateRange, string) {
	now := time.Now()

	if q.StartDate != "" && q.EndDate != "" {
		start, errStart := time.Parse("2006-01-02", q.StartDate)
		end, errEnd := time.Parse("2006-01-02", q.EndDate)
		if errStart == nil && errEnd == nil && !end.Before(start) {
			end = end.Add(24*time.Hour - time.Nanosecond)
			tag := fmt.Sprintf("%s_%s", start.Format("20060102"), end.Format("20060102"))
			return dateRange{Start: start, End: end}, tag
		}
	}

	var days int
	switch q.Period {
	case "7d":
		days = 7
	case "90d":
		days = 90
	case "1y":
		days = 365
	default:
		q.Period = "30d"
		days = 30
	}
	return dateRange{Start: now.AddDate(0, 0, -days), End: now}, q.Period
}

// LinkAnalytics 单条链接的聚合统计。结果缓存 30 分钟
func LinkAnalytics(ctx context.Context, ownerID uint, shortCode string, q dto.AnalyticsQuery) (*dto.LinkAnalytics, error) {
	var link model.Link
	if err := repository.DB.WithContext(ctx).
		Where("short_code = ? AND owner_id = ?", shortCode, ownerID).
		First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundError()
		}
		return nil, apperrors.SystemErrorDefault()
	}

	rng, rangeTag := buildDateRange(q)

	// 聚合结果可重算，先看缓存
	if raw, hit := cache.GetAnalytics(shortCode, rangeTag); hit {
		var cached dto.LinkAnalytics
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
		logging.Logger.Warn("聚合缓存反序列化失败", zap.String("short_code", shortCode))
	}

	result := &dto.LinkAnalytics{}
	result.Link.ShortCode = link.ShortCode
	result.Link.OriginalURL = link.OriginalURL
	result.Link.TotalClicks = link.ClickCount
	result.Period = dto.PeriodView{StartDate: rng.Start, EndDate: rng.End}

	base := func() *gorm.DB {
		return repository.DB.WithContext(ctx).
			Model(&model.AnalyticsEvent{}).
			Where("link_id = ? AND timestamp BETWEEN ? AND ?", link.ID, rng.Start, rng.End)
	}

	if err := base().Count(&result.TotalClicks).Error; err != nil {
		return nil, apperrors.SystemErrorDefault()
	}
	if err := base().Where("is_unique = ?", true).Count(&result.UniqueClicks).Error; err != nil {
		return nil, apperrors.SystemErrorDefault()
	}
	if err := base().Where("is_bot = ?", true).Count(&result.BotClicks).Error; err != nil {
		return nil, apperrors.SystemErrorDefault()
	}

	var err error
	if result.DailyClicks, err = dailyCounts(base()); err != nil {
		return nil, apperrors.SystemErrorDefault()
	}
	if result.Devices, err = breakdown(base(), "device"); err != nil {
		return nil, apperrors.SystemErrorDefault()
	}
	if result.Browsers, err = breakdown(base(), "browser_name"); err != nil {
		return nil, apperrors.SystemErrorDefault()
	}
	if result.Locations, err = breakdown(base(), "country"); err != nil {
		return nil, apperrors.SystemErrorDefault()
	}
	if result.Referrers, err = referrerBreakdown(base()); err != nil {
		return nil, apperrors.SystemErrorDefault()
	}

	if raw, err := json.Marshal(result); err == nil {
		cache.PutAnalytics(shortCode, rangeTag, raw)
	}

	return result, nil
}

// DashboardAnalytics 用户所有链接的汇总视图
func DashboardAnalytics(ctx context.Context, ownerID uint, q dto.AnalyticsQuery) (*dto.DashboardAnalytics, error) {
	rng, _ := buildDateRange(q)

	result := &dto.DashboardAnalytics{
		Period:         dto.PeriodView{StartDate: rng.Start, EndDate: rng.End},
		TopLinks:       []dto.TopLink{},
		RecentActivity: []dto.RecentClick{},
		DailyClicks:    []dto.DailyCount{},
		Devices:        []dto.CountBucket{},
		Locations:      []dto.CountBucket{},
	}

	var links []model.Link
	if err := repository.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Find(&links).Error; err != nil {
		return nil, apperrors.SystemErrorDefault()
	}

	result.Summary.TotalLinks = int64(len(links))
	if len(links) == 0 {
		return result, nil
	}

	ids := make([]uint, 0, len(links))
	for _, link := range links {
		if link.ClickCount > 0 {
			result.Summary.ActiveLinks++
		}
		ids = append(ids, link.ID)
	}

	base := func() *gorm.DB {
		return repository.DB.WithContext(ctx).
			Model(&model.AnalyticsEvent{}).
			Where("link_id IN ? AND timestamp BETWEEN ? AND ?", ids, rng.Start, rng.End)
	}

	if err := base().Count(&result.Summary.TotalClicks).Error; err != nil {
		return nil, apperrors.SystemErrorDefault()
	}
	if err := base().Where("is_unique = ?", true).Count(&result.Summary.UniqueClicks).Error; err != nil {
		return nil, apperrors.SystemErrorDefault()
	}
	result.Summary.AvgClicksPerURL = result.Summary.TotalClicks / int64(len(links))

	// 点击量排行
	if err := repository.DB.WithContext(ctx).
		Model(&model.Link{}).
		Select("short_code, original_url, click_count").
		Where("owner_id = ?", ownerID).
		Order("click_count DESC").
		Limit(topLinksLimit).
		Scan(&result.TopLinks).Error; err != nil {
		return nil, apperrors.SystemErrorDefault()
	}

	// 最近访问，联表带出目标地址
	if err := repository.DB.WithContext(ctx).
		Model(&model.AnalyticsEvent{}).
		Select("analytics_events.short_code, links.original_url, analytics_events.country, analytics_events.device, analytics_events.timestamp").
		Joins("JOIN links ON links.id = analytics_events.link_id").
		Where("analytics_events.link_id IN ?", ids).
		Order("analytics_events.timestamp DESC").
		Limit(recentActivityLimit).
		Scan(&result.RecentActivity).Error; err != nil {
		return nil, apperrors.SystemErrorDefault()
	}

	var err error
	if result.DailyClicks, err = dailyCounts(base()); err != nil {
		return nil, apperrors.SystemErrorDefault()
	}
	if result.Devices, err = breakdown(base(), "device"); err != nil {
		return nil, apperrors.SystemErrorDefault()
	}
	if result.Locations, err = breakdown(base(), "country"); err != nil {
		return nil, apperrors.SystemErrorDefault()
	}

	return result, nil
}

// dailyCounts 按天分组计数
func dailyCounts(db *gorm.DB) ([]dto.DailyCount, error) {
	rows := []dto.DailyCount{}
	err := db.
		Select("DATE(timestamp) AS date, COUNT(*) AS count").
		Group("DATE(timestamp)").
		Order("date").
		Scan(&rows).Error
	return rows, err
}

// breakdown 按单个离散维度分组计数，取前 N
func breakdown(db *gorm.DB, column string) ([]dto.CountBucket, error) {
	rows := []dto.CountBucket{}
	err := db.
		Select(column + " AS label, COUNT(*) AS count").
		Group(column).
		Order("count DESC").
		Limit(breakdownLimit).
		Scan(&rows).Error
	return rows, err
}

// referrerBreakdown 来源统计，空 referrer 归为 Direct
func referrerBreakdown(db *gorm.DB) ([]dto.CountBucket, error) {
	rows := []dto.CountBucket{}
	err := db.
		Select("CASE WHEN referrer = '' THEN 'Direct' ELSE referrer END AS label, COUNT(*) AS count").
		Group("label").
		Order("count DESC").
		Limit(breakdownLimit).
		Scan(&rows).Error
	return rows, err
}
