package constant

import (
	"fmt"
	"time"
)

// Redis 键模板
const (
	URLKey       = "url:%s"          // url:shortcode -> 链接快照（JSON）
	AnalyticsKey = "analytics:%s:%s" // analytics:shortcode:range -> 聚合结果（JSON）
	DailyUVKey   = "uv:%s:%s"        // uv:yyyyMMdd:shortcode -> 当日访客 IP 集合
)

// 缓存 TTL。链接快照不是权威数据，owner 改动时必须显式失效
const (
	URLCacheTTL       = time.Hour        // 链接快照
	EmptyCacheTTL     = 5 * time.Minute  // 空值缓存，防穿透
	AnalyticsCacheTTL = 30 * time.Minute // 聚合结果可重算，TTL 更短
	DailyUVTTL        = 3 * 24 * time.Hour
)

// GetURLKey 生成链接快照键
func GetURLKey(shortCode string) string {
	return fmt.Sprintf(URLKey, shortCode)
}

// GetAnalyticsKey 生成聚合缓存键（rangeTag 形如 30d 或 20250101_20250131）
func GetAnalyticsKey(shortCode, rangeTag string) string {
	return fmt.Sprintf(AnalyticsKey, shortCode, rangeTag)
}

// GetDailyUVKey 生成当日 UV 集合键（日期格式 yyyyMMdd）
func GetDailyUVKey(shortCode string, date string) string {
	return fmt.Sprintf(DailyUVKey, date, shortCode)
}

// GetDateKey 当前日期键（格式：yyyyMMdd）
func GetDateKey() string {
	return time.Now().Format("20060102")
}
