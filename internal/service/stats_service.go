package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"urlshort-go/internal/model"
	"urlshort-go/internal/repository"
	"urlshort-go/pkg/logging"
)

// RollupDailyStats 把 analytics_events 按天汇总进 daily_stats，给看板图表省掉重复聚合。
// 定时任务调用；回填今天和昨天，晚到的埋点事件能被第二天的轮次补上
func RollupDailyStats() error {
	logging.Logger.Info("RollupDailyStats start")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for _, day := range []time.Time{time.Now(), time.Now().AddDate(0, 0, -1)} {
		if err := rollupDay(ctx, day.Format("2006-01-02")); err != nil {
			logging.Logger.Error("按天汇总失败",
				zap.String("date", day.Format("2006-01-02")),
				zap.Error(err))
			return err
		}
	}

	logging.Logger.Info("RollupDailyStats end")
	return nil
}

type dailyRollupRow struct {
	LinkID uint
	PV     int64
	UV     int64
}

func rollupDay(ctx context.Context, date string) error {
	var rows []dailyRollupRow
	err := repository.DB.WithContext(ctx).
		Model(&model.AnalyticsEvent{}).
		Select("link_id, COUNT(*) AS pv, SUM(CASE WHEN is_unique THEN 1 ELSE 0 END) AS uv").
		Where("DATE(timestamp) = ?", date).
		Group("link_id").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	for _, row := range rows {
		stat := &model.DailyStat{
			LinkID: row.LinkID,
			Date:   date,
			PV:     row.PV,
			UV:     row.UV,
		}

		db := repository.DB.WithContext(ctx).
			Where("link_id = ? AND date = ?", row.LinkID, date).
			Assign("pv", row.PV, "uv", row.UV).
			FirstOrCreate(stat)
		if db.Error != nil {
			logging.Logger.Error("Failed to insert or update daily stat",
				zap.Uint("link_id", row.LinkID),
				zap.String("date", date),
				zap.Int64("pv", row.PV),
				zap.Int64("uv", row.UV),
				zap.Error(db.Error))
		}
	}

	return nil
}

// GetDailyStats 查询某条链接的日统计（owner 校验在调用方）
func GetDailyStats(ctx context.Context, linkID uint) ([]model.DailyStat, error) {
	var stats []model.DailyStat
	err := repository.DB.WithContext(ctx).
		Where("link_id = ?", linkID).
		Order("date DESC").
		Find(&stats).Error
	return stats, err
}
