package service

import (
	"context"
	"testing"
	"time"

	"urlshort-go/internal/model"
	"urlshort-go/internal/repository"
)

func TestRollupDailyStats(t *testing.T) {
	initTestEnv(t)
	link := mustCreateLink(t, &model.Link{
		ShortCode:   "rollup",
		OriginalURL: "https://example.com",
		OwnerID:     1,
		IsActive:    true,
	})

	now := time.Now()
	seedEvent(t, link, func(e *model.AnalyticsEvent) { e.Timestamp = now })
	seedEvent(t, link, func(e *model.AnalyticsEvent) {
		e.Timestamp = now
		e.IP = "5.6.7.8"
	})
	seedEvent(t, link, func(e *model.AnalyticsEvent) {
		e.Timestamp = now
		e.IsUnique = false
	})
	// 昨天的事件也在回填范围内
	seedEvent(t, link, func(e *model.AnalyticsEvent) {
		e.Timestamp = now.AddDate(0, 0, -1)
	})

	if err := RollupDailyStats(); err != nil {
		t.Fatalf("RollupDailyStats failed: %v", err)
	}

	today := now.Format("2006-01-02")
	var stat model.DailyStat
	if err := repository.DB.Where("link_id = ? AND date = ?", link.ID, today).First(&stat).Error; err != nil {
		t.Fatalf("today's stat not found: %v", err)
	}
	if stat.PV != 3 || stat.UV != 2 {
		t.Errorf("today pv/uv = %d/%d, want 3/2", stat.PV, stat.UV)
	}

	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
	if err := repository.DB.Where("link_id = ? AND date = ?", link.ID, yesterday).First(&stat).Error; err != nil {
		t.Fatalf("yesterday's stat not found: %v", err)
	}
	if stat.PV != 1 || stat.UV != 1 {
		t.Errorf("yesterday pv/uv = %d/%d, want 1/1", stat.PV, stat.UV)
	}
}

func TestRollupDailyStatsIdempotent(t *testing.T) {
	initTestEnv(t)
	link := mustCreateLink(t, &model.Link{
		ShortCode:   "twice1",
		OriginalURL: "https://example.com",
		OwnerID:     1,
		IsActive:    true,
	})
	seedEvent(t, link, func(e *model.AnalyticsEvent) { e.Timestamp = time.Now() })

	if err := RollupDailyStats(); err != nil {
		t.Fatalf("first rollup failed: %v", err)
	}

	// 晚到的事件被第二轮补上，记录更新而不是重复
	seedEvent(t, link, func(e *model.AnalyticsEvent) {
		e.Timestamp = time.Now()
		e.IP = "5.6.7.8"
	})
	if err := RollupDailyStats(); err != nil {
		t.Fatalf("second rollup failed: %v", err)
	}

	var count int64
	today := time.Now().Format("2006-01-02")
	repository.DB.Model(&model.DailyStat{}).Where("link_id = ? AND date = ?", link.ID, today).Count(&count)
	if count != 1 {
		t.Fatalf("stat rows = %d, want 1", count)
	}

	var stat model.DailyStat
	if err := repository.DB.Where("link_id = ? AND date = ?", link.ID, today).First(&stat).Error; err != nil {
		t.Fatalf("stat not found: %v", err)
	}
	if stat.PV != 2 || stat.UV != 2 {
		t.Errorf("pv/uv = %d/%d, want 2/2", stat.PV, stat.UV)
	}
}

func TestGetDailyStats(t *testing.T) {
	initTestEnv(t)
	link := mustCreateLink(t, &model.Link{
		ShortCode:   "daily1",
		OriginalURL: "https://example.com",
		OwnerID:     1,
		IsActive:    true,
	})
	for i := 0; i < 3; i++ {
		date := time.Now().AddDate(0, 0, -i).Format("2006-01-02")
		if err := repository.DB.Create(&model.DailyStat{
			LinkID: link.ID, Date: date, PV: int64(i + 1), UV: 1,
		}).Error; err != nil {
			t.Fatalf("failed to seed stat: %v", err)
		}
	}

	stats, err := GetDailyStats(context.Background(), link.ID)
	if err != nil {
		t.Fatalf("GetDailyStats failed: %v", err)
	}
	if len(stats) != 3 {
		t.Fatalf("got %d rows, want 3", len(stats))
	}
	// 按日期倒序
	if stats[0].Date < stats[1].Date || stats[1].Date < stats[2].Date {
		t.Errorf("stats not in descending date order: %v", stats)
	}
}
