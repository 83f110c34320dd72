package service

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"urlshort-go/internal/model"
	"urlshort-go/internal/repository"
)

func TestZZDebugRollup(t *testing.T) {
	initTestEnv(t)
	link := mustCreateLink(t, &model.Link{
		ShortCode:   "zzdbg",
		OriginalURL: "https://example.com",
		OwnerID:     1,
		IsActive:    true,
	})
	now := time.Now()
	seedEvent(t, link, func(e *model.AnalyticsEvent) { e.Timestamp = now })
	seedEvent(t, link, func(e *model.AnalyticsEvent) { e.Timestamp = now.AddDate(0, 0, -1) })

	if err := RollupDailyStats(); err != nil {
		t.Fatalf("rollup: %v", err)
	}

	type raw struct {
		LinkID int
		Q      string
		Ty     string
	}
	var rows []raw
	if err := repository.DB.Raw("SELECT link_id, quote(date) AS q, typeof(date) AS ty FROM daily_stats").Scan(&rows).Error; err != nil {
		t.Fatalf("raw: %v", err)
	}
	for _, r := range rows {
		t.Logf("daily_stats link=%d date-quoted=%s typeof=%s", r.LinkID, r.Q, r.Ty)
	}

	today := now.Format("2006-01-02")
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
	var stat model.DailyStat
	for _, d := range []string{today, yesterday} {
		st := repository.DB.Session(&gorm.Session{DryRun: true}).Where("link_id = ? AND date = ?", link.ID, d).First(&model.DailyStat{}).Statement
		t.Logf("SQL for %s: %s vars=%v", d, st.SQL.String(), st.Vars)
		var n int64
		repository.DB.Raw("SELECT COUNT(*) FROM daily_stats WHERE date = ?", d).Scan(&n)
		t.Logf("raw count date=%s -> %d", d, n)
	}
	if err := repository.DB.Debug().Where("link_id = ? AND date = ?", link.ID, today).First(&stat).Error; err != nil {
		t.Logf("today First err: %v", err)
	} else {
		t.Logf("today First ok pv=%d uv=%d", stat.PV, stat.UV)
	}
	st2 := repository.DB.Session(&gorm.Session{DryRun: true}).Where("link_id = ? AND date = ?", link.ID, yesterday).First(&stat).Statement
	t.Logf("reused-dest SQL: %s vars=%v", st2.SQL.String(), st2.Vars)
	var fresh model.DailyStat
	if err := repository.DB.Where("link_id = ? AND date = ?", link.ID, yesterday).First(&fresh).Error; err != nil {
		t.Logf("yesterday First (fresh dest) err: %v", err)
	} else {
		t.Logf("yesterday First (fresh dest) ok pv=%d uv=%d", fresh.PV, fresh.UV)
	}

	// second rollup after a late event, mirrors idempotent test
	seedEvent(t, link, func(e *model.AnalyticsEvent) {
		e.Timestamp = now
		e.IP = "5.6.7.8"
	})
	if err := RollupDailyStats(); err != nil {
		t.Fatalf("rollup2: %v", err)
	}
	rows = nil
	repository.DB.Raw("SELECT link_id, quote(date) AS q, typeof(date) AS ty FROM daily_stats").Scan(&rows)
	for _, r := range rows {
		t.Logf("after rollup2 link=%d date-quoted=%s typeof=%s", r.LinkID, r.Q, r.Ty)
	}
	var stats []model.DailyStat
	repository.DB.Find(&stats)
	for _, s := range stats {
		t.Logf("after rollup2 stat date=%q pv=%d uv=%d", s.Date, s.PV, s.UV)
	}
}
