package model

// DailyStat 按天汇总的点击统计，由定时任务从 analytics_events 表回填
type DailyStat struct {
	BaseModel
	LinkID uint   `gorm:"index:idx_stat_link_date,unique,priority:1"`
	Date   string `gorm:"type:date;index:idx_stat_link_date,unique,priority:2"` // YYYY-MM-DD
	PV     int64  `gorm:"default:0"`
	UV     int64  `gorm:"default:0"`
}
