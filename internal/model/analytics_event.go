package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 设备类型枚举
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceUnknown = "unknown"
)

// AnalyticsEvent 每次成功重定向写入一条，写入后不可变
type AnalyticsEvent struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	LinkID    uint   `gorm:"index:idx_event_link_ts,priority:1;not null" json:"linkId"`
	ShortCode string `gorm:"index;size:32;not null" json:"shortCode"` // 冗余存储，便于按 code 查询
	IP        string `gorm:"size:45" json:"ip"`
	UserAgent string `gorm:"size:1024" json:"userAgent"`

	BrowserName    string `gorm:"size:64" json:"browserName"`
	BrowserVersion string `gorm:"size:64" json:"browserVersion"`
	OSName         string `gorm:"size:64" json:"osName"`
	OSVersion      string `gorm:"size:64" json:"osVersion"`
	Device         string `gorm:"size:16;index;default:unknown" json:"device"`

	Country     string  `gorm:"size:64;index" json:"country"`
	CountryCode string  `gorm:"size:2" json:"countryCode"`
	Region      string  `gorm:"size:64" json:"region"`
	City        string  `gorm:"size:64" json:"city"`
	Timezone    string  `gorm:"size:64" json:"timezone"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`

	Referrer  string    `gorm:"size:2048" json:"referrer"`
	IsBot     bool      `gorm:"default:false" json:"isBot"`
	// IsUnique 由埋点链路显式赋值；带 default 标签的话 false 会在插入时被 gorm 丢掉
	IsUnique  bool      `json:"isUnique"`
	Timestamp time.Time `gorm:"index:idx_event_link_ts,priority:2;index" json:"timestamp"`
}

// BeforeCreate 生成事件 ID
func (e *AnalyticsEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return nil
}
