package dto

import "time"

// AnalyticsQuery 聚合查询参数。period 为 7d/30d/90d/1y，传了明确的起止时间则优先
type AnalyticsQuery struct {
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
	Period    string `form:"period,default=30d"`
}

// CountBucket 单个维度的分组计数
type CountBucket struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// DailyCount 按天计数
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// PeriodView 实际生效的统计区间
type PeriodView struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// LinkAnalytics 单条链接的聚合结果
type LinkAnalytics struct {
	Link struct {
		ShortCode   string `json:"shortCode"`
		OriginalURL string `json:"originalUrl"`
		TotalClicks int64  `json:"totalClicks"`
	} `json:"link"`
	Period       PeriodView    `json:"period"`
	TotalClicks  int64         `json:"totalClicks"`
	UniqueClicks int64         `json:"uniqueClicks"`
	BotClicks    int64         `json:"botClicks"`
	DailyClicks  []DailyCount  `json:"dailyClicks"`
	Devices      []CountBucket `json:"devices"`
	Browsers     []CountBucket `json:"browsers"`
	Locations    []CountBucket `json:"locations"`
	Referrers    []CountBucket `json:"referrers"`
}

// RecentClick 最近的访问记录（联表带出目标地址）
type RecentClick struct {
	ShortCode   string    `json:"shortCode"`
	OriginalURL string    `json:"originalUrl"`
	Country     string    `json:"country"`
	Device      string    `json:"device"`
	Timestamp   time.Time `json:"timestamp"`
}

// TopLink 点击量排行
type TopLink struct {
	ShortCode   string `json:"shortCode"`
	OriginalURL string `json:"originalUrl"`
	ClickCount  int64  `json:"clickCount"`
}

// DashboardAnalytics 用户维度的汇总
type DashboardAnalytics struct {
	Summary struct {
		TotalLinks      int64 `json:"totalLinks"`
		TotalClicks     int64 `json:"totalClicks"`
		UniqueClicks    int64 `json:"uniqueClicks"`
		AvgClicksPerURL int64 `json:"avgClicksPerUrl"`
		ActiveLinks     int64 `json:"activeLinks"`
	} `json:"summary"`
	Period         PeriodView    `json:"period"`
	TopLinks       []TopLink     `json:"topLinks"`
	RecentActivity []RecentClick `json:"recentActivity"`
	DailyClicks    []DailyCount  `json:"dailyClicks"`
	Devices        []CountBucket `json:"devices"`
	Locations      []CountBucket `json:"locations"`
}

// BatchGeoRequest 批量 IP 解析请求
type BatchGeoRequest struct {
	IPs []string `json:"ips" binding:"required,min=1,max=100"`
}
