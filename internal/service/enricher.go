package service

import (
	"context"
	"sync"
	"time"

	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"

	"urlshort-go/constant"
	"urlshort-go/internal/cache"
	"urlshort-go/internal/geoip"
	"urlshort-go/internal/model"
	"urlshort-go/internal/repository"
	"urlshort-go/internal/useragent"
	"urlshort-go/pkg/logging"
)

// ClickTask 一次成功重定向产生的埋点任务
type ClickTask struct {
	LinkID    uint
	ShortCode string
	IP        string
	UserAgent string
	Referrer  string
	Snapshot  *cache.LinkSnapshot
}

// Enricher 埋点工作池：UA 解析 + 地理解析 + 事件落库都在这里完成，
// 与请求响应完全解耦。Submit 不阻塞也不返回错误，内部任何失败只记日志，
// 结构上不可能影响重定向结果
type Enricher struct {
	tasks   chan ClickTask
	geo     *geoip.Resolver
	wg      sync.WaitGroup
	stopped sync.Once
}

var enricher *Enricher

// InitEnricher 初始化全局工作池
func InitEnricher(geo *geoip.Resolver, buffer, workers int) *Enricher {
	if buffer <= 0 {
		buffer = 1024
	}
	if workers <= 0 {
		workers = 4
	}

	e := &Enricher{
		tasks: make(chan ClickTask, buffer),
		geo:   geo,
	}
	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go e.worker()
	}

	enricher = e
	return e
}

// SubmitClick 投递埋点任务。缓冲满了直接丢弃并告警，绝不阻塞重定向
func SubmitClick(task ClickTask) {
	if enricher == nil {
		logging.Logger.Warn("Enricher not initialized, dropping click",
			zap.String("short_code", task.ShortCode))
		return
	}
	enricher.Submit(task)
}

// Submit 非阻塞投递
func (e *Enricher) Submit(task ClickTask) {
	select {
	case e.tasks <- task:
	default:
		logging.Logger.Warn("Enricher buffer full, dropping click data",
			zap.String("short_code", task.ShortCode))
	}
}

// Stop 关闭入口并等剩余任务处理完（优雅退出时调用）
func (e *Enricher) Stop() {
	e.stopped.Do(func() {
		close(e.tasks)
	})
	e.wg.Wait()
}

// LookupGeoBatch 批量 IP 解析，复用埋点工作池持有的解析器
func LookupGeoBatch(ctx context.Context, ips []string) []geoip.BatchResult {
	if enricher == nil {
		results := make([]geoip.BatchResult, len(ips))
		for i, ip := range ips {
			results[i] = geoip.BatchResult{IP: ip, Location: geoip.UnknownLocation()}
		}
		return results
	}
	return enricher.geo.LookupBatch(ctx, ips)
}

func (e *Enricher) worker() {
	defer e.wg.Done()
	for task := range e.tasks {
		e.process(task)
	}
}

func (e *Enricher) process(task ClickTask) {
	defer func() {
		if r := recover(); r != nil {
			logging.Logger.Error("Enricher task panic recovered",
				zap.String("short_code", task.ShortCode),
				zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	agent := useragent.Parse(task.UserAgent)
	location := e.geo.Lookup(ctx, task.IP)
	isUnique := markUniqueVisitor(task.ShortCode, task.IP)

	event := model.AnalyticsEvent{
		LinkID:         task.LinkID,
		ShortCode:      task.ShortCode,
		IP:             task.IP,
		UserAgent:      task.UserAgent,
		BrowserName:    agent.Browser.Name,
		BrowserVersion: agent.Browser.Version,
		OSName:         agent.OS.Name,
		OSVersion:      agent.OS.Version,
		Device:         agent.Device,
		Country:        location.Country,
		CountryCode:    location.CountryCode,
		Region:         location.Region,
		City:           location.City,
		Timezone:       location.Timezone,
		Latitude:       location.Coordinates.Lat,
		Longitude:      location.Coordinates.Lon,
		Referrer:       task.Referrer,
		IsBot:          agent.IsBot,
		IsUnique:       isUnique,
		Timestamp:      time.Now(),
	}

	// 事件是尽力而为：写失败只记日志，点击计数早已提交，不回滚
	if err := repository.DB.WithContext(ctx).Create(&event).Error; err != nil {
		logging.Logger.Warn("Error saving analytics event",
			zap.String("short_code", task.ShortCode),
			zap.Error(err))
	}

	// 顺手刷新链接快照，重定向路径本身不等缓存
	if task.Snapshot != nil {
		cache.PutLink(task.Snapshot)
	}
}

// markUniqueVisitor 当日首次出现的 (shortCode, ip) 记为 unique。
// Redis 不可用时按 true 处理
func markUniqueVisitor(shortCode, ip string) bool {
	conn := repository.RedisPool.Get()
	defer repository.CloseRedisConn(conn)

	key := constant.GetDailyUVKey(shortCode, constant.GetDateKey())
	added, err := redis.Int(conn.Do("SADD", key, ip))
	if err != nil {
		logging.Logger.Warn("Failed to record daily UV",
			zap.String("key", key),
			zap.String("ip", ip),
			zap.Error(err))
		return true
	}

	if _, err := conn.Do("EXPIRE", key, int(constant.DailyUVTTL.Seconds())); err != nil {
		logging.Logger.Warn("Failed to set daily UV expire",
			zap.String("key", key),
			zap.Error(err))
	}

	return added == 1
}
