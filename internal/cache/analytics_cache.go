package cache

import (
	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"

	"urlshort-go/constant"
	"urlshort-go/internal/repository"
	"urlshort-go/pkg/logging"
)

// GetAnalytics 查询聚合结果缓存（原始 JSON）
func GetAnalytics(shortCode, rangeTag string) ([]byte, bool) {
	conn := repository.RedisPool.Get()
	defer repository.CloseRedisConn(conn)

	key := constant.GetAnalyticsKey(shortCode, rangeTag)
	raw, err := redis.Bytes(conn.Do("GET", key))
	if err != nil {
		if err != redis.ErrNil {
			logging.Logger.Warn("Error getting analytics cache",
				zap.String("cache_key", key),
				zap.Error(err))
		}
		return nil, false
	}
	return raw, true
}

// PutAnalytics 缓存聚合结果。聚合数据可随时重算，TTL 比链接快照短
func PutAnalytics(shortCode, rangeTag string, raw []byte) {
	conn := repository.RedisPool.Get()
	defer repository.CloseRedisConn(conn)

	key := constant.GetAnalyticsKey(shortCode, rangeTag)
	if _, err := conn.Do("SET", key, raw, "EX", int(constant.AnalyticsCacheTTL.Seconds())); err != nil {
		logging.Logger.Warn("设置聚合缓存失败",
			zap.String("cache_key", key),
			zap.Error(err))
	}
}
