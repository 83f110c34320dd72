package cache

import (
	"encoding/json"
	"time"

	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"

	"urlshort-go/constant"
	"urlshort-go/internal/repository"
	"urlshort-go/pkg/logging"
)

// LinkSnapshot 重定向相关字段的非权威快照。权威数据永远在数据库，
// 重定向判定（active/expiry）不读缓存，这里只服务详情类只读查询
type LinkSnapshot struct {
	ID          uint       `json:"id"`
	ShortCode   string     `json:"shortCode"`
	OriginalURL string     `json:"originalUrl"`
	IsActive    bool       `json:"isActive"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}

// GetLink 查询链接快照。
// 返回 (snap, true)  命中；
// 返回 (nil, true)   命中空值缓存（已知不存在）；
// 返回 (nil, false)  未命中或 Redis 异常
func GetLink(shortCode string) (*LinkSnapshot, bool) {
	conn := repository.RedisPool.Get()
	defer repository.CloseRedisConn(conn)

	key := constant.GetURLKey(shortCode)
	raw, err := redis.Bytes(conn.Do("GET", key))
	if err != nil {
		if err != redis.ErrNil {
			logging.Logger.Warn("Error getting from Redis",
				zap.String("cache_key", key),
				zap.Error(err))
		}
		return nil, false
	}

	if len(raw) == 0 {
		// 空值缓存，防穿透
		return nil, true
	}

	var snap LinkSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		logging.Logger.Warn("Failed to unmarshal cached value",
			zap.String("cache_key", key),
			zap.Error(err))
		return nil, false
	}
	return &snap, true
}

// PutLink 写入链接快照（1小时 TTL）
func PutLink(snap *LinkSnapshot) {
	conn := repository.RedisPool.Get()
	defer repository.CloseRedisConn(conn)

	key := constant.GetURLKey(snap.ShortCode)
	raw, err := json.Marshal(snap)
	if err != nil {
		logging.Logger.Warn("Failed to marshal link snapshot",
			zap.String("cache_key", key),
			zap.Error(err))
		return
	}

	if _, err := conn.Do("SET", key, raw, "EX", int(constant.URLCacheTTL.Seconds())); err != nil {
		logging.Logger.Warn("设置缓存失败",
			zap.String("cache_key", key),
			zap.Error(err))
	}
}

// PutEmpty 写入空值缓存
func PutEmpty(shortCode string) {
	conn := repository.RedisPool.Get()
	defer repository.CloseRedisConn(conn)

	key := constant.GetURLKey(shortCode)
	if _, err := conn.Do("SET", key, "", "EX", int(constant.EmptyCacheTTL.Seconds())); err != nil {
		logging.Logger.Warn("设置空值缓存失败",
			zap.String("cache_key", key),
			zap.Error(err))
	}
}

// InvalidateLink 删除链接快照。owner 对 active/expiry/目标地址的任何改动之后必须调用
func InvalidateLink(shortCode string) {
	conn := repository.RedisPool.Get()
	defer repository.CloseRedisConn(conn)

	key := constant.GetURLKey(shortCode)
	if _, err := conn.Do("DEL", key); err != nil {
		logging.Logger.Warn("Redis 删除缓存失败",
			zap.String("cache_key", key),
			zap.Error(err))
	}
}
