package service

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"urlshort-go/internal/model"
	"urlshort-go/internal/repository"
	"urlshort-go/pkg/logging"
)

// initTestEnv 用内存 SQLite + miniredis 搭出完整依赖，初始化顺序与 main.go 保持一致
func initTestEnv(t *testing.T) *miniredis.Miniredis {
	t.Helper()

	logging.Logger = zap.NewNop()
	logging.AtomicLevel = zap.NewAtomicLevel()
	enricher = nil

	viper.Set("shortlink.code_length", 6)
	viper.Set("server.base_url", "http://localhost:8080")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// 内存库：限制到单连接，保证每个查询看到同一份数据
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.Link{},
		&model.AnalyticsEvent{},
		&model.DailyStat{},
		&model.AllowedDomain{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	repository.DB = db

	mr := miniredis.RunT(t)
	repository.RedisPool = repository.NewRedisPool(mr.Addr(), "")
	t.Cleanup(func() {
		if err := repository.RedisPool.Close(); err != nil {
			t.Logf("close redis pool: %v", err)
		}
	})

	return mr
}

// mustCreateLink 直接往库里插一条链接记录
func mustCreateLink(t *testing.T, link *model.Link) *model.Link {
	t.Helper()
	if err := repository.DB.Create(link).Error; err != nil {
		t.Fatalf("failed to seed link: %v", err)
	}
	return link
}
