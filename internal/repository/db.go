package repository

import (
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"urlshort-go/internal/model"
	"urlshort-go/pkg/logging"
)

var DB *gorm.DB

func InitDB(logger *zap.Logger, atomicLogLevel zap.AtomicLevel) {
	dsn := viper.GetString("db.dsn")
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logging.NewGormLogger(logger, logging.ToGormLogLevel(atomicLogLevel.Level())),
		TranslateError: true, // 把驱动层的唯一键冲突翻译成 gorm.ErrDuplicatedKey
	})
	if err != nil {
		logging.Logger.Fatal("Failed to connect database", zap.Error(err))
	}

	err = db.AutoMigrate(
		&model.Link{},
		&model.AnalyticsEvent{},
		&model.DailyStat{},
		&model.AllowedDomain{},
	)
	if err != nil {
		logging.Logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	DB = db
}
