package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"urlshort-go/internal/geoip"
	"urlshort-go/internal/handler"
	"urlshort-go/internal/i18n"
	"urlshort-go/internal/middleware"
	"urlshort-go/internal/repository"
	"urlshort-go/internal/service"
	"urlshort-go/pkg/logging"
	"urlshort-go/pkg/utils"
)

func initConfig() {
	wd, _ := os.Getwd()
	log.Printf("Loading config from: %s/config.yaml", wd)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}
}

// registerValidators 注册自定义绑定校验（customAlias 用）
func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("shortcode", func(fl validator.FieldLevel) bool {
			return utils.ValidateCustomAlias(fl.Field().String()) == nil
		})
	}
}

func newGeoResolver() *geoip.Resolver {
	opts := []geoip.Option{}
	if baseURL := viper.GetString("geo.api_base_url"); baseURL != "" {
		opts = append(opts, geoip.WithBaseURL(baseURL))
	}
	if timeout := viper.GetInt("geo.timeout_seconds"); timeout > 0 {
		opts = append(opts, geoip.WithTimeout(time.Duration(timeout)*time.Second))
	}
	if mmdbPath := viper.GetString("geo.mmdb_path"); mmdbPath != "" {
		opts = append(opts, geoip.WithMMDB(mmdbPath))
	}
	return geoip.NewResolver(opts...)
}

func startServer(r *gin.Engine, enricher *service.Enricher, geo *geoip.Resolver) {
	addr := viper.GetString("server.addr")
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logging.Logger.Info("Server is running on " + addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// 先停服务器再排空埋点队列，最后释放 geo 句柄
	enricher.Stop()
	if err := geo.Close(); err != nil {
		logging.Logger.Warn("GeoIP resolver close failed", zap.Error(err))
	}

	logging.Logger.Info("Server exiting")
}

func main() {
	initConfig()
	logging.InitLoggerFromConfig()

	logging.Logger.Info("Application started")

	repository.InitDB(logging.Logger, logging.AtomicLevel)
	repository.InitRedis()

	geo := newGeoResolver()
	enricher := service.InitEnricher(geo,
		viper.GetInt("enricher.buffer"),
		viper.GetInt("enricher.workers"))

	// 初始化 i18n（加载 TOML 文件）
	bundle, err := i18n.InitI18n([]string{
		"./i18n/en.toml",
		"./i18n/zh.toml",
	}, "en")
	if err != nil {
		panic(err)
	}

	registerValidators()

	r := gin.New()
	r.Use(gin.Recovery())

	// 注册全局错误中间件
	r.Use(middleware.GlobalErrorMiddleware())
	r.Use(middleware.ZapGinLogger(logging.Logger))
	r.Use(middleware.CorsMiddleware())
	r.Use(middleware.I18nMiddleware(bundle))

	api := r.Group("/api")
	{
		links := api.Group("/links", middleware.OwnerMiddleware())
		{
			links.POST("", middleware.RateLimitMiddleware(), handler.CreateLinkHandler)
			links.GET("", handler.ListLinksHandler)
			links.GET("/:id", handler.GetLinkHandler)
			links.PUT("/:id", handler.UpdateLinkHandler)
			links.DELETE("/:id", handler.DeleteLinkHandler)
			links.GET("/:id/qr", handler.LinkQRHandler)
			links.GET("/:id/daily", handler.DailyStatsHandler)
		}
		api.GET("/snapshot/:code", handler.GetLinkByCodeHandler)

		analytics := api.Group("/analytics", middleware.OwnerMiddleware())
		{
			analytics.GET("/dashboard", handler.DashboardAnalyticsHandler)
			analytics.GET("/:code", handler.LinkAnalyticsHandler)
			analytics.POST("/geo/batch", handler.BatchGeoHandler)
		}

		domains := api.Group("/domains", middleware.OwnerMiddleware())
		{
			domains.POST("", handler.CreateAllowedDomainHandler)
			domains.GET("", handler.ListAllowedDomainsHandler)
			domains.DELETE("/:id", handler.DeleteAllowedDomainHandler)
		}
	}

	// 短链重定向兜底：所有未匹配的 GET 路径按 short code 处理
	r.NoRoute(handler.RedirectHandler)

	c := cron.New()

	// 每十分钟把埋点事件汇总进日统计表
	_, addErr := c.AddFunc("*/10 * * * *", func() {
		if err := service.RollupDailyStats(); err != nil {
			logging.Logger.Error("Failed to rollup daily stats via cron job", zap.Error(err))
		}
	})
	if addErr != nil {
		logging.Logger.Fatal("Failed to schedule cron job", zap.Error(addErr))
	}

	c.Start()

	startServer(r, enricher, geo)
}
