package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"urlshort-go/internal/model"
	"urlshort-go/internal/repository"
	"urlshort-go/pkg/logging"
)

func initTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logging.Logger = zap.NewNop()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&model.Link{}, &model.AnalyticsEvent{}, &model.DailyStat{}, &model.AllowedDomain{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	repository.DB = db

	mr := miniredis.RunT(t)
	repository.RedisPool = repository.NewRedisPool(mr.Addr(), "")
	t.Cleanup(func() {
		if err := repository.RedisPool.Close(); err != nil {
			t.Logf("close redis pool: %v", err)
		}
	})

	r := gin.New()
	r.NoRoute(RedirectHandler)
	return r
}

func TestRedirectFound(t *testing.T) {
	r := initTestRouter(t)
	if err := repository.DB.Create(&model.Link{
		ShortCode:   "go2foo",
		OriginalURL: "https://example.com/foo",
		OwnerID:     1,
		IsActive:    true,
	}).Error; err != nil {
		t.Fatalf("failed to seed link: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/go2foo", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "https://example.com/foo" {
		t.Errorf("Location = %s", loc)
	}
	// 302 不允许中间层缓存
	if cc := w.Header().Get("Cache-Control"); cc != "no-cache, no-store, must-revalidate" {
		t.Errorf("Cache-Control = %q", cc)
	}

	var link model.Link
	if err := repository.DB.Where("short_code = ?", "go2foo").First(&link).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if link.ClickCount != 1 {
		t.Errorf("click count = %d, want 1", link.ClickCount)
	}
}

func TestRedirectNotFound(t *testing.T) {
	r := initTestRouter(t)

	for _, path := range []string{"/nosuch", "/a/b", "/bad%20code"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, w.Code)
		}
	}
}

func TestRedirectRejectsNonGet(t *testing.T) {
	r := initTestRouter(t)
	if err := repository.DB.Create(&model.Link{
		ShortCode:   "postme",
		OriginalURL: "https://example.com",
		OwnerID:     1,
		IsActive:    true,
	}).Error; err != nil {
		t.Fatalf("failed to seed link: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/postme", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("POST status = %d, want 404", w.Code)
	}

	var link model.Link
	if err := repository.DB.Where("short_code = ?", "postme").First(&link).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if link.ClickCount != 0 {
		t.Errorf("POST incremented click count: %d", link.ClickCount)
	}
}

func TestRedirectInactiveLink(t *testing.T) {
	r := initTestRouter(t)
	link := &model.Link{
		ShortCode:   "frozen",
		OriginalURL: "https://example.com",
		OwnerID:     1,
		IsActive:    true,
	}
	if err := repository.DB.Create(link).Error; err != nil {
		t.Fatalf("failed to seed link: %v", err)
	}
	if err := repository.DB.Model(link).UpdateColumn("is_active", false).Error; err != nil {
		t.Fatalf("failed to deactivate: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/frozen", nil)
	r.ServeHTTP(w, req)

	// 停用和不存在对外表现一致
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
