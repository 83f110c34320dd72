// Package geoip 把客户端 IP 解析为粗粒度地理信息。
// 内网/回环地址直接短路，外部查询挂了就降级为 Unknown，这条路径永远不向调用方抛错
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/oschwald/geoip2-golang"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"urlshort-go/pkg/logging"
)

const (
	defaultBaseURL = "https://ipapi.co"
	defaultTimeout = 5 * time.Second
)

// Coordinates 经纬度
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Location 地理信息
type Location struct {
	Country     string      `json:"country"`
	CountryCode string      `json:"countryCode"`
	Region      string      `json:"region"`
	City        string      `json:"city"`
	Timezone    string      `json:"timezone"`
	Coordinates Coordinates `json:"coordinates"`
}

// BatchResult 批量解析的单条结果
type BatchResult struct {
	IP       string    `json:"ip"`
	Location *Location `json:"location"`
	Err      string    `json:"error,omitempty"`
}

// UnknownLocation 固定的降级结果
func UnknownLocation() *Location {
	return &Location{
		Country:     "Unknown",
		CountryCode: "XX",
		Region:      "Unknown",
		City:        "Unknown",
		Timezone:    "Unknown",
	}
}

// Resolver IP 地理解析器。配置了 mmdb 时走本地库，否则调用外部 HTTP 接口
type Resolver struct {
	client  *http.Client
	baseURL string
	breaker *gobreaker.CircuitBreaker[*Location]
	mmdb    *geoip2.Reader
}

// Option 构造选项
type Option func(*Resolver)

// WithBaseURL 覆盖外部接口地址（测试用）
func WithBaseURL(baseURL string) Option {
	return func(r *Resolver) {
		r.baseURL = baseURL
	}
}

// WithTimeout 覆盖外部接口超时
func WithTimeout(timeout time.Duration) Option {
	return func(r *Resolver) {
		r.client.Timeout = timeout
	}
}

// WithMMDB 使用本地 GeoLite2 数据库文件
func WithMMDB(path string) Option {
	return func(r *Resolver) {
		reader, err := geoip2.Open(path)
		if err != nil {
			logging.Logger.Warn("Failed to open GeoIP database, falling back to HTTP lookup",
				zap.String("path", path),
				zap.Error(err))
			return
		}
		r.mmdb = reader
	}
}

// NewResolver 创建解析器。外部接口挂在熔断器后面，连续失败后直接走降级
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		client:  &http.Client{Timeout: defaultTimeout},
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.breaker = gobreaker.NewCircuitBreaker[*Location](gobreaker.Settings{
		Name:    "geoip-http",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Warn("GeoIP breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return r
}

// Close 释放本地数据库句柄
func (r *Resolver) Close() error {
	if r.mmdb != nil {
		return r.mmdb.Close()
	}
	return nil
}

// Lookup 解析单个 IP。不会返回 error：内网地址、外部接口超时/非 200/响应异常统一降级为 Unknown
func (r *Resolver) Lookup(ctx context.Context, ip string) *Location {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return UnknownLocation()
	}

	// 回环和内网地址不发起任何外部调用
	if parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsLinkLocalUnicast() || parsed.IsUnspecified() {
		return UnknownLocation()
	}

	if r.mmdb != nil {
		return r.lookupMMDB(parsed)
	}

	loc, err := r.breaker.Execute(func() (*Location, error) {
		return r.lookupHTTP(ctx, ip)
	})
	if err != nil {
		logging.Logger.Warn("GeoIP lookup degraded",
			zap.String("ip", ip),
			zap.Error(err))
		return UnknownLocation()
	}
	return loc
}

// LookupBatch 并发解析多个 IP，单个失败不影响其他结果
func (r *Resolver) LookupBatch(ctx context.Context, ips []string) []BatchResult {
	results := make([]BatchResult, len(ips))

	var wg sync.WaitGroup
	for i, ip := range ips {
		wg.Add(1)
		go func(i int, ip string) {
			defer wg.Done()
			results[i] = BatchResult{
				IP:       ip,
				Location: r.Lookup(ctx, ip),
			}
		}(i, ip)
	}
	wg.Wait()

	return results
}

// ipapi.co 响应结构
type apiResponse struct {
	CountryName string  `json:"country_name"`
	CountryCode string  `json:"country_code"`
	Region      string  `json:"region"`
	City        string  `json:"city"`
	Timezone    string  `json:"timezone"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Error       bool    `json:"error"`
}

func (r *Resolver) lookupHTTP(ctx context.Context, ip string) (*Location, error) {
	url := fmt.Sprintf("%s/%s/json/", r.baseURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "URL-Shortener/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geoip lookup returned HTTP %d", resp.StatusCode)
	}

	var data apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	if data.Error {
		return nil, fmt.Errorf("geoip lookup rejected ip %s", ip)
	}

	loc := UnknownLocation()
	if data.CountryName != "" {
		loc.Country = data.CountryName
	}
	if data.CountryCode != "" {
		loc.CountryCode = data.CountryCode
	}
	if data.Region != "" {
		loc.Region = data.Region
	}
	if data.City != "" {
		loc.City = data.City
	}
	if data.Timezone != "" {
		loc.Timezone = data.Timezone
	}
	loc.Coordinates = Coordinates{Lat: data.Latitude, Lon: data.Longitude}
	return loc, nil
}

func (r *Resolver) lookupMMDB(ip net.IP) *Location {
	record, err := r.mmdb.City(ip)
	if err != nil {
		logging.Logger.Warn("GeoIP mmdb lookup failed",
			zap.String("ip", ip.String()),
			zap.Error(err))
		return UnknownLocation()
	}

	loc := UnknownLocation()
	if name, ok := record.Country.Names["en"]; ok && name != "" {
		loc.Country = name
	}
	if record.Country.IsoCode != "" {
		loc.CountryCode = record.Country.IsoCode
	}
	if len(record.Subdivisions) > 0 {
		if name, ok := record.Subdivisions[0].Names["en"]; ok && name != "" {
			loc.Region = name
		}
	}
	if name, ok := record.City.Names["en"]; ok && name != "" {
		loc.City = name
	}
	if record.Location.TimeZone != "" {
		loc.Timezone = record.Location.TimeZone
	}
	loc.Coordinates = Coordinates{
		Lat: record.Location.Latitude,
		Lon: record.Location.Longitude,
	}
	return loc
}
