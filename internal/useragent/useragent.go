// Package useragent 解析客户端 User-Agent，输出浏览器/系统/设备/爬虫分类。
// 纯函数，任何输入都不会 panic，解析不出来一律回退 Unknown
package useragent

import (
	"regexp"
	"strings"

	"urlshort-go/internal/model"
)

const unknown = "Unknown"

// Product 名称 + 版本
type Product struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Result 分类结果
type Result struct {
	Browser Product `json:"browser"`
	OS      Product `json:"os"`
	Device  string  `json:"device"` // desktop / mobile / tablet / unknown
	IsBot   bool    `json:"isBot"`
}

// 已知爬虫/工具特征（大小写不敏感的子串匹配）
var botTokens = []string{
	"bot", "crawler", "spider", "scraper", "parser",
	"google", "bing", "yahoo", "facebook", "twitter",
	"linkedin", "pinterest", "slack", "discord",
	"wget", "curl", "python", "java", "node.js",
}

var (
	mobilePattern  = regexp.MustCompile(`mobile|android|iphone|ipod|blackberry|windows phone`)
	tabletPattern  = regexp.MustCompile(`tablet|ipad`)
	desktopPattern = regexp.MustCompile(`windows|mac|linux|ubuntu|cros`)

	edgePattern    = regexp.MustCompile(`(?:edge|edga|edgios|edg)/([\d.]+)`)
	operaPattern   = regexp.MustCompile(`(?:opr|opera)[/ ]([\d.]+)`)
	chromePattern  = regexp.MustCompile(`(?:chrome|crios)/([\d.]+)`)
	firefoxPattern = regexp.MustCompile(`(?:firefox|fxios)/([\d.]+)`)
	safariPattern  = regexp.MustCompile(`version/([\d.]+).*safari`)
	msiePattern    = regexp.MustCompile(`(?:msie |rv:)([\d.]+)`)

	windowsPattern = regexp.MustCompile(`windows nt ([\d.]+)`)
	macPattern     = regexp.MustCompile(`mac os x ([\d_.]+)`)
	iosPattern     = regexp.MustCompile(`(?:iphone|cpu) os ([\d_]+)`)
	androidPattern = regexp.MustCompile(`android ([\d.]+)`)
)

// Parse 解析原始 User-Agent 字符串
func Parse(rawUA string) Result {
	result := Result{
		Browser: Product{Name: unknown, Version: unknown},
		OS:      Product{Name: unknown, Version: unknown},
		Device:  model.DeviceUnknown,
	}

	if strings.TrimSpace(rawUA) == "" {
		return result
	}

	ua := strings.ToLower(rawUA)

	result.Browser = parseBrowser(ua)
	result.OS = parseOS(ua)
	result.Device = classifyDevice(ua, result.OS.Name)
	result.IsBot = DetectBot(rawUA)

	return result
}

// DetectBot 固定特征列表的子串匹配
func DetectBot(rawUA string) bool {
	ua := strings.ToLower(rawUA)
	for _, token := range botTokens {
		if strings.Contains(ua, token) {
			return true
		}
	}
	return false
}

// classifyDevice 设备分类优先级：移动端特征 > 平板特征 > 桌面系统名 > unknown
func classifyDevice(ua string, osName string) string {
	if mobilePattern.MatchString(ua) {
		return model.DeviceMobile
	}
	if tabletPattern.MatchString(ua) {
		return model.DeviceTablet
	}
	if osName != unknown && desktopPattern.MatchString(strings.ToLower(osName)) {
		return model.DeviceDesktop
	}
	return model.DeviceUnknown
}

func parseBrowser(ua string) Product {
	// 顺序敏感：Edge/Opera 的 UA 同时带 chrome 标识，必须先判断
	type matcher struct {
		name    string
		pattern *regexp.Regexp
	}
	matchers := []matcher{
		{"Edge", edgePattern},
		{"Opera", operaPattern},
		{"Chrome", chromePattern},
		{"Firefox", firefoxPattern},
		{"Safari", safariPattern},
		{"IE", msiePattern},
	}

	for _, m := range matchers {
		if sub := m.pattern.FindStringSubmatch(ua); sub != nil {
			version := sub[1]
			if version == "" {
				version = unknown
			}
			return Product{Name: m.name, Version: version}
		}
	}
	return Product{Name: unknown, Version: unknown}
}

func parseOS(ua string) Product {
	if sub := windowsPattern.FindStringSubmatch(ua); sub != nil {
		return Product{Name: "Windows", Version: sub[1]}
	}
	if strings.Contains(ua, "windows phone") {
		return Product{Name: "Windows Phone", Version: unknown}
	}
	if sub := iosPattern.FindStringSubmatch(ua); sub != nil {
		return Product{Name: "iOS", Version: strings.ReplaceAll(sub[1], "_", ".")}
	}
	if sub := androidPattern.FindStringSubmatch(ua); sub != nil {
		return Product{Name: "Android", Version: sub[1]}
	}
	if sub := macPattern.FindStringSubmatch(ua); sub != nil {
		version := strings.ReplaceAll(sub[1], "_", ".")
		return Product{Name: "Mac OS", Version: strings.TrimSuffix(version, ".")}
	}
	if strings.Contains(ua, "ubuntu") {
		return Product{Name: "Ubuntu", Version: unknown}
	}
	if strings.Contains(ua, "cros") {
		return Product{Name: "Chrome OS", Version: unknown}
	}
	if strings.Contains(ua, "linux") {
		return Product{Name: "Linux", Version: unknown}
	}
	return Product{Name: unknown, Version: unknown}
}
