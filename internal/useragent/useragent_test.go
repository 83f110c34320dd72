package useragent

import (
	"testing"

	"urlshort-go/internal/model"
)

const (
	chromeWindowsUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	edgeWindowsUA   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.2210.91"
	safariIPhoneUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	safariIPadUA    = "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Safari/604.1"
	firefoxMacUA    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7; rv:121.0) Gecko/20100101 Firefox/121.0"
	androidChromeUA = "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"
)

func TestParseBrowserAndOS(t *testing.T) {
	tests := []struct {
		name      string
		ua        string
		browser   string
		version   string
		osName    string
		osVersion string
		device    string
	}{
		{"chrome windows", chromeWindowsUA, "Chrome", "120.0.0.0", "Windows", "10.0", model.DeviceDesktop},
		// Edge 的 UA 同时带 chrome 标识，必须识别成 Edge
		{"edge windows", edgeWindowsUA, "Edge", "120.0.2210.91", "Windows", "10.0", model.DeviceDesktop},
		{"safari iphone", safariIPhoneUA, "Safari", "17.0", "iOS", "17.0", model.DeviceMobile},
		{"safari ipad", safariIPadUA, "Safari", "16.6", "iOS", "16.6", model.DeviceTablet},
		{"firefox mac", firefoxMacUA, "Firefox", "121.0", "Mac OS", "10.15.7", model.DeviceDesktop},
		{"chrome android", androidChromeUA, "Chrome", "120.0.0.0", "Android", "13", model.DeviceMobile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.ua)
			if result.Browser.Name != tt.browser || result.Browser.Version != tt.version {
				t.Errorf("browser = %s/%s, want %s/%s",
					result.Browser.Name, result.Browser.Version, tt.browser, tt.version)
			}
			if result.OS.Name != tt.osName || result.OS.Version != tt.osVersion {
				t.Errorf("os = %s/%s, want %s/%s",
					result.OS.Name, result.OS.Version, tt.osName, tt.osVersion)
			}
			if result.Device != tt.device {
				t.Errorf("device = %s, want %s", result.Device, tt.device)
			}
			if result.IsBot {
				t.Errorf("IsBot = true for a normal browser UA")
			}
		})
	}
}

func TestDetectBot(t *testing.T) {
	bots := []string{
		"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
		"Mozilla/5.0 (compatible; bingbot/2.0; +http://www.bing.com/bingbot.htm)",
		"curl/8.5.0",
		"Wget/1.21",
		"python-requests/2.31.0",
		"Slackbot-LinkExpanding 1.0",
	}
	for _, ua := range bots {
		if !Parse(ua).IsBot {
			t.Errorf("Parse(%q).IsBot = false, want true", ua)
		}
	}

	if Parse(chromeWindowsUA).IsBot {
		t.Errorf("chrome UA classified as bot")
	}
}

func TestParseEmptyUA(t *testing.T) {
	for _, ua := range []string{"", "   "} {
		result := Parse(ua)
		if result.Browser.Name != "Unknown" || result.OS.Name != "Unknown" {
			t.Errorf("Parse(%q) browser/os = %s/%s, want Unknown/Unknown",
				ua, result.Browser.Name, result.OS.Name)
		}
		if result.Device != model.DeviceUnknown {
			t.Errorf("Parse(%q) device = %s, want unknown", ua, result.Device)
		}
		if result.IsBot {
			t.Errorf("Parse(%q).IsBot = true, want false", ua)
		}
	}
}

func TestParseGarbageDoesNotPanic(t *testing.T) {
	for _, ua := range []string{"\x00\x01\x02", "((((", "Mozilla/5.0"} {
		result := Parse(ua)
		if result.Device == "" {
			t.Errorf("Parse(%q) returned empty device", ua)
		}
	}
}
