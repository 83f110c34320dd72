package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"unicode"
)

var (
	shortCodePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// ValidateShortCode 校验 shortCode 是否合法（重定向入口同样使用，不合法的 code 直接拒绝，不查库）
func ValidateShortCode(shortCode string) error {
	if shortCode == "" {
		return fmt.Errorf("error.shortcode_required")
	}

	if len(shortCode) > 32 {
		return fmt.Errorf("error.shortcode_invalid")
	}

	if ContainsWhitespace(shortCode) {
		return fmt.Errorf("error.shortcode_cannot_contain_spaces")
	}

	if !shortCodePattern.MatchString(shortCode) {
		return fmt.Errorf("error.shortcode_invalid")
	}

	return nil
}

// ValidateCustomAlias 校验自定义别名：3-20 位，仅字母数字下划线连字符
func ValidateCustomAlias(alias string) error {
	if len(alias) < 3 || len(alias) > 20 {
		return fmt.Errorf("error.alias_invalid")
	}
	if !shortCodePattern.MatchString(alias) {
		return fmt.Errorf("error.alias_invalid")
	}
	return nil
}

// ValidateOriginalURL 校验目标 URL：必须是绝对的 http/https 地址
func ValidateOriginalURL(originalURL string) error {
	if originalURL == "" {
		return fmt.Errorf("error.original_url_required")
	}

	u, err := url.ParseRequestURI(originalURL)
	if err != nil {
		return fmt.Errorf("error.original_url_invalid")
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("error.original_url_invalid")
	}

	// URL 长度限制
	if len(originalURL) > 2048 {
		return fmt.Errorf("error.original_url_max_length")
	}
	return nil
}

func ContainsWhitespace(s string) bool {
	for _, r := range s {
		if unicode.IsSpace(r) {
			return true
		}
	}
	return false
}
