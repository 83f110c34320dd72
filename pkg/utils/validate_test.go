package utils

import (
	"strings"
	"testing"
)

func TestValidateShortCode(t *testing.T) {
	valid := []string{"abc123", "a", "with-dash", "with_underscore", "MixedCase99"}
	for _, code := range valid {
		if err := ValidateShortCode(code); err != nil {
			t.Errorf("ValidateShortCode(%q) = %v, want nil", code, err)
		}
	}

	invalid := []string{"", "has space", "has/slash", "ha?sh", "中文", strings.Repeat("a", 33)}
	for _, code := range invalid {
		if err := ValidateShortCode(code); err == nil {
			t.Errorf("ValidateShortCode(%q) = nil, want error", code)
		}
	}
}

func TestValidateCustomAlias(t *testing.T) {
	if err := ValidateCustomAlias("my-link_1"); err != nil {
		t.Errorf("ValidateCustomAlias valid alias: %v", err)
	}
	for _, alias := range []string{"ab", strings.Repeat("a", 21), "bad alias", "bad.alias"} {
		if err := ValidateCustomAlias(alias); err == nil {
			t.Errorf("ValidateCustomAlias(%q) = nil, want error", alias)
		}
	}
}

func TestValidateOriginalURL(t *testing.T) {
	valid := []string{
		"https://example.com",
		"http://example.com/path?q=1",
		"https://sub.example.com:8443/a/b",
	}
	for _, u := range valid {
		if err := ValidateOriginalURL(u); err != nil {
			t.Errorf("ValidateOriginalURL(%q) = %v, want nil", u, err)
		}
	}

	invalid := []string{
		"",
		"example.com",
		"ftp://example.com",
		"javascript:alert(1)",
		"https://example.com/" + strings.Repeat("a", 2048),
	}
	for _, u := range invalid {
		if err := ValidateOriginalURL(u); err == nil {
			t.Errorf("ValidateOriginalURL(%q) = nil, want error", u)
		}
	}
}

func TestGenerateShortCode(t *testing.T) {
	code, err := GenerateShortCode(8)
	if err != nil {
		t.Fatalf("GenerateShortCode failed: %v", err)
	}
	if len(code) != 8 {
		t.Errorf("length = %d, want 8", len(code))
	}
	// 生成的 code 必须能过自己的校验
	if err := ValidateShortCode(code); err != nil {
		t.Errorf("generated code %q fails validation: %v", code, err)
	}

	// 长度非法时回退默认长度
	code, err = GenerateShortCode(0)
	if err != nil {
		t.Fatalf("GenerateShortCode failed: %v", err)
	}
	if len(code) != DefaultCodeLength {
		t.Errorf("length = %d, want %d", len(code), DefaultCodeLength)
	}
}
