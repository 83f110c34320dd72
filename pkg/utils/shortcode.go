package utils

import (
	"crypto/rand"
	"math/big"
)

// URL 安全字符集
const codeCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-"

// DefaultCodeLength 随机短码默认长度
const DefaultCodeLength = 6

// GenerateShortCode 生成指定长度的随机短码
func GenerateShortCode(length int) (string, error) {
	if length <= 0 {
		length = DefaultCodeLength
	}
	result := make([]byte, length)
	for i := range result {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		result[i] = codeCharset[num.Int64()]
	}
	return string(result), nil
}
