package common

import (
	"unicode/utf8"

	"github.com/google/uuid"
)

// PreviewLength 錯誤訊息中原始內容的最大字元數
const PreviewLength = 200

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// Preview 截取前 n 個字元（以 rune 計）
func Preview(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// MaskSecret 遮罩金鑰，只顯示前後各 4 個字符
func MaskSecret(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
