package common

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// Normalize 將食材或菜名轉為比對用的標準形式（小寫、去除前後空白）
// 所有菜名與食材的身分比對都必須經過此函式
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SameName 以標準形式比較兩個名稱
func SameName(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// IsHTTPURL 檢查字串是否為 http(s) 網址
func IsHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
