package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashKey 返回访问密钥的 SHA-256 十六进制摘要，与已部署的密钥哈希格式一致。
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// HashKeyBcrypt 使用 bcrypt 生成访问密钥哈希。
func HashKeyBcrypt(key string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash access key: %w", err)
	}
	return string(bytes), nil
}

// VerifyKey 校验密钥与存储的哈希是否匹配。存储值以 "$2" 开头时按 bcrypt 处理，
// 否则按 SHA-256 十六进制比较（大小写不敏感，常量时间）。
func VerifyKey(key, stored string) bool {
	stored = strings.TrimSpace(stored)
	if stored == "" {
		return false
	}
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(key)) == nil
	}
	computed := HashKey(key)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(strings.ToLower(stored))) == 1
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
