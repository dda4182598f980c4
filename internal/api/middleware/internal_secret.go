package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cvWizard/internal/errcode"
)

// InternalSecretMiddleware 保护运维端点（/metrics）。secret 为空时不做校验。
func InternalSecretMiddleware(secret string) gin.HandlerFunc {
	secret = strings.TrimSpace(secret)
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		// 密钥只接受 Header，避免 query 泄露到日志。
		token := strings.TrimSpace(c.GetHeader("X-Internal-Secret"))
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
				"code":  errcode.AuthenticationFailed,
			})
			return
		}
		c.Next()
	}
}
