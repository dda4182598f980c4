package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cvWizard/internal/errcode"
)

const accessKeyRequiredMessage = "access key required"

// RequireAccessGranted 阻止未通过访问密钥校验的会话访问业务接口。
// 必须挂在 SessionMiddleware 之后。
func RequireAccessGranted() gin.HandlerFunc {
	return func(c *gin.Context) {
		state := SessionFromContext(c)
		if state == nil || !state.Gate.Authenticated {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": accessKeyRequiredMessage,
				"code":  errcode.AuthenticationFailed,
			})
			return
		}
		c.Next()
	}
}
