package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cvWizard/internal/api/middleware"
	"cvWizard/internal/errcode"
	"cvWizard/internal/metrics"
)

// NewRouter 构建 Gin 路由引擎：全局中间件、健康检查与指标端点。
// 业务路由由 RegisterRoutes 注册。
func NewRouter(logger *slog.Logger, internalSecret string) *gin.Engine {
	metrics.Register()

	router := gin.New()
	router.Use(
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			middleware.LoggerFromContext(c).Error("panic recovered", slog.Any("panic", recovered))
			c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{
				Error: msgInternal,
				Code:  errcode.SystemError,
			})
		}),
		middleware.CorrelationIDMiddleware(),
		middleware.SlogLoggerMiddleware(logger),
		metrics.GinMiddleware(),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", middleware.InternalSecretMiddleware(internalSecret), gin.WrapH(promhttp.Handler()))

	return router
}
