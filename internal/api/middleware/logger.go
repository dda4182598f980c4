package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

const slogLoggerKey = "slogLogger"

// SlogLoggerMiddleware 为每个请求注入带 Correlation ID 的 slog.Logger，并在结束时记录一行访问日志。
// 健康检查与指标抓取只在 Debug 级别输出。
func SlogLoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		c.Set(slogLoggerKey, logger.With(
			slog.String("correlation_id", GetCorrelationID(c)),
			slog.String("method", c.Request.Method),
			slog.String("route", route),
		))

		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		switch {
		case route == "/health" || route == "/metrics":
			level = slog.LevelDebug
		case c.Writer.Status() >= 500:
			level = slog.LevelError
		}
		// 取最终的 logger，下游中间件可能追加了字段。
		LoggerFromContext(c).Log(c.Request.Context(), level, "request completed",
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		)
	}
}

// WithLoggerAttrs 为当前请求的 logger 追加字段。
func WithLoggerAttrs(c *gin.Context, attrs ...any) {
	c.Set(slogLoggerKey, LoggerFromContext(c).With(attrs...))
}

// LoggerFromContext 返回上下文中的 slog.Logger。
func LoggerFromContext(c *gin.Context) *slog.Logger {
	if value, ok := c.Get(slogLoggerKey); ok {
		if logger, ok := value.(*slog.Logger); ok {
			return logger
		}
	}
	return slog.Default()
}
