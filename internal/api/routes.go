package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"cvWizard/internal/api/middleware"
	"cvWizard/internal/auth"
	"cvWizard/internal/session"
	"cvWizard/internal/storage"
)

// Dependencies 汇总注册路由所需的协作方。Forwarder 为 nil 表示未配置转发。
type Dependencies struct {
	Sessions      session.Store
	Tokens        *auth.TokenService
	Gate          *auth.Gate
	Generator     CVGenerator
	Forwarder     storage.Forwarder
	ForwardFolder string
	Cookies       middleware.CookieSettings
	Logger        *slog.Logger
}

// RegisterRoutes 注册 API 路由，均挂在 /v1 下。
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	authHandler := NewAuthHandler(deps.Gate, deps.Sessions, deps.Cookies, deps.Logger)
	wizardHandler := NewWizardHandler(deps.Sessions, deps.Generator, deps.Logger)
	storageHandler := NewStorageHandler(deps.Forwarder, deps.ForwardFolder, deps.Logger)
	accessGate := middleware.RequireAccessGranted()

	v1 := router.Group("/v1")
	v1.Use(middleware.SessionMiddleware(deps.Sessions, deps.Tokens, deps.Cookies))
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/status", authHandler.Status)
			authGroup.POST("/logout", authHandler.Logout)
		}

		wizardGroup := v1.Group("/wizard")
		wizardGroup.Use(accessGate)
		{
			wizardGroup.GET("", wizardHandler.Get)
			wizardGroup.POST("/back", wizardHandler.Back)
			wizardGroup.POST("/reset", wizardHandler.Reset)
			wizardGroup.POST("/generate", wizardHandler.Generate)
			wizardGroup.GET("/download", wizardHandler.Download)
			wizardGroup.PUT("/:step", wizardHandler.Submit)
		}

		storageGroup := v1.Group("/storage")
		storageGroup.Use(accessGate)
		{
			storageGroup.GET("/status", storageHandler.Status)
			storageGroup.GET("/files", storageHandler.Files)
		}
	}
}
