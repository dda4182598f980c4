package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"cvWizard/internal/api"
	"cvWizard/internal/api/middleware"
	"cvWizard/internal/auth"
	"cvWizard/internal/config"
	"cvWizard/internal/generator"
	"cvWizard/internal/pdf"
	"cvWizard/internal/protect"
	"cvWizard/internal/session"
	"cvWizard/internal/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// .env 仅用于本地开发，缺失不报错。
	_ = godotenv.Load()
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	sessions, closeSessions, err := newSessionStore(cfg, logger)
	if err != nil {
		log.Fatalf("init session store: %v", err)
	}
	defer closeSessions()

	tokens, err := auth.NewTokenService(cfg.Session.Secret, cfg.Session.TTL)
	if err != nil {
		log.Fatalf("init session tokens: %v", err)
	}
	gate := auth.NewGate(auth.NewSecretStore(cfg.Auth), cfg.Auth.WarnAfter)

	renderer, err := pdf.NewRenderer(cfg.Render.Engine)
	if err != nil {
		log.Fatalf("init renderer: %v", err)
	}

	var forwarder storage.Forwarder
	switch f, err := storage.New(cfg.Forward); {
	case err == nil:
		forwarder = f
		logger.Info("cv forwarding enabled",
			slog.String("backend", f.Name()),
			slog.String("folder", storage.NormalizeFolder(cfg.Forward.Folder)))
	case errors.Is(err, storage.ErrNotConfigured):
		logger.Info("cv forwarding disabled")
	default:
		log.Fatalf("init forwarder: %v", err)
	}

	pipeline := generator.New(renderer, protect.New(), cfg.Render.TempDir, logger,
		generator.WithForwarder(forwarder, cfg.Forward.Folder))

	router := api.NewRouter(logger, cfg.API.InternalSecret)
	api.RegisterRoutes(router, api.Dependencies{
		Sessions:      sessions,
		Tokens:        tokens,
		Gate:          gate,
		Generator:     pipeline,
		Forwarder:     forwarder,
		ForwardFolder: cfg.Forward.Folder,
		Cookies:       middleware.CookieSettings{Domain: cfg.API.CookieDomain},
		Logger:        logger,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("api listening",
			slog.String("addr", server.Addr),
			slog.String("render_engine", cfg.Render.Engine),
			slog.String("session_backend", cfg.Session.Backend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start api server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("api shutdown failed", slog.Any("error", err))
	}
	logger.Info("api stopped")
}

func newSessionStore(cfg *config.Config, logger *slog.Logger) (session.Store, func(), error) {
	if cfg.Session.Backend == config.SessionBackendMemory {
		logger.Warn("using in-memory session store; sessions are lost on restart")
		return session.NewMemoryStore(cfg.Session.TTL), func() {}, nil
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.RedisAddr()})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		_ = redisClient.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.Info("redis connection ready", slog.String("redis_addr", cfg.Redis.RedisAddr()))

	closeFn := func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}
	return session.NewRedisStore(redisClient, cfg.Session.TTL), closeFn, nil
}
