package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"cvWizard/internal/api/middleware"
	"cvWizard/internal/auth"
	"cvWizard/internal/errcode"
	"cvWizard/internal/metrics"
	"cvWizard/internal/session"
)

const (
	msgInvalidAccessKey   = "Invalid access key. Please try again."
	msgTooManyAttempts    = "Multiple failed attempts detected. Please wait before trying again."
	msgAuthConfigNotFound = "Authentication configuration not found. Please contact administrator."
)

// AuthHandler 处理访问密钥的提交、状态查询与退出。
type AuthHandler struct {
	gate     *auth.Gate
	sessions session.Store
	cookies  middleware.CookieSettings
	logger   *slog.Logger
}

func NewAuthHandler(gate *auth.Gate, sessions session.Store, cookies middleware.CookieSettings, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{gate: gate, sessions: sessions, cookies: cookies, logger: logger}
}

type loginRequest struct {
	AccessKey string `json:"access_key"`
}

type authStatusResponse struct {
	Authenticated  bool   `json:"authenticated"`
	FailedAttempts int    `json:"failed_attempts"`
	Warning        string `json:"warning,omitempty"`
}

type loginFailedResponse struct {
	errorResponse
	FailedAttempts int    `json:"failed_attempts"`
	Warning        string `json:"warning,omitempty"`
}

// Login 校验访问密钥。失败只计数，达到阈值后附带提示，不锁定。
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body")
		return
	}

	state := middleware.SessionFromContext(c)
	logger := h.loggerFromContext(c)

	err := h.gate.Submit(&state.Gate, req.AccessKey)
	switch {
	case err == nil:
		if err := h.sessions.Save(c.Request.Context(), state); err != nil {
			logger.Error("save session failed", slog.Any("error", err))
			Internal(c, msgInternal)
			return
		}
		metrics.ObserveLogin("ok")
		logger.Info("access granted")
		c.JSON(http.StatusOK, h.status(state))

	case errors.Is(err, auth.ErrEmptySecret):
		metrics.ObserveLogin("empty")
		BadRequest(c, "Please enter an access key")

	case errors.Is(err, auth.ErrInvalidSecret):
		metrics.ObserveLogin("invalid")
		if err := h.sessions.Save(c.Request.Context(), state); err != nil {
			logger.Error("save session failed", slog.Any("error", err))
			Internal(c, msgInternal)
			return
		}
		logger.Info("access key rejected", slog.Int("failed_attempts", state.Gate.FailedAttempts))
		resp := loginFailedResponse{
			errorResponse:  errorResponse{Error: msgInvalidAccessKey, Code: errcode.AuthenticationFailed},
			FailedAttempts: state.Gate.FailedAttempts,
		}
		if h.gate.ShouldWarn(state.Gate) {
			resp.Warning = msgTooManyAttempts
		}
		c.JSON(http.StatusUnauthorized, resp)

	case errors.Is(err, auth.ErrSecretNotConfigured):
		metrics.ObserveLogin("config_error")
		logger.Error("access key hash unavailable", slog.Any("error", err))
		Error(c, http.StatusInternalServerError, errcode.ConfigurationError, msgAuthConfigNotFound)

	default:
		logger.Error("access key check failed", slog.Any("error", err))
		Internal(c, msgInternal)
	}
}

// Status 返回当前会话的认证状态。
func (h *AuthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.status(middleware.SessionFromContext(c)))
}

// Logout 清空会话中的全部数据并删除 Cookie。
func (h *AuthHandler) Logout(c *gin.Context) {
	state := middleware.SessionFromContext(c)
	h.gate.Logout(&state.Gate)
	state.Clear()

	if err := h.sessions.Delete(c.Request.Context(), state.ID); err != nil {
		h.loggerFromContext(c).Error("delete session failed", slog.Any("error", err))
		Internal(c, msgInternal)
		return
	}
	middleware.ClearSessionCookie(c, h.cookies)
	c.JSON(http.StatusOK, h.status(state))
}

func (h *AuthHandler) status(state *session.State) authStatusResponse {
	resp := authStatusResponse{
		Authenticated:  state.Gate.Authenticated,
		FailedAttempts: state.Gate.FailedAttempts,
	}
	if h.gate.ShouldWarn(state.Gate) {
		resp.Warning = msgTooManyAttempts
	}
	return resp
}

func (h *AuthHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
