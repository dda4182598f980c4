package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cvWizard/internal/auth"
	"cvWizard/internal/errcode"
	"cvWizard/internal/session"
)

const (
	SessionCookieName = "cv_session"
	sessionStateKey   = "sessionState"
)

// CookieSettings 控制会话 Cookie 的属性。
type CookieSettings struct {
	Domain string
}

// SessionMiddleware 从签名 Cookie 中恢复会话；Cookie 缺失、无效或会话过期时创建新会话。
// 新会话在第一次保存前只存在于本次请求中。
func SessionMiddleware(store session.Store, tokens *auth.TokenService, cookies CookieSettings) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		logger := LoggerFromContext(c)

		var state *session.State
		if raw, err := c.Cookie(SessionCookieName); err == nil && raw != "" {
			if claims, err := tokens.Validate(raw); err == nil {
				loaded, err := store.Load(ctx, claims.SessionID)
				switch {
				case err == nil:
					state = loaded
				case errors.Is(err, session.ErrNotFound):
					state = session.NewState(claims.SessionID, time.Now())
				default:
					logger.Error("load session failed", slog.Any("error", err))
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
						"error": "internal error",
						"code":  errcode.SystemError,
					})
					return
				}
			}
		}

		if state == nil {
			state = session.NewState(auth.NewSessionID(), time.Now())
			token, expiresAt, err := tokens.Issue(state.ID)
			if err != nil {
				logger.Error("issue session token failed", slog.Any("error", err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal error",
					"code":  errcode.SystemError,
				})
				return
			}
			setSessionCookie(c, cookies, token, expiresAt)
		}

		c.Set(sessionStateKey, state)
		WithLoggerAttrs(c, slog.String("session", shortID(state.ID)))
		c.Next()
	}
}

// SessionFromContext 返回当前请求的会话状态。
func SessionFromContext(c *gin.Context) *session.State {
	if value, ok := c.Get(sessionStateKey); ok {
		if state, ok := value.(*session.State); ok {
			return state
		}
	}
	return nil
}

// ClearSessionCookie 让浏览器删除会话 Cookie。
func ClearSessionCookie(c *gin.Context, cookies CookieSettings) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		MaxAge:   -1,
		Path:     "/",
		Secure:   isHTTPSRequest(c),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Domain:   strings.TrimSpace(cookies.Domain),
	})
}

func setSessionCookie(c *gin.Context, cookies CookieSettings, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = int(time.Hour.Seconds())
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		MaxAge:   maxAge,
		Path:     "/",
		Secure:   isHTTPSRequest(c),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Domain:   strings.TrimSpace(cookies.Domain),
		Expires:  expiresAt,
	})
}

func isHTTPSRequest(c *gin.Context) bool {
	if c.Request == nil {
		return false
	}
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(c.Request.Header.Get("X-Forwarded-Proto"), "https")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
