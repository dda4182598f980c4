// Package auth implements the shared access-key gate and the signed session token.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrEmptySecret 表示未输入密钥，不计入失败次数。
	ErrEmptySecret = errors.New("please enter an access key")
	// ErrInvalidSecret 表示密钥不匹配，用户可重试。
	ErrInvalidSecret = errors.New("invalid access key")
)

// DefaultWarnAfter 是触发提示的连续失败次数。
const DefaultWarnAfter = 3

// GateState 是单个会话的认证状态。
type GateState struct {
	Authenticated   bool      `json:"authenticated"`
	AuthenticatedAt time.Time `json:"authenticated_at,omitempty"`
	FailedAttempts  int       `json:"failed_attempts"`
}

// Gate 校验访问密钥。失败只计数和提示，不锁定。
type Gate struct {
	store     SecretStore
	warnAfter int
	now       func() time.Time
}

func NewGate(store SecretStore, warnAfter int) *Gate {
	if warnAfter <= 0 {
		warnAfter = DefaultWarnAfter
	}
	return &Gate{store: store, warnAfter: warnAfter, now: time.Now}
}

// Submit 提交一次密钥。已认证的状态不会再次变更。
// 返回 ErrSecretNotConfigured（配置错误）、ErrEmptySecret 或 ErrInvalidSecret。
func (g *Gate) Submit(state *GateState, secret string) error {
	if state.Authenticated {
		return nil
	}
	if strings.TrimSpace(secret) == "" {
		return ErrEmptySecret
	}

	stored, err := g.store.StoredHash()
	if err != nil {
		if errors.Is(err, ErrSecretNotConfigured) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrSecretNotConfigured, err)
	}

	if !VerifyKey(secret, stored) {
		state.FailedAttempts++
		return ErrInvalidSecret
	}

	state.Authenticated = true
	state.AuthenticatedAt = g.now().UTC()
	state.FailedAttempts = 0
	return nil
}

// ShouldWarn reports whether enough failed attempts accumulated to show a warning.
func (g *Gate) ShouldWarn(state GateState) bool {
	return !state.Authenticated && state.FailedAttempts >= g.warnAfter
}

// Logout 清空会话中的认证标记与失败计数。
func (g *Gate) Logout(state *GateState) {
	*state = GateState{}
}
