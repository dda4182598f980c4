// Package session stores per-browser-session state between requests.
package session

import (
	"context"
	"errors"
	"time"

	"cvWizard/internal/auth"
	"cvWizard/internal/wizard"
)

// ErrNotFound 表示会话不存在或已过期。
var ErrNotFound = errors.New("session not found")

// State 是一个会话的全部数据：认证状态与表单进度。
type State struct {
	ID        string         `json:"id"`
	Gate      auth.GateState `json:"gate"`
	Wizard    *wizard.Wizard `json:"wizard"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewState 创建一个未认证、位于第一步的会话。
func NewState(id string, now time.Time) *State {
	return &State{
		ID:        id,
		Wizard:    wizard.New(),
		CreatedAt: now.UTC(),
	}
}

// Clear 清空认证状态与表单数据，会话 ID 保留。
func (s *State) Clear() {
	s.Gate = auth.GateState{}
	s.Wizard = wizard.New()
}

// Store 持久化会话状态。Save 会刷新过期时间。
type Store interface {
	Load(ctx context.Context, id string) (*State, error)
	Save(ctx context.Context, state *State) error
	Delete(ctx context.Context, id string) error
}
