// Package storage forwards generated CVs to a configured cloud destination.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cvWizard/internal/config"
)

var (
	// ErrNotConfigured 表示未配置任何转发目标。
	ErrNotConfigured = errors.New("storage forwarding not configured")
	// ErrFileNotFound 表示远端文件不存在。
	ErrFileNotFound = errors.New("remote file not found")
)

// Forwarder 是云存储协作方的统一接口。路径均使用 "/" 分隔。
type Forwarder interface {
	// Name 返回后端名称，用于日志与状态接口。
	Name() string
	TestConnection(ctx context.Context) error
	// Upload 上传本地文件到 folder/filename，返回远端路径。
	Upload(ctx context.Context, localPath, folder, filename string) (string, error)
	// CreateFolder 是幂等的：目录已存在视为成功。
	CreateFolder(ctx context.Context, folder string) error
	ListFiles(ctx context.Context, folder string) ([]string, error)
	TemporaryLink(ctx context.Context, remotePath string) (string, error)
}

// New 根据配置构造 Forwarder。未启用转发时返回 ErrNotConfigured。
func New(cfg config.ForwardConfig) (Forwarder, error) {
	switch cfg.Backend {
	case config.ForwardBackendNone:
		return nil, ErrNotConfigured
	case config.ForwardBackendDropbox:
		return NewDropbox(cfg.Dropbox)
	case config.ForwardBackendMinIO:
		return NewMinIO(cfg.MinIO)
	default:
		return nil, fmt.Errorf("unknown forward backend %q", cfg.Backend)
	}
}

// NormalizeFolder returns folder with exactly one leading and one trailing "/".
// An empty folder maps to the root "/".
func NormalizeFolder(folder string) string {
	trimmed := strings.Trim(strings.TrimSpace(folder), "/")
	if trimmed == "" {
		return "/"
	}
	return "/" + trimmed + "/"
}

// JoinPath 拼接规范化后的目录与文件名。
func JoinPath(folder, filename string) string {
	return NormalizeFolder(folder) + strings.TrimLeft(filename, "/")
}
