package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cvWizard/internal/api/middleware"
	"cvWizard/internal/errcode"
	"cvWizard/internal/storage"
)

const storageCheckTimeout = 10 * time.Second

// StorageHandler 暴露云端转发目标的连通性与目录内容。forwarder 可为 nil。
type StorageHandler struct {
	forwarder storage.Forwarder
	folder    string
	logger    *slog.Logger
}

func NewStorageHandler(forwarder storage.Forwarder, folder string, logger *slog.Logger) *StorageHandler {
	return &StorageHandler{forwarder: forwarder, folder: storage.NormalizeFolder(folder), logger: logger}
}

type storageStatusResponse struct {
	Enabled   bool   `json:"enabled"`
	Backend   string `json:"backend,omitempty"`
	Folder    string `json:"folder,omitempty"`
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// Status 测试转发目标是否可用。
func (h *StorageHandler) Status(c *gin.Context) {
	if h.forwarder == nil {
		c.JSON(http.StatusOK, storageStatusResponse{Enabled: false})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storageCheckTimeout)
	defer cancel()

	resp := storageStatusResponse{
		Enabled: true,
		Backend: h.forwarder.Name(),
		Folder:  h.folder,
	}
	if err := h.forwarder.TestConnection(ctx); err != nil {
		middleware.LoggerFromContext(c).Warn("storage connection test failed",
			slog.String("backend", resp.Backend), slog.Any("error", err))
		resp.Error = err.Error()
	} else {
		resp.Connected = true
	}
	c.JSON(http.StatusOK, resp)
}

// Files 列出目录下的文件名，folder 默认为配置的转发目录。
func (h *StorageHandler) Files(c *gin.Context) {
	if h.forwarder == nil {
		NotFound(c, "storage forwarding not configured")
		return
	}

	folder := h.folder
	if q := c.Query("folder"); q != "" {
		folder = storage.NormalizeFolder(q)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storageCheckTimeout)
	defer cancel()

	names, err := h.forwarder.ListFiles(ctx, folder)
	if err != nil {
		middleware.LoggerFromContext(c).Error("list remote files failed",
			slog.String("folder", folder), slog.Any("error", err))
		Error(c, http.StatusBadGateway, errcode.UpstreamError, "failed to list remote files")
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"folder": folder, "files": names})
}
