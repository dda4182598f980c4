package pdf

import (
	"context"
	"fmt"

	"cvWizard/internal/config"
	"cvWizard/internal/document"
)

// Renderer 把文档描述渲染为静态 PDF 文件。
type Renderer interface {
	RenderFile(ctx context.Context, doc document.Document, path string) error
}

// NewRenderer 根据配置选择渲染引擎。
func NewRenderer(engine string) (Renderer, error) {
	switch engine {
	case config.RenderEngineChromium:
		return NewChromiumRenderer(), nil
	case config.RenderEngineNative, "":
		return NewNativeRenderer(), nil
	default:
		return nil, fmt.Errorf("unknown render engine %q", engine)
	}
}
