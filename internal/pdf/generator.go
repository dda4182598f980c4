package pdf

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"cvWizard/internal/document"
)

// ChromiumRenderer 使用 go-rod 在无头浏览器中打印 HTML 为 PDF。
type ChromiumRenderer struct {
	timeout time.Duration
}

// NewChromiumRenderer returns a renderer with a 30s page timeout.
func NewChromiumRenderer() *ChromiumRenderer {
	return &ChromiumRenderer{timeout: 30 * time.Second}
}

// RenderFile 渲染文档并写入 path。
func (r *ChromiumRenderer) RenderFile(ctx context.Context, doc document.Document, path string) error {
	htmlContent, err := BuildHTML(doc)
	if err != nil {
		return err
	}

	data, err := r.generatePDFFromHTML(ctx, htmlContent, doc.Page)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write pdf file: %w", err)
	}
	return nil
}

func (r *ChromiumRenderer) generatePDFFromHTML(ctx context.Context, htmlContent string, pageSpec document.Page) ([]byte, error) {
	launch := launcher.New().
		Headless(true).
		NoSandbox(true)

	if path, ok := launcher.LookPath(); ok {
		launch = launch.Bin(path)
	}

	browserURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	defer launch.Cleanup()

	browser := rod.New().ControlURL(browserURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer func() {
		_ = browser.Close()
	}()

	page, err := browser.Timeout(r.timeout).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer func() {
		_ = page.Close()
	}()

	page = page.Timeout(r.timeout)
	if err := page.SetDocumentContent(htmlContent); err != nil {
		return nil, fmt.Errorf("set document content: %w", err)
	}

	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	reader, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground: true,
		PaperWidth:      float64Ptr(pageSpec.WidthInches),
		PaperHeight:     float64Ptr(pageSpec.HeightInches),
		MarginTop:       float64Ptr(pageSpec.MarginInches),
		MarginBottom:    float64Ptr(pageSpec.MarginInches),
		MarginLeft:      float64Ptr(pageSpec.MarginInches),
		MarginRight:     float64Ptr(pageSpec.MarginInches),
	})
	if err != nil {
		return nil, fmt.Errorf("export pdf: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read pdf bytes: %w", err)
	}

	return data, nil
}

func float64Ptr(value float64) *float64 {
	return &value
}
