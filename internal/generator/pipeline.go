// Package generator runs the generation pipeline: assemble, render, protect, deliver.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"cvWizard/internal/document"
	"cvWizard/internal/metrics"
	"cvWizard/internal/protect"
	"cvWizard/internal/resume"
	"cvWizard/internal/storage"
)

const defaultForwardTimeout = 2 * time.Minute

// Renderer 把文档渲染到本地文件。
type Renderer interface {
	RenderFile(ctx context.Context, doc document.Document, path string) error
}

// Protector 对渲染结果加密并返回新文件路径。
type Protector interface {
	Encrypt(inPath, password string) (string, error)
}

// Stage 标识流程中失败的阶段。
type Stage string

const (
	StagePrepare Stage = "prepare"
	StageRender  Stage = "render"
	StageProtect Stage = "protect"
	StageDeliver Stage = "deliver"
)

// GenerationError 表示渲染或加密阶段失败，调用方应提示用户从第一步重试。
type GenerationError struct {
	Stage Stage
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("cv generation failed at %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ForwardReport 描述云存储转发结果，与直接下载互不影响。
type ForwardReport struct {
	Attempted bool   `json:"attempted"`
	OK        bool   `json:"ok"`
	Backend   string `json:"backend,omitempty"`
	Path      string `json:"path,omitempty"`
	Link      string `json:"link,omitempty"`
	Warning   string `json:"warning,omitempty"`
}

// Artifact 是加密后的最终文件，保存在会话中供下载。
type Artifact struct {
	Filename    string        `json:"filename"`
	Content     []byte        `json:"content"`
	GeneratedAt time.Time     `json:"generated_at"`
	Forward     ForwardReport `json:"forward"`
}

// Pipeline 串行执行一次生成，不共享可变状态，可被多个请求并发调用。
type Pipeline struct {
	renderer       Renderer
	protector      Protector
	forwarder      storage.Forwarder
	folder         string
	forwardTimeout time.Duration
	tempDir        string
	logger         *slog.Logger
	now            func() time.Time
}

// Option 配置 Pipeline。
type Option func(*Pipeline)

// WithForwarder 启用转发。forwarder 为 nil 时等同于不转发。
func WithForwarder(f storage.Forwarder, folder string) Option {
	return func(p *Pipeline) {
		p.forwarder = f
		p.folder = storage.NormalizeFolder(folder)
	}
}

// WithClock 替换时间来源。
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func New(renderer Renderer, protector Protector, tempDir string, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		renderer:       renderer,
		protector:      protector,
		forwardTimeout: defaultForwardTimeout,
		tempDir:        tempDir,
		logger:         logger,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ForwardingEnabled reports whether a storage destination is configured.
func (p *Pipeline) ForwardingEnabled() bool {
	return p.forwarder != nil
}

// Run 为校验后的 Record 生成加密 CV。中间文件无论成败都会删除；
// 转发失败只记录在 Artifact.Forward 中，不返回错误。
func (p *Pipeline) Run(ctx context.Context, rec resume.Record) (artifact *Artifact, err error) {
	done := metrics.TrackGeneration()
	defer func() { done(err) }()

	now := p.now()
	log := p.logger.With(slog.String("component", "generator"))

	if err := os.MkdirAll(p.tempDir, 0o700); err != nil {
		return nil, &GenerationError{Stage: StagePrepare, Err: err}
	}
	tmp, err := os.CreateTemp(p.tempDir, "cv_temp_"+now.Format("20060102_150405")+"_*.pdf")
	if err != nil {
		return nil, &GenerationError{Stage: StagePrepare, Err: err}
	}
	renderedPath := tmp.Name()
	_ = tmp.Close()
	encryptedPath := protect.EncryptedPath(renderedPath)
	defer p.cleanup(log, renderedPath, encryptedPath)

	doc := document.Assemble(rec, now)

	start := time.Now()
	err = p.renderer.RenderFile(ctx, doc, renderedPath)
	metrics.ObserveStage(string(StageRender), start, err)
	if err != nil {
		log.Error("render cv failed", slog.Any("error", err))
		return nil, &GenerationError{Stage: StageRender, Err: err}
	}

	start = time.Now()
	protectedPath, err := p.protector.Encrypt(renderedPath, protect.Password(rec.Person.BirthDate))
	metrics.ObserveStage(string(StageProtect), start, err)
	if err != nil {
		log.Error("protect cv failed", slog.Any("error", err))
		return nil, &GenerationError{Stage: StageProtect, Err: err}
	}
	if protectedPath != encryptedPath {
		defer p.cleanup(log, protectedPath)
	}

	content, err := os.ReadFile(protectedPath)
	if err != nil {
		return nil, &GenerationError{Stage: StageDeliver, Err: err}
	}

	artifact = &Artifact{
		Filename:    rec.Filename(),
		Content:     content,
		GeneratedAt: now,
	}
	if p.forwarder != nil {
		artifact.Forward = p.forward(ctx, log, protectedPath, artifact.Filename)
	}

	log.Info("cv generated",
		slog.Int("size_bytes", len(content)),
		slog.Bool("forwarded", artifact.Forward.OK),
	)
	return artifact, nil
}

func (p *Pipeline) forward(ctx context.Context, log *slog.Logger, localPath, filename string) (report ForwardReport) {
	report = ForwardReport{Attempted: true, Backend: p.forwarder.Name()}
	log = log.With(slog.String("backend", report.Backend))

	ctx, cancel := context.WithTimeout(ctx, p.forwardTimeout)
	defer cancel()

	start := time.Now()
	var err error
	defer func() {
		metrics.ObserveStage("forward", start, err)
		metrics.ObserveForward(report.Backend, err)
	}()

	if err = p.forwarder.CreateFolder(ctx, p.folder); err != nil {
		log.Warn("create destination folder failed", slog.Any("error", err))
		report.Warning = fmt.Sprintf("could not prepare folder %s: %v", p.folder, err)
		return report
	}

	remote, err := p.forwarder.Upload(ctx, localPath, p.folder, filename)
	if err != nil {
		log.Warn("upload cv failed", slog.Any("error", err))
		report.Warning = fmt.Sprintf("upload failed: %v", err)
		return report
	}
	report.OK = true
	report.Path = remote

	link, linkErr := p.forwarder.TemporaryLink(ctx, remote)
	if linkErr != nil {
		log.Warn("temporary link unavailable", slog.Any("error", linkErr))
		report.Warning = fmt.Sprintf("uploaded, but temporary link unavailable: %v", linkErr)
		return report
	}
	report.Link = link
	return report
}

func (p *Pipeline) cleanup(log *slog.Logger, paths ...string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn("remove temp file failed", slog.String("path", filepath.Base(path)), slog.Any("error", err))
		}
	}
}
