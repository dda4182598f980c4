package api

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cvWizard/internal/api/middleware"
	"cvWizard/internal/errcode"
	"cvWizard/internal/generator"
	"cvWizard/internal/resume"
	"cvWizard/internal/session"
	"cvWizard/internal/wizard"
)

const (
	maxStepBodyBytes   = 64 << 10
	sessionSaveTimeout = 5 * time.Second
)

// CVGenerator 生成加密后的 CV。
type CVGenerator interface {
	Run(ctx context.Context, rec resume.Record) (*generator.Artifact, error)
}

// WizardHandler 处理表单各步骤、生成与下载。
type WizardHandler struct {
	sessions  session.Store
	generator CVGenerator
	logger    *slog.Logger
	now       func() time.Time
}

func NewWizardHandler(sessions session.Store, gen CVGenerator, logger *slog.Logger) *WizardHandler {
	return &WizardHandler{sessions: sessions, generator: gen, logger: logger, now: time.Now}
}

type resultView struct {
	Filename    string                  `json:"filename"`
	SizeBytes   int                     `json:"size_bytes"`
	GeneratedAt time.Time               `json:"generated_at"`
	DownloadURL string                  `json:"download_url"`
	Forward     generator.ForwardReport `json:"forward"`
}

type wizardView struct {
	Step      wizard.Step   `json:"step"`
	Phase     wizard.Phase  `json:"phase"`
	Steps     []wizard.Step `json:"steps"`
	Draft     resume.Record `json:"draft"`
	LastError string        `json:"last_error,omitempty"`
	Result    *resultView   `json:"result,omitempty"`
	// Code 为 DeliveryWarning 时表示转发失败，但下载不受影响。
	Code int `json:"code"`
}

func newWizardView(w *wizard.Wizard) wizardView {
	view := wizardView{
		Step:      w.Step,
		Phase:     w.Phase,
		Steps:     wizard.Steps(),
		Draft:     w.Draft,
		LastError: w.LastError,
		Code:      errcode.OK,
	}
	if w.Phase == wizard.PhaseDone && w.Artifact != nil {
		view.Result = &resultView{
			Filename:    w.Artifact.Filename,
			SizeBytes:   len(w.Artifact.Content),
			GeneratedAt: w.Artifact.GeneratedAt,
			DownloadURL: "/v1/wizard/download",
			Forward:     w.Artifact.Forward,
		}
		if w.Artifact.Forward.Attempted && w.Artifact.Forward.Warning != "" {
			view.Code = errcode.DeliveryWarning
		}
	}
	return view
}

// Get 返回当前表单进度。
func (h *WizardHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, newWizardView(middleware.SessionFromContext(c).Wizard))
}

// Submit 提交某一步的输入：PUT /v1/wizard/:step。
func (h *WizardHandler) Submit(c *gin.Context) {
	step, err := wizard.ParseStep(c.Param("step"))
	if err != nil || step == wizard.StepReview {
		NotFound(c, "unknown wizard step")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxStepBodyBytes)
	body, err := c.GetRawData()
	if err != nil {
		BadRequest(c, "invalid request body")
		return
	}
	input, err := wizard.DecodeInput(step, body)
	if err != nil {
		BadRequest(c, "invalid request body")
		return
	}

	state := middleware.SessionFromContext(c)
	if err := state.Wizard.Submit(input, h.now()); err != nil {
		h.respondWizardError(c, err)
		return
	}
	h.saveAndRespond(c, state)
}

// Back 回到上一步。
func (h *WizardHandler) Back(c *gin.Context) {
	state := middleware.SessionFromContext(c)
	if err := state.Wizard.Back(); err != nil {
		h.respondWizardError(c, err)
		return
	}
	h.saveAndRespond(c, state)
}

// Reset 丢弃当前表单与生成结果（“再生成一份”）。
func (h *WizardHandler) Reset(c *gin.Context) {
	state := middleware.SessionFromContext(c)
	state.Wizard.Reset()
	h.saveAndRespond(c, state)
}

// Generate 校验全部数据并同步执行生成流程。
// 渲染或加密失败时表单回到第一步；转发失败只体现在结果的 forward 字段中。
func (h *WizardHandler) Generate(c *gin.Context) {
	state := middleware.SessionFromContext(c)
	logger := h.loggerFromContext(c)
	ctx := c.Request.Context()

	rec, err := state.Wizard.BeginGenerate(h.now())
	if err != nil {
		h.respondWizardError(c, err)
		return
	}
	if err := h.sessions.Save(ctx, state); err != nil {
		logger.Error("save session failed", slog.Any("error", err))
		Internal(c, msgInternal)
		return
	}

	artifact, err := h.generator.Run(ctx, rec)

	// 客户端断开后仍需写回结果，否则会话停留在 generating。
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sessionSaveTimeout)
	defer cancel()

	if err != nil {
		logger.Error("cv generation failed", slog.Any("error", err))
		state.Wizard.Fail(msgGenerationFailed)
		if saveErr := h.sessions.Save(saveCtx, state); saveErr != nil {
			logger.Error("save session failed", slog.Any("error", saveErr))
		}
		Internal(c, msgGenerationFailed)
		return
	}

	if err := state.Wizard.Complete(artifact); err != nil {
		logger.Error("complete wizard failed", slog.Any("error", err))
		Internal(c, msgInternal)
		return
	}
	if artifact.Forward.Warning != "" {
		logger.Warn("cv forwarded with warning", slog.String("warning", artifact.Forward.Warning))
	}
	h.saveAndRespondCtx(c, saveCtx, state)
}

// Download 以附件形式返回加密后的 PDF。
func (h *WizardHandler) Download(c *gin.Context) {
	w := middleware.SessionFromContext(c).Wizard
	if w.Phase != wizard.PhaseDone || w.Artifact == nil {
		NotFound(c, "no generated CV available")
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": w.Artifact.Filename}))
	c.Data(http.StatusOK, "application/pdf", w.Artifact.Content)
}

func (h *WizardHandler) saveAndRespond(c *gin.Context, state *session.State) {
	h.saveAndRespondCtx(c, c.Request.Context(), state)
}

func (h *WizardHandler) saveAndRespondCtx(c *gin.Context, ctx context.Context, state *session.State) {
	if err := h.sessions.Save(ctx, state); err != nil {
		h.loggerFromContext(c).Error("save session failed", slog.Any("error", err))
		Internal(c, msgInternal)
		return
	}
	c.JSON(http.StatusOK, newWizardView(state.Wizard))
}

func (h *WizardHandler) respondWizardError(c *gin.Context, err error) {
	var vErr *resume.ValidationError
	switch {
	case errors.As(err, &vErr):
		ValidationFailed(c, err)
	case errors.Is(err, wizard.ErrStepOutOfOrder), errors.Is(err, wizard.ErrNotCollecting):
		Conflict(c, err.Error())
	case errors.Is(err, wizard.ErrUnknownStep):
		NotFound(c, err.Error())
	default:
		h.loggerFromContext(c).Error("wizard operation failed", slog.Any("error", err))
		Internal(c, msgInternal)
	}
}

func (h *WizardHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
