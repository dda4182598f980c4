// Package wizard holds the per-session step state of the CV form.
// It has no I/O; callers load and save it through the session store.
package wizard

import (
	"errors"
	"fmt"
	"time"

	"cvWizard/internal/generator"
	"cvWizard/internal/resume"
)

// Step 是表单步骤，顺序固定。
type Step string

const (
	StepBasic      Step = "basic"
	StepFamily     Step = "family"
	StepEducation  Step = "education"
	StepExperience Step = "experience"
	StepReview     Step = "review"
)

var stepOrder = []Step{StepBasic, StepFamily, StepEducation, StepExperience, StepReview}

// Steps returns the steps in order.
func Steps() []Step {
	return append([]Step(nil), stepOrder...)
}

func (s Step) index() int {
	for i, step := range stepOrder {
		if step == s {
			return i
		}
	}
	return -1
}

// ParseStep 校验步骤名。
func ParseStep(s string) (Step, error) {
	step := Step(s)
	if step.index() < 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownStep, s)
	}
	return step, nil
}

// Phase 表示整体阶段。
type Phase string

const (
	PhaseCollecting Phase = "collecting"
	PhaseGenerating Phase = "generating"
	PhaseDone       Phase = "done"
	PhaseFailed     Phase = "failed"
)

var (
	ErrUnknownStep    = errors.New("unknown wizard step")
	ErrStepOutOfOrder = errors.New("previous steps must be completed first")
	// ErrNotCollecting 表示当前阶段不接受表单输入（生成中或已完成）。
	ErrNotCollecting = errors.New("wizard is not accepting input")
	ErrNotGenerating = errors.New("no generation in progress")
)

// StaleGenerationAfter 之后仍停留在生成中的表单视为已中断，可以重新提交或重新生成。
const StaleGenerationAfter = 5 * time.Minute

// Wizard 是单个会话的表单状态。Draft 在各步骤间逐步累积。
type Wizard struct {
	Step      Step                `json:"step"`
	Phase     Phase               `json:"phase"`
	Draft     resume.Record       `json:"draft"`
	Artifact  *generator.Artifact `json:"artifact,omitempty"`
	LastError string              `json:"last_error,omitempty"`
	StartedAt time.Time           `json:"started_at,omitempty"`
}

// New 返回位于第一步的空表单。
func New() *Wizard {
	return &Wizard{Step: StepBasic, Phase: PhaseCollecting}
}

func (w *Wizard) collecting() bool {
	return w.Phase == PhaseCollecting || w.Phase == PhaseFailed
}

// acceptingInput 额外接管超时未结束的生成（进程退出或结果未能写回）。
func (w *Wizard) acceptingInput(now time.Time) bool {
	if w.collecting() {
		return true
	}
	return w.Phase == PhaseGenerating && now.Sub(w.StartedAt) >= StaleGenerationAfter
}

// Submit 校验并保存一个步骤的输入，成功后前进到下一步。
// 可以重新提交已经到达的步骤，不能跳到尚未到达的步骤。
func (w *Wizard) Submit(input Input, now time.Time) error {
	if !w.acceptingInput(now) {
		return ErrNotCollecting
	}
	step := input.Step()
	if step.index() < 0 || step == StepReview {
		return fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}
	if step.index() > w.Step.index() {
		return fmt.Errorf("%w: %s before %s", ErrStepOutOfOrder, step, w.Step)
	}

	if err := input.apply(&w.Draft, now); err != nil {
		return err
	}

	w.Phase = PhaseCollecting
	w.LastError = ""
	w.Step = stepOrder[step.index()+1]
	return nil
}

// Back 回到上一步，已填写的数据保留。
func (w *Wizard) Back() error {
	if !w.collecting() {
		return ErrNotCollecting
	}
	if i := w.Step.index(); i > 0 {
		w.Step = stepOrder[i-1]
	}
	return nil
}

// Reset 丢弃全部数据，对应“再生成一份”。
func (w *Wizard) Reset() {
	*w = *New()
}

// BeginGenerate 在确认页对草稿做完整校验，成功后进入生成阶段并返回校验后的 Record。
func (w *Wizard) BeginGenerate(now time.Time) (resume.Record, error) {
	if !w.acceptingInput(now) {
		return resume.Record{}, ErrNotCollecting
	}
	if w.Step != StepReview {
		return resume.Record{}, fmt.Errorf("%w: %s before %s", ErrStepOutOfOrder, StepReview, w.Step)
	}

	rec, err := resume.Collect(w.Draft, now)
	if err != nil {
		return resume.Record{}, err
	}
	w.Draft = rec
	w.Phase = PhaseGenerating
	w.StartedAt = now
	w.LastError = ""
	return rec, nil
}

// Complete 记录生成结果。
func (w *Wizard) Complete(artifact *generator.Artifact) error {
	if w.Phase != PhaseGenerating {
		return ErrNotGenerating
	}
	w.Phase = PhaseDone
	w.Artifact = artifact
	w.StartedAt = time.Time{}
	return nil
}

// Fail 记录生成失败并回到第一步，草稿保留以便重新确认。
func (w *Wizard) Fail(reason string) {
	w.Phase = PhaseFailed
	w.Step = StepBasic
	w.Artifact = nil
	w.StartedAt = time.Time{}
	w.LastError = reason
}
