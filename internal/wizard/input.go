package wizard

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cvWizard/internal/resume"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

// Input 是某一步骤的表单输入。
type Input interface {
	Step() Step
	apply(draft *resume.Record, now time.Time) error
}

// BasicInput 对应第一步：姓名、手机号、出生日期、婚姻状况。
type BasicInput struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	BirthDate     string `json:"birth_date"`
	MaritalStatus string `json:"marital_status"`
}

func (BasicInput) Step() Step { return StepBasic }

func (in BasicInput) apply(draft *resume.Record, now time.Time) error {
	p := draft.Person
	p.Name = in.Name
	p.Phone = in.Phone

	p.BirthDate = time.Time{}
	if strings.TrimSpace(in.BirthDate) != "" {
		birth, err := parseDate("birth_date", in.BirthDate, dateLayout)
		if err != nil {
			return err
		}
		p.BirthDate = birth
	}

	// 非法值留空，由 ValidateBasic 给出统一提示。
	p.MaritalStatus, _ = resume.ParseMaritalStatus(in.MaritalStatus)

	p, err := resume.ValidateBasic(p, now)
	if err != nil {
		return err
	}
	draft.Person = p
	return nil
}

// FamilyInput 对应第二步。配偶姓名仅在已婚时必填。
type FamilyInput struct {
	GuardianName string `json:"guardian_name"`
	SpouseName   string `json:"spouse_name"`
}

func (FamilyInput) Step() Step { return StepFamily }

func (in FamilyInput) apply(draft *resume.Record, _ time.Time) error {
	p := draft.Person
	p.GuardianName = in.GuardianName
	p.SpouseName = in.SpouseName

	p, err := resume.ValidateFamily(p)
	if err != nil {
		return err
	}
	draft.Person = p
	return nil
}

// EducationEntryInput 是一级学历的填写内容。
type EducationEntryInput struct {
	Level          string `json:"level"`
	Institution    string `json:"institution"`
	Year           int    `json:"year"`
	Specialization string `json:"specialization"`
}

// EducationInput 对应第三步：最高学历及其以下每一级。
type EducationInput struct {
	Highest string                `json:"highest_qualification"`
	Entries []EducationEntryInput `json:"entries"`
}

func (EducationInput) Step() Step { return StepEducation }

func (in EducationInput) apply(draft *resume.Record, now time.Time) error {
	highest, err := resume.ParseQualification(in.Highest)
	if err != nil {
		return &resume.ValidationError{Field: "highest_qualification", Reason: "Please select your highest qualification"}
	}

	entries := make([]resume.EducationEntry, 0, len(in.Entries))
	for _, e := range in.Entries {
		level, err := resume.ParseQualification(e.Level)
		if err != nil {
			return &resume.ValidationError{Field: "education", Reason: err.Error()}
		}
		entries = append(entries, resume.EducationEntry{
			Level:          level,
			Institution:    e.Institution,
			Year:           e.Year,
			Specialization: e.Specialization,
		})
	}

	validated, err := resume.ValidateEducation(highest, entries, now)
	if err != nil {
		return err
	}
	draft.Highest = highest
	draft.Education = validated
	return nil
}

// EmploymentEntryInput 的起止时间精确到月（YYYY-MM）。
type EmploymentEntryInput struct {
	Company          string `json:"company"`
	Position         string `json:"position"`
	Start            string `json:"start"`
	End              string `json:"end"`
	Responsibilities string `json:"responsibilities"`
}

// ExperienceInput 对应第四步，可以为空。
type ExperienceInput struct {
	Entries []EmploymentEntryInput `json:"entries"`
}

func (ExperienceInput) Step() Step { return StepExperience }

func (in ExperienceInput) apply(draft *resume.Record, _ time.Time) error {
	entries := make([]resume.EmploymentEntry, 0, len(in.Entries))
	for i, e := range in.Entries {
		entry := resume.EmploymentEntry{
			Company:          e.Company,
			Position:         e.Position,
			Responsibilities: e.Responsibilities,
		}
		// 公司或职位为空的条目会被丢弃，不校验其日期。
		if strings.TrimSpace(e.Company) != "" && strings.TrimSpace(e.Position) != "" {
			field := fmt.Sprintf("employment[%d]", i)
			start, err := parseDate(field+".start", e.Start, monthLayout)
			if err != nil {
				return err
			}
			end, err := parseDate(field+".end", e.End, monthLayout)
			if err != nil {
				return err
			}
			entry.Start, entry.End = start, end
		}
		entries = append(entries, entry)
	}

	validated, err := resume.ValidateExperience(entries)
	if err != nil {
		return err
	}
	draft.Employment = validated
	return nil
}

// DecodeInput 按步骤名解析 JSON 请求体。
func DecodeInput(step Step, data []byte) (Input, error) {
	var input Input
	switch step {
	case StepBasic:
		var in BasicInput
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, fmt.Errorf("decode %s input: %w", step, err)
		}
		input = in
	case StepFamily:
		var in FamilyInput
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, fmt.Errorf("decode %s input: %w", step, err)
		}
		input = in
	case StepEducation:
		var in EducationInput
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, fmt.Errorf("decode %s input: %w", step, err)
		}
		input = in
	case StepExperience:
		var in ExperienceInput
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, fmt.Errorf("decode %s input: %w", step, err)
		}
		input = in
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}
	return input, nil
}

func parseDate(field, value, layout string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, &resume.ValidationError{Field: field, Reason: "date is required"}
	}
	t, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}, &resume.ValidationError{Field: field, Reason: fmt.Sprintf("expected format %s", layout)}
	}
	return t, nil
}
