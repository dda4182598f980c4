package resume

import (
	"fmt"
	"strings"
	"time"
)

const (
	// MinEducationYear 是可填写的最早毕业年份。
	MinEducationYear = 1980
	// MaxEmployers 是可填写的最多雇主数量。
	MaxEmployers = 10
)

// ValidationError 表示必填字段缺失或非法，调用方应提示用户修正后重试。
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ValidateBasic 校验基础信息（姓名、手机号、出生日期、婚姻状况），返回规整后的副本。
func ValidateBasic(p Person, now time.Time) (Person, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Phone = strings.TrimSpace(p.Phone)
	if p.Name == "" || p.Phone == "" {
		return p, invalid("", "Please fill in all required fields marked with *")
	}
	if p.BirthDate.IsZero() {
		return p, invalid("birth_date", "date of birth is required")
	}
	if dateOnly(p.BirthDate).After(dateOnly(now)) {
		return p, invalid("birth_date", "date of birth cannot be in the future")
	}
	if p.MaritalStatus != Single && p.MaritalStatus != Married {
		return p, invalid("marital_status", "marital status must be Single or Married")
	}
	return p, nil
}

// ValidateFamily 校验监护人与配偶信息。未婚时清空配偶姓名，保证“配偶非空 ⇔ 已婚”。
func ValidateFamily(p Person) (Person, error) {
	p.GuardianName = strings.TrimSpace(p.GuardianName)
	p.SpouseName = strings.TrimSpace(p.SpouseName)
	if p.GuardianName == "" {
		return p, invalid("guardian_name", "Please fill in all required fields marked with *")
	}
	if p.MaritalStatus == Married && p.SpouseName == "" {
		return p, invalid("spouse_name", "Please enter spouse's name")
	}
	if p.MaritalStatus != Married {
		p.SpouseName = ""
	}
	return p, nil
}

// ValidateEducation 校验从 10th 到最高学历的每一级，丢弃高于最高学历的条目，
// 返回按填写顺序（低到高）排列的结果。
func ValidateEducation(highest Qualification, entries []EducationEntry, now time.Time) ([]EducationEntry, error) {
	if !highest.Valid() {
		return nil, invalid("highest_qualification", "Please select your highest qualification")
	}

	byLevel := make(map[Qualification]EducationEntry, len(entries))
	for _, e := range entries {
		if !e.Level.Valid() {
			return nil, invalid("education", fmt.Sprintf("unknown qualification level %d", int(e.Level)))
		}
		byLevel[e.Level] = e
	}

	result := make([]EducationEntry, 0, int(highest))
	for _, level := range AscendingQualifications() {
		if level > highest {
			break
		}
		e, ok := byLevel[level]
		e.Level = level
		e.Institution = strings.TrimSpace(e.Institution)
		e.Specialization = strings.TrimSpace(e.Specialization)
		if !ok || e.Institution == "" || e.Year == 0 {
			return nil, invalid("education."+level.Code(), "Please fill in education details")
		}
		if e.Year < MinEducationYear || e.Year > now.Year() {
			return nil, invalid("education."+level.Code(),
				fmt.Sprintf("year of completion must be between %d and %d", MinEducationYear, now.Year()))
		}
		result = append(result, e)
	}

	if len(result) == 0 {
		return nil, invalid("education", "Please fill in education details")
	}
	return result, nil
}

// ValidateExperience 过滤掉缺少公司或职位的条目，并校验起止日期。
func ValidateExperience(entries []EmploymentEntry) ([]EmploymentEntry, error) {
	if len(entries) > MaxEmployers {
		return nil, invalid("employment", fmt.Sprintf("at most %d employers are allowed", MaxEmployers))
	}

	kept := make([]EmploymentEntry, 0, len(entries))
	for i, e := range entries {
		e.Company = strings.TrimSpace(e.Company)
		e.Position = strings.TrimSpace(e.Position)
		e.Responsibilities = strings.TrimSpace(e.Responsibilities)
		if e.Company == "" || e.Position == "" {
			continue
		}
		if e.Start.IsZero() || e.End.IsZero() {
			return nil, invalid(fmt.Sprintf("employment[%d]", i), "start and end dates are required")
		}
		if e.End.Before(e.Start) {
			return nil, invalid(fmt.Sprintf("employment[%d]", i), "end date cannot be before start date")
		}
		kept = append(kept, e)
	}
	return kept, nil
}

// Collect 对草稿做完整校验，成功时返回规整后的 Record；
// 失败时返回 *ValidationError，说明哪一项不完整。
func Collect(draft Record, now time.Time) (Record, error) {
	person, err := ValidateBasic(draft.Person, now)
	if err != nil {
		return Record{}, err
	}
	person, err = ValidateFamily(person)
	if err != nil {
		return Record{}, err
	}
	education, err := ValidateEducation(draft.Highest, draft.Education, now)
	if err != nil {
		return Record{}, err
	}
	employment, err := ValidateExperience(draft.Employment)
	if err != nil {
		return Record{}, err
	}

	return Record{
		Person:     person,
		Highest:    draft.Highest,
		Education:  education,
		Employment: employment,
	}, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
