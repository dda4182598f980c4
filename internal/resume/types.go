package resume

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// MaritalStatus 表示婚姻状况，仅允许 Single / Married。
type MaritalStatus string

const (
	Single  MaritalStatus = "Single"
	Married MaritalStatus = "Married"
)

// ParseMaritalStatus 大小写不敏感地解析婚姻状况。
func ParseMaritalStatus(s string) (MaritalStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single":
		return Single, nil
	case "married":
		return Married, nil
	default:
		return "", fmt.Errorf("unknown marital status %q", s)
	}
}

// Qualification 是有序的学历等级，数值越大等级越高。
type Qualification int

const (
	Tenth Qualification = iota + 1
	Twelfth
	Diploma
	Bachelors
	Masters
)

var qualificationCodes = map[Qualification]string{
	Tenth:     "10th",
	Twelfth:   "12th",
	Diploma:   "diploma",
	Bachelors: "bachelors",
	Masters:   "masters",
}

var qualificationLabels = map[Qualification]string{
	Tenth:     "10th",
	Twelfth:   "12th",
	Diploma:   "Diploma",
	Bachelors: "UG (Bachelor's)",
	Masters:   "PG (Master's)",
}

// AscendingQualifications 返回从 10th 到 Master's 的填写顺序。
func AscendingQualifications() []Qualification {
	return []Qualification{Tenth, Twelfth, Diploma, Bachelors, Masters}
}

// DescendingQualifications 返回简历中固定的展示顺序（高到低）。
func DescendingQualifications() []Qualification {
	return []Qualification{Masters, Bachelors, Diploma, Twelfth, Tenth}
}

// Valid reports whether q is one of the known levels.
func (q Qualification) Valid() bool {
	_, ok := qualificationCodes[q]
	return ok
}

// Code is the wire value used in JSON payloads.
func (q Qualification) Code() string {
	return qualificationCodes[q]
}

// Label is the human-readable name printed on the CV.
func (q Qualification) Label() string {
	return qualificationLabels[q]
}

func (q Qualification) String() string {
	if !q.Valid() {
		return fmt.Sprintf("Qualification(%d)", int(q))
	}
	return q.Label()
}

// IsSchool reports whether the level is a board exam (10th/12th).
func (q Qualification) IsSchool() bool {
	return q == Tenth || q == Twelfth
}

// ParseQualification 接受 wire code 或展示名称。
func ParseQualification(s string) (Qualification, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, q := range AscendingQualifications() {
		if needle == q.Code() || needle == strings.ToLower(q.Label()) {
			return q, nil
		}
	}
	return 0, fmt.Errorf("unknown qualification %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (q Qualification) MarshalText() ([]byte, error) {
	if !q.Valid() {
		return nil, fmt.Errorf("invalid qualification %d", int(q))
	}
	return []byte(q.Code()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (q *Qualification) UnmarshalText(text []byte) error {
	parsed, err := ParseQualification(string(text))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// Person 是个人基础信息。
type Person struct {
	Name          string        `json:"name"`
	Phone         string        `json:"phone"`
	BirthDate     time.Time     `json:"birth_date"`
	MaritalStatus MaritalStatus `json:"marital_status"`
	GuardianName  string        `json:"guardian_name"`
	SpouseName    string        `json:"spouse_name,omitempty"`
}

// EducationEntry 表示某一学历等级的记录。
type EducationEntry struct {
	Level          Qualification `json:"level"`
	Institution    string        `json:"institution"`
	Year           int           `json:"year"`
	Specialization string        `json:"specialization,omitempty"`
}

// EmploymentEntry 表示一段工作经历。
type EmploymentEntry struct {
	Company          string    `json:"company"`
	Position         string    `json:"position"`
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	Responsibilities string    `json:"responsibilities,omitempty"`
}

// Record 是生成简历所需的全部数据。Collect 校验通过后视为只读。
type Record struct {
	Person     Person            `json:"person"`
	Highest    Qualification     `json:"highest_qualification,omitempty"`
	Education  []EducationEntry  `json:"education"`
	Employment []EmploymentEntry `json:"employment"`
}

// EducationFor returns the entry for level, if present.
func (r Record) EducationFor(level Qualification) (EducationEntry, bool) {
	for _, e := range r.Education {
		if e.Level == level {
			return e, true
		}
	}
	return EducationEntry{}, false
}

// Filename 生成交付文件名：姓名中的空格替换为连字符，再拼接手机号。
// 路径分隔符和文件系统保留字符同样替换为连字符，文件名不会变成多级路径。
func (r Record) Filename() string {
	return fmt.Sprintf("%s-%s.pdf", filenameSafe(r.Person.Name), filenameSafe(r.Person.Phone))
}

func filenameSafe(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune(` /\:*?"<>|`, r) {
			return '-'
		}
		return r
	}, s)
}
