package document

import (
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cvWizard/internal/resume"
)

const (
	HeadingPersonal   = "PERSONAL INFORMATION"
	HeadingEducation  = "EDUCATIONAL QUALIFICATIONS"
	HeadingExperience = "WORK EXPERIENCE"

	specializationPlaceholder = "N/A"
)

// Assemble 把校验后的 Record 组装成固定版式的文档：
// 标题、个人信息表、学历表（固定高到低顺序）、可选的工作经历、页脚。
func Assemble(rec resume.Record, generatedAt time.Time) Document {
	title := cases.Upper(language.Und).String(rec.Person.Name)

	blocks := []Block{
		{Kind: KindTitle, Text: title},
		spacer(12),
		{Kind: KindHeading, Text: HeadingPersonal},
		{Kind: KindTable, Table: personalTable(rec.Person)},
		spacer(20),
		{Kind: KindHeading, Text: HeadingEducation},
		{Kind: KindTable, Table: educationTable(rec)},
		spacer(20),
	}

	if len(rec.Employment) > 0 {
		blocks = append(blocks, Block{Kind: KindHeading, Text: HeadingExperience})
		for i, job := range rec.Employment {
			blocks = append(blocks, experienceBlocks(job)...)
			if i < len(rec.Employment)-1 {
				blocks = append(blocks, spacer(15))
			}
		}
		blocks = append(blocks, spacer(20))
	}

	blocks = append(blocks,
		spacer(30),
		Block{Kind: KindFooter, Text: "CV generated on " + generatedAt.Format("02/01/2006")},
	)

	return Document{
		Page:        A4,
		Title:       title,
		GeneratedAt: generatedAt,
		Blocks:      blocks,
	}
}

func personalTable(p resume.Person) *Table {
	rows := [][]string{
		{"Date of Birth:", p.BirthDate.Format("02/01/2006")},
		{"Phone Number:", p.Phone},
		{"Guardian's Name:", p.GuardianName},
	}
	if p.MaritalStatus == resume.Married {
		rows = append(rows,
			[]string{"Marital Status:", string(resume.Married)},
			[]string{"Spouse's Name:", p.SpouseName},
		)
	} else {
		rows = append(rows, []string{"Marital Status:", string(resume.Single)})
	}

	return &Table{
		Style:        TableKeyValue,
		Rows:         rows,
		ColumnWidths: []float64{2, 4},
	}
}

// educationTable 按固定的高到低顺序输出，与录入顺序无关。
func educationTable(rec resume.Record) *Table {
	rows := make([][]string, 0, len(rec.Education))
	for _, level := range resume.DescendingQualifications() {
		entry, ok := rec.EducationFor(level)
		if !ok {
			continue
		}
		spec := entry.Specialization
		if spec == "" {
			spec = specializationPlaceholder
		}
		rows = append(rows, []string{level.Label(), entry.Institution, fmt.Sprint(entry.Year), spec})
	}

	return &Table{
		Style:        TableGrid,
		Header:       []string{"Qualification", "Institution/Board", "Year", "Specialization"},
		Rows:         rows,
		ColumnWidths: []float64{1.5, 2.5, 1, 2},
	}
}

func experienceBlocks(job resume.EmploymentEntry) []Block {
	out := []Block{
		{Kind: KindParagraph, Runs: []Run{
			{Text: job.Position, Bold: true},
			{Text: " at "},
			{Text: job.Company, Bold: true},
		}},
		{Kind: KindParagraph, Text: fmt.Sprintf("Duration: %s - %s", job.Start.Format("01/2006"), job.End.Format("01/2006"))},
	}
	if job.Responsibilities != "" {
		out = append(out,
			Block{Kind: KindParagraph, Runs: []Run{{Text: "Key Responsibilities:", Bold: true}}},
			Block{Kind: KindParagraph, Text: job.Responsibilities},
		)
	}
	return out
}

func spacer(pt float64) Block {
	return Block{Kind: KindSpacer, Height: pt}
}
