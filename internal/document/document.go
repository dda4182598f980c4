// Package document turns a validated resume.Record into a rendering-ready
// description of the CV: an ordered list of blocks on an A4 page.
package document

import (
	"strings"
	"time"
)

// BlockKind 标识块的类型，渲染器按类型决定样式。
type BlockKind string

const (
	KindTitle     BlockKind = "title"
	KindHeading   BlockKind = "heading"
	KindTable     BlockKind = "table"
	KindParagraph BlockKind = "paragraph"
	KindSpacer    BlockKind = "spacer"
	KindFooter    BlockKind = "footer"
)

// TableStyle 区分两种表格外观。
type TableStyle string

const (
	// TableKeyValue 是两列、首列加粗、整表斑马纹的个人信息表。
	TableKeyValue TableStyle = "key_value"
	// TableGrid 是带深色表头、数据行斑马纹的学历表。
	TableGrid TableStyle = "grid"
)

// Run 是段落中的一段文字，可单独加粗。
type Run struct {
	Text string
	Bold bool
}

// Table 描述一张表。Header 为空时表示没有表头行。
type Table struct {
	Style        TableStyle
	Header       []string
	Rows         [][]string
	ColumnWidths []float64 // inches
}

// Block 是文档中的一个元素。Spacer 只使用 Height（单位 pt）。
type Block struct {
	Kind   BlockKind
	Text   string
	Runs   []Run
	Table  *Table
	Height float64
}

// PlainText concatenates the runs of a paragraph, or returns Text.
func (b Block) PlainText() string {
	if len(b.Runs) == 0 {
		return b.Text
	}
	var sb strings.Builder
	for _, r := range b.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Page 描述纸张尺寸与页边距。
type Page struct {
	WidthInches  float64
	HeightInches float64
	MarginInches float64
}

// A4 with 0.75 inch margins on every side.
var A4 = Page{WidthInches: 8.27, HeightInches: 11.69, MarginInches: 0.75}

// Document 由 Assemble 一次性构造，之后只读。
type Document struct {
	Page        Page
	Title       string
	GeneratedAt time.Time
	Blocks      []Block
}

// Headings returns the section headings in order.
func (d Document) Headings() []string {
	var out []string
	for _, b := range d.Blocks {
		if b.Kind == KindHeading {
			out = append(out, b.Text)
		}
	}
	return out
}

// TableAfter returns the first table that follows the given heading.
func (d Document) TableAfter(heading string) (*Table, bool) {
	found := false
	for _, b := range d.Blocks {
		if b.Kind == KindHeading {
			found = b.Text == heading
			continue
		}
		if found && b.Kind == KindTable {
			return b.Table, true
		}
	}
	return nil, false
}
