package pdf

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"cvWizard/internal/document"
)

const (
	mmPerInch = 25.4
	mmPerPt   = mmPerInch / 72

	cellPadding = 1.5
	bodyLineMM  = 5.5
)

type rgb struct{ r, g, b int }

var (
	colorDarkBlue   = rgb{0, 0, 139}
	colorLightGrey  = rgb{211, 211, 211}
	colorWhiteSmoke = rgb{245, 245, 245}
	colorGrey       = rgb{128, 128, 128}
	colorBlack      = rgb{0, 0, 0}
	colorWhite      = rgb{255, 255, 255}
)

// NativeRenderer 直接用 fpdf 排版，不依赖外部浏览器。
// 使用内嵌的 Go 字体（UTF-8），核心字体只支持 cp1252。
type NativeRenderer struct {
	fontFamily string
}

func NewNativeRenderer() *NativeRenderer {
	return &NativeRenderer{fontFamily: "GoSans"}
}

// RenderFile 渲染文档并写入 path。
func (r *NativeRenderer) RenderFile(ctx context.Context, doc document.Document, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w := r.newWriter(doc.Page)
	for _, block := range doc.Blocks {
		switch block.Kind {
		case document.KindTitle:
			w.title(block.Text)
		case document.KindHeading:
			w.heading(block.Text)
		case document.KindTable:
			if block.Table != nil {
				w.table(*block.Table)
			}
		case document.KindParagraph:
			w.paragraph(block)
		case document.KindSpacer:
			w.pdf.Ln(block.Height * mmPerPt)
		case document.KindFooter:
			w.footer(block.Text)
		}
		if w.pdf.Err() {
			return fmt.Errorf("layout %s block: %w", block.Kind, w.pdf.Error())
		}
	}

	if err := w.pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf file: %w", err)
	}
	return nil
}

type pageWriter struct {
	pdf    *fpdf.Fpdf
	family string

	left, right, bottom float64
	pageW, pageH        float64
}

func (r *NativeRenderer) newWriter(page document.Page) *pageWriter {
	margin := page.MarginInches * mmPerInch
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size: fpdf.SizeType{
			Wd: page.WidthInches * mmPerInch,
			Ht: page.HeightInches * mmPerInch,
		},
	})
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetCreator("cvWizard", true)
	pdf.AddUTF8FontFromBytes(r.fontFamily, "", goregular.TTF)
	pdf.AddUTF8FontFromBytes(r.fontFamily, "B", gobold.TTF)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	return &pageWriter{
		pdf:    pdf,
		family: r.fontFamily,
		left:   margin,
		right:  margin,
		bottom: margin,
		pageW:  pageW,
		pageH:  pageH,
	}
}

func (w *pageWriter) contentWidth() float64 {
	return w.pageW - w.left - w.right
}

func (w *pageWriter) textColor(c rgb) { w.pdf.SetTextColor(c.r, c.g, c.b) }
func (w *pageWriter) fillColor(c rgb) { w.pdf.SetFillColor(c.r, c.g, c.b) }
func (w *pageWriter) drawColor(c rgb) { w.pdf.SetDrawColor(c.r, c.g, c.b) }

func (w *pageWriter) title(text string) {
	w.pdf.SetFont(w.family, "B", 20)
	w.textColor(colorDarkBlue)
	w.pdf.MultiCell(0, 10, text, "", "C", false)
	w.pdf.Ln(30 * mmPerPt)
	w.textColor(colorBlack)
}

func (w *pageWriter) heading(text string) {
	w.ensureSpace(10 + 10*mmPerPt)
	w.pdf.SetFont(w.family, "B", 14)
	w.textColor(colorDarkBlue)
	w.fillColor(colorLightGrey)
	w.drawColor(colorDarkBlue)
	w.pdf.CellFormat(0, 9, text, "1", 1, "L", true, 0, "")
	w.pdf.Ln(10 * mmPerPt)
	w.textColor(colorBlack)
	w.drawColor(colorBlack)
}

func (w *pageWriter) footer(text string) {
	w.pdf.SetFont(w.family, "", 9)
	w.textColor(colorGrey)
	w.pdf.MultiCell(0, 5, text, "", "C", false)
	w.textColor(colorBlack)
}

func (w *pageWriter) paragraph(b document.Block) {
	if len(b.Runs) == 0 {
		w.pdf.SetFont(w.family, "", 11)
		w.pdf.MultiCell(0, bodyLineMM, b.Text, "", "J", false)
	} else {
		for _, run := range b.Runs {
			style := ""
			if run.Bold {
				style = "B"
			}
			w.pdf.SetFont(w.family, style, 11)
			w.pdf.Write(bodyLineMM, run.Text)
		}
		w.pdf.Ln(bodyLineMM)
	}
	w.pdf.Ln(8 * mmPerPt)
}

func (w *pageWriter) table(t document.Table) {
	widths := w.columnWidths(t)

	fontSize := 10.0
	if t.Style == document.TableKeyValue {
		fontSize = 11
	}
	lineH := fontSize * mmPerPt * 1.3

	if len(t.Header) > 0 {
		w.tableRow(t.Header, widths, lineH, rowStyle{
			fontStyle: "B",
			fontSize:  10,
			fill:      colorDarkBlue,
			text:      colorWhiteSmoke,
			align:     "C",
		})
	}

	for i, row := range t.Rows {
		style := rowStyle{fontSize: fontSize, fill: colorWhite, text: colorBlack, align: "C"}
		if t.Style == document.TableKeyValue {
			style.align = "L"
			style.boldFirst = true
		}
		// 斑马纹：数据行从第二行起隔行灰底
		if i%2 == 1 {
			style.fill = colorLightGrey
		}
		w.tableRow(row, widths, lineH, style)
	}
	w.textColor(colorBlack)
}

type rowStyle struct {
	fontStyle string
	fontSize  float64
	fill      rgb
	text      rgb
	align     string
	boldFirst bool
}

func (w *pageWriter) tableRow(cells []string, widths []float64, lineH float64, style rowStyle) {
	wrapped := make([][]string, len(widths))
	maxLines := 1
	for i := range widths {
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		w.pdf.SetFont(w.family, cellFontStyle(style, i), style.fontSize)
		wrapped[i] = w.wrap(cell, widths[i]-2*cellPadding)
		if len(wrapped[i]) > maxLines {
			maxLines = len(wrapped[i])
		}
	}

	rowH := float64(maxLines)*lineH + 2*cellPadding
	w.ensureSpace(rowH)

	x, y := w.left, w.pdf.GetY()
	w.fillColor(style.fill)
	w.drawColor(colorBlack)
	w.textColor(style.text)
	for i, width := range widths {
		w.pdf.Rect(x, y, width, rowH, "FD")
		w.pdf.SetFont(w.family, cellFontStyle(style, i), style.fontSize)
		w.pdf.SetXY(x+cellPadding, y+cellPadding)
		for _, line := range wrapped[i] {
			w.pdf.CellFormat(width-2*cellPadding, lineH, line, "", 2, style.align, false, 0, "")
		}
		x += width
	}
	w.pdf.SetXY(w.left, y+rowH)
}

func cellFontStyle(style rowStyle, col int) string {
	if style.boldFirst && col == 0 {
		return "B"
	}
	return style.fontStyle
}

// columnWidths 把英寸列宽换算成毫米，超出版心时按比例缩放。
func (w *pageWriter) columnWidths(t document.Table) []float64 {
	cols := len(t.Header)
	for _, row := range t.Rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if len(t.ColumnWidths) > cols {
		cols = len(t.ColumnWidths)
	}
	if cols == 0 {
		return nil
	}

	widths := make([]float64, cols)
	total := 0.0
	for i := range widths {
		if i < len(t.ColumnWidths) && t.ColumnWidths[i] > 0 {
			widths[i] = t.ColumnWidths[i] * mmPerInch
		} else {
			widths[i] = w.contentWidth() / float64(cols)
		}
		total += widths[i]
	}

	if avail := w.contentWidth(); total > avail {
		for i := range widths {
			widths[i] *= avail / total
		}
	}
	return widths
}

func (w *pageWriter) ensureSpace(h float64) {
	if w.pdf.GetY()+h > w.pageH-w.bottom {
		w.pdf.AddPage()
	}
}

// wrap 按当前字体宽度折行，超宽的单词按字符切开。
func (w *pageWriter) wrap(text string, maxW float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		current := ""
		for _, word := range words {
			for w.pdf.GetStringWidth(word) > maxW && utf8.RuneCountInString(word) > 1 {
				if current != "" {
					lines = append(lines, current)
					current = ""
				}
				runes := []rune(word)
				cut := len(runes) - 1
				for cut > 1 && w.pdf.GetStringWidth(string(runes[:cut])) > maxW {
					cut--
				}
				lines = append(lines, string(runes[:cut]))
				word = string(runes[cut:])
			}
			candidate := word
			if current != "" {
				candidate = current + " " + word
			}
			if w.pdf.GetStringWidth(candidate) <= maxW {
				current = candidate
				continue
			}
			lines = append(lines, current)
			current = word
		}
		lines = append(lines, current)
	}
	return lines
}
