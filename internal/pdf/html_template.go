package pdf

import (
	"bytes"
	"fmt"
	"html/template"

	"cvWizard/internal/document"
)

// cvTemplateString 是 Chromium 渲染用的 HTML 模板。
// 版式需与 NativeRenderer 保持一致：深蓝标题、灰底节标题、带网格的表格。
const cvTemplateString = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <style>
        @page { size: A4; }
        body {
            margin: 0;
            font-family: Helvetica, Arial, sans-serif;
            font-size: 11pt;
            color: #000;
        }
        h1.cv-title {
            text-align: center;
            font-size: 20pt;
            color: #00008b;
            margin: 0 0 30pt 0;
        }
        h2.cv-heading {
            font-size: 14pt;
            color: #00008b;
            background: #d3d3d3;
            border: 1px solid #00008b;
            padding: 5pt;
            margin: 20pt 0 10pt 0;
        }
        table.cv-table {
            border-collapse: collapse;
            page-break-inside: avoid;
        }
        table.cv-table td, table.cv-table th {
            border: 1px solid #000;
            padding: 3pt 5pt;
        }
        table.key_value td { font-size: 11pt; text-align: left; }
        table.key_value td:first-child { font-weight: bold; }
        table.key_value tr:nth-child(even) td { background: #d3d3d3; }
        table.grid th {
            background: #00008b;
            color: #f5f5f5;
            font-weight: bold;
            font-size: 10pt;
        }
        table.grid td { font-size: 10pt; text-align: center; }
        table.grid tbody tr:nth-child(even) td { background: #d3d3d3; }
        p.cv-paragraph {
            margin: 0 0 8pt 0;
            text-align: justify;
            white-space: pre-wrap;
        }
        p.cv-footer {
            text-align: center;
            font-size: 9pt;
            color: #808080;
        }
    </style>
</head>
<body>
{{range .Blocks}}
    {{if eq .Kind "title"}}
    <h1 class="cv-title">{{.Text}}</h1>
    {{else if eq .Kind "heading"}}
    <h2 class="cv-heading">{{.Text}}</h2>
    {{else if eq .Kind "table"}}
    {{$widths := .Table.ColumnWidths}}
    <table class="cv-table {{.Table.Style}}">
        {{with .Table.Header}}
        <thead><tr>{{range $i, $h := .}}<th style="width: {{inches $widths $i}}">{{$h}}</th>{{end}}</tr></thead>
        {{end}}
        <tbody>
        {{range .Table.Rows}}
            <tr>{{range $i, $cell := .}}<td style="width: {{inches $widths $i}}">{{$cell}}</td>{{end}}</tr>
        {{end}}
        </tbody>
    </table>
    {{else if eq .Kind "paragraph"}}
    <p class="cv-paragraph">{{if .Runs}}{{range .Runs}}{{if .Bold}}<b>{{.Text}}</b>{{else}}{{.Text}}{{end}}{{end}}{{else}}{{.Text}}{{end}}</p>
    {{else if eq .Kind "spacer"}}
    <div style="height: {{.Height}}pt"></div>
    {{else if eq .Kind "footer"}}
    <p class="cv-footer">{{.Text}}</p>
    {{end}}
{{end}}
</body>
</html>
`

var cvTemplate = template.Must(template.New("cv").Funcs(template.FuncMap{
	"inches": func(widths []float64, i int) template.CSS {
		if i < 0 || i >= len(widths) {
			return template.CSS("auto")
		}
		return template.CSS(fmt.Sprintf("%.2fin", widths[i]))
	},
}).Parse(cvTemplateString))

// BuildHTML 将文档描述填充进 HTML 模板。
func BuildHTML(doc document.Document) (string, error) {
	var buf bytes.Buffer
	if err := cvTemplate.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("execute cv template: %w", err)
	}
	return buf.String(), nil
}
