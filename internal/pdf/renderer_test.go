package pdf

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvWizard/internal/document"
	"cvWizard/internal/resume"
)

func init() {
	api.DisableConfigDir()
}

func sampleDocument(jobs int) document.Document {
	rec := resume.Record{
		Person: resume.Person{
			Name:          "Zoë O'Neil",
			Phone:         "9876543210",
			BirthDate:     time.Date(1992, time.January, 31, 0, 0, 0, 0, time.UTC),
			MaritalStatus: resume.Single,
			GuardianName:  "Pat O'Neil",
		},
		Highest: resume.Bachelors,
		Education: []resume.EducationEntry{
			{Level: resume.Tenth, Institution: "State Board", Year: 2007},
			{Level: resume.Twelfth, Institution: "State Board", Year: 2009, Specialization: "Commerce"},
			{Level: resume.Diploma, Institution: "City Polytechnic Institute of Applied Engineering and Technology", Year: 2011},
			{Level: resume.Bachelors, Institution: "University <of> Somewhere", Year: 2014, Specialization: "Economics"},
		},
	}
	for i := 0; i < jobs; i++ {
		rec.Employment = append(rec.Employment, resume.EmploymentEntry{
			Company:          "Initech",
			Position:         "Analyst",
			Start:            time.Date(2014, time.June, 1, 0, 0, 0, 0, time.UTC),
			End:              time.Date(2016, time.May, 1, 0, 0, 0, 0, time.UTC),
			Responsibilities: strings.Repeat("Prepared quarterly reports and reconciled ledgers. ", 8),
		})
	}
	return document.Assemble(rec, time.Date(2026, time.October, 16, 0, 0, 0, 0, time.UTC))
}

func TestNewRenderer(t *testing.T) {
	r, err := NewRenderer("native")
	require.NoError(t, err)
	assert.IsType(t, &NativeRenderer{}, r)

	r, err = NewRenderer("")
	require.NoError(t, err)
	assert.IsType(t, &NativeRenderer{}, r)

	r, err = NewRenderer("chromium")
	require.NoError(t, err)
	assert.IsType(t, &ChromiumRenderer{}, r)

	_, err = NewRenderer("latex")
	assert.Error(t, err)
}

func TestNativeRenderer_WritesValidPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv.pdf")
	require.NoError(t, NewNativeRenderer().RenderFile(context.Background(), sampleDocument(1), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"))

	require.NoError(t, api.ValidateFile(path, nil))
	pages, err := api.PageCountFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
}

func TestNativeRenderer_FlowsOntoNewPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "long.pdf")
	require.NoError(t, NewNativeRenderer().RenderFile(context.Background(), sampleDocument(10), path))

	pages, err := api.PageCountFile(path)
	require.NoError(t, err)
	assert.Greater(t, pages, 1)
}

func TestNativeRenderer_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "cv.pdf")
	err := NewNativeRenderer().RenderFile(ctx, sampleDocument(0), path)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, path)
}

func TestNativeRenderer_KeepsNonLatinCharacters(t *testing.T) {
	doc := document.Assemble(resume.Record{
		Person: resume.Person{
			Name:          "Ābhinesh Śekar",
			Phone:         "9876543210",
			BirthDate:     time.Date(1992, time.January, 31, 0, 0, 0, 0, time.UTC),
			MaritalStatus: resume.Single,
			GuardianName:  "Łukasz Śekar",
		},
		Highest:   resume.Tenth,
		Education: []resume.EducationEntry{{Level: resume.Tenth, Institution: "Kraków Board", Year: 2007}},
	}, time.Date(2026, time.October, 16, 0, 0, 0, 0, time.UTC))

	path := filepath.Join(t.TempDir(), "cv.pdf")
	require.NoError(t, NewNativeRenderer().RenderFile(context.Background(), doc, path))
	require.NoError(t, api.ValidateFile(path, nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "/Identity-H", "text uses an embedded unicode font")
	assert.Contains(t, string(raw), "/FontFile2")
	assert.NotContains(t, string(raw), "/Helvetica")

	outDir := t.TempDir()
	require.NoError(t, api.ExtractContentFile(path, outDir, nil, nil))
	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	content, err := os.ReadFile(filepath.Join(outDir, entries[0].Name()))
	require.NoError(t, err)
	assert.NotContains(t, string(content), ".BHINESH")
	assert.NotContains(t, string(content), ".EKAR")
}

func TestWrap_SplitsOnRuneBoundaries(t *testing.T) {
	w := NewNativeRenderer().newWriter(document.A4)
	w.pdf.SetFont(w.family, "", 10)

	word := strings.Repeat("Śē", 40)
	lines := w.wrap(word, 20)
	require.Greater(t, len(lines), 1)
	for _, line := range lines {
		assert.True(t, utf8.ValidString(line), "line %q", line)
	}
	assert.Equal(t, word, strings.Join(lines, ""))
}

func TestBuildHTML(t *testing.T) {
	html, err := BuildHTML(sampleDocument(1))
	require.NoError(t, err)

	assert.Contains(t, html, "@page { size: A4; }")
	assert.Contains(t, html, `<h1 class="cv-title">ZOË O&#39;NEIL</h1>`)
	assert.Contains(t, html, `<h2 class="cv-heading">EDUCATIONAL QUALIFICATIONS</h2>`)
	assert.Contains(t, html, "<b>Analyst</b> at <b>Initech</b>")
	assert.Contains(t, html, "University &lt;of&gt; Somewhere")
	assert.Contains(t, html, "width: 2.50in")
	assert.Contains(t, html, `<p class="cv-footer">CV generated on 16/10/2026</p>`)
}

func TestChromiumRenderer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	if _, ok := launcher.LookPath(); !ok {
		t.Skip("no chromium binary available")
	}

	path := filepath.Join(t.TempDir(), "cv.pdf")
	require.NoError(t, NewChromiumRenderer().RenderFile(context.Background(), sampleDocument(1), path))
	require.NoError(t, api.ValidateFile(path, nil))
}
