package generator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvWizard/internal/document"
	"cvWizard/internal/pdf"
	"cvWizard/internal/protect"
	"cvWizard/internal/resume"
)

var fixedNow = time.Date(2026, time.October, 16, 9, 30, 15, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleRecord() resume.Record {
	return resume.Record{
		Person: resume.Person{
			Name:          "Jane Doe",
			Phone:         "5551234",
			BirthDate:     time.Date(1990, time.March, 5, 0, 0, 0, 0, time.UTC),
			MaritalStatus: resume.Single,
			GuardianName:  "John Doe",
		},
		Highest: resume.Twelfth,
		Education: []resume.EducationEntry{
			{Level: resume.Tenth, Institution: "CBSE", Year: 2006},
			{Level: resume.Twelfth, Institution: "CBSE", Year: 2008, Specialization: "Science"},
		},
	}
}

type fakeRenderer struct {
	err  error
	docs []document.Document
	path string
}

func (r *fakeRenderer) RenderFile(_ context.Context, doc document.Document, path string) error {
	r.docs = append(r.docs, doc)
	r.path = path
	if r.err != nil {
		return r.err
	}
	return os.WriteFile(path, []byte("%PDF-fake "+doc.Title), 0o600)
}

type fakeProtector struct {
	err      error
	password string
}

func (p *fakeProtector) Encrypt(inPath, password string) (string, error) {
	p.password = password
	if p.err != nil {
		return "", p.err
	}
	data, err := os.ReadFile(inPath)
	if err != nil {
		return "", err
	}
	out := protect.EncryptedPath(inPath)
	return out, os.WriteFile(out, append([]byte("locked:"), data...), 0o600)
}

type fakeForwarder struct {
	folderErr error
	uploadErr error
	linkErr   error

	folders  []string
	uploaded map[string][]byte
}

func (f *fakeForwarder) Name() string { return "fake" }
func (f *fakeForwarder) TestConnection(context.Context) error { return nil }

func (f *fakeForwarder) Upload(_ context.Context, localPath, folder, filename string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", err
	}
	if f.uploaded == nil {
		f.uploaded = map[string][]byte{}
	}
	remote := folder + filename
	f.uploaded[remote] = data
	return remote, nil
}

func (f *fakeForwarder) CreateFolder(_ context.Context, folder string) error {
	f.folders = append(f.folders, folder)
	return f.folderErr
}

func (f *fakeForwarder) ListFiles(context.Context, string) ([]string, error) { return nil, nil }

func (f *fakeForwarder) TemporaryLink(_ context.Context, path string) (string, error) {
	if f.linkErr != nil {
		return "", f.linkErr
	}
	return "https://example.com/dl" + path, nil
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp files left behind")
}

func TestRun_WithoutForwarding(t *testing.T) {
	dir := t.TempDir()
	renderer := &fakeRenderer{}
	protector := &fakeProtector{}
	p := New(renderer, protector, dir, discardLogger(), WithClock(func() time.Time { return fixedNow }))

	art, err := p.Run(context.Background(), sampleRecord())
	require.NoError(t, err)

	assert.Equal(t, "Jane-Doe-5551234.pdf", art.Filename)
	assert.Equal(t, "locked:%PDF-fake JANE DOE", string(art.Content))
	assert.Equal(t, fixedNow, art.GeneratedAt)
	assert.False(t, art.Forward.Attempted)
	assert.Equal(t, "05031990", protector.password)
	assert.False(t, p.ForwardingEnabled())

	require.Len(t, renderer.docs, 1)
	assert.Equal(t, fixedNow, renderer.docs[0].GeneratedAt)
	assert.True(t, strings.HasPrefix(filepath.Base(renderer.path), "cv_temp_20261016_093015_"))
	assertEmptyDir(t, dir)
}

func TestRun_ForwardsToNormalizedFolder(t *testing.T) {
	dir := t.TempDir()
	fwd := &fakeForwarder{}
	p := New(&fakeRenderer{}, &fakeProtector{}, dir, discardLogger(), WithForwarder(fwd, "CVs//"))
	require.True(t, p.ForwardingEnabled())

	art, err := p.Run(context.Background(), sampleRecord())
	require.NoError(t, err)

	assert.Equal(t, []string{"/CVs/"}, fwd.folders)
	assert.Equal(t, art.Content, fwd.uploaded["/CVs/Jane-Doe-5551234.pdf"])
	assert.Equal(t, ForwardReport{
		Attempted: true,
		OK:        true,
		Backend:   "fake",
		Path:      "/CVs/Jane-Doe-5551234.pdf",
		Link:      "https://example.com/dl/CVs/Jane-Doe-5551234.pdf",
	}, art.Forward)
	assertEmptyDir(t, dir)
}

func TestRun_ForwardFailureKeepsDownload(t *testing.T) {
	tests := []struct {
		name    string
		fwd     *fakeForwarder
		wantOK  bool
		warning string
	}{
		{"folder", &fakeForwarder{folderErr: errors.New("insufficient_space")}, false, "could not prepare folder"},
		{"upload", &fakeForwarder{uploadErr: errors.New("invalid_access_token")}, false, "upload failed"},
		{"link", &fakeForwarder{linkErr: errors.New("path/not_found")}, true, "temporary link unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			p := New(&fakeRenderer{}, &fakeProtector{}, dir, discardLogger(), WithForwarder(tt.fwd, "/CVs/"))

			art, err := p.Run(context.Background(), sampleRecord())
			require.NoError(t, err)
			assert.NotEmpty(t, art.Content)
			assert.True(t, art.Forward.Attempted)
			assert.Equal(t, tt.wantOK, art.Forward.OK)
			assert.Contains(t, art.Forward.Warning, tt.warning)
			assertEmptyDir(t, dir)
		})
	}
}

func TestRun_RenderFailure(t *testing.T) {
	dir := t.TempDir()
	protector := &fakeProtector{}
	p := New(&fakeRenderer{err: errors.New("chromium crashed")}, protector, dir, discardLogger())

	_, err := p.Run(context.Background(), sampleRecord())
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, StageRender, genErr.Stage)
	assert.Empty(t, protector.password, "protect must not run after a render failure")
	assertEmptyDir(t, dir)
}

func TestRun_ProtectFailure(t *testing.T) {
	dir := t.TempDir()
	fwd := &fakeForwarder{}
	p := New(&fakeRenderer{}, &fakeProtector{err: protect.ErrProtectionFailed}, dir, discardLogger(), WithForwarder(fwd, "/"))

	_, err := p.Run(context.Background(), sampleRecord())
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, StageProtect, genErr.Stage)
	assert.ErrorIs(t, err, protect.ErrProtectionFailed)
	assert.Empty(t, fwd.folders)
	assertEmptyDir(t, dir)
}

func TestRun_EndToEndWithNativeRenderer(t *testing.T) {
	dir := t.TempDir()
	p := New(pdf.NewNativeRenderer(), protect.New(), dir, discardLogger())

	art, err := p.Run(context.Background(), sampleRecord())
	require.NoError(t, err)
	assertEmptyDir(t, dir)

	out := filepath.Join(t.TempDir(), art.Filename)
	require.NoError(t, os.WriteFile(out, art.Content, 0o600))
	prot := protect.New()
	assert.True(t, prot.Verify(out, "05031990"))
	assert.False(t, prot.Verify(out, "06031990"))
}
