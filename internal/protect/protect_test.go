package protect

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSamplePDF(t *testing.T, dir string) string {
	t.Helper()
	doc := fpdf.New("P", "mm", "A4", "")
	doc.AddPage()
	doc.SetFont("Helvetica", "B", 16)
	doc.Cell(40, 10, "JANE DOE")
	doc.Ln(12)
	doc.SetFont("Helvetica", "", 11)
	doc.Cell(40, 10, "Date of Birth: 05/03/1990")

	path := filepath.Join(dir, "cv_temp_20261016_093000.pdf")
	require.NoError(t, doc.OutputFileAndClose(path))
	return path
}

func extractedContent(t *testing.T, path string) []string {
	t.Helper()
	outDir := t.TempDir()
	require.NoError(t, api.ExtractContentFile(path, outDir, nil, nil))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var pages []string
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(outDir, e.Name()))
		require.NoError(t, err)
		pages = append(pages, string(data))
	}
	require.NotEmpty(t, pages)
	return pages
}

func TestPassword(t *testing.T) {
	tests := []struct {
		birth time.Time
		want  string
	}{
		{time.Date(1990, time.March, 5, 0, 0, 0, 0, time.UTC), "05031990"},
		{time.Date(2001, time.December, 31, 23, 59, 0, 0, time.UTC), "31122001"},
		{time.Date(1985, time.January, 1, 0, 0, 0, 0, time.UTC), "01011985"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Password(tt.birth))
	}
}

func TestEncryptedPath(t *testing.T) {
	assert.Equal(t, "temp/cv_temp_20261016_093000_encrypted.pdf", EncryptedPath("temp/cv_temp_20261016_093000.pdf"))
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	dir := t.TempDir()
	plain := writeSamplePDF(t, dir)
	password := Password(time.Date(1990, time.March, 5, 0, 0, 0, 0, time.UTC))
	p := New()

	encrypted, err := p.Encrypt(plain, password)
	require.NoError(t, err)
	assert.Equal(t, EncryptedPath(plain), encrypted)
	assert.FileExists(t, encrypted)

	// 无密码无法打开
	assert.Error(t, api.ValidateFile(encrypted, nil))
	assert.True(t, p.Verify(encrypted, password))
	assert.False(t, p.Verify(encrypted, "01011970"))

	decrypted := filepath.Join(dir, "decrypted.pdf")
	require.True(t, p.Decrypt(encrypted, password, decrypted))
	assert.Equal(t, extractedContent(t, plain), extractedContent(t, decrypted))
}

func TestDecrypt_WrongPassword(t *testing.T) {
	dir := t.TempDir()
	p := New()
	encrypted, err := p.Encrypt(writeSamplePDF(t, dir), "05031990")
	require.NoError(t, err)

	assert.False(t, p.Decrypt(encrypted, "06031990", filepath.Join(dir, "out.pdf")))
}

func TestDecrypt_UnencryptedInputIsCopied(t *testing.T) {
	dir := t.TempDir()
	plain := writeSamplePDF(t, dir)
	out := filepath.Join(dir, "copy.pdf")

	require.True(t, New().Decrypt(plain, "whatever", out))

	want, err := os.ReadFile(plain)
	require.NoError(t, err)
	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEncrypt_Failures(t *testing.T) {
	dir := t.TempDir()
	p := New()

	_, err := p.Encrypt(filepath.Join(dir, "missing.pdf"), "05031990")
	assert.ErrorIs(t, err, ErrProtectionFailed)
	assert.NoFileExists(t, filepath.Join(dir, "missing_encrypted.pdf"))

	notPDF := filepath.Join(dir, "notes.pdf")
	require.NoError(t, os.WriteFile(notPDF, []byte("plain text"), 0o600))
	_, err = p.Encrypt(notPDF, "05031990")
	assert.ErrorIs(t, err, ErrProtectionFailed)

	_, err = p.Encrypt(writeSamplePDF(t, dir), "")
	assert.ErrorIs(t, err, ErrProtectionFailed)
}
