package archive

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/rubric-grader/internal/grading"
)

// buildZip assembles an in-memory archive from name to content.
func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestAllowedUpload(t *testing.T) {
	assert.True(t, AllowedUpload("homework.pdf"))
	assert.True(t, AllowedUpload("Batch.ZIP"))
	assert.False(t, AllowedUpload("notes.txt"))
	assert.False(t, AllowedUpload("archive.tar.gz"))
	assert.False(t, AllowedUpload("no_extension"))
}

func TestIsZip_SniffsContentNotExtension(t *testing.T) {
	zipData := buildZip(t, map[string]string{"a.pdf": "%PDF-1.4"})

	assert.True(t, IsZip(zipData))
	assert.False(t, IsZip([]byte("%PDF-1.4 plain document")))
}

func TestFromUpload_SinglePDF(t *testing.T) {
	subs, err := FromUpload("essay.pdf", []byte("%PDF-1.4 content"), DefaultLimits(), zerolog.Nop())

	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "essay.pdf", subs[0].Name)
	assert.Equal(t, []byte("%PDF-1.4 content"), subs[0].Data)
}

func TestFromUpload_StripsDirectoryFromName(t *testing.T) {
	subs, err := FromUpload("uploads/spring/essay.pdf", []byte("%PDF"), DefaultLimits(), zerolog.Nop())

	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "essay.pdf", subs[0].Name)
}

func TestFromUpload_UnsupportedExtension(t *testing.T) {
	_, err := FromUpload("notes.docx", []byte("data"), DefaultLimits(), zerolog.Nop())

	require.Error(t, err)
	var inputErr *grading.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestFromUpload_ZipExplodesToPDFs(t *testing.T) {
	data := buildZip(t, map[string]string{
		"hw1.pdf":          "%PDF one",
		"subdir/hw2.pdf":   "%PDF two",
		"readme.txt":       "ignore me",
		"__MACOSX/hw1.pdf": "resource fork",
		"subdir/.DS_Store": "junk",
		"image.png":        "not a pdf",
	})

	subs, err := FromUpload("batch.zip", data, DefaultLimits(), zerolog.Nop())

	require.NoError(t, err)
	require.Len(t, subs, 2)
	names := []string{subs[0].Name, subs[1].Name}
	assert.Contains(t, names, "hw1.pdf")
	assert.Contains(t, names, "hw2.pdf")
}

func TestFromUpload_ZipEntryCap(t *testing.T) {
	entries := make(map[string]string)
	for i := 0; i < 10; i++ {
		entries[strings.Repeat("a", i+1)+".pdf"] = "%PDF"
	}
	data := buildZip(t, entries)

	limits := Limits{MaxFileBytes: 1 << 20, MaxEntries: 3}
	subs, err := FromUpload("batch.zip", data, limits, zerolog.Nop())

	require.NoError(t, err)
	assert.Len(t, subs, 3)
}

func TestFromUpload_ZipSkipsOversizedEntry(t *testing.T) {
	data := buildZip(t, map[string]string{
		"small.pdf": "tiny",
		"big.pdf":   strings.Repeat("x", 100),
	})

	limits := Limits{MaxFileBytes: 50, MaxEntries: 100}
	subs, err := FromUpload("batch.zip", data, limits, zerolog.Nop())

	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "small.pdf", subs[0].Name)
}

func TestFromUpload_CorruptZip(t *testing.T) {
	// Zip magic bytes but truncated central directory.
	data := append([]byte("PK\x03\x04"), bytes.Repeat([]byte{0}, 30)...)
	if !IsZip(data) {
		t.Skip("detector did not classify the stub as zip")
	}

	_, err := FromUpload("batch.zip", data, DefaultLimits(), zerolog.Nop())

	require.Error(t, err)
	var inputErr *grading.InputError
	assert.ErrorAs(t, err, &inputErr)
}

func TestFromUpload_EmptyZipYieldsNoSubmissions(t *testing.T) {
	data := buildZip(t, map[string]string{"notes.txt": "no pdfs here"})

	subs, err := FromUpload("batch.zip", data, DefaultLimits(), zerolog.Nop())

	require.NoError(t, err)
	assert.Empty(t, subs)
}
