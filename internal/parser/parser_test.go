package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-rag/internal/models"
)

func TestSupported(t *testing.T) {
	s := NewSource()
	assert.True(t, s.Supported("report.pdf"))
	assert.True(t, s.Supported("REPORT.PDF"))
	assert.True(t, s.Supported("notes.md"))
	assert.False(t, s.Supported("archive.tar.gz"))
	assert.False(t, s.Supported("noextension"))
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	s := NewSource()
	_, err := s.Extract("image.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrExtraction)
}

func TestExtract_Text(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello\r\nworld\n\n\n\nend\n"), 0o644))

	s := NewSource()
	ext, err := s.Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld\n\nend", ext.Text)
	assert.Equal(t, 1, ext.PageCount)
}

func TestExtract_MissingFile(t *testing.T) {
	s := NewSource()
	_, err := s.Extract(filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrExtraction)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a\nb", CleanText("a\r\nb"))
	assert.Equal(t, "a\n\nb", CleanText("a\n\n\n\n\nb"))
	assert.Equal(t, "", CleanText("  \n \t "))
}
