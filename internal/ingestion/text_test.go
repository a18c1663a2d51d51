package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText_PreserveMarkdownHeadings(t *testing.T) {
	result := CleanText("  # Title\n## Subtitle\nContent here")
	assert.Equal(t, "# Title\n## Subtitle\nContent here", result)
}

func TestCleanText_PreserveBulletLists(t *testing.T) {
	result := CleanText("- Item 1\n  - Nested   item\n* Item 3")
	assert.Equal(t, "- Item 1\n  - Nested item\n* Item 3", result)
}

func TestCleanText_NormalizeWhitespace(t *testing.T) {
	result := CleanText("Line    with \t multiple    spaces   ")
	assert.Equal(t, "Line with multiple spaces", result)
}

func TestCleanText_RemoveExcessiveBlankLines(t *testing.T) {
	result := CleanText("Line 1\n\n\n\n\nLine 2")
	assert.Equal(t, "Line 1\n\nLine 2", result)
}

func TestCleanText_NormalizeLineEndings(t *testing.T) {
	result := CleanText("Line 1\r\nLine 2\rLine 3\nLine 4")
	assert.Equal(t, "Line 1\nLine 2\nLine 3\nLine 4", result)
}

func TestCleanText_NonBreakingSpaces(t *testing.T) {
	assert.Equal(t, "Jane Doe", CleanText("Jane\u00a0 Doe"))
}

func TestCleanText_EmptyAndWhitespace(t *testing.T) {
	assert.Empty(t, CleanText(""))
	assert.Empty(t, CleanText("   \n  \n  "))
}

func TestCleanText_SpecialCharacters(t *testing.T) {
	input := "Test with émojis 🚀 and spéciàl chàracters"
	assert.Equal(t, input, CleanText(input))
}

func TestCleanText_Deterministic(t *testing.T) {
	input := "Test content   with   spaces\n\n\nMultiple   blank   lines"
	assert.Equal(t, CleanText(input), CleanText(CleanText(input)))
}

func TestIngestFromFile_Success(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.txt")
	require.NoError(t, os.WriteFile(path, []byte("Senior   Go Engineer\r\n\r\n\r\n\r\nBuild APIs"), 0o644))

	text, metadata, err := IngestFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Senior Go Engineer\n\nBuild APIs", text)
	require.NotNil(t, metadata)
	assert.Equal(t, SourceFile, metadata.Source)
	assert.Equal(t, path, metadata.Location)
	assert.Len(t, metadata.Hash, 64)
}

func TestIngestFromFile_FileNotFound(t *testing.T) {
	_, _, err := IngestFromFile(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}
