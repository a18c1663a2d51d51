// Package ingestion normalizes text coming into the system: extracted résumé text,
// pasted job descriptions, and job postings fetched from the web.
package ingestion

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	multiSpace  = regexp.MustCompile(`[ \t]+`)
	blankLines3 = regexp.MustCompile(`\n\n\n+`)
)

// CleanText normalizes line endings and whitespace while keeping line structure.
// Headings and bullet markers survive; runs of three or more blank lines collapse to one.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.ReplaceAll(content, "\u00a0", " ")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := blankLines3.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine collapses inner whitespace but keeps leading indentation,
// which carries meaning for nested bullets.
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return ""
	}

	// markdown headings lose their indentation
	if strings.HasPrefix(trimmed, "#") {
		return multiSpace.ReplaceAllString(trimmed, " ")
	}

	indent := len(line) - len(trimmed)
	return strings.Repeat(" ", indent) + multiSpace.ReplaceAllString(trimmed, " ")
}

// IngestFromFile reads a text file holding a job description and returns cleaned text with metadata.
func IngestFromFile(path string) (string, *Metadata, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("file not found: %w", err)
		}
		return "", nil, fmt.Errorf("failed to read file: %w", err)
	}

	cleaned := CleanText(string(content))
	metadata := NewMetadata(cleaned, SourceFile)
	metadata.Location = path
	return cleaned, metadata, nil
}
